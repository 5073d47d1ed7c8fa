package exporter

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"

	"ratingsync/internal/ratings"
	"ratingsync/internal/recording"
)

var csvHeader = []string{"rating", "artist", "album", "title", "length", "mbid"}

// CSVExporter writes the full store contents to a snapshot file the CSV
// importer can read back.
type CSVExporter struct {
	path string
}

// NewCSVExporter creates an exporter writing to path.
func NewCSVExporter(path string) *CSVExporter {
	return &CSVExporter{path: path}
}

// Export writes every record, ordered by rating descending and then
// artist, album, title ascending.
func (exp *CSVExporter) Export(ctx context.Context, store *ratings.Store) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := os.Create(exp.path)
	if err != nil {
		return fmt.Errorf("create ratings csv: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}

	for _, rec := range sortedRecords(store) {
		row := []string{
			strconv.Itoa(rec.Rating),
			rec.Artist,
			rec.Album,
			rec.Title,
			strconv.Itoa(rec.Length),
			rec.MBID,
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	return f.Close()
}

// sortedRecords orders the store by rating descending, then artist,
// album, and title ascending.
func sortedRecords(store *ratings.Store) []*recording.Info {
	recs := make([]*recording.Info, 0, len(store.Ratings))
	for _, rec := range store.Ratings {
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if a.Rating != b.Rating {
			return a.Rating > b.Rating
		}
		if a.Artist != b.Artist {
			return a.Artist < b.Artist
		}
		if a.Album != b.Album {
			return a.Album < b.Album
		}
		return a.Title < b.Title
	})
	return recs
}
