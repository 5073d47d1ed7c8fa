package collcache

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"ratingsync/internal/logging"
	"ratingsync/internal/musicbrainz"
	"ratingsync/internal/recording"
)

// pageLimit is the collection page size the web service allows.
const pageLimit = 100

var (
	userHeader       = []string{"name", "mbid", "type"}
	collectionHeader = []string{"title", "length", "mbid"}
)

// Remote is the catalog capability the caches refresh from.
type Remote interface {
	ListCollections(ctx context.Context) ([]musicbrainz.Collection, error)
	CollectionRecordings(ctx context.Context, mbid string, limit, offset int) ([]musicbrainz.CollectionEntry, int, error)
}

// UserCollections returns the user's collection list, served from the
// cache file when possible. A missing, unreadable, or empty cache is
// refilled from the remote and rewritten.
func UserCollections(ctx context.Context, path string, remote Remote, logger *slog.Logger) ([]musicbrainz.Collection, error) {
	logger = logging.NewComponentLogger(logger, "collcache")

	collections, err := loadUserCache(path)
	if err != nil {
		logger.Warn("collection list cache unreadable, refetching",
			logging.String("path", path),
			logging.Error(err))
	}
	if len(collections) > 0 {
		return collections, nil
	}

	collections, err = remote.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}

	if err := saveUserCache(path, collections); err != nil {
		logger.Warn("failed to write collection list cache",
			logging.String("path", path),
			logging.Error(err))
	}
	return collections, nil
}

// RecordingCollection returns the recordings in one collection, served
// from the cache file when possible. An empty but readable cache is
// trusted; the collection may genuinely be empty and refreshing it costs
// a rate-limited call.
func RecordingCollection(ctx context.Context, path, mbid string, remote Remote, logger *slog.Logger) ([]recording.Recording, error) {
	logger = logging.NewComponentLogger(logger, "collcache")

	recordings, err := loadCollectionCache(path)
	if err == nil {
		return recordings, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		logger.Warn("collection cache unreadable, refetching",
			logging.String("path", path),
			logging.Error(err))
	}

	recordings, err = fetchCollection(ctx, mbid, remote, logger)
	if err != nil {
		return nil, err
	}

	if err := saveCollectionCache(path, recordings); err != nil {
		logger.Warn("failed to write collection cache",
			logging.String("path", path),
			logging.Error(err))
	}
	return recordings, nil
}

func fetchCollection(ctx context.Context, mbid string, remote Remote, logger *slog.Logger) ([]recording.Recording, error) {
	recordings := []recording.Recording{}
	offset := 0

	for {
		entries, count, err := remote.CollectionRecordings(ctx, mbid, pageLimit, offset)
		if err != nil {
			return nil, fmt.Errorf("collection recordings: %w", err)
		}
		if len(entries) == 0 {
			break
		}

		for _, entry := range entries {
			if entry.Length == 0 {
				logger.Warn("recording has no length",
					logging.String("title", entry.Title),
					logging.String("mbid", entry.ID))
			}
			recordings = append(recordings, recording.Recording{
				Title:  entry.Title,
				Length: entry.Length / 1000,
				MBID:   entry.ID,
			})
		}

		offset += len(entries)
		if offset >= count {
			break
		}
	}

	return recordings, nil
}

func loadUserCache(path string) ([]musicbrainz.Collection, error) {
	rows, err := readCSV(path, len(userHeader))
	if err != nil {
		return nil, err
	}

	var collections []musicbrainz.Collection
	for _, row := range rows {
		collections = append(collections, musicbrainz.Collection{
			Name:       row[0],
			ID:         row[1],
			EntityType: row[2],
		})
	}
	return collections, nil
}

func saveUserCache(path string, collections []musicbrainz.Collection) error {
	rows := make([][]string, 0, len(collections))
	for _, collection := range collections {
		rows = append(rows, []string{collection.Name, collection.ID, collection.EntityType})
	}
	return writeCSV(path, userHeader, rows)
}

func loadCollectionCache(path string) ([]recording.Recording, error) {
	rows, err := readCSV(path, len(collectionHeader))
	if err != nil {
		return nil, err
	}

	recordings := []recording.Recording{}
	for _, row := range rows {
		length, err := strconv.Atoi(row[1])
		if err != nil {
			return nil, fmt.Errorf("bad length %q for %q", row[1], row[0])
		}
		recordings = append(recordings, recording.Recording{
			Title:  row[0],
			Length: length,
			MBID:   row[2],
		})
	}
	return recordings, nil
}

func saveCollectionCache(path string, recordings []recording.Recording) error {
	rows := make([][]string, 0, len(recordings))
	for _, rec := range recordings {
		rows = append(rows, []string{rec.Title, strconv.Itoa(rec.Length), rec.MBID})
	}
	return writeCSV(path, collectionHeader, rows)
}

func readCSV(path string, fields int) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = fields

	// Header row.
	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}

	var rows [][]string
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func writeCSV(path string, header []string, rows [][]string) error {
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	writer := csv.NewWriter(f)
	if err := writer.Write(header); err != nil {
		f.Close()
		return err
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			f.Close()
			return err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	return os.Rename(tmp, path)
}
