package importer

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
	"ratingsync/internal/ratings"
	"ratingsync/internal/recording"
)

// csvHeader is the column order for rating snapshot files, shared with
// the CSV exporter.
var csvHeader = []string{"rating", "artist", "album", "title", "length", "mbid"}

// CSVImporter loads ratings from a snapshot file previously produced by
// the CSV exporter.
type CSVImporter struct {
	path   string
	logger *slog.Logger

	// Overwrite lets this importer replace ratings recorded by earlier
	// steps instead of deferring to them.
	Overwrite bool
}

// NewCSVImporter creates an importer reading from path.
func NewCSVImporter(path string, logger *slog.Logger) *CSVImporter {
	return &CSVImporter{
		path:   path,
		logger: logging.NewComponentLogger(logger, "csv-import"),
	}
}

// Import reads every row into the store under the "csv" source. Rows
// that fail to parse are skipped with a warning.
func (imp *CSVImporter) Import(ctx context.Context, store *ratings.Store) error {
	f, err := os.Open(imp.path)
	if err != nil {
		return fmt.Errorf("open ratings csv: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = len(csvHeader)

	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("read ratings csv header: %w", err)
	}

	line := 1
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line++
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			imp.logger.Warn("skipping malformed row",
				logging.Int("line", line),
				logging.Error(err))
			continue
		}

		rating, ratingErr := strconv.Atoi(row[0])
		length, lengthErr := strconv.Atoi(row[4])
		if ratingErr != nil || lengthErr != nil {
			imp.logger.Warn("skipping malformed row",
				logging.Int("line", line),
				logging.String("title", row[3]))
			continue
		}

		rec := recording.NewInfo(row[1], row[2], row[3], length, row[5], rating)
		store.Add(rec, "csv", imp.Overwrite)
	}

	return nil
}
