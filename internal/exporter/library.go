package exporter

import (
	"context"
	"log/slog"

	"ratingsync/internal/library"
	"ratingsync/internal/logging"
	"ratingsync/internal/ratings"
	"ratingsync/internal/recording"
)

// LibraryMatcher resolves a recording to the library row it should be
// written to.
type LibraryMatcher interface {
	Match(ctx context.Context, rec *recording.Info) (library.Item, bool)
}

// LibraryExporter writes merged ratings back onto library items.
type LibraryExporter struct {
	lib     library.Library
	matcher LibraryMatcher
	logger  *slog.Logger

	// Found and Missing count the outcomes of the last Export.
	Found   int
	Missing int
}

// NewLibraryExporter creates an exporter writing through matcher into
// lib.
func NewLibraryExporter(lib library.Library, matcher LibraryMatcher, logger *slog.Logger) *LibraryExporter {
	return &LibraryExporter{
		lib:     lib,
		matcher: matcher,
		logger:  logging.NewComponentLogger(logger, "library-export"),
	}
}

// Export writes each rated record to its library row, highest ratings
// first. Records without a library row, and records rated zero, are
// counted as missing.
func (exp *LibraryExporter) Export(ctx context.Context, store *ratings.Store) error {
	exp.Found = 0
	exp.Missing = 0

	for _, rec := range sortedRecords(store) {
		if err := ctx.Err(); err != nil {
			return err
		}

		item, ok := exp.matcher.Match(ctx, rec)
		if !ok || rec.Rating == 0 {
			exp.Missing++
			continue
		}

		if err := exp.lib.SetRating(ctx, item.ID, rec.Rating); err != nil {
			return err
		}
		exp.Found++
	}

	exp.logger.Info("library export finished",
		logging.Int("found", exp.Found),
		logging.Int("missing", exp.Missing))
	return nil
}
