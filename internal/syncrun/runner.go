package syncrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"ratingsync/internal/collcache"
	"ratingsync/internal/logging"
	"ratingsync/internal/matchcache"
	"ratingsync/internal/ratings"
)

// ErrLocked reports that another sync run owns the cache directory.
var ErrLocked = errors.New("another sync run is already in progress")

// Step is one named import or export stage of a run.
type Step struct {
	Name     string
	Importer ratings.Importer
	Exporter ratings.Exporter
}

// Summary describes a finished run.
type Summary struct {
	RunID     string
	Ratings   int
	Conflicts int
	Steps     []string
	Duration  time.Duration

	// SetSizes counts the recordings each source contributed.
	SetSizes map[string]int
	// ConflictRatings maps each conflicted recording id to its
	// source rating snapshot.
	ConflictRatings map[string]map[string]int
}

// Runner executes importers then exporters against a fresh store.
type Runner struct {
	dir       *collcache.Dir
	cache     *matchcache.Cache
	importers []Step
	exporters []Step
	logger    *slog.Logger
}

// New creates a runner. Step order is execution order; the first
// importer to rate a recording wins any disagreement.
func New(dir *collcache.Dir, cache *matchcache.Cache, importers, exporters []Step, logger *slog.Logger) *Runner {
	return &Runner{
		dir:       dir,
		cache:     cache,
		importers: importers,
		exporters: exporters,
		logger:    logging.NewComponentLogger(logger, "syncrun"),
	}
}

// Run executes the sync and returns its summary. The match cache is
// saved even when a step fails; resolution work is never repaid.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	lock := flock.New(r.dir.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}
	defer func() {
		_ = lock.Unlock()
	}()

	runID := uuid.NewString()
	logger := r.logger.With(logging.String(logging.FieldRunID, runID))
	started := time.Now()

	logger.Info("sync run starting",
		logging.Int("importers", len(r.importers)),
		logging.Int("exporters", len(r.exporters)))

	store := ratings.NewStore()
	summary := &Summary{
		RunID:           runID,
		ConflictRatings: make(map[string]map[string]int),
	}

	runErr := r.runSteps(ctx, store, logger, summary)

	if err := r.cache.Save(); err != nil {
		logger.Warn("failed to save match cache", logging.Error(err))
	}

	summary.Ratings = store.Len()
	summary.Conflicts = len(store.Conflicts)
	summary.SetSizes = store.SetSizes()
	summary.Duration = time.Since(started)

	for mbid, conflict := range store.Conflicts {
		summary.ConflictRatings[mbid] = conflict.Ratings
		logger.Warn("rating conflict",
			logging.String("mbid", mbid),
			logging.Any("ratings", conflict.Ratings))
	}

	if runErr != nil {
		return summary, runErr
	}

	logger.Info("sync run finished",
		logging.Int("ratings", summary.Ratings),
		logging.Int("conflicts", summary.Conflicts),
		logging.Duration("duration", summary.Duration))
	return summary, nil
}

func (r *Runner) runSteps(ctx context.Context, store *ratings.Store, logger *slog.Logger, summary *Summary) error {
	for _, step := range r.importers {
		if err := ctx.Err(); err != nil {
			return err
		}

		logger.Info("importing", logging.String("step", step.Name))
		if err := step.Importer.Import(ctx, store); err != nil {
			return fmt.Errorf("import %s: %w", step.Name, err)
		}
		summary.Steps = append(summary.Steps, step.Name)
	}

	for _, step := range r.exporters {
		if err := ctx.Err(); err != nil {
			return err
		}

		logger.Info("exporting", logging.String("step", step.Name))
		if err := step.Exporter.Export(ctx, store); err != nil {
			return fmt.Errorf("export %s: %w", step.Name, err)
		}
		summary.Steps = append(summary.Steps, step.Name)
	}

	return nil
}
