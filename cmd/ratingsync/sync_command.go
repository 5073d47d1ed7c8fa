package main

import (
	"errors"
	"fmt"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"ratingsync/internal/beetsdb"
	"ratingsync/internal/collcache"
	"ratingsync/internal/config"
	"ratingsync/internal/exporter"
	"ratingsync/internal/importer"
	"ratingsync/internal/lastfm"
	"ratingsync/internal/libmatch"
	"ratingsync/internal/matchcache"
	"ratingsync/internal/musicbrainz"
	"ratingsync/internal/songsearch"
	"ratingsync/internal/syncrun"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	var libraryOnly bool
	var overwrite bool
	var csvIn string
	var csvOut string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Import ratings from every configured source and push the merged result back out",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cmd.Flags().Changed("library-only") {
				cfg.Sync.LibraryOnly = libraryOnly
			}
			if cmd.Flags().Changed("overwrite") {
				cfg.Sync.Overwrite = overwrite
			}
			return runSync(cmd, ctx, cfg, csvIn, csvOut)
		},
	}

	cmd.Flags().BoolVar(&libraryOnly, "library-only", false, "Resolve tracks against the local library only, skipping MusicBrainz search")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Let later sources replace ratings recorded by earlier ones")
	cmd.Flags().StringVar(&csvIn, "csv-in", "", "CSV file of ratings to import before the remote sources")
	cmd.Flags().StringVar(&csvOut, "csv-out", "", "Destination for the exported CSV (default: the cache directory)")

	return cmd
}

func runSync(cmd *cobra.Command, ctx *commandContext, cfg *config.Config, csvIn, csvOut string) error {
	signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger, err := ctx.ensureLogger()
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}

	dir, err := collcache.NewDir(cfg.Paths.CacheDir)
	if err != nil {
		return fmt.Errorf("open cache directory: %w", err)
	}
	cache := matchcache.New(dir.TrackCachePath(), logger)

	db, err := beetsdb.Open(cfg.Paths.BeetsDB)
	if err != nil {
		return fmt.Errorf("open beets library: %w", err)
	}
	defer func() {
		_ = db.Close()
	}()

	mbOpts := []musicbrainz.Option{
		musicbrainz.WithBaseURL(cfg.MusicBrainz.BaseURL),
		musicbrainz.WithRateInterval(time.Duration(cfg.MusicBrainz.RateIntervalMS) * time.Millisecond),
		musicbrainz.WithChunkSizes(cfg.MusicBrainz.AddChunkSize, cfg.MusicBrainz.RemoveChunkSize),
		musicbrainz.WithLogger(logger),
	}
	if cfg.MusicBrainz.User != "" {
		mbOpts = append(mbOpts, musicbrainz.WithCredentials(cfg.MusicBrainz.User, cfg.MusicBrainz.Password))
	}
	mb, err := musicbrainz.New(cfg.MusicBrainz.UserAgent, mbOpts...)
	if err != nil {
		return fmt.Errorf("create musicbrainz client: %w", err)
	}
	if cfg.MusicBrainz.User != "" {
		if err := mb.Authenticate(signalCtx); err != nil {
			return fmt.Errorf("musicbrainz login: %w", err)
		}
	}

	engine := songsearch.New(mb, cache, logger)
	matcher := libmatch.New(db, engine, cache, cfg.Sync.LibraryOnly, logger)

	// Import order fixes merge priority: with first-writer-wins, the CSV
	// the user hands in beats the MusicBrainz collections, which beat the
	// fixed-rating loved tracks.
	var importers []syncrun.Step
	if csvIn != "" {
		imp := importer.NewCSVImporter(csvIn, logger)
		imp.Overwrite = cfg.Sync.Overwrite
		importers = append(importers, syncrun.Step{Name: "csv", Importer: imp})
	}
	if cfg.MusicBrainz.User != "" {
		imp := importer.NewCollectionImporter(dir, mb, cfg.MusicBrainz.User, matcher, logger)
		imp.Overwrite = cfg.Sync.Overwrite
		importers = append(importers, syncrun.Step{Name: "musicbrainz", Importer: imp})
	}
	if cfg.LastFM.User != "" {
		feed, err := lastfm.New(cfg.LastFM.APIKey, lastfm.WithLogger(logger))
		if err != nil {
			return fmt.Errorf("create last.fm client: %w", err)
		}
		imp := importer.NewLovedImporter(dir, feed, matcher, cfg.LastFM.User, cfg.LastFM.LovedRating, logger)
		imp.Overwrite = cfg.Sync.Overwrite
		importers = append(importers, syncrun.Step{Name: "lastfm", Importer: imp})
	}
	if len(importers) == 0 {
		return errors.New("nothing to import: configure a musicbrainz or last.fm user, or pass --csv-in")
	}

	var exporters []syncrun.Step
	if cfg.MusicBrainz.User != "" {
		exporters = append(exporters, syncrun.Step{
			Name:     "musicbrainz",
			Exporter: exporter.NewCollectionExporter(dir, mb, cfg.MusicBrainz.User, logger),
		})
	}
	outPath := csvOut
	if outPath == "" {
		outPath = dir.RatingCachePath()
	}
	exporters = append(exporters,
		syncrun.Step{Name: "csv", Exporter: exporter.NewCSVExporter(outPath)},
		syncrun.Step{Name: "library", Exporter: exporter.NewLibraryExporter(db, matcher, logger)},
	)

	runner := syncrun.New(dir, cache, importers, exporters, logger)
	summary, runErr := runner.Run(signalCtx)
	if summary != nil {
		printSummary(cmd, summary)
	}
	return runErr
}

func printSummary(cmd *cobra.Command, summary *syncrun.Summary) {
	out := cmd.OutOrStdout()

	rows := [][]string{
		{"Run", summary.RunID},
		{"Ratings", fmt.Sprintf("%d", summary.Ratings)},
		{"Conflicts", fmt.Sprintf("%d", summary.Conflicts)},
		{"Duration", summary.Duration.Round(time.Millisecond).String()},
	}
	for _, source := range sortedKeys(summary.SetSizes) {
		rows = append(rows, []string{"Set " + source, fmt.Sprintf("%d", summary.SetSizes[source])})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Field", "Value"},
		rows,
		[]columnAlignment{alignLeft, alignRight},
	))

	if len(summary.ConflictRatings) == 0 {
		return
	}
	conflictRows := make([][]string, 0, len(summary.ConflictRatings))
	for _, mbid := range sortedKeys(summary.ConflictRatings) {
		ratings := summary.ConflictRatings[mbid]
		parts := make([]string, 0, len(ratings))
		for _, source := range sortedKeys(ratings) {
			parts = append(parts, fmt.Sprintf("%s=%d", source, ratings[source]))
		}
		conflictRows = append(conflictRows, []string{mbid, strings.Join(parts, " ")})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Recording", "Ratings"},
		conflictRows,
		[]columnAlignment{alignLeft, alignLeft},
	))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
