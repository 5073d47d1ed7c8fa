package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"ratingsync/internal/collcache"
	"ratingsync/internal/matchcache"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the resolution caches",
	}

	cacheCmd.AddCommand(newCacheListCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))

	return cacheCmd
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached track resolutions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return fmt.Errorf("init logging: %w", err)
			}

			dir, err := collcache.NewDir(cfg.Paths.CacheDir)
			if err != nil {
				return fmt.Errorf("open cache directory: %w", err)
			}
			cache := matchcache.New(dir.TrackCachePath(), logger)

			entries := cache.Entries()
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "Track cache is empty")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, rec := range entries {
				rows = append(rows, []string{
					rec.Artist,
					rec.Title,
					rec.Album,
					strconv.Itoa(rec.Length),
					rec.MBID,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Artist", "Title", "Album", "Length", "MBID"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			))
			fmt.Fprintf(out, "%d cached tracks\n", len(entries))
			return nil
		},
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete the track resolution cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return fmt.Errorf("init logging: %w", err)
			}

			dir, err := collcache.NewDir(cfg.Paths.CacheDir)
			if err != nil {
				return fmt.Errorf("open cache directory: %w", err)
			}
			cache := matchcache.New(dir.TrackCachePath(), logger)
			if err := cache.Clear(); err != nil {
				return fmt.Errorf("clear track cache: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Track cache cleared")

			if !all {
				return nil
			}
			removed, err := clearCollectionCaches(dir.Path())
			if err != nil {
				return fmt.Errorf("clear collection caches: %w", err)
			}
			fmt.Fprintf(out, "Removed %d collection cache files\n", removed)
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Also delete the cached MusicBrainz collections and Last.fm feeds")
	return cmd
}

// clearCollectionCaches removes the per-user and per-collection CSV caches
// while leaving the lock file and anything unrecognized alone.
func clearCollectionCaches(dir string) (int, error) {
	removed := 0
	for _, prefix := range []string{"user-", "coll-", "loved-", "unmatched-"} {
		matches, err := filepath.Glob(filepath.Join(dir, prefix+"*.csv"))
		if err != nil {
			return removed, err
		}
		for _, path := range matches {
			if err := os.Remove(path); err != nil {
				return removed, err
			}
			removed++
		}
	}
	return removed, nil
}
