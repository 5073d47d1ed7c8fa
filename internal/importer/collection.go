package importer

import (
	"context"
	"log/slog"

	"ratingsync/internal/collcache"
	"ratingsync/internal/logging"
	"ratingsync/internal/ratings"
	"ratingsync/internal/recording"
)

// RatingSetMB names the rating set fed by MusicBrainz star collections.
const RatingSetMB = "mb"

// RecordingResolver resolves a bare catalog recording against the
// library.
type RecordingResolver interface {
	FindByRecording(ctx context.Context, rec *recording.Info) (*recording.Info, bool)
}

// CollectionImporter loads ratings from the user's "1 Star" through
// "5 Star" recording collections.
type CollectionImporter struct {
	dir      *collcache.Dir
	remote   collcache.Remote
	user     string
	resolver RecordingResolver
	logger   *slog.Logger

	// Overwrite lets this importer replace ratings recorded by earlier
	// steps instead of deferring to them.
	Overwrite bool

	// Unmatched counts collection entries no library row could be found
	// for during the last Import.
	Unmatched int
}

// NewCollectionImporter creates an importer for the named user's star
// collections.
func NewCollectionImporter(dir *collcache.Dir, remote collcache.Remote, user string, resolver RecordingResolver, logger *slog.Logger) *CollectionImporter {
	return &CollectionImporter{
		dir:      dir,
		remote:   remote,
		user:     user,
		resolver: resolver,
		logger:   logging.NewComponentLogger(logger, "collection-import"),
	}
}

// Import walks the star bands in ascending order and adds each resolved
// collection entry under the "mb" source with the band's rating.
func (imp *CollectionImporter) Import(ctx context.Context, store *ratings.Store) error {
	imp.Unmatched = 0

	collections, err := collcache.UserCollections(ctx, imp.dir.UserCachePath(imp.user), imp.remote, imp.logger)
	if err != nil {
		return err
	}

	byName := make(map[string]string, len(collections))
	for _, collection := range collections {
		if collection.EntityType == "recording" {
			byName[collection.Name] = collection.ID
		}
	}

	for i, name := range recording.BandNames() {
		stars := i + 1

		id, ok := byName[name]
		if !ok {
			continue
		}

		recordings, err := collcache.RecordingCollection(ctx, imp.dir.CollectionCachePath(id), id, imp.remote, imp.logger)
		if err != nil {
			return err
		}

		for _, rec := range recordings {
			candidate := recording.NewInfo("", "", rec.Title, rec.Length, rec.MBID, 0)
			info, found := imp.resolver.FindByRecording(ctx, candidate)
			if !found {
				// The track may be absent from the library, or its file
				// metadata may lack the id.
				imp.logger.Warn("no library match for collection entry",
					logging.String("title", rec.Title),
					logging.String("mbid", rec.MBID))
				imp.Unmatched++
				continue
			}

			// The resolver returns its cache's own entry; clone so the
			// rating stamp cannot leak into the cache or a record the
			// store already holds.
			rated := info.Clone()
			rated.Rating = stars
			store.Add(rated, RatingSetMB, imp.Overwrite)
		}
	}

	return nil
}
