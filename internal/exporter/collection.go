package exporter

import (
	"context"
	"log/slog"
	"sort"

	"ratingsync/internal/collcache"
	"ratingsync/internal/logging"
	"ratingsync/internal/musicbrainz"
	"ratingsync/internal/ratings"
	"ratingsync/internal/recording"
)

// RatingSetMB names the rating set mirrored into MusicBrainz star
// collections. It matches the collection importer's set, so an export
// only pushes what the import did not already account for.
const RatingSetMB = "mb"

// CollectionService is the catalog capability the exporter consumes.
type CollectionService interface {
	ListCollections(ctx context.Context) ([]musicbrainz.Collection, error)
	AddCollectionRecordings(ctx context.Context, collectionID string, mbids []string) error
	SubmitRatings(ctx context.Context, stars map[string]int) error
}

// CollectionExporter pushes ratings the "mb" set is missing into the
// user's star collections and submits the matching star ratings.
type CollectionExporter struct {
	dir     *collcache.Dir
	service CollectionService
	user    string
	logger  *slog.Logger

	// Pushed counts recordings added to collections by the last Export.
	Pushed int
}

// NewCollectionExporter creates an exporter for the named user.
func NewCollectionExporter(dir *collcache.Dir, service CollectionService, user string, logger *slog.Logger) *CollectionExporter {
	return &CollectionExporter{
		dir:     dir,
		service: service,
		user:    user,
		logger:  logging.NewComponentLogger(logger, "collection-export"),
	}
}

// Export buckets the missing ids by star band, adds each bucket to its
// collection, submits the ratings, and marks the "mb" set complete.
func (exp *CollectionExporter) Export(ctx context.Context, store *ratings.Store) error {
	exp.Pushed = 0

	missing := store.MissingForSet(RatingSetMB)

	var buckets [5][]string
	stars := make(map[string]int)

	ids := make([]string, 0, len(missing))
	for mbid := range missing {
		ids = append(ids, mbid)
	}
	sort.Strings(ids)

	for _, mbid := range ids {
		rec, ok := store.Ratings[mbid]
		if !ok || rec.Rating < 1 || rec.Rating > 5 {
			continue
		}
		buckets[rec.Rating-1] = append(buckets[rec.Rating-1], mbid)
		stars[mbid] = rec.Rating
	}

	collections, err := listCollections(ctx, exp)
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
		bucket := buckets[i]
		if len(bucket) == 0 {
			continue
		}

		id, ok := byName[name]
		if !ok {
			exp.logger.Warn("no collection for rating band",
				logging.String("band", name),
				logging.Int("recordings", len(bucket)))
			continue
		}

		if err := exp.service.AddCollectionRecordings(ctx, id, bucket); err != nil {
			return err
		}
		exp.Pushed += len(bucket)

		exp.logger.Info("added recordings to collection",
			logging.String("band", name),
			logging.Int("recordings", len(bucket)))
	}

	if len(stars) > 0 {
		if err := exp.service.SubmitRatings(ctx, stars); err != nil {
			return err
		}
	}

	store.MarkSetComplete(RatingSetMB)
	return nil
}

func listCollections(ctx context.Context, exp *CollectionExporter) ([]musicbrainz.Collection, error) {
	return collcache.UserCollections(ctx, exp.dir.UserCachePath(exp.user), collectionLister{exp.service}, exp.logger)
}

// collectionLister adapts the exporter's service to the cache's Remote
// contract; the exporter never pages recordings, so that path is a
// stub.
type collectionLister struct {
	service CollectionService
}

func (l collectionLister) ListCollections(ctx context.Context) ([]musicbrainz.Collection, error) {
	return l.service.ListCollections(ctx)
}

func (l collectionLister) CollectionRecordings(ctx context.Context, mbid string, limit, offset int) ([]musicbrainz.CollectionEntry, int, error) {
	return nil, 0, nil
}
