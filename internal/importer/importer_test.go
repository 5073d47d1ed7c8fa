package importer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ratingsync/internal/collcache"
	"ratingsync/internal/lastfm"
	"ratingsync/internal/logging"
	"ratingsync/internal/musicbrainz"
	"ratingsync/internal/ratings"
	"ratingsync/internal/recording"
)

// The real client must satisfy the feed contract the importer consumes.
var _ LovedFeed = (*lastfm.Client)(nil)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestCSVImporterSkipsBadRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ratings.csv")
	writeFile(t, path, strings.Join([]string{
		"rating,artist,album,title,length,mbid",
		"5,Daft Punk,Discovery,One More Time,320,rec-1",
		"not-a-rating,Daft Punk,Discovery,Aerodynamic,212,rec-2",
		"3,deadmau5,For Lack of a Better Name,Strobe,637,rec-3",
	}, "\n"))

	store := ratings.NewStore()
	imp := NewCSVImporter(path, logging.NewNop())
	if err := imp.Import(context.Background(), store); err != nil {
		t.Fatalf("Import: %v", err)
	}

	if store.Len() != 2 {
		t.Fatalf("store has %d records, want 2", store.Len())
	}
	if rec := store.Ratings["rec-1"]; rec == nil || rec.Rating != 5 {
		t.Fatalf("rec-1 = %+v", rec)
	}
	if store.SetSize("csv") != 2 {
		t.Fatalf("csv set size = %d, want 2", store.SetSize("csv"))
	}
}

type fakeCollectionRemote struct {
	collections []musicbrainz.Collection
	recordings  map[string][]musicbrainz.CollectionEntry
}

func (f *fakeCollectionRemote) ListCollections(ctx context.Context) ([]musicbrainz.Collection, error) {
	return f.collections, nil
}

func (f *fakeCollectionRemote) CollectionRecordings(ctx context.Context, mbid string, limit, offset int) ([]musicbrainz.CollectionEntry, int, error) {
	entries := f.recordings[mbid]
	if offset >= len(entries) {
		return nil, len(entries), nil
	}
	return entries, len(entries), nil
}

type mapResolver struct {
	byMBID  map[string]*recording.Info
	byQuery map[string]*recording.Info
}

func (m *mapResolver) FindByRecording(ctx context.Context, rec *recording.Info) (*recording.Info, bool) {
	info, ok := m.byMBID[rec.MBID]
	return info, ok
}

func (m *mapResolver) Find(ctx context.Context, artist, title, album string) (*recording.Info, bool) {
	info, ok := m.byQuery[artist+"|"+title]
	return info, ok
}

func TestCollectionImporterRatesByBand(t *testing.T) {
	dir, err := collcache.NewDir(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	remote := &fakeCollectionRemote{
		collections: []musicbrainz.Collection{
			{ID: "c-4", Name: "4 Star", EntityType: "recording"},
			{ID: "c-5", Name: "5 Star", EntityType: "recording"},
			{ID: "c-x", Name: "5 Star", EntityType: "release"},
		},
		recordings: map[string][]musicbrainz.CollectionEntry{
			"c-4": {{ID: "rec-4", Title: "Aerodynamic", Length: 212000}},
			"c-5": {{ID: "rec-5", Title: "One More Time", Length: 320000}, {ID: "rec-miss", Title: "Ghost", Length: 100000}},
		},
	}
	resolver := &mapResolver{byMBID: map[string]*recording.Info{
		"rec-4": recording.NewInfo("Daft Punk", "Discovery", "Aerodynamic", 212, "rec-4", 0),
		"rec-5": recording.NewInfo("Daft Punk", "Discovery", "One More Time", 320, "rec-5", 0),
	}}

	store := ratings.NewStore()
	imp := NewCollectionImporter(dir, remote, "someone", resolver, logging.NewNop())
	if err := imp.Import(context.Background(), store); err != nil {
		t.Fatalf("Import: %v", err)
	}

	if rec := store.Ratings["rec-4"]; rec == nil || rec.Rating != 4 {
		t.Fatalf("rec-4 = %+v, want rating 4", rec)
	}
	if rec := store.Ratings["rec-5"]; rec == nil || rec.Rating != 5 {
		t.Fatalf("rec-5 = %+v, want rating 5", rec)
	}
	if imp.Unmatched != 1 {
		t.Fatalf("Unmatched = %d, want 1", imp.Unmatched)
	}
	if store.SetSize(RatingSetMB) != 2 {
		t.Fatalf("mb set size = %d, want 2", store.SetSize(RatingSetMB))
	}
}

type fakeFeed struct {
	tracks []lastfm.LovedTrack
	albums map[string]string
	walked int
}

func (f *fakeFeed) WalkLoved(ctx context.Context, user string, fn func(lastfm.LovedTrack) (bool, error)) error {
	for _, track := range f.tracks {
		f.walked++
		keep, err := fn(track)
		if err != nil || !keep {
			return err
		}
	}
	return nil
}

func (f *fakeFeed) TrackAlbum(ctx context.Context, artist, title string) string {
	return f.albums[artist+"|"+title]
}

func TestLovedImporterResolvesAndCaches(t *testing.T) {
	dir, err := collcache.NewDir(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	feed := &fakeFeed{
		tracks: []lastfm.LovedTrack{
			{Artist: "Daft Punk", Title: "One More Time", Timestamp: 200},
			{Artist: "Unknown Artist", Title: "Lost Song", Timestamp: 100},
		},
		albums: map[string]string{"Daft Punk|One More Time": "Discovery"},
	}
	resolver := &mapResolver{byQuery: map[string]*recording.Info{
		"Daft Punk|One More Time": recording.NewInfo("Daft Punk", "Discovery", "One More Time", 320, "rec-1", 0),
	}}

	store := ratings.NewStore()
	imp := NewLovedImporter(dir, feed, resolver, "someone", 0, logging.NewNop())
	if err := imp.Import(context.Background(), store); err != nil {
		t.Fatalf("Import: %v", err)
	}

	rec := store.Ratings["rec-1"]
	if rec == nil || rec.Rating != DefaultLovedRating {
		t.Fatalf("rec-1 = %+v, want the default loved rating", rec)
	}
	if imp.Unmatched != 1 {
		t.Fatalf("Unmatched = %d, want 1", imp.Unmatched)
	}
	if store.SetSize(ratings.AdvisorySource) != 1 {
		t.Fatalf("lastfm set size = %d, want 1", store.SetSize(ratings.AdvisorySource))
	}

	for _, name := range []string{"loved-someone.csv", "unmatched-someone.csv"} {
		if _, err := os.Stat(filepath.Join(dir.Path(), name)); err != nil {
			t.Fatalf("cache %s not written: %v", name, err)
		}
	}
}

func TestLovedImporterStopsAtCachedTimestamp(t *testing.T) {
	dir, err := collcache.NewDir(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	writeFile(t, dir.LovedCachePath("someone"),
		"artist,album,title,length,mbid,timestamp\nDaft Punk,Discovery,One More Time,320,rec-1,150\n")

	feed := &fakeFeed{tracks: []lastfm.LovedTrack{
		{Artist: "deadmau5", Title: "Strobe", Timestamp: 300},
		{Artist: "Daft Punk", Title: "One More Time", Timestamp: 150},
		{Artist: "Old Favorite", Title: "Never Visited", Timestamp: 50},
	}}
	resolver := &mapResolver{byQuery: map[string]*recording.Info{
		"deadmau5|Strobe": recording.NewInfo("deadmau5", "", "Strobe", 636, "rec-2", 0),
	}}

	store := ratings.NewStore()
	imp := NewLovedImporter(dir, feed, resolver, "someone", 4, logging.NewNop())
	if err := imp.Import(context.Background(), store); err != nil {
		t.Fatalf("Import: %v", err)
	}

	if feed.walked != 2 {
		t.Fatalf("walked = %d, want the walk to stop at the cached timestamp", feed.walked)
	}
	if store.Len() != 2 {
		t.Fatalf("store has %d records, want the cached and the new track", store.Len())
	}
}

func TestLovedImporterRetriesUnmatched(t *testing.T) {
	dir, err := collcache.NewDir(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	writeFile(t, dir.UnmatchedCachePath("someone"),
		"artist,title,timestamp\nDaft Punk,One More Time,120\n")

	feed := &fakeFeed{}
	resolver := &mapResolver{byQuery: map[string]*recording.Info{
		"Daft Punk|One More Time": recording.NewInfo("Daft Punk", "Discovery", "One More Time", 320, "rec-1", 0),
	}}

	store := ratings.NewStore()
	imp := NewLovedImporter(dir, feed, resolver, "someone", 4, logging.NewNop())
	if err := imp.Import(context.Background(), store); err != nil {
		t.Fatalf("Import: %v", err)
	}

	if store.Ratings["rec-1"] == nil {
		t.Fatal("previously unmatched track should now resolve")
	}
	if imp.Unmatched != 0 {
		t.Fatalf("Unmatched = %d, want 0", imp.Unmatched)
	}
}

// Both importers resolve through one shared cache entry, the way the real
// matcher hands out its cache's own pointer. The first writer's rating has
// to survive a later advisory add, and the cache entry itself must stay
// unrated.
func TestImportersDoNotRewriteEarlierRatingsThroughSharedEntries(t *testing.T) {
	dir, err := collcache.NewDir(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	shared := recording.NewInfo("Daft Punk", "Discovery", "One More Time", 320, "rec-1", 0)
	resolver := &mapResolver{
		byMBID:  map[string]*recording.Info{"rec-1": shared},
		byQuery: map[string]*recording.Info{"Daft Punk|One More Time": shared},
	}

	remote := &fakeCollectionRemote{
		collections: []musicbrainz.Collection{
			{ID: "c-3", Name: "3 Star", EntityType: "recording"},
		},
		recordings: map[string][]musicbrainz.CollectionEntry{
			"c-3": {{ID: "rec-1", Title: "One More Time", Length: 320000}},
		},
	}
	feed := &fakeFeed{tracks: []lastfm.LovedTrack{
		{Artist: "Daft Punk", Title: "One More Time", Timestamp: 100},
	}}

	store := ratings.NewStore()
	collection := NewCollectionImporter(dir, remote, "someone", resolver, logging.NewNop())
	if err := collection.Import(context.Background(), store); err != nil {
		t.Fatalf("collection import: %v", err)
	}
	loved := NewLovedImporter(dir, feed, resolver, "someone", 4, logging.NewNop())
	if err := loved.Import(context.Background(), store); err != nil {
		t.Fatalf("loved import: %v", err)
	}

	rec := store.Ratings["rec-1"]
	if rec == nil || rec.Rating != 3 {
		t.Fatalf("stored rating = %+v, want the collection's 3 to stand", rec)
	}
	if rec.Sources[ratings.AdvisorySource] != 4 {
		t.Fatalf("sources = %v, want the loved rating recorded as provenance", rec.Sources)
	}
	if shared.Rating != 0 {
		t.Fatalf("shared cache entry rating = %d, want it left unrated", shared.Rating)
	}
	if len(store.Conflicts) != 0 {
		t.Fatalf("conflicts = %v, want none for an advisory disagreement", store.Conflicts)
	}
}
