package songsearch

import (
	"context"
	"errors"
	"testing"

	"ratingsync/internal/logging"
	"ratingsync/internal/matchcache"
	"ratingsync/internal/musicbrainz"
	"ratingsync/internal/recording"
)

type fakeCatalog struct {
	groups     []musicbrainz.ReleaseGroup
	recordings []musicbrainz.RecordingResult
	releases   map[string]*musicbrainz.Release
	recording  *musicbrainz.RecordingResult

	groupCalls     int
	recordingCalls int
	strictSeen     []bool
	err            error
}

func (f *fakeCatalog) SearchReleaseGroups(ctx context.Context, artist, release string, strict bool) ([]musicbrainz.ReleaseGroup, error) {
	f.groupCalls++
	f.strictSeen = append(f.strictSeen, strict)
	return f.groups, f.err
}

func (f *fakeCatalog) SearchRecordings(ctx context.Context, artist, title string, strict bool) ([]musicbrainz.RecordingResult, error) {
	f.recordingCalls++
	return f.recordings, f.err
}

func (f *fakeCatalog) GetRelease(ctx context.Context, id string) (*musicbrainz.Release, error) {
	rel, ok := f.releases[id]
	if !ok {
		return nil, errors.New("release not found")
	}
	return rel, nil
}

func (f *fakeCatalog) GetRecording(ctx context.Context, id string) (*musicbrainz.RecordingResult, error) {
	if f.recording == nil {
		return nil, errors.New("recording not found")
	}
	return f.recording, nil
}

func credit(name string) []musicbrainz.ArtistCredit {
	return []musicbrainz.ArtistCredit{{Name: name, Artist: musicbrainz.Artist{Name: name}}}
}

func digitalRelease(id, title, artist string, tracks ...musicbrainz.Track) *musicbrainz.Release {
	return &musicbrainz.Release{
		ID:           id,
		Title:        title,
		ArtistCredit: credit(artist),
		Media:        []musicbrainz.Medium{{Format: "Digital Media", Tracks: tracks}},
	}
}

func TestFindResolvesThroughReleaseGroups(t *testing.T) {
	catalog := &fakeCatalog{
		groups: []musicbrainz.ReleaseGroup{{
			ID:          "rg-1",
			Title:       "Discovery",
			PrimaryType: "Album",
			Releases:    []musicbrainz.ReleaseRef{{ID: "rel-1", Title: "Discovery"}},
		}},
		releases: map[string]*musicbrainz.Release{
			"rel-1": digitalRelease("rel-1", "Discovery", "Daft Punk",
				musicbrainz.Track{Recording: musicbrainz.RecordingSummary{ID: "rec-1", Title: "One More Time", Length: 320000}},
			),
		},
	}
	engine := New(catalog, matchcache.New("", logging.NewNop()), logging.NewNop())

	info, ok := engine.Find(context.Background(), "Daft Punk", "One More Time", "Discovery")
	if !ok {
		t.Fatal("expected a match")
	}
	if info.MBID != "rec-1" {
		t.Fatalf("MBID = %q, want rec-1", info.MBID)
	}
	if info.Length != 320 {
		t.Fatalf("Length = %d, want 320", info.Length)
	}
	if info.Album != "Discovery" {
		t.Fatalf("Album = %q, want Discovery", info.Album)
	}
}

func TestFindSkipsVinylOnlyReleases(t *testing.T) {
	catalog := &fakeCatalog{
		groups: []musicbrainz.ReleaseGroup{{
			ID:       "rg-1",
			Title:    "Discovery",
			Releases: []musicbrainz.ReleaseRef{{ID: "rel-1"}},
		}},
		releases: map[string]*musicbrainz.Release{
			"rel-1": {
				ID:           "rel-1",
				Title:        "Discovery",
				ArtistCredit: credit("Daft Punk"),
				Media: []musicbrainz.Medium{{Format: "12\" Vinyl", Tracks: []musicbrainz.Track{
					{Recording: musicbrainz.RecordingSummary{ID: "rec-1", Title: "One More Time"}},
				}}},
			},
		},
	}
	engine := New(catalog, matchcache.New("", logging.NewNop()), logging.NewNop())

	if _, ok := engine.Find(context.Background(), "Daft Punk", "One More Time", "Discovery"); ok {
		t.Fatal("vinyl-only release should not match")
	}
}

func TestFindRejectsRemixReleaseForPlainQuery(t *testing.T) {
	catalog := &fakeCatalog{
		groups: []musicbrainz.ReleaseGroup{{
			ID:       "rg-1",
			Title:    "Alive Remixes",
			Releases: []musicbrainz.ReleaseRef{{ID: "rel-1"}},
		}},
		releases: map[string]*musicbrainz.Release{
			"rel-1": digitalRelease("rel-1", "Alive Remixes", "Daft Punk",
				musicbrainz.Track{Recording: musicbrainz.RecordingSummary{ID: "rec-1", Title: "Alive"}},
			),
		},
	}
	engine := New(catalog, matchcache.New("", logging.NewNop()), logging.NewNop())

	if _, ok := engine.Find(context.Background(), "Daft Punk", "Alive", "Alive"); ok {
		t.Fatal("remix release should not satisfy a plain query")
	}
}

func TestFindRequiresExtendedParity(t *testing.T) {
	catalog := &fakeCatalog{
		groups: []musicbrainz.ReleaseGroup{{
			ID:       "rg-1",
			Title:    "Singles",
			Releases: []musicbrainz.ReleaseRef{{ID: "rel-1"}},
		}},
		releases: map[string]*musicbrainz.Release{
			"rel-1": digitalRelease("rel-1", "Singles", "Armin van Buuren",
				musicbrainz.Track{Recording: musicbrainz.RecordingSummary{ID: "rec-1", Title: "Blah Blah Blah (Extended Mix)"}},
			),
		},
	}
	engine := New(catalog, matchcache.New("", logging.NewNop()), logging.NewNop())

	if _, ok := engine.Find(context.Background(), "Armin van Buuren", "Blah Blah Blah", "Singles"); ok {
		t.Fatal("extended mix should not match the radio edit query")
	}
}

func TestFindFallsBackToRecordingSearch(t *testing.T) {
	catalog := &fakeCatalog{
		recordings: []musicbrainz.RecordingResult{
			{
				ID:           "rec-few",
				Title:        "Strobe",
				Length:       636000,
				ArtistCredit: credit("deadmau5"),
				Releases: []musicbrainz.ReleaseInfo{{
					ID: "rel-a", Title: "For Lack of a Better Name",
					ArtistCredit: credit("deadmau5"),
					Media:        []musicbrainz.Medium{{Format: "CD"}},
				}},
			},
			{
				ID:           "rec-many",
				Title:        "Strobe",
				Length:       637000,
				ArtistCredit: credit("deadmau5"),
				Releases: []musicbrainz.ReleaseInfo{
					{
						ID: "rel-b", Title: "For Lack of a Better Name",
						ArtistCredit: credit("deadmau5"),
						Media:        []musicbrainz.Medium{{Format: "Digital Media"}},
					},
					{
						ID: "rel-c", Title: "Strobe (Single)",
						ArtistCredit: credit("deadmau5"),
						Media:        []musicbrainz.Medium{{Format: "Digital Media"}},
					},
				},
			},
		},
	}
	engine := New(catalog, matchcache.New("", logging.NewNop()), logging.NewNop())

	info, ok := engine.Find(context.Background(), "deadmau5", "Strobe", "")
	if !ok {
		t.Fatal("expected a match via recording search")
	}
	if info.MBID != "rec-many" {
		t.Fatalf("MBID = %q, want the recording with the most releases", info.MBID)
	}
}

func TestFindRecordingNeedsArtistRelease(t *testing.T) {
	catalog := &fakeCatalog{
		recordings: []musicbrainz.RecordingResult{{
			ID:           "rec-1",
			Title:        "Strobe",
			ArtistCredit: credit("deadmau5"),
			Releases: []musicbrainz.ReleaseInfo{{
				ID: "rel-1", Title: "Ministry of Sound Annual",
				ArtistCredit: credit("Various Artists"),
				Media:        []musicbrainz.Medium{{Format: "CD"}},
			}},
		}},
	}
	engine := New(catalog, matchcache.New("", logging.NewNop()), logging.NewNop())

	if _, ok := engine.Find(context.Background(), "deadmau5", "Strobe", ""); ok {
		t.Fatal("compilation-only recording should not match")
	}
}

func TestFindRetriesRelaxedOnEmptyStrictResults(t *testing.T) {
	catalog := &fakeCatalog{}
	engine := New(catalog, matchcache.New("", logging.NewNop()), logging.NewNop())

	engine.Find(context.Background(), "Daft Punk", "One More Time", "Discovery")

	// Album search, title-as-album retry, each strict then relaxed.
	if catalog.groupCalls != 4 {
		t.Fatalf("group search calls = %d, want 4", catalog.groupCalls)
	}
	want := []bool{true, false, true, false}
	for i, strict := range want {
		if catalog.strictSeen[i] != strict {
			t.Fatalf("call %d strict = %v, want %v", i, catalog.strictSeen[i], strict)
		}
	}
}

func TestFindUsesCacheBeforeRemote(t *testing.T) {
	catalog := &fakeCatalog{err: errors.New("network down")}
	cache := matchcache.New("", logging.NewNop())
	cache.Put(recording.NewInfo("Daft Punk", "Discovery", "One More Time", 320, "rec-1", 0))
	engine := New(catalog, cache, logging.NewNop())

	info, ok := engine.Find(context.Background(), "Daft Punk", "One More Time", "Discovery")
	if !ok {
		t.Fatal("expected a cache hit")
	}
	if info.MBID != "rec-1" {
		t.Fatalf("MBID = %q, want rec-1", info.MBID)
	}
	if catalog.groupCalls != 0 || catalog.recordingCalls != 0 {
		t.Fatal("cache hit should not reach the catalog")
	}
}

func TestFindTreatsRemoteErrorAsMiss(t *testing.T) {
	catalog := &fakeCatalog{err: errors.New("503 service unavailable")}
	engine := New(catalog, matchcache.New("", logging.NewNop()), logging.NewNop())

	if _, ok := engine.Find(context.Background(), "Daft Punk", "One More Time", "Discovery"); ok {
		t.Fatal("remote failure should be a soft miss")
	}
}

func TestFindByID(t *testing.T) {
	catalog := &fakeCatalog{
		recording: &musicbrainz.RecordingResult{
			ID:           "rec-1",
			Title:        "One More Time",
			Length:       320500,
			ArtistCredit: credit("daft punk"),
			Releases:     []musicbrainz.ReleaseInfo{{ID: "rel-1", Title: "Discovery"}},
		},
	}
	cache := matchcache.New("", logging.NewNop())
	engine := New(catalog, cache, logging.NewNop())

	info, ok := engine.FindByID(context.Background(), "rec-1")
	if !ok {
		t.Fatal("expected a match")
	}
	if info.Artist != "Daft Punk" {
		t.Fatalf("Artist = %q, want title-cased credit", info.Artist)
	}
	if info.Length != 321 {
		t.Fatalf("Length = %d, want 321", info.Length)
	}

	if _, ok := cache.GetByMBID("rec-1"); !ok {
		t.Fatal("resolution should populate the cache")
	}
}
