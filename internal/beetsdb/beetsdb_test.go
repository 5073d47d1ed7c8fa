package beetsdb

import (
	"context"
	"path/filepath"
	"testing"

	"ratingsync/internal/library"
)

const testSchema = `
CREATE TABLE items (
	id INTEGER PRIMARY KEY,
	title TEXT NOT NULL DEFAULT '',
	artist TEXT NOT NULL DEFAULT '',
	album TEXT NOT NULL DEFAULT '',
	length REAL NOT NULL DEFAULT 0,
	tracktotal INTEGER NOT NULL DEFAULT 0,
	mb_trackid TEXT NOT NULL DEFAULT ''
);
CREATE TABLE item_attributes (
	id INTEGER PRIMARY KEY,
	entity_id INTEGER NOT NULL,
	key TEXT NOT NULL,
	value TEXT NOT NULL DEFAULT ''
);
`

func openTestDB(t *testing.T) *DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "library.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.db.Exec(testSchema); err != nil {
		t.Fatalf("create schema: %v", err)
	}

	seed := []struct {
		title, artist, album, mbid string
		length                     float64
		tracktotal                 int
	}{
		{"Heroes (We Could Be)", "Alesso", "Forever", "mbid-heroes", 210.4, 14},
		{"Heroes (We Could Be)", "Alesso", "Heroes Single", "mbid-heroes", 210.4, 2},
		{"In the Morning", "ZHU", "Generationwhy", "mbid-morning", 242.6, 13},
		{"Faded", "ZHU", "Nightday", "", 223.0, 6},
	}
	for _, row := range seed {
		if _, err := db.db.Exec(
			`INSERT INTO items (title, artist, album, length, tracktotal, mb_trackid) VALUES (?, ?, ?, ?, ?, ?)`,
			row.title, row.artist, row.album, row.length, row.tracktotal, row.mbid,
		); err != nil {
			t.Fatalf("seed item: %v", err)
		}
	}

	return db
}

func TestItemsByMBID(t *testing.T) {
	db := openTestDB(t)

	items, err := db.Items(context.Background(), library.Filter{MBID: "mbid-morning"})
	if err != nil {
		t.Fatalf("Items failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}

	item := items[0]
	if item.Artist != "ZHU" || item.Album != "Generationwhy" {
		t.Errorf("unexpected item %+v", item)
	}
	if item.Length != 243 {
		t.Errorf("length = %d, want rounded 243", item.Length)
	}
}

func TestItemsConjunction(t *testing.T) {
	db := openTestDB(t)

	items, err := db.Items(context.Background(), library.Filter{
		TitleSubstring:  "heroes",
		ArtistSubstring: "alesso",
		AlbumSubstring:  "forever",
	})
	if err != nil {
		t.Fatalf("Items failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1 (album predicate must narrow)", len(items))
	}
	if items[0].TrackTotal != 14 {
		t.Errorf("tracktotal = %d, want 14", items[0].TrackTotal)
	}
}

func TestItemsLengthRange(t *testing.T) {
	db := openTestDB(t)

	items, err := db.Items(context.Background(), library.Filter{
		TitleSubstring: "In the Morning",
		HasLengthRange: true,
		LengthMin:      240,
		LengthMax:      246,
	})
	if err != nil {
		t.Fatalf("Items failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
}

func TestItemsRejectsEmptyFilter(t *testing.T) {
	db := openTestDB(t)

	if _, err := db.Items(context.Background(), library.Filter{}); err == nil {
		t.Error("empty filter should be rejected")
	}
}

func TestSetRatingUpsert(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.SetRating(ctx, 1, 4); err != nil {
		t.Fatalf("SetRating insert failed: %v", err)
	}
	if err := db.SetRating(ctx, 1, 5); err != nil {
		t.Fatalf("SetRating update failed: %v", err)
	}

	items, err := db.Items(ctx, library.Filter{MBID: "mbid-heroes"})
	if err != nil {
		t.Fatalf("Items failed: %v", err)
	}
	for _, item := range items {
		if item.ID == 1 && item.Rating != 5 {
			t.Errorf("rating = %d, want 5 after upsert", item.Rating)
		}
	}

	var count int
	if err := db.db.QueryRow(
		`SELECT COUNT(*) FROM item_attributes WHERE entity_id = 1 AND key = 'rating'`,
	).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("attribute rows = %d, want a single upserted row", count)
	}
}

func TestLikePatternEscapes(t *testing.T) {
	if got := likePattern("50%_done"); got != `%50\%\_done%` {
		t.Errorf("likePattern = %q", got)
	}
}
