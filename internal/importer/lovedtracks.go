package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"

	"ratingsync/internal/collcache"
	"ratingsync/internal/lastfm"
	"ratingsync/internal/logging"
	"ratingsync/internal/ratings"
	"ratingsync/internal/recording"
)

// DefaultLovedRating is assigned to loved tracks unless configured
// otherwise. Loving a track signals approval, not a precise score.
const DefaultLovedRating = 4

var (
	lovedHeader     = []string{"artist", "album", "title", "length", "mbid", "timestamp"}
	unmatchedHeader = []string{"artist", "title", "timestamp"}
)

// LovedFeed is the Last.fm capability the importer consumes.
type LovedFeed interface {
	WalkLoved(ctx context.Context, user string, fn func(lastfm.LovedTrack) (bool, error)) error
	TrackAlbum(ctx context.Context, artist, title string) string
}

// TrackResolver resolves a free-form (artist, title, album) query.
type TrackResolver interface {
	Find(ctx context.Context, artist, title, album string) (*recording.Info, bool)
}

// LovedImporter loads a user's Last.fm loved tracks, resolves them to
// recordings, and rates each with a fixed default under the "lastfm"
// source.
//
// Both resolved and unresolved tracks are cached with their feed
// timestamps; the next run stops paging at the newest cached timestamp,
// so only newly loved tracks cost remote calls. Previously unresolved
// tracks are re-resolved each run in case the library has since learned
// about them.
type LovedImporter struct {
	dir      *collcache.Dir
	feed     LovedFeed
	resolver TrackResolver
	user     string
	rating   int
	logger   *slog.Logger

	// Overwrite lets this importer replace ratings recorded by earlier
	// steps instead of deferring to them.
	Overwrite bool

	// Unmatched counts loved tracks that could not be resolved during
	// the last Import.
	Unmatched int
}

// NewLovedImporter creates an importer for the named user's loved
// tracks. A rating outside [1,5] falls back to the default.
func NewLovedImporter(dir *collcache.Dir, feed LovedFeed, resolver TrackResolver, user string, rating int, logger *slog.Logger) *LovedImporter {
	if rating < 1 || rating > 5 {
		rating = DefaultLovedRating
	}
	return &LovedImporter{
		dir:      dir,
		feed:     feed,
		resolver: resolver,
		user:     user,
		rating:   rating,
		logger:   logging.NewComponentLogger(logger, "loved-import"),
	}
}

type unmatchedTrack struct {
	artist    string
	title     string
	timestamp int64
}

// Import loads the caches, fetches anything newer from the feed, saves
// the caches back, and adds every resolved track to the store.
func (imp *LovedImporter) Import(ctx context.Context, store *ratings.Store) error {
	loved := make(map[int64]*recording.Info)
	unmatched := make(map[int64]unmatchedTrack)

	maxCached := imp.loadLoved(loved)
	if ts := imp.loadUnmatched(ctx, loved, unmatched); ts > maxCached {
		maxCached = ts
	}

	if err := imp.fetch(ctx, loved, unmatched, maxCached); err != nil {
		// The caches still hold everything gathered so far; a feed
		// failure downgrades the run to whatever is cached.
		imp.logger.Warn("loved tracks fetch failed",
			logging.String("user", imp.user),
			logging.Error(err))
	}

	if err := imp.saveLoved(loved); err != nil {
		imp.logger.Warn("failed to write loved cache", logging.Error(err))
	}
	if err := imp.saveUnmatched(unmatched); err != nil {
		imp.logger.Warn("failed to write unmatched cache", logging.Error(err))
	}

	imp.Unmatched = len(unmatched)

	for _, rec := range sortedByRating(loved) {
		rated := rec.Clone()
		rated.Rating = imp.rating
		store.Add(rated, ratings.AdvisorySource, imp.Overwrite)
	}
	return nil
}

// fetch walks the feed newest first, stopping at the first timestamp
// already covered by the caches.
func (imp *LovedImporter) fetch(ctx context.Context, loved map[int64]*recording.Info, unmatched map[int64]unmatchedTrack, maxCached int64) error {
	return imp.feed.WalkLoved(ctx, imp.user, func(track lastfm.LovedTrack) (bool, error) {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		if maxCached > 0 && track.Timestamp <= maxCached {
			return false, nil
		}

		// The feed often reports the track title as its own album; that
		// is filler, not data, and searching with it hurts.
		album := imp.feed.TrackAlbum(ctx, track.Artist, track.Title)
		if album == track.Title {
			album = ""
		}

		rec, ok := imp.resolver.Find(ctx, track.Artist, track.Title, album)
		if ok {
			loved[track.Timestamp] = rec
		} else {
			imp.logger.Info("no match for loved track",
				logging.String("artist", track.Artist),
				logging.String("title", track.Title))
			unmatched[track.Timestamp] = unmatchedTrack{
				artist:    track.Artist,
				title:     track.Title,
				timestamp: track.Timestamp,
			}
		}
		return true, nil
	})
}

func (imp *LovedImporter) loadLoved(loved map[int64]*recording.Info) int64 {
	var maxCached int64

	rows, err := readRows(imp.dir.LovedCachePath(imp.user), len(lovedHeader))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			imp.logger.Warn("loved cache unreadable, refetching", logging.Error(err))
		}
		return 0
	}

	for _, row := range rows {
		length, lengthErr := strconv.Atoi(row[3])
		timestamp, tsErr := strconv.ParseInt(row[5], 10, 64)
		if lengthErr != nil || tsErr != nil {
			imp.logger.Warn("skipping malformed loved row", logging.String("title", row[2]))
			continue
		}

		loved[timestamp] = recording.NewInfo(row[0], row[1], row[2], length, row[4], imp.rating)
		if timestamp > maxCached {
			maxCached = timestamp
		}
	}
	return maxCached
}

// loadUnmatched retries resolution for every previously unmatched track.
// Timestamps count toward the incremental cutoff either way, so a track
// that stays unresolved is never refetched from the feed.
func (imp *LovedImporter) loadUnmatched(ctx context.Context, loved map[int64]*recording.Info, unmatched map[int64]unmatchedTrack) int64 {
	var maxCached int64

	rows, err := readRows(imp.dir.UnmatchedCachePath(imp.user), len(unmatchedHeader))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			imp.logger.Warn("unmatched cache unreadable, refetching", logging.Error(err))
		}
		return 0
	}

	for _, row := range rows {
		timestamp, err := strconv.ParseInt(row[2], 10, 64)
		if err != nil {
			continue
		}

		if rec, ok := imp.resolver.Find(ctx, row[0], row[1], ""); ok {
			loved[timestamp] = rec
		} else {
			unmatched[timestamp] = unmatchedTrack{artist: row[0], title: row[1], timestamp: timestamp}
		}
		if timestamp > maxCached {
			maxCached = timestamp
		}
	}
	return maxCached
}

func (imp *LovedImporter) saveLoved(loved map[int64]*recording.Info) error {
	timestamps := make([]int64, 0, len(loved))
	for ts := range loved {
		timestamps = append(timestamps, ts)
	}
	sort.Slice(timestamps, func(i, j int) bool { return timestamps[i] > timestamps[j] })

	rows := make([][]string, 0, len(loved))
	for _, ts := range timestamps {
		rec := loved[ts]
		rows = append(rows, []string{
			rec.Artist,
			rec.Album,
			rec.Title,
			strconv.Itoa(rec.Length),
			rec.MBID,
			strconv.FormatInt(ts, 10),
		})
	}
	return writeRows(imp.dir.LovedCachePath(imp.user), lovedHeader, rows)
}

func (imp *LovedImporter) saveUnmatched(unmatched map[int64]unmatchedTrack) error {
	if len(unmatched) == 0 {
		return nil
	}

	timestamps := make([]int64, 0, len(unmatched))
	for ts := range unmatched {
		timestamps = append(timestamps, ts)
	}
	sort.Slice(timestamps, func(i, j int) bool { return timestamps[i] > timestamps[j] })

	rows := make([][]string, 0, len(unmatched))
	for _, ts := range timestamps {
		track := unmatched[ts]
		rows = append(rows, []string{track.artist, track.title, strconv.FormatInt(ts, 10)})
	}
	return writeRows(imp.dir.UnmatchedCachePath(imp.user), unmatchedHeader, rows)
}

// sortedByRating orders records by rating descending, then artist,
// album, and title ascending.
func sortedByRating(loved map[int64]*recording.Info) []*recording.Info {
	recs := make([]*recording.Info, 0, len(loved))
	for _, rec := range loved {
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if a.Rating != b.Rating {
			return a.Rating > b.Rating
		}
		if a.Artist != b.Artist {
			return a.Artist < b.Artist
		}
		if a.Album != b.Album {
			return a.Album < b.Album
		}
		return a.Title < b.Title
	})
	return recs
}

func readRows(path string, fields int) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = fields

	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}

	var rows [][]string
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func writeRows(path string, header []string, rows [][]string) error {
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	writer := csv.NewWriter(f)
	if err := writer.Write(header); err != nil {
		f.Close()
		return err
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			f.Close()
			return err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	return os.Rename(tmp, path)
}
