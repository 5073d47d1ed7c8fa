package libmatch

import (
	"context"
	"log/slog"
	"strings"

	"ratingsync/internal/library"
	"ratingsync/internal/logging"
	"ratingsync/internal/matchcache"
	"ratingsync/internal/recording"
	"ratingsync/internal/textnorm"
)

// lengthVariance is the tolerated difference in seconds when matching a
// recording to a library row by title and length.
const lengthVariance = 3

// Resolver is the remote catalog fallback used when the library cannot
// resolve a query on its own.
type Resolver interface {
	Find(ctx context.Context, artist, title, album string) (*recording.Info, bool)
	FindByID(ctx context.Context, mbid string) (*recording.Info, bool)
}

// Matcher resolves recordings and free-form queries against the library.
type Matcher struct {
	lib         library.Library
	resolver    Resolver
	cache       *matchcache.Cache
	libraryOnly bool
	logger      *slog.Logger
}

// New creates a matcher. When libraryOnly is set the resolver is never
// consulted and queries the library cannot answer return a miss.
func New(lib library.Library, resolver Resolver, cache *matchcache.Cache, libraryOnly bool, logger *slog.Logger) *Matcher {
	return &Matcher{
		lib:         lib,
		resolver:    resolver,
		cache:       cache,
		libraryOnly: libraryOnly,
		logger:      logging.NewComponentLogger(logger, "libmatch"),
	}
}

// FindByID resolves a recording ID against the cache, then the library.
// Exactly one library row must carry the ID; zero or several rows are a
// miss, never an arbitrary pick.
func (m *Matcher) FindByID(ctx context.Context, mbid string) (*recording.Info, bool) {
	if mbid == "" {
		return nil, false
	}
	if info, ok := m.cache.GetByMBID(mbid); ok {
		return info, true
	}

	items, err := m.lib.Items(ctx, library.Filter{MBID: mbid})
	if err != nil {
		m.logger.Warn("library id lookup failed",
			logging.String("mbid", mbid),
			logging.Error(err))
		return nil, false
	}
	if len(items) != 1 {
		return nil, false
	}

	item := items[0]
	info := recording.NewInfo(item.Artist, item.Album, item.Title, item.Length, item.MBID, 0)
	m.cache.Put(info)
	return info, true
}

// FindByTitleLength searches the library for rows whose length is within
// three seconds of the target and whose title contains the quote-stripped
// query. Among several candidates the closest title on the largest release
// wins.
func (m *Matcher) FindByTitleLength(ctx context.Context, title string, length int) (*recording.Info, bool) {
	items, err := m.lib.Items(ctx, library.Filter{
		TitleSubstring: textnorm.StripQuotedText(title),
		HasLengthRange: true,
		LengthMin:      length - lengthVariance,
		LengthMax:      length + lengthVariance,
	})
	if err != nil {
		m.logger.Warn("library title search failed",
			logging.String("title", title),
			logging.Error(err))
		return nil, false
	}

	var song *library.Item
	if len(items) == 1 {
		song = &items[0]
	} else {
		for i := range items {
			item := &items[i]
			if textnorm.Ratio(item.Title, title) < textnorm.MatchThreshold {
				continue
			}
			if song == nil || item.TrackTotal > song.TrackTotal {
				song = item
			}
		}
	}
	if song == nil {
		return nil, false
	}

	// The query's title and length are kept; only the library row's
	// identifier matters here.
	return recording.NewInfo(song.Artist, song.Album, title, length, song.MBID, 0), true
}

// FindByRecording resolves a catalog recording to its library counterpart,
// by ID first and by title and length second. The catalog's ID always wins
// over whatever the library row stored.
func (m *Matcher) FindByRecording(ctx context.Context, rec *recording.Info) (*recording.Info, bool) {
	if info, ok := m.FindByID(ctx, rec.MBID); ok {
		return info, true
	}

	info, ok := m.FindByTitleLength(ctx, rec.Title, rec.Length)
	if !ok {
		return nil, false
	}
	if info.MBID != rec.MBID {
		info.MBID = rec.MBID
	}
	m.cache.Put(info)
	return info, true
}

// Find resolves an (artist, title, album) query. The library is searched
// first; rows without a stored identifier, and queries the library cannot
// answer at all, fall through to the catalog resolver unless library-only
// mode is set.
func (m *Matcher) Find(ctx context.Context, artist, title, album string) (*recording.Info, bool) {
	if info, ok := m.cache.Get(artist, title, album); ok {
		return info, true
	}

	normalizedTitle := textnorm.NormalizeTitle(title)
	normalizedArtist := textnorm.FirstArtist(artist)

	var items []library.Item
	var err error

	if album != "" && album != title {
		items, err = m.lib.Items(ctx, library.Filter{
			TitleSubstring:  textnorm.StripQuotedText(normalizedTitle),
			ArtistSubstring: normalizedArtist,
			AlbumSubstring:  textnorm.StripQuotedText(textnorm.NormalizeTitle(album)),
		})
		if err != nil {
			m.logger.Warn("library search failed",
				logging.String("title", title),
				logging.Error(err))
			return nil, false
		}
	}

	if len(items) == 0 {
		items, err = m.lib.Items(ctx, library.Filter{
			TitleSubstring:  textnorm.StripQuotedText(normalizedTitle),
			ArtistSubstring: normalizedArtist,
		})
		if err != nil {
			m.logger.Warn("library search failed",
				logging.String("title", title),
				logging.Error(err))
			return nil, false
		}
	}

	song := pickLibraryCandidate(items, normalizedTitle)

	if song != nil {
		if song.MBID != "" {
			info := recording.NewInfo(song.Artist, song.Album, song.Title, song.Length, song.MBID, 0)
			m.cache.Put(info)
			return info, true
		}
		if m.libraryOnly {
			return nil, false
		}
		// The library row knows the album even though it lacks an ID.
		// Passing it along narrows the catalog search considerably.
		return m.resolver.Find(ctx, artist, title, song.Album)
	}

	if m.libraryOnly {
		return nil, false
	}
	return m.resolver.Find(ctx, artist, title, album)
}

// pickLibraryCandidate chooses the best row from a library search: title
// ratio strictly above the threshold, remix parity with the query, and
// among those the largest non-remix release. The first acceptable row
// stands unless a later one is strictly better.
func pickLibraryCandidate(items []library.Item, normalizedTitle string) *library.Item {
	queryRemix := strings.Contains(normalizedTitle, "remix")

	var song *library.Item
	for i := range items {
		item := &items[i]
		candidateTitle := textnorm.NormalizeTitle(item.Title)

		if textnorm.Ratio(candidateTitle, normalizedTitle) <= textnorm.MatchThreshold {
			continue
		}
		if strings.Contains(candidateTitle, "remix") != queryRemix {
			continue
		}

		if song == nil || (item.TrackTotal > song.TrackTotal && !remixAlbum(item.Album)) {
			song = item
		}
	}
	return song
}

// Match finds the raw library row for a recording, for callers that need
// to write back to the library rather than build a recording. The ID
// lookup tolerates several rows by preferring the largest non-remix
// release; the title fallback additionally checks the artist.
func (m *Matcher) Match(ctx context.Context, rec *recording.Info) (library.Item, bool) {
	var song *library.Item

	if rec.MBID != "" {
		items, err := m.lib.Items(ctx, library.Filter{MBID: rec.MBID})
		if err != nil {
			m.logger.Warn("library id lookup failed",
				logging.String("mbid", rec.MBID),
				logging.Error(err))
			return library.Item{}, false
		}

		if len(items) == 1 {
			song = &items[0]
		} else {
			for i := range items {
				item := &items[i]
				if song == nil || (item.TrackTotal > song.TrackTotal && !remixAlbum(item.Album)) {
					song = item
				}
			}
		}
	}

	if song == nil {
		items, err := m.lib.Items(ctx, library.Filter{
			TitleSubstring: rec.Title,
			HasLengthRange: true,
			LengthMin:      rec.Length - lengthVariance,
			LengthMax:      rec.Length + lengthVariance,
		})
		if err != nil {
			m.logger.Warn("library title search failed",
				logging.String("title", rec.Title),
				logging.Error(err))
			return library.Item{}, false
		}

		if len(items) == 1 {
			song = &items[0]
		} else {
			primary := textnorm.FirstArtist(rec.Artist)
			for i := range items {
				item := &items[i]
				// Substring title hits can collide across songs with
				// similar lengths; require the right artist and a close
				// title before considering the row.
				if rec.Artist != "" && !strings.Contains(item.Artist, primary) {
					continue
				}
				if textnorm.Ratio(item.Title, rec.Title) < textnorm.MatchThreshold {
					continue
				}
				if song == nil || item.TrackTotal > song.TrackTotal {
					song = item
					m.logger.Info("matched library row",
						logging.String("library_title", item.Title),
						logging.String("title", rec.Title))
				}
			}
		}
	}

	if song == nil {
		m.logger.Info("no library row for recording",
			logging.String("title", rec.Title))
		return library.Item{}, false
	}
	return *song, true
}

func remixAlbum(album string) bool {
	album = strings.ToLower(album)
	return strings.Contains(album, "remix")
}
