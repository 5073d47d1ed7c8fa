package songsearch

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"strings"

	"ratingsync/internal/logging"
	"ratingsync/internal/matchcache"
	"ratingsync/internal/musicbrainz"
	"ratingsync/internal/recording"
	"ratingsync/internal/textnorm"
)

// Catalog is the remote catalog capability the engine consumes.
type Catalog interface {
	SearchReleaseGroups(ctx context.Context, artist, release string, strict bool) ([]musicbrainz.ReleaseGroup, error)
	SearchRecordings(ctx context.Context, artist, title string, strict bool) ([]musicbrainz.RecordingResult, error)
	GetRelease(ctx context.Context, id string) (*musicbrainz.Release, error)
	GetRecording(ctx context.Context, id string) (*musicbrainz.RecordingResult, error)
}

// acceptedFormats are the release medium formats worth matching against.
// Vinyl and other physical-only pressings carry track timings that rarely
// line up with digital libraries.
var acceptedFormats = map[string]bool{
	"Digital Media": true,
	"CD":            true,
}

// Engine finds the best-matching catalog recording for a track query.
type Engine struct {
	catalog Catalog
	cache   *matchcache.Cache
	logger  *slog.Logger
}

// New creates a search engine. The cache is consulted before any remote
// call and updated after every successful resolution.
func New(catalog Catalog, cache *matchcache.Cache, logger *slog.Logger) *Engine {
	return &Engine{
		catalog: catalog,
		cache:   cache,
		logger:  logging.NewComponentLogger(logger, "songsearch"),
	}
}

// Find resolves an (artist, title, album) query to a fully populated
// recording. The album defaults to the title; when they differ and the
// album-oriented search misses, the literal title is retried as the
// release name before falling back to a recording search.
func (e *Engine) Find(ctx context.Context, artist, title, album string) (*recording.Info, bool) {
	if info, ok := e.cache.Get(artist, title, album); ok {
		return info, true
	}

	if album == "" {
		album = title
	}

	searchArtist := strings.ToLower(strings.TrimSpace(textnorm.Transliterate(artist)))

	info, ok := e.searchReleases(ctx, searchArtist, strings.ToLower(strings.TrimSpace(album)), title, true)
	if !ok && album != title {
		info, ok = e.searchReleases(ctx, searchArtist, strings.ToLower(strings.TrimSpace(title)), title, true)
	}
	if !ok {
		info, ok = e.searchRecordings(ctx, searchArtist, title, true)
	}
	if !ok {
		return nil, false
	}

	e.cache.Put(info)
	return info, true
}

// FindByID resolves a known recording ID to a populated record.
func (e *Engine) FindByID(ctx context.Context, mbid string) (*recording.Info, bool) {
	if info, ok := e.cache.GetByMBID(mbid); ok {
		return info, true
	}

	rec, err := e.catalog.GetRecording(ctx, mbid)
	if err != nil {
		e.logger.Warn("recording lookup failed",
			logging.String("mbid", mbid),
			logging.Error(err))
		return nil, false
	}

	artist := ""
	if len(rec.ArtistCredit) > 0 {
		artist = textnorm.TitleCase(rec.ArtistCredit[0].Artist.Name)
	}
	album := ""
	if len(rec.Releases) > 0 {
		album = rec.Releases[0].Title
	}

	info := recording.NewInfo(artist, album, rec.Title, millisToSeconds(rec.Length), mbid, 0)
	e.cache.Put(info)
	return info, true
}

// searchReleases walks release groups matching artist and release name,
// preferring full albums, and scans their track lists for the query title.
func (e *Engine) searchReleases(ctx context.Context, artist, release, title string, strict bool) (*recording.Info, bool) {
	primary := strings.ToLower(strings.TrimSpace(textnorm.FirstArtist(artist)))
	queryTitle := textnorm.StripFeat(strings.ToLower(strings.TrimSpace(title)))

	groups, err := e.catalog.SearchReleaseGroups(ctx, artist, textnorm.StripFeat(release), strict)
	if err != nil {
		e.logger.Warn("release group search failed",
			logging.String("artist", artist),
			logging.String("release", release),
			logging.Error(err))
		return nil, false
	}

	// Alphabetical type order happens to put Album before EP before
	// Single, which is exactly the preference we want.
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Type() < groups[j].Type()
	})

	if len(groups) == 0 && strict {
		return e.searchReleases(ctx, artist, release, title, false)
	}

	for _, group := range groups {
		for _, ref := range group.Releases {
			rel, err := e.catalog.GetRelease(ctx, ref.ID)
			if err != nil {
				e.logger.Debug("release lookup failed",
					logging.String("release_id", ref.ID),
					logging.Error(err))
				continue
			}
			if len(rel.Media) == 0 || !acceptedFormats[rel.Media[0].Format] {
				continue
			}

			credit := strings.ToLower(strings.TrimSpace(rel.ArtistCreditPhrase()))
			if !strings.Contains(credit, primary) {
				continue
			}

			// A remix release only matches a remix query.
			releaseTitle := strings.ToLower(rel.Title)
			if strings.Contains(releaseTitle, "remix") && !strings.Contains(queryTitle, "remix") {
				continue
			}

			for _, track := range rel.Media[0].Tracks {
				candidate := textnorm.StripFeat(strings.ToLower(strings.TrimSpace(track.Recording.Title)))
				if !extendedParity(candidate, queryTitle) {
					continue
				}
				if textnorm.Ratio(candidate, queryTitle) < textnorm.MatchThreshold {
					continue
				}

				info := recording.NewInfo(
					rel.ArtistCreditPhrase(),
					rel.Title,
					track.Recording.Title,
					millisToSeconds(track.Recording.Length),
					track.Recording.ID,
					0,
				)
				e.logger.Debug("release search matched",
					logging.String("mbid", info.MBID),
					logging.String("title", info.Title))
				return info, true
			}
		}
	}

	if strict {
		return e.searchReleases(ctx, artist, release, title, false)
	}
	return nil, false
}

// searchRecordings is the fallback path: search recordings directly by
// title, prefer those linked to the most releases, and require at least
// one acceptable release by the queried artist.
func (e *Engine) searchRecordings(ctx context.Context, artist, title string, strict bool) (*recording.Info, bool) {
	primary := strings.ToLower(strings.TrimSpace(textnorm.FirstArtist(artist)))
	queryTitle := textnorm.NormalizeTitle(title)

	results, err := e.catalog.SearchRecordings(ctx, artist, queryTitle, strict)
	if err != nil {
		e.logger.Warn("recording search failed",
			logging.String("artist", artist),
			logging.String("title", title),
			logging.Error(err))
		return nil, false
	}

	if len(results) == 0 && strict {
		return e.searchRecordings(ctx, artist, title, false)
	}

	candidates := results[:0:0]
	for _, rec := range results {
		credit := strings.ToLower(strings.TrimSpace(rec.ArtistCreditPhrase()))
		if strings.Contains(credit, primary) {
			candidates = append(candidates, rec)
		}
	}

	// The recording linked to the most releases is presumed the most
	// canonical take.
	sort.SliceStable(candidates, func(i, j int) bool {
		return len(candidates[i].Releases) > len(candidates[j].Releases)
	})

	for _, rec := range candidates {
		candidate := textnorm.StripFeat(strings.ToLower(strings.TrimSpace(rec.Title)))
		if !extendedParity(candidate, queryTitle) {
			continue
		}
		if textnorm.Ratio(candidate, queryTitle) < textnorm.MatchThreshold {
			continue
		}

		release, ok := artistRelease(rec.Releases, primary)
		if !ok {
			// A recording with no acceptable release by this artist is
			// skipped even on a perfect title match.
			continue
		}

		info := recording.NewInfo(
			rec.ArtistCreditPhrase(),
			release.Title,
			rec.Title,
			millisToSeconds(rec.Length),
			rec.ID,
			0,
		)
		e.logger.Debug("recording search matched",
			logging.String("mbid", info.MBID),
			logging.String("title", info.Title))
		return info, true
	}

	if strict {
		return e.searchRecordings(ctx, artist, title, false)
	}
	return nil, false
}

// artistRelease finds the first linked release credited to the primary
// artist on an accepted medium format.
func artistRelease(releases []musicbrainz.ReleaseInfo, primary string) (musicbrainz.ReleaseInfo, bool) {
	for _, release := range releases {
		if !strings.Contains(strings.ToLower(release.ArtistCreditPhrase()), primary) {
			continue
		}
		if len(release.Media) == 0 || !acceptedFormats[release.Media[0].Format] {
			continue
		}
		return release, true
	}
	return musicbrainz.ReleaseInfo{}, false
}

// extendedParity reports whether both titles agree on being (or not being)
// an extended mix.
func extendedParity(a, b string) bool {
	return strings.Contains(a, "extended") == strings.Contains(b, "extended")
}

func millisToSeconds(ms int) int {
	return int(math.Round(float64(ms) / 1000.0))
}
