package recording

import "fmt"

// Recording is a bare catalog entry: the minimum identity a remote
// collection reports for one of its members.
type Recording struct {
	Title  string
	Length int
	MBID   string
}

func (r Recording) String() string {
	return fmt.Sprintf("Recording: %s [%d] -> %s", r.Title, r.Length, r.MBID)
}

// Info is the full identity and metadata unit for a track. Length is in
// whole seconds, zero when unknown. MBID is empty while unresolved. Sources
// records the rating each source reported for this track and is the basis
// for conflict detection.
type Info struct {
	Artist string
	Album  string
	Title  string
	Length int
	MBID   string
	Rating int

	// Sources maps a source name to the rating that source reported.
	Sources map[string]int

	// Extra carries free-form attributes such as the loved-track feed
	// timestamp.
	Extra map[string]string
}

// NewInfo constructs an Info with initialized maps.
func NewInfo(artist, album, title string, length int, mbid string, rating int) *Info {
	return &Info{
		Artist:  artist,
		Album:   album,
		Title:   title,
		Length:  length,
		MBID:    mbid,
		Rating:  rating,
		Sources: make(map[string]int),
		Extra:   make(map[string]string),
	}
}

// Valid reports whether every identity field is populated. It is a
// diagnostic predicate only; nothing rejects partially resolved records.
func (i *Info) Valid() bool {
	return i.Artist != "" && i.Album != "" && i.Title != "" && i.Length != 0 && i.MBID != ""
}

// SetSource records the rating a source reported for this track.
func (i *Info) SetSource(source string, rating int) {
	if i.Sources == nil {
		i.Sources = make(map[string]int)
	}
	i.Sources[source] = rating
}

// Clone returns an independent copy. Callers that stamp a rating onto a
// resolved record must clone first: resolvers hand out their cache's own
// entry, and writing through that pointer would edit the cache.
func (i *Info) Clone() *Info {
	if i == nil {
		return nil
	}
	clone := *i
	clone.Sources = make(map[string]int, len(i.Sources))
	for source, rating := range i.Sources {
		clone.Sources[source] = rating
	}
	clone.Extra = make(map[string]string, len(i.Extra))
	for key, value := range i.Extra {
		clone.Extra[key] = value
	}
	return &clone
}

func (i *Info) String() string {
	return fmt.Sprintf("Recording: %s [%d] -> %s", i.Title, i.Length, i.MBID)
}
