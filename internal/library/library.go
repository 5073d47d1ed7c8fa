package library

import "context"

// Item is one track row in the local library. Length is rounded to whole
// seconds. TrackTotal is the number of tracks on the item's release, used
// as a proxy for how canonical that release is.
type Item struct {
	ID         int64
	Artist     string
	Album      string
	Title      string
	Length     int
	TrackTotal int
	MBID       string
	Rating     int
}

// Filter describes a conjunctive library query. Zero-valued fields are
// unset; every set field must match.
type Filter struct {
	// MBID matches exactly.
	MBID string
	// TitleSubstring, ArtistSubstring, and AlbumSubstring match
	// case-insensitively anywhere in the field.
	TitleSubstring  string
	ArtistSubstring string
	AlbumSubstring  string
	// LengthMin and LengthMax bound the item length inclusively when
	// HasLengthRange is set.
	HasLengthRange bool
	LengthMin      int
	LengthMax      int
}

// Empty reports whether no predicate is set.
func (f Filter) Empty() bool {
	return f.MBID == "" && f.TitleSubstring == "" && f.ArtistSubstring == "" &&
		f.AlbumSubstring == "" && !f.HasLengthRange
}

// Library is the queryable local music library.
type Library interface {
	// Items returns all items matching the filter, in stable library order.
	Items(ctx context.Context, filter Filter) ([]Item, error)
	// SetRating persists a rating on an item.
	SetRating(ctx context.Context, itemID int64, rating int) error
}
