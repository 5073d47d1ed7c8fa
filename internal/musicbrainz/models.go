package musicbrainz

import "strings"

// ArtistCredit is one entry of an artist credit list; Name plus JoinPhrase
// concatenate into the display phrase.
type ArtistCredit struct {
	Name       string `json:"name"`
	JoinPhrase string `json:"joinphrase"`
	Artist     Artist `json:"artist"`
}

// Artist is the credited artist entity.
type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CreditPhrase joins an artist credit list into its display form.
func CreditPhrase(credits []ArtistCredit) string {
	var b strings.Builder
	for _, credit := range credits {
		name := credit.Name
		if name == "" {
			name = credit.Artist.Name
		}
		b.WriteString(name)
		b.WriteString(credit.JoinPhrase)
	}
	return b.String()
}

// ReleaseGroup is a search result grouping the editions of one album.
type ReleaseGroup struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	PrimaryType string       `json:"primary-type"`
	Releases    []ReleaseRef `json:"releases"`
}

// Type returns the primary type, with "Unknown" for untyped groups so type
// sorting remains total.
func (rg ReleaseGroup) Type() string {
	if rg.PrimaryType == "" {
		return "Unknown"
	}
	return rg.PrimaryType
}

// ReleaseRef identifies a release inside a release group result.
type ReleaseRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Track is one track on a release medium.
type Track struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Recording RecordingSummary `json:"recording"`
}

// RecordingSummary is the recording identity embedded in a track or search
// result. Length is in milliseconds, zero when unknown.
type RecordingSummary struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Length int    `json:"length"`
}

// Medium is one physical or digital unit of a release.
type Medium struct {
	Format string  `json:"format"`
	Tracks []Track `json:"tracks"`
}

// Release is a full release lookup result.
type Release struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	ArtistCredit []ArtistCredit `json:"artist-credit"`
	Media        []Medium       `json:"media"`
}

// ArtistCreditPhrase returns the release's display artist credit.
func (r Release) ArtistCreditPhrase() string {
	return CreditPhrase(r.ArtistCredit)
}

// ReleaseInfo is the abbreviated release embedded in a recording search
// result.
type ReleaseInfo struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	ArtistCredit []ArtistCredit `json:"artist-credit"`
	Media        []Medium       `json:"media"`
}

// ArtistCreditPhrase returns the embedded release's display artist credit.
func (r ReleaseInfo) ArtistCreditPhrase() string {
	return CreditPhrase(r.ArtistCredit)
}

// RecordingResult is a recording search or lookup result. Length is in
// milliseconds.
type RecordingResult struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Length       int            `json:"length"`
	ArtistCredit []ArtistCredit `json:"artist-credit"`
	Releases     []ReleaseInfo  `json:"releases"`
}

// ArtistCreditPhrase returns the recording's display artist credit.
func (r RecordingResult) ArtistCreditPhrase() string {
	return CreditPhrase(r.ArtistCredit)
}

// Collection is a user collection, of recordings or otherwise.
type Collection struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	EntityType string `json:"entity-type"`
}

// CollectionEntry is one recording inside a recording collection. Length is
// in milliseconds, zero when the catalog has none.
type CollectionEntry struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Length int    `json:"length"`
}

type releaseGroupSearchResponse struct {
	ReleaseGroups []ReleaseGroup `json:"release-groups"`
}

type recordingSearchResponse struct {
	Recordings []RecordingResult `json:"recordings"`
}

type collectionListResponse struct {
	Collections []Collection `json:"collections"`
}

type collectionRecordingsResponse struct {
	Recordings     []CollectionEntry `json:"recordings"`
	RecordingCount int               `json:"recording-count"`
}
