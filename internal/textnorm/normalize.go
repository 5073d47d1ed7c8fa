package textnorm

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// artistDelimiters are the phrases that separate artists in a credit string.
// Order matters: longer phrases must be replaced before their substrings.
var artistDelimiters = []string{
	", ",
	" x ",
	" X ",
	" & ",
	" vs ",
	" Vs ",
	" Vs. ",
	" vs. ",
	" ft. ",
	" Ft. ",
	" Feat. ",
	" feat. ",
	" featuring ",
	" Featuring ",
	" with ",
	" With ",
}

var (
	spotifySuffixRe = regexp.MustCompile(` - (.+ (Remix|Edit|VIP))`)
	featRe          = regexp.MustCompile(`\([fF](ea)?[tT]\. .+?\)\s*`)
	withRe          = regexp.MustCompile(`\([wW]ith .+?\)\s*`)
	quotedWordRe    = regexp.MustCompile(`(\w+['’]\w+\s*)`)
)

// NormalizeArtists rewrites every known artist delimiter phrase to "; " and
// transliterates the result to ASCII. Delimiter substitution happens before
// transliteration so that unicode variants of the delimiters are untouched.
func NormalizeArtists(artist string) string {
	for _, delimiter := range artistDelimiters {
		artist = strings.ReplaceAll(artist, delimiter, "; ")
	}
	return Transliterate(artist)
}

// SplitArtists splits a credit string into individual artist names.
func SplitArtists(artist string) []string {
	return strings.Split(NormalizeArtists(artist), "; ")
}

// FirstArtist returns the first artist of a credit string, trimmed. When no
// delimiter is present the whole normalized string is returned.
func FirstArtist(artist string) string {
	normalized := NormalizeArtists(artist)
	if idx := strings.Index(normalized, "; "); idx >= 0 {
		return strings.TrimSpace(normalized[:idx])
	}
	return strings.TrimSpace(normalized)
}

// normalizeSpotifySuffix rewrites the Spotify dash convention for remixes and
// edits (" - Artist Remix") into the parenthesized form MusicBrainz uses.
func normalizeSpotifySuffix(title string) string {
	return strings.TrimSpace(spotifySuffixRe.ReplaceAllString(title, " ($1)"))
}

// StripFeat removes parenthesized featuring clauses from a title.
func StripFeat(title string) string {
	title = featRe.ReplaceAllString(title, "")
	title = withRe.ReplaceAllString(title, "")
	return strings.TrimSpace(title)
}

// StripQuotedText removes contracted words ("Won't", "Joe's") from a title.
// Library substring searches use this because apostrophe styles differ
// between taggers.
func StripQuotedText(title string) string {
	return strings.TrimSpace(quotedWordRe.ReplaceAllString(title, ""))
}

// NormalizeTitle canonicalizes a track title for comparison and cache keys.
// The featuring clause is stripped last: bracket normalization can turn a
// square-bracketed feat clause into a parenthesized one that still needs to
// be caught.
func NormalizeTitle(title string) string {
	title = Transliterate(title)
	title = normalizeSpotifySuffix(title)

	// Applied in sequence, not as a single pass: bracket rewrites must land
	// before the "(original mix)" strip can match square-bracketed variants.
	title = strings.ToLower(title)
	title = strings.ReplaceAll(title, "[", "(")
	title = strings.ReplaceAll(title, "]", ")")
	title = strings.ReplaceAll(title, " - ", " ")
	title = strings.ReplaceAll(title, "’", "'")
	title = strings.ReplaceAll(title, "\"", "")
	title = strings.ReplaceAll(title, "(original mix)", "")
	title = strings.ReplaceAll(title, "(album mix)", "")
	title = strings.TrimSpace(title)

	return StripFeat(title)
}

// TitleCase lower-cases, trims, and re-titlecases a string. Used to repair
// artist credits that arrive in all caps or all lowercase.
func TitleCase(s string) string {
	return cases.Title(language.Und).String(strings.TrimSpace(strings.ToLower(s)))
}
