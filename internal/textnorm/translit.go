package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// asciiFolds maps characters that NFD decomposition cannot reduce to their
// conventional ASCII spellings.
var asciiFolds = map[rune]string{
	'ß': "ss",
	'ẞ': "SS",
	'æ': "ae",
	'Æ': "AE",
	'œ': "oe",
	'Œ': "OE",
	'ø': "o",
	'Ø': "O",
	'đ': "d",
	'Đ': "D",
	'ð': "d",
	'Ð': "D",
	'þ': "th",
	'Þ': "Th",
	'ł': "l",
	'Ł': "L",
	'ı': "i",
	'–': "-",
	'—': "-",
	'“': "\"",
	'”': "\"",
	'‘': "'",
	'’': "'",
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Transliterate converts a string to its closest ASCII equivalent: combining
// marks are stripped (é -> e) and a small fold table handles characters with
// no decomposition (ß -> ss). Runes with no ASCII rendering are dropped.
func Transliterate(s string) string {
	folded, _, err := transform.String(stripMarks, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if r < 128 {
			b.WriteRune(r)
			continue
		}
		if repl, ok := asciiFolds[r]; ok {
			b.WriteString(repl)
		}
	}
	return b.String()
}
