package textnorm

import (
	"math"

	"github.com/hbollon/go-edlib"
)

// MatchThreshold is the fixed acceptance score for "same title". Candidates
// scoring at or below it are rejected everywhere titles are compared.
const MatchThreshold = 90

// Ratio scores the similarity of two strings on a 0-100 scale using
// normalized Levenshtein distance. Identical strings score 100.
func Ratio(a, b string) int {
	if a == b {
		return 100
	}
	similarity, err := edlib.StringsSimilarity(a, b, edlib.Levenshtein)
	if err != nil {
		return 0
	}
	return int(math.Round(float64(similarity) * 100))
}
