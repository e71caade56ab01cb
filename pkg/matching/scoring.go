package matching

import (
	"math"

	"github.com/civicreach/govlead/pkg/normalizers"
)

// Scorer computes institution name similarity on a 0-100 scale
type Scorer struct{}

// NewScorer creates a new Scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// Similarity scores two institution names from 0 (no similarity) to 100
// (identical after normalization). The score is the normalized Levenshtein
// distance over the cleaned names: round((1 - distance/maxLen) * 100).
func (s *Scorer) Similarity(a, b string) int {
	na := normalizers.NormalizeInstitution(a)
	nb := normalizers.NormalizeInstitution(b)

	if na == nb {
		return 100
	}
	if na == "" || nb == "" {
		return 0
	}

	ra := []rune(na)
	rb := []rune(nb)

	distance := s.levenshtein(ra, rb)
	maxLen := max(len(ra), len(rb))

	return int(math.Round((1.0 - float64(distance)/float64(maxLen)) * 100))
}

// LevenshteinDistance calculates the edit distance between two strings
func (s *Scorer) LevenshteinDistance(a, b string) int {
	return s.levenshtein([]rune(a), []rune(b))
}

func (s *Scorer) levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	// Two rows for dynamic programming
	row := make([]int, len(b)+1)
	prevRow := make([]int, len(b)+1)

	for j := 0; j <= len(b); j++ {
		prevRow[j] = j
	}

	for i := 1; i <= len(a); i++ {
		row[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			row[j] = min(min(row[j-1]+1, prevRow[j]+1), prevRow[j-1]+cost)
		}
		row, prevRow = prevRow, row
	}

	return prevRow[len(b)]
}
