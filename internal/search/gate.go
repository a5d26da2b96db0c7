package search

import (
	"strings"

	"github.com/jonathan/card-analyzer/internal/types"
)

// Verdict is the relevance gate's decision for a result set.
type Verdict int

const (
	// ShowResults means the results are relevant enough to display.
	ShowResults Verdict = iota
	// NoMatches means every result is too weak to be worth showing.
	NoMatches
)

// Short-query shape: at most this many words and characters.
const (
	ShortQueryMaxWords  = 2
	ShortQueryMaxLength = 20
)

// Thresholds configures the relevance gate.
type Thresholds struct {
	// LowScore is the floor below which the best result is always rejected.
	LowScore      float64
	LowScoreShort float64
	// NoWinner is the floor below which the best result must also clearly
	// beat the runner-up (by Gap) to be shown.
	NoWinner      float64
	NoWinnerShort float64
	Gap           float64
}

// DefaultThresholds returns the tuned gate values.
func DefaultThresholds() Thresholds {
	return Thresholds{
		LowScore:      0.25,
		LowScoreShort: 0.20,
		NoWinner:      0.35,
		NoWinnerShort: 0.30,
		Gap:           0.10,
	}
}

// IsShortQuery reports whether a query is a single word or short phrase,
// which gets slightly laxer score floors.
func IsShortQuery(query string) bool {
	trimmed := strings.TrimSpace(query)
	words := len(strings.Fields(trimmed))
	return words <= ShortQueryMaxWords && len(trimmed) <= ShortQueryMaxLength
}

// Assess decides whether a merged, sorted result set is worth showing for
// the query. Results must be sorted by combined score descending.
func (t Thresholds) Assess(results []types.SearchResult, query string) Verdict {
	if len(results) == 0 {
		return NoMatches
	}

	lowScore := t.LowScore
	noWinner := t.NoWinner
	if IsShortQuery(query) {
		lowScore = t.LowScoreShort
		noWinner = t.NoWinnerShort
	}

	best := results[0].Scores.Combined
	if best < lowScore {
		return NoMatches
	}

	if best < noWinner {
		gap := best
		if len(results) > 1 {
			gap = best - results[1].Scores.Combined
		}
		if gap < t.Gap {
			return NoMatches
		}
	}

	return ShowResults
}
