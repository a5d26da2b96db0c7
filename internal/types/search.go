package types

// SearchFilters are the structured metadata filters a search may carry.
// Range fields use pointers so "unset" and "zero" stay distinguishable.
type SearchFilters struct {
	MinGrade    *float64 `json:"min_grade,omitempty"`
	MaxGrade    *float64 `json:"max_grade,omitempty"`
	MinYear     *int     `json:"min_year,omitempty"`
	MaxYear     *int     `json:"max_year,omitempty"`
	Rookie      *bool    `json:"rookie,omitempty"`
	Autographed *bool    `json:"autographed,omitempty"`
	Player      string   `json:"player,omitempty"`
	Brand       string   `json:"brand,omitempty"`
}

// Empty reports whether no filter field is set.
func (f *SearchFilters) Empty() bool {
	if f == nil {
		return true
	}
	return f.MinGrade == nil && f.MaxGrade == nil &&
		f.MinYear == nil && f.MaxYear == nil &&
		f.Rookie == nil && f.Autographed == nil &&
		f.Player == "" && f.Brand == ""
}

// SearchScores carries the per-modality and combined similarity scores
// for one result.
type SearchScores struct {
	Text     float64 `json:"text"`
	Image    float64 `json:"image"`
	Combined float64 `json:"combined"`
}

// SearchResult is one ranked hit from the hybrid search. It is constructed
// fresh per query and never persisted.
type SearchResult struct {
	CardID   string         `json:"card_id"`
	Scores   SearchScores   `json:"scores"`
	Metadata map[string]any `json:"metadata"`
}
