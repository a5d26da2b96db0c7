// Package types defines the shared data structures for the card analyzer.
package types

// Rarity is the closed set of rarity labels the extractor may assign.
type Rarity string

// Rarity values, from most to least common.
const (
	RarityCommon        Rarity = "Common"
	RarityUncommon      Rarity = "Uncommon"
	RarityRare          Rarity = "Rare"
	RarityVeryRare      Rarity = "Very Rare"
	RarityExtremelyRare Rarity = "Extremely Rare"
)

// ValidRarities returns all accepted rarity labels.
func ValidRarities() []Rarity {
	return []Rarity{RarityCommon, RarityUncommon, RarityRare, RarityVeryRare, RarityExtremelyRare}
}

// Grading holds the certification label information read off the slab.
type Grading struct {
	CertNumber     string   `json:"cert_number" validate:"required"`
	Grade          float64  `json:"grade" validate:"required,gte=1,lte=10"`
	GradeLabel     string   `json:"grade_label"`
	AutographGrade *float64 `json:"autograph_grade,omitempty"`
}

// Player identifies the subject of the card.
type Player struct {
	Name     string `json:"name" validate:"required"`
	Team     string `json:"team"`
	Position string `json:"position,omitempty"`
}

// Details describes the physical card within its set.
type Details struct {
	Year         int    `json:"year" validate:"required"`
	Brand        string `json:"brand" validate:"required"`
	SetName      string `json:"set_name"`
	CardNumber   string `json:"card_number"`
	Variant      string `json:"variant,omitempty"`
	CardType     string `json:"card_type,omitempty"`
	SerialNumber string `json:"serial_number,omitempty"`
	Autographed  bool   `json:"autographed"`
	Rookie       bool   `json:"rookie"`
}

// Meta holds classification and free-text context.
type Meta struct {
	Sport          string `json:"sport" validate:"required"`
	Rarity         Rarity `json:"rarity,omitempty"`
	EstimatedValue string `json:"estimated_value,omitempty"`
	Notes          string `json:"notes,omitempty"`
}

// CardRecord is a fully validated graded-card record. It is produced by the
// validation stage and must not be mutated afterwards.
type CardRecord struct {
	Grading Grading `json:"grading"`
	Player  Player  `json:"player"`
	Details Details `json:"details"`
	Meta    Meta    `json:"meta"`
}

// ExtractedCard is the best-effort output of the vision extraction stage.
// Every field is optional; the validation stage promotes it to a CardRecord.
type ExtractedCard struct {
	Grading struct {
		CertNumber     *string  `json:"cert_number,omitempty"`
		Grade          *float64 `json:"grade,omitempty"`
		GradeLabel     *string  `json:"grade_label,omitempty"`
		AutographGrade *float64 `json:"autograph_grade,omitempty"`
	} `json:"grading"`
	Player struct {
		Name     *string `json:"name,omitempty"`
		Team     *string `json:"team,omitempty"`
		Position *string `json:"position,omitempty"`
	} `json:"player"`
	Details struct {
		Year         *int    `json:"year,omitempty"`
		Brand        *string `json:"brand,omitempty"`
		SetName      *string `json:"set_name,omitempty"`
		CardNumber   *string `json:"card_number,omitempty"`
		Variant      *string `json:"variant,omitempty"`
		CardType     *string `json:"card_type,omitempty"`
		SerialNumber *string `json:"serial_number,omitempty"`
		Autographed  *bool   `json:"autographed,omitempty"`
		Rookie       *bool   `json:"rookie,omitempty"`
	} `json:"details"`
	Meta struct {
		Sport          *string `json:"sport,omitempty"`
		Rarity         *string `json:"rarity,omitempty"`
		EstimatedValue *string `json:"estimated_value,omitempty"`
		Notes          *string `json:"notes,omitempty"`
	} `json:"meta"`
}

// Verification is the outcome of the certification registry lookup.
// IsValid stays true on an inconclusive lookup; Details records what
// the registry confirmed (or why it could not).
type Verification struct {
	IsValid    bool           `json:"is_valid"`
	CertNumber string         `json:"cert_number,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
}

// WebSearchResult is a single snippet returned by the enrichment search.
type WebSearchResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}
