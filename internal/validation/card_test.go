package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/card-analyzer/internal/types"
)

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }

func floatPtr(f float64) *float64 { return &f }

func boolPtr(b bool) *bool { return &b }

func completeExtraction() *types.ExtractedCard {
	e := &types.ExtractedCard{}
	e.Grading.CertNumber = strPtr("12345678")
	e.Grading.Grade = floatPtr(10)
	e.Grading.GradeLabel = strPtr("GEM MT")
	e.Player.Name = strPtr("LeBron James")
	e.Player.Team = strPtr("Cleveland Cavaliers")
	e.Details.Year = intPtr(2003)
	e.Details.Brand = strPtr("Topps")
	e.Details.SetName = strPtr("Chrome")
	e.Details.Rookie = boolPtr(true)
	e.Meta.Sport = strPtr("NBA")
	e.Meta.Rarity = strPtr("Rare")
	return e
}

func TestValidateCard_Complete(t *testing.T) {
	card, err := ValidateCard(completeExtraction(), "NBA")
	require.NoError(t, err)
	require.NotNil(t, card)

	assert.Equal(t, "12345678", card.Grading.CertNumber)
	assert.Equal(t, 10.0, card.Grading.Grade)
	assert.Equal(t, "LeBron James", card.Player.Name)
	assert.Equal(t, 2003, card.Details.Year)
	assert.Equal(t, "Topps", card.Details.Brand)
	assert.True(t, card.Details.Rookie)
	assert.False(t, card.Details.Autographed, "unset booleans default to false")
	assert.Equal(t, types.RarityRare, card.Meta.Rarity)
}

func TestValidateCard_NilExtraction(t *testing.T) {
	card, err := ValidateCard(nil, "NBA")
	assert.Error(t, err)
	assert.Nil(t, card)
}

func TestValidateCard_DomainMismatch(t *testing.T) {
	e := completeExtraction()
	e.Meta.Sport = strPtr("MLB")

	card, err := ValidateCard(e, "NBA")
	assert.Nil(t, card)

	var mismatch *DomainMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, "MLB", mismatch.Detected)
	assert.Equal(t, "NBA", mismatch.Expected)
	assert.Contains(t, err.Error(), "not an NBA card")
}

func TestValidateCard_MissingSportIsMismatch(t *testing.T) {
	e := completeExtraction()
	e.Meta.Sport = nil

	_, err := ValidateCard(e, "NBA")

	var mismatch *DomainMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Contains(t, err.Error(), "unknown")
}

func TestValidateCard_DomainGateRunsBeforeFieldChecks(t *testing.T) {
	// A card with the wrong sport and missing fields reports the mismatch,
	// not the missing fields.
	e := &types.ExtractedCard{}
	e.Meta.Sport = strPtr("NFL")

	_, err := ValidateCard(e, "NBA")

	var mismatch *DomainMismatchError
	assert.True(t, errors.As(err, &mismatch))
}

func TestValidateCard_CollectsAllMissingFields(t *testing.T) {
	e := &types.ExtractedCard{}
	e.Meta.Sport = strPtr("NBA")

	card, err := ValidateCard(e, "NBA")
	assert.Nil(t, card)

	var missing *MissingFieldsError
	require.True(t, errors.As(err, &missing))
	assert.ElementsMatch(t, []string{"cert_number", "player_name", "year", "brand"}, missing.Fields)
}

func TestValidateCard_ZeroYearIsMissing(t *testing.T) {
	e := completeExtraction()
	e.Details.Year = intPtr(0)

	_, err := ValidateCard(e, "NBA")

	var missing *MissingFieldsError
	require.True(t, errors.As(err, &missing))
	assert.Contains(t, missing.Fields, "year")
}

func TestValidateCard_WhitespaceOnlyIsMissing(t *testing.T) {
	e := completeExtraction()
	e.Grading.CertNumber = strPtr("   ")

	_, err := ValidateCard(e, "NBA")

	var missing *MissingFieldsError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"cert_number"}, missing.Fields)
}

func TestValidateCard_EmptyExpectedSportUsesDefault(t *testing.T) {
	e := completeExtraction()

	card, err := ValidateCard(e, "")
	require.NoError(t, err)
	assert.Equal(t, DefaultSport, card.Meta.Sport)
}

func TestValidateCard_CustomExpectedSport(t *testing.T) {
	e := completeExtraction()
	e.Meta.Sport = strPtr("MLB")

	card, err := ValidateCard(e, "MLB")
	require.NoError(t, err)
	assert.Equal(t, "MLB", card.Meta.Sport)
}

func TestNormalizeRarity(t *testing.T) {
	tests := []struct {
		raw  string
		want types.Rarity
	}{
		{"Rare", types.RarityRare},
		{"rare", types.RarityRare},
		{"EXTREMELY RARE", types.RarityExtremelyRare},
		{"Legendary", ""},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeRarity(tt.raw), "raw=%q", tt.raw)
	}
}
