// Package validation promotes best-effort extracted card data into complete,
// trusted card records by enforcing the domain invariants.
package validation

import (
	"fmt"
	"strings"

	"github.com/jonathan/card-analyzer/internal/types"
)

// DefaultSport is the classification tag a card must carry to pass
// validation unless configured otherwise.
const DefaultSport = "NBA"

// DomainMismatchError reports a card whose sport tag is not the expected one.
type DomainMismatchError struct {
	Detected string
	Expected string
}

func (e *DomainMismatchError) Error() string {
	detected := e.Detected
	if detected == "" {
		detected = "unknown"
	}
	return fmt.Sprintf("card is not an %s card. Detected sport: %s", e.Expected, detected)
}

// MissingFieldsError reports every required field absent from the extraction,
// not just the first.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

// ValidateCard checks the extracted record against the domain invariants and,
// on success, builds the complete immutable CardRecord. Unset booleans default
// to false; optional strings stay absent. The check order is fixed: domain
// gate first, then required fields.
func ValidateCard(extracted *types.ExtractedCard, expectedSport string) (*types.CardRecord, error) {
	if extracted == nil {
		return nil, fmt.Errorf("no extracted information available")
	}
	if expectedSport == "" {
		expectedSport = DefaultSport
	}

	sport := strValue(extracted.Meta.Sport)
	if sport != expectedSport {
		return nil, &DomainMismatchError{Detected: sport, Expected: expectedSport}
	}

	var missing []string
	if strValue(extracted.Grading.CertNumber) == "" {
		missing = append(missing, "cert_number")
	}
	if strValue(extracted.Player.Name) == "" {
		missing = append(missing, "player_name")
	}
	if extracted.Details.Year == nil || *extracted.Details.Year == 0 {
		missing = append(missing, "year")
	}
	if strValue(extracted.Details.Brand) == "" {
		missing = append(missing, "brand")
	}
	if len(missing) > 0 {
		return nil, &MissingFieldsError{Fields: missing}
	}

	card := &types.CardRecord{
		Grading: types.Grading{
			CertNumber:     *extracted.Grading.CertNumber,
			Grade:          floatValue(extracted.Grading.Grade),
			GradeLabel:     strValue(extracted.Grading.GradeLabel),
			AutographGrade: extracted.Grading.AutographGrade,
		},
		Player: types.Player{
			Name:     *extracted.Player.Name,
			Team:     strValue(extracted.Player.Team),
			Position: strValue(extracted.Player.Position),
		},
		Details: types.Details{
			Year:         *extracted.Details.Year,
			Brand:        *extracted.Details.Brand,
			SetName:      strValue(extracted.Details.SetName),
			CardNumber:   strValue(extracted.Details.CardNumber),
			Variant:      strValue(extracted.Details.Variant),
			CardType:     strValue(extracted.Details.CardType),
			SerialNumber: strValue(extracted.Details.SerialNumber),
			Autographed:  boolValue(extracted.Details.Autographed),
			Rookie:       boolValue(extracted.Details.Rookie),
		},
		Meta: types.Meta{
			Sport:          sport,
			Rarity:         normalizeRarity(strValue(extracted.Meta.Rarity)),
			EstimatedValue: strValue(extracted.Meta.EstimatedValue),
			Notes:          strValue(extracted.Meta.Notes),
		},
	}
	return card, nil
}

// normalizeRarity keeps only known rarity labels; anything else is dropped
// rather than carried forward as junk metadata.
func normalizeRarity(raw string) types.Rarity {
	for _, r := range types.ValidRarities() {
		if strings.EqualFold(raw, string(r)) {
			return r
		}
	}
	return ""
}

func strValue(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

func floatValue(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func boolValue(p *bool) bool {
	if p == nil {
		return false
	}
	return *p
}
