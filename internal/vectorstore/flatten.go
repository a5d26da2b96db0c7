package vectorstore

import (
	"time"

	"github.com/jonathan/card-analyzer/internal/types"
)

// Payload keys shared between indexing and search filtering. Filters built
// in the search layer must use the same names.
const (
	KeyCardID         = "card_id"
	KeyPlayerName     = "player_name"
	KeyCardYear       = "card_year"
	KeyCardBrand      = "card_brand"
	KeyCardRookie     = "card_rookie"
	KeyCardAutograph  = "card_autographed"
	KeyCertNumber     = "cert_number"
	KeyGrade          = "grade"
	KeyTimestamp      = "timestamp"
	KeyTextDesc       = "text_description"
)

// FlattenCard converts a card record into the scalar-only payload stored
// alongside both vectors. Optional string fields flatten to "" so the key
// set is identical for every card.
func FlattenCard(cardID string, card *types.CardRecord, textDescription string) map[string]any {
	autographGrade := 0.0
	if card.Grading.AutographGrade != nil {
		autographGrade = *card.Grading.AutographGrade
	}

	return map[string]any{
		KeyCardID:    cardID,
		KeyTimestamp: time.Now().UTC().Format(time.RFC3339),

		KeyPlayerName:     card.Player.Name,
		"player_team":     card.Player.Team,
		"player_position": card.Player.Position,

		KeyCardYear:          float64(card.Details.Year),
		KeyCardBrand:         card.Details.Brand,
		"card_set_name":      card.Details.SetName,
		"card_number":        card.Details.CardNumber,
		"card_variant":       card.Details.Variant,
		"card_type":          card.Details.CardType,
		"card_serial_number": card.Details.SerialNumber,
		KeyCardAutograph:     card.Details.Autographed,
		KeyCardRookie:        card.Details.Rookie,

		KeyCertNumber:      card.Grading.CertNumber,
		KeyGrade:           card.Grading.Grade,
		"grade_label":      card.Grading.GradeLabel,
		"autograph_grade":  autographGrade,

		"sport":           card.Meta.Sport,
		"rarity":          string(card.Meta.Rarity),
		"estimated_value": card.Meta.EstimatedValue,
		"notes":           card.Meta.Notes,

		KeyTextDesc: textDescription,
	}
}
