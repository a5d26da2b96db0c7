package observability

import (
	"bytes"
	"strings"
	"testing"

	"github.com/jonathan/card-analyzer/internal/pipeline"
	"github.com/jonathan/card-analyzer/internal/types"
	"github.com/jonathan/card-analyzer/internal/vectorstore"
	"github.com/stretchr/testify/assert"
)

func sampleCard() *types.CardRecord {
	return &types.CardRecord{
		Grading: types.Grading{CertNumber: "12345678", Grade: 10, GradeLabel: "GEM MT"},
		Player:  types.Player{Name: "LeBron James", Team: "Cleveland Cavaliers"},
		Details: types.Details{
			Year: 2003, Brand: "Topps", SetName: "Chrome", CardNumber: "111",
			Rookie: true,
		},
		Meta: types.Meta{Sport: "NBA", EstimatedValue: "$1,500 - $2,000"},
	}
}

func TestPrintCard(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintCard(sampleCard())
	output := buf.String()

	assert.Contains(t, output, "EXTRACTED CARD")
	assert.Contains(t, output, "LeBron James")
	assert.Contains(t, output, "2003 Topps Chrome #111")
	assert.Contains(t, output, "PSA 10 GEM MT")
	assert.Contains(t, output, "12345678")
	assert.Contains(t, output, "Rookie")
}

func TestPrintCard_Nil(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintCard(nil)

	assert.Empty(t, buf.String())
}

func TestPrintVerification(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintVerification(&types.Verification{
		IsValid:    true,
		CertNumber: "12345678",
		Details: map[string]any{
			"registry_grade":  10.0,
			"registry_player": "LeBron James",
		},
	})
	output := buf.String()

	assert.Contains(t, output, "CERTIFICATION CHECK")
	assert.Contains(t, output, "✓ verified")
	assert.Contains(t, output, "12345678")
	assert.Contains(t, output, "grade 10")
	assert.Contains(t, output, "player LeBron James")
}

func TestPrintVerification_Inconclusive(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintVerification(&types.Verification{
		IsValid:    true,
		CertNumber: "12345678",
		Details:    map[string]any{"note": "registry lookup inconclusive"},
	})
	output := buf.String()

	assert.Contains(t, output, "registry lookup inconclusive")
}

func TestPrintDescription(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	results := []types.WebSearchResult{
		{Title: "LeBron James rookie card values", Link: "https://example.com"},
	}
	p.PrintDescription("A 2003 Topps Chrome LeBron James rookie.", results)
	output := buf.String()

	assert.Contains(t, output, "DESCRIPTION")
	assert.Contains(t, output, "2003 Topps Chrome")
	assert.Contains(t, output, "Web sources")
	assert.Contains(t, output, "rookie card values")
}

func TestPrintDescription_Empty(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintDescription("", nil)

	assert.Empty(t, buf.String())
}

func TestPrintSearchResults(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	results := []types.SearchResult{
		{
			CardID: "card-1",
			Scores: types.SearchScores{Text: 0.8, Image: 0.6, Combined: 0.7},
			Metadata: map[string]any{
				vectorstore.KeyPlayerName: "LeBron James",
				vectorstore.KeyTextDesc:   "2003 Topps Chrome rookie",
			},
		},
		{
			CardID: "card-2",
			Scores: types.SearchScores{Text: 0.4, Combined: 0.2},
		},
	}

	p.PrintSearchResults(results)
	output := buf.String()

	assert.Contains(t, output, "SEARCH RESULTS")
	assert.Contains(t, output, "Total results: 2")
	assert.Contains(t, output, "LeBron James")
	assert.Contains(t, output, "0.700")
	assert.Contains(t, output, "card-2")
}

func TestPrintSearchResults_Empty(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintSearchResults(nil)

	assert.Contains(t, buf.String(), "No results")
}

func TestPrintFailure(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintFailure(&pipeline.Failure{
		Kind:   pipeline.FailureDomainMismatch,
		Reason: "expected NBA card, got MLB",
	})
	output := buf.String()

	assert.Contains(t, output, "ANALYSIS FAILED")
	assert.Contains(t, output, "domain_mismatch")
	assert.Contains(t, output, "expected NBA card")
}

func TestPrintFailure_Nil(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintFailure(nil)

	assert.Contains(t, buf.String(), "ANALYSIS COMPLETE")
}

func TestPrintBox_LongLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	card := sampleCard()
	card.Meta.Notes = strings.Repeat("very long note ", 20)
	card.Player.Name = "A Player With An Extremely Long Name That Overflows The Box"

	p.PrintCard(card)
	output := buf.String()

	assert.True(t, strings.Contains(output, "┌"))
	assert.True(t, strings.Contains(output, "└"))
	assert.True(t, strings.Contains(output, "│"))
}
