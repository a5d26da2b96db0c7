package description

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/card-analyzer/internal/llm"
	"github.com/jonathan/card-analyzer/internal/types"
)

type fakeLLM struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeLLM) GenerateContent(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.response, f.err
}

func (f *fakeLLM) GenerateJSON(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	return f.response, f.err
}

func (f *fakeLLM) GenerateJSONFromImage(ctx context.Context, systemPrompt, prompt, mimeType string, image []byte, tier llm.ModelTier) (string, error) {
	return f.response, f.err
}

func (f *fakeLLM) GetModel(tier llm.ModelTier) string { return "fake-model" }

func (f *fakeLLM) Close() error { return nil }

func gradedCard() *types.CardRecord {
	return &types.CardRecord{
		Grading: types.Grading{CertNumber: "12345678", Grade: 10, GradeLabel: "GEM MT"},
		Player:  types.Player{Name: "LeBron James", Team: "Cleveland Cavaliers", Position: "SF"},
		Details: types.Details{
			Year: 2003, Brand: "Topps", SetName: "Chrome", CardNumber: "111",
			Rookie: true, SerialNumber: "23/99",
		},
		Meta: types.Meta{Sport: "NBA", Rarity: types.RarityRare, Notes: "sharp corners"},
	}
}

func TestBuildBase_FullCard(t *testing.T) {
	base := BuildBase(gradedCard())

	assert.Equal(t,
		"LeBron James Cleveland Cavaliers SF 2003 Topps Chrome PSA 10 GEM MT Rookie Card Serial #23/99 Rare sharp corners",
		base)
}

func TestBuildBase_PartOrder(t *testing.T) {
	base := BuildBase(gradedCard())

	assert.Less(t, strings.Index(base, "LeBron James"), strings.Index(base, "2003 Topps"))
	assert.Less(t, strings.Index(base, "2003 Topps"), strings.Index(base, "PSA 10"))
	assert.Less(t, strings.Index(base, "PSA 10"), strings.Index(base, "Rookie Card"))
}

func TestBuildBase_SparseCard(t *testing.T) {
	card := &types.CardRecord{
		Grading: types.Grading{CertNumber: "87654321", Grade: 8},
		Player:  types.Player{Name: "Mike Trout"},
		Details: types.Details{Year: 2011, Brand: "Topps"},
		Meta:    types.Meta{Sport: "MLB"},
	}

	base := BuildBase(card)

	assert.Equal(t, "Mike Trout 2011 Topps PSA 8", base)
}

func TestBuildBase_Autographed(t *testing.T) {
	card := gradedCard()
	card.Details.Autographed = true

	assert.Contains(t, BuildBase(card), "Autographed")
}

func TestSearchQuery(t *testing.T) {
	query := SearchQuery(gradedCard(), "NBA")
	assert.Equal(t, "LeBron James 2003 Topps Chrome NBA card value statistics", query)
}

func TestSearchQuery_CollapsesMissingFields(t *testing.T) {
	card := &types.CardRecord{
		Player:  types.Player{Name: "Mike Trout"},
		Details: types.Details{Year: 2011, Brand: "Topps"},
	}

	query := SearchQuery(card, "MLB")
	assert.Equal(t, "Mike Trout 2011 Topps MLB card value statistics", query)
}

func TestDescribe_NilCard(t *testing.T) {
	d, err := NewDescriber(context.Background(), nil, "", "", "NBA", false)
	require.NoError(t, err)

	_, _, err = d.Describe(context.Background(), nil)
	assert.Error(t, err)
}

func TestDescribe_BaseOnlyWhenSearchUnconfigured(t *testing.T) {
	d, err := NewDescriber(context.Background(), &fakeLLM{response: "enriched"}, "", "", "NBA", false)
	require.NoError(t, err)

	desc, results, err := d.Describe(context.Background(), gradedCard())
	require.NoError(t, err)

	assert.Equal(t, BuildBase(gradedCard()), desc)
	assert.Nil(t, results, "no web results without a configured search service")
}

func TestEnhance_UsesPromptTemplate(t *testing.T) {
	client := &fakeLLM{response: "A rich collector description."}
	d := &Describer{client: client}

	results := []types.WebSearchResult{
		{Title: "Card values", Snippet: "Recent sales around $1,500"},
	}
	enhanced, err := d.enhance(context.Background(), "base description", results)
	require.NoError(t, err)

	assert.Equal(t, "A rich collector description.", enhanced)
	require.Len(t, client.prompts, 1)
	assert.Contains(t, client.prompts[0], "base description")
	assert.Contains(t, client.prompts[0], "Recent sales around $1,500")
	assert.NotContains(t, client.prompts[0], "{{.Base}}", "placeholders must be substituted")
}

func TestEnhance_NoClient(t *testing.T) {
	d := &Describer{}

	_, err := d.enhance(context.Background(), "base", nil)
	assert.Error(t, err)
}

func TestEnhance_GenerationError(t *testing.T) {
	d := &Describer{client: &fakeLLM{err: errors.New("model overloaded")}}

	_, err := d.enhance(context.Background(), "base", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "enhancement generation failed")
}

func TestEnhance_EmptyOutput(t *testing.T) {
	d := &Describer{client: &fakeLLM{response: "   "}}

	_, err := d.enhance(context.Background(), "base", nil)
	assert.Error(t, err)
}
