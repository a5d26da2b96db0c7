// Package description builds the text descriptions that feed the embedding
// stage: a deterministic base description from card fields, optionally
// enriched with web search results and an LLM rewrite.
package description

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"

	"github.com/jonathan/card-analyzer/internal/llm"
	"github.com/jonathan/card-analyzer/internal/prompts"
	"github.com/jonathan/card-analyzer/internal/types"
)

// MaxSearchResults caps the number of web results fed to the enhancement prompt.
const MaxSearchResults = 5

// BuildBase assembles a deterministic one-line description from card fields.
// Empty fields are skipped so the output stays stable across partial records.
func BuildBase(card *types.CardRecord) string {
	var parts []string
	add := func(s string) {
		if strings.TrimSpace(s) != "" {
			parts = append(parts, strings.TrimSpace(s))
		}
	}

	add(card.Player.Name)
	add(card.Player.Team)
	add(card.Player.Position)

	year := ""
	if card.Details.Year > 0 {
		year = strconv.Itoa(card.Details.Year)
	}
	add(strings.TrimSpace(year + " " + card.Details.Brand))
	add(card.Details.SetName)
	add(card.Details.Variant)
	add(card.Details.CardType)

	if card.Grading.Grade > 0 {
		add(fmt.Sprintf("PSA %g", card.Grading.Grade))
	}
	add(card.Grading.GradeLabel)

	if card.Details.Rookie {
		add("Rookie Card")
	}
	if card.Details.Autographed {
		add("Autographed")
	}
	if card.Details.SerialNumber != "" {
		add("Serial #" + card.Details.SerialNumber)
	}

	add(string(card.Meta.Rarity))
	add(card.Meta.Notes)

	return strings.Join(parts, " ")
}

// SearchQuery returns the web query used to enrich a card description.
func SearchQuery(card *types.CardRecord, sport string) string {
	return strings.Join(strings.Fields(fmt.Sprintf("%s %d %s %s %s card value statistics",
		card.Player.Name, card.Details.Year, card.Details.Brand, card.Details.SetName, sport)), " ")
}

// Describer generates card descriptions. Web search and LLM enhancement are
// both optional; when either is unavailable or fails, the base description
// is returned unchanged.
type Describer struct {
	svc     *customsearch.Service
	cx      string
	client  llm.Client
	sport   string
	verbose bool
}

// NewDescriber creates a Describer. searchAPIKey and cx may be empty, in
// which case enrichment is skipped. client may be nil for base-only output.
func NewDescriber(ctx context.Context, client llm.Client, searchAPIKey, cx, sport string, verbose bool) (*Describer, error) {
	d := &Describer{
		client:  client,
		cx:      cx,
		sport:   sport,
		verbose: verbose,
	}
	if searchAPIKey != "" && cx != "" {
		svc, err := customsearch.NewService(ctx, option.WithAPIKey(searchAPIKey))
		if err != nil {
			return nil, fmt.Errorf("failed to create customsearch service: %w", err)
		}
		d.svc = svc
	}
	return d, nil
}

// Describe produces a description for a validated card. The returned search
// results are the ones used for enhancement, in rank order. Enrichment
// failures are logged and swallowed; Describe itself only fails when the
// card is nil.
func (d *Describer) Describe(ctx context.Context, card *types.CardRecord) (string, []types.WebSearchResult, error) {
	if card == nil {
		return "", nil, fmt.Errorf("no validated card available")
	}

	base := BuildBase(card)

	results, err := d.search(ctx, card)
	if err != nil {
		if d.verbose {
			log.Printf("[DESCRIBE] Web search skipped: %v", err)
		}
		return base, nil, nil
	}

	enhanced, err := d.enhance(ctx, base, results)
	if err != nil {
		if d.verbose {
			log.Printf("[DESCRIBE] Enhancement skipped: %v", err)
		}
		return base, results, nil
	}

	return enhanced, results, nil
}

func (d *Describer) search(ctx context.Context, card *types.CardRecord) ([]types.WebSearchResult, error) {
	if d.svc == nil {
		return nil, fmt.Errorf("web search not configured")
	}
	if card.Player.Name == "" {
		return nil, fmt.Errorf("player name is empty")
	}

	query := SearchQuery(card, d.sport)
	resp, err := d.svc.Cse.List().Cx(d.cx).Q(query).Num(MaxSearchResults).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("no search results for %q", query)
	}

	results := make([]types.WebSearchResult, 0, len(resp.Items))
	for _, item := range resp.Items {
		results = append(results, types.WebSearchResult{
			Title:   item.Title,
			Link:    item.Link,
			Snippet: item.Snippet,
		})
	}
	return results, nil
}

func (d *Describer) enhance(ctx context.Context, base string, results []types.WebSearchResult) (string, error) {
	if d.client == nil {
		return "", fmt.Errorf("llm client not configured")
	}

	var sb strings.Builder
	for _, r := range results {
		fmt.Fprintf(&sb, "- %s: %s\n", r.Title, r.Snippet)
	}

	template, err := prompts.Get("description.json", "enhance")
	if err != nil {
		return "", err
	}
	prompt := prompts.Format(template, map[string]string{
		"Base":    base,
		"Results": sb.String(),
	})

	text, err := d.client.GenerateContent(ctx, prompt, llm.TierStandard)
	if err != nil {
		return "", fmt.Errorf("enhancement generation failed: %w", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("enhancement produced empty text")
	}
	return text, nil
}
