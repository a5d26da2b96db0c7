package search

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/card-analyzer/internal/embedding"
	"github.com/jonathan/card-analyzer/internal/types"
	"github.com/jonathan/card-analyzer/internal/vectorstore"
)

// Defaults for search parameters.
const (
	DefaultTextWeight  = 0.5
	DefaultImageWeight = 0.5
	DefaultTopK        = 10
	MaxTopK            = 100

	// PlaceholderQuery stands in for an empty query so metadata-only
	// searches still have a vector to rank against.
	PlaceholderQuery = "card"

	// candidateMultiplier widens per-collection retrieval so the merge
	// step has room to rerank.
	candidateMultiplier = 2
)

// Params describes one hybrid search request.
type Params struct {
	Query       string
	TextWeight  float64
	ImageWeight float64
	TopK        int
	Filters     types.SearchFilters
}

// normalize applies defaults and validates ranges.
func (p *Params) normalize() error {
	if p.TextWeight == 0 && p.ImageWeight == 0 {
		p.TextWeight = DefaultTextWeight
		p.ImageWeight = DefaultImageWeight
	}
	if p.TextWeight < 0 || p.ImageWeight < 0 {
		return fmt.Errorf("weights must be non-negative")
	}
	if sum := p.TextWeight + p.ImageWeight; sum < 0.99 || sum > 1.01 {
		return fmt.Errorf("textWeight and imageWeight must sum to 1, got %g", sum)
	}
	if p.TopK == 0 {
		p.TopK = DefaultTopK
	}
	if p.TopK < 1 || p.TopK > MaxTopK {
		return fmt.Errorf("topK must be between 1 and %d, got %d", MaxTopK, p.TopK)
	}
	return nil
}

// Embedder provides query-side text vectors.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// Querier is the slice of the vector store the engine needs.
type Querier interface {
	QueryText(ctx context.Context, vector []float32, topK int, filters *vectorstore.FilterSet) ([]vectorstore.Match, error)
	QueryImage(ctx context.Context, vector []float32, topK int, filters *vectorstore.FilterSet) ([]vectorstore.Match, error)
}

// Engine runs hybrid searches across both vector collections.
type Engine struct {
	embedder   Embedder
	store      Querier
	thresholds Thresholds
	verbose    bool
}

// NewEngine constructs an Engine.
func NewEngine(embedder Embedder, store Querier, thresholds Thresholds, verbose bool) *Engine {
	return &Engine{
		embedder:   embedder,
		store:      store,
		thresholds: thresholds,
		verbose:    verbose,
	}
}

// Response carries the ranked results plus the gate verdict.
type Response struct {
	Query   string
	Params  Params
	Results []types.SearchResult
	Verdict Verdict
}

// Search embeds the query into both spaces, queries both collections in
// parallel with the same filters, merges by card id with weighted scoring,
// and applies the relevance gate.
func (e *Engine) Search(ctx context.Context, params Params) (*Response, error) {
	if err := params.normalize(); err != nil {
		return nil, err
	}

	query := strings.TrimSpace(params.Query)
	semanticQuery := query
	if semanticQuery == "" {
		semanticQuery = PlaceholderQuery
	}

	filters := BuildFilters(params.Filters, query)
	if e.verbose && IsCertNumber(query) {
		log.Printf("[SEARCH] Detected cert number lookup: %s", CleanCertNumber(query))
	}

	textVec, err := e.embedder.EmbedText(ctx, semanticQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	imageVec := embedding.ProjectQueryToImageSpace(semanticQuery)

	candidates := params.TopK * candidateMultiplier

	var textMatches, imageMatches []vectorstore.Match
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		textMatches, err = e.store.QueryText(gctx, textVec, candidates, filters)
		return err
	})
	g.Go(func() error {
		var err error
		imageMatches, err = e.store.QueryImage(gctx, imageVec, candidates, filters)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("vector query failed: %w", err)
	}

	results := Merge(textMatches, imageMatches, params.TextWeight, params.ImageWeight, params.TopK)

	if e.verbose {
		log.Printf("[SEARCH] %q returned %d results", query, len(results))
	}

	return &Response{
		Query:   query,
		Params:  params,
		Results: results,
		Verdict: e.thresholds.Assess(results, query),
	}, nil
}

// Merge combines per-modality matches by card id. A card present in only
// one result set scores 0 for the missing modality. Results are sorted by
// combined score descending and truncated to topK.
func Merge(textMatches, imageMatches []vectorstore.Match, textWeight, imageWeight float64, topK int) []types.SearchResult {
	byID := make(map[string]*types.SearchResult)

	for _, m := range textMatches {
		byID[m.ID] = &types.SearchResult{
			CardID:   m.ID,
			Scores:   types.SearchScores{Text: float64(m.Score)},
			Metadata: m.Payload,
		}
	}

	for _, m := range imageMatches {
		if existing, ok := byID[m.ID]; ok {
			existing.Scores.Image = float64(m.Score)
			continue
		}
		byID[m.ID] = &types.SearchResult{
			CardID:   m.ID,
			Scores:   types.SearchScores{Image: float64(m.Score)},
			Metadata: m.Payload,
		}
	}

	results := make([]types.SearchResult, 0, len(byID))
	for _, r := range byID {
		r.Scores.Combined = r.Scores.Text*textWeight + r.Scores.Image*imageWeight
		results = append(results, *r)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Scores.Combined > results[j].Scores.Combined
	})

	if len(results) > topK {
		results = results[:topK]
	}
	return results
}
