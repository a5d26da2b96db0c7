package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/card-analyzer/internal/vectorstore"
)

type fakeEmbedder struct {
	err   error
	calls []string
}

func (f *fakeEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	f.calls = append(f.calls, text)
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2}, nil
}

type fakeStore struct {
	textMatches  []vectorstore.Match
	imageMatches []vectorstore.Match
	textErr      error
	textTopK     int
	imageTopK    int
}

func (f *fakeStore) QueryText(ctx context.Context, vector []float32, topK int, filters *vectorstore.FilterSet) ([]vectorstore.Match, error) {
	f.textTopK = topK
	return f.textMatches, f.textErr
}

func (f *fakeStore) QueryImage(ctx context.Context, vector []float32, topK int, filters *vectorstore.FilterSet) ([]vectorstore.Match, error) {
	f.imageTopK = topK
	return f.imageMatches, nil
}

func TestMerge_WeightedScores(t *testing.T) {
	text := []vectorstore.Match{
		{ID: "a", Score: 0.8, Payload: map[string]any{"player_name": "LeBron James"}},
		{ID: "b", Score: 0.4},
	}
	image := []vectorstore.Match{
		{ID: "a", Score: 0.6},
		{ID: "c", Score: 0.9},
	}

	results := Merge(text, image, 0.5, 0.5, 10)

	require.Len(t, results, 3)
	byID := map[string]float64{}
	for _, r := range results {
		byID[r.CardID] = r.Scores.Combined
	}
	assert.InDelta(t, 0.7, byID["a"], 1e-6)
	assert.InDelta(t, 0.2, byID["b"], 1e-6, "text-only cards score 0 for image")
	assert.InDelta(t, 0.45, byID["c"], 1e-6, "image-only cards score 0 for text")
}

func TestMerge_SortedDescendingAndTruncated(t *testing.T) {
	text := []vectorstore.Match{
		{ID: "a", Score: 0.2},
		{ID: "b", Score: 0.9},
		{ID: "c", Score: 0.5},
	}

	results := Merge(text, nil, 1.0, 0.0, 2)

	require.Len(t, results, 2)
	assert.Equal(t, "b", results[0].CardID)
	assert.Equal(t, "c", results[1].CardID)
	assert.GreaterOrEqual(t, results[0].Scores.Combined, results[1].Scores.Combined)
}

func TestMerge_UnevenWeights(t *testing.T) {
	text := []vectorstore.Match{{ID: "a", Score: 1.0}}
	image := []vectorstore.Match{{ID: "a", Score: 0.5}}

	results := Merge(text, image, 0.8, 0.2, 10)

	require.Len(t, results, 1)
	assert.InDelta(t, 0.9, results[0].Scores.Combined, 1e-9)
}

func TestMerge_KeepsMetadataFromEitherSide(t *testing.T) {
	image := []vectorstore.Match{
		{ID: "a", Score: 0.5, Payload: map[string]any{"card_brand": "Topps"}},
	}

	results := Merge(nil, image, 0.5, 0.5, 10)

	require.Len(t, results, 1)
	assert.Equal(t, "Topps", results[0].Metadata["card_brand"])
}

func TestParams_Normalize(t *testing.T) {
	tests := []struct {
		name    string
		params  Params
		wantErr bool
	}{
		{"zero weights get defaults", Params{}, false},
		{"explicit valid weights", Params{TextWeight: 0.7, ImageWeight: 0.3}, false},
		{"weights not summing to one", Params{TextWeight: 0.7, ImageWeight: 0.7}, true},
		{"negative weight", Params{TextWeight: -0.5, ImageWeight: 1.5}, true},
		{"topK too large", Params{TopK: 101}, true},
		{"topK negative", Params{TopK: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.normalize()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, 1.0, tt.params.TextWeight+tt.params.ImageWeight, 0.01)
			assert.GreaterOrEqual(t, tt.params.TopK, 1)
		})
	}
}

func TestSearch_QueriesBothSpacesWithWiderTopK(t *testing.T) {
	store := &fakeStore{
		textMatches: []vectorstore.Match{{ID: "a", Score: 0.9}},
	}
	engine := NewEngine(&fakeEmbedder{}, store, DefaultThresholds(), false)

	resp, err := engine.Search(context.Background(), Params{Query: "LeBron James rookie", TopK: 5})
	require.NoError(t, err)

	assert.Equal(t, 10, store.textTopK, "candidate pool is topK doubled")
	assert.Equal(t, 10, store.imageTopK)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, ShowResults, resp.Verdict)
}

func TestSearch_EmptyQueryUsesPlaceholder(t *testing.T) {
	embedder := &fakeEmbedder{}
	engine := NewEngine(embedder, &fakeStore{}, DefaultThresholds(), false)

	resp, err := engine.Search(context.Background(), Params{Query: "   "})
	require.NoError(t, err)

	require.Len(t, embedder.calls, 1)
	assert.Equal(t, PlaceholderQuery, embedder.calls[0])
	assert.Equal(t, "", resp.Query)
	assert.Equal(t, NoMatches, resp.Verdict)
}

func TestSearch_EmbedderError(t *testing.T) {
	engine := NewEngine(&fakeEmbedder{err: errors.New("endpoint down")}, &fakeStore{}, DefaultThresholds(), false)

	_, err := engine.Search(context.Background(), Params{Query: "LeBron"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to embed query")
}

func TestSearch_StoreError(t *testing.T) {
	store := &fakeStore{textErr: errors.New("connection refused")}
	engine := NewEngine(&fakeEmbedder{}, store, DefaultThresholds(), false)

	_, err := engine.Search(context.Background(), Params{Query: "LeBron"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vector query failed")
}

func TestSearch_InvalidParams(t *testing.T) {
	engine := NewEngine(&fakeEmbedder{}, &fakeStore{}, DefaultThresholds(), false)

	_, err := engine.Search(context.Background(), Params{TextWeight: 0.9, ImageWeight: 0.9})
	assert.Error(t, err)
}
