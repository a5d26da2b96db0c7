package embedding

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	cfg := Config{Endpoint: "http://localhost:7997"}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultTextModel, cfg.TextModel)
	assert.Equal(t, DefaultImageModel, cfg.ImageModel)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)

	cfg = Config{
		Endpoint:   "http://localhost:7997",
		TextModel:  "custom-text",
		ImageModel: "custom-image",
		Timeout:    5 * time.Second,
	}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "custom-text", cfg.TextModel)
	assert.Equal(t, "custom-image", cfg.ImageModel)
	assert.Equal(t, 5*time.Second, cfg.Timeout)

	err := (&Config{}).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "endpoint")
}

func TestNewClient_InvalidConfig(t *testing.T) {
	_, err := NewClient(Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

// embeddingServer returns fixed vectors and records the last request body.
func embeddingServer(t *testing.T, dims int, lastReq *map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(lastReq))

		inputs := (*lastReq)["input"].([]any)
		resp := map[string]any{"data": []map[string]any{}}
		data := make([]map[string]any, len(inputs))
		for i := range inputs {
			vec := make([]float64, dims)
			vec[0] = float64(i + 1)
			data[i] = map[string]any{"embedding": vec}
		}
		resp["data"] = data
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestEmbedText(t *testing.T) {
	var lastReq map[string]any
	srv := embeddingServer(t, TextDims, &lastReq)
	defer srv.Close()

	client, err := NewClient(Config{Endpoint: srv.URL, APIKey: "secret"})
	require.NoError(t, err)

	vec, err := client.EmbedText(context.Background(), "2003 Topps Chrome LeBron James")
	require.NoError(t, err)
	assert.Len(t, vec, TextDims)
	assert.Equal(t, float32(1), vec[0])

	assert.Equal(t, DefaultTextModel, lastReq["model"])
	assert.Equal(t, []any{"2003 Topps Chrome LeBron James"}, lastReq["input"])
}

func TestEmbedText_Empty(t *testing.T) {
	client, err := NewClient(Config{Endpoint: "http://localhost:7997"})
	require.NoError(t, err)

	_, err = client.EmbedText(context.Background(), "   ")
	assert.ErrorContains(t, err, "no text provided")
}

func TestEmbedTexts_PreservesOrder(t *testing.T) {
	var lastReq map[string]any
	srv := embeddingServer(t, TextDims, &lastReq)
	defer srv.Close()

	client, err := NewClient(Config{Endpoint: srv.URL})
	require.NoError(t, err)

	vecs, err := client.EmbedTexts(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	for i, vec := range vecs {
		assert.Equal(t, float32(i+1), vec[0])
	}

	_, err = client.EmbedTexts(context.Background(), nil)
	assert.ErrorContains(t, err, "no texts provided")
}

func TestEmbedImage_SendsBase64(t *testing.T) {
	var lastReq map[string]any
	srv := embeddingServer(t, ImageDims, &lastReq)
	defer srv.Close()

	client, err := NewClient(Config{Endpoint: srv.URL})
	require.NoError(t, err)

	image := []byte{0x89, 0x50, 0x4e, 0x47}
	vec, err := client.EmbedImage(context.Background(), image)
	require.NoError(t, err)
	assert.Len(t, vec, ImageDims)

	assert.Equal(t, DefaultImageModel, lastReq["model"])
	inputs := lastReq["input"].([]any)
	require.Len(t, inputs, 1)
	assert.Equal(t, base64.StdEncoding.EncodeToString(image), inputs[0])

	_, err = client.EmbedImage(context.Background(), nil)
	assert.ErrorContains(t, err, "no image provided")
}

func TestEmbedText_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client, err := NewClient(Config{Endpoint: srv.URL})
	require.NoError(t, err)

	_, err = client.EmbedText(context.Background(), "query")
	assert.ErrorContains(t, err, "http 503")
}

func TestEmbedText_VectorCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data": []}`)
	}))
	defer srv.Close()

	client, err := NewClient(Config{Endpoint: srv.URL})
	require.NoError(t, err)

	_, err = client.EmbedText(context.Background(), "query")
	assert.ErrorContains(t, err, "expected 1 vectors, got 0")
}

func TestProjectQueryToImageSpace(t *testing.T) {
	vec := ProjectQueryToImageSpace("LeBron James rookie card")
	require.Len(t, vec, ImageDims)

	// Deterministic for identical input.
	assert.Equal(t, vec, ProjectQueryToImageSpace("LeBron James rookie card"))

	// Unit length.
	var sumSquares float64
	for _, v := range vec {
		sumSquares += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sumSquares), 1e-6)

	// Different queries land on different vectors.
	assert.NotEqual(t, vec, ProjectQueryToImageSpace("Mike Trout"))
}

func TestProjectQueryToImageSpace_Empty(t *testing.T) {
	vec := ProjectQueryToImageSpace("")
	require.Len(t, vec, ImageDims)
	for _, v := range vec {
		assert.Zero(t, v)
	}
}
