package embedding

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Client talks to an OpenAI-compatible /embeddings endpoint.
type Client struct {
	cfg        Config
	baseURL    string
	httpClient *http.Client
}

// NewClient validates the config and constructs a Client.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("embedding: invalid config: %w", err)
	}
	return &Client{
		cfg:        cfg,
		baseURL:    strings.TrimRight(cfg.Endpoint, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// EmbedText embeds a text description into the text space.
func (c *Client) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("embedding: no text provided")
	}
	vecs, err := c.create(ctx, c.cfg.TextModel, text)
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedTexts embeds several texts in one request, preserving order.
func (c *Client) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("embedding: no texts provided")
	}
	return c.create(ctx, c.cfg.TextModel, texts...)
}

// EmbedImage embeds raw image bytes into the image space. The image is sent
// base64-encoded, the convention CLIP-serving endpoints accept as input.
func (c *Client) EmbedImage(ctx context.Context, image []byte) ([]float32, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("embedding: no image provided")
	}
	encoded := base64.StdEncoding.EncodeToString(image)
	vecs, err := c.create(ctx, c.cfg.ImageModel, encoded)
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (c *Client) create(ctx context.Context, model string, inputs ...string) ([][]float32, error) {
	reqBody := map[string]any{
		"model": model,
		"input": inputs,
	}

	url := c.baseURL + "/embeddings"

	var parsed struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}

	if err := c.postJSON(ctx, url, reqBody, &parsed); err != nil {
		return nil, err
	}

	if len(parsed.Data) != len(inputs) {
		return nil, fmt.Errorf("embedding: expected %d vectors, got %d", len(inputs), len(parsed.Data))
	}

	out := make([][]float32, len(parsed.Data))
	for i, d := range parsed.Data {
		out[i] = d.Embedding
	}
	return out, nil
}

// postJSON sends an HTTP POST request to the inference API. It marshals the
// body as JSON, attaches headers, maps non-2xx codes to errors, and decodes
// the response JSON into out.
func (c *Client) postJSON(ctx context.Context, url string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("http %d for %s", resp.StatusCode, url)
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
