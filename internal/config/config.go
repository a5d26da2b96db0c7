// Package config loads service configuration from the environment, with an
// optional JSON file for defaults.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jonathan/card-analyzer/internal/certification"
	"github.com/jonathan/card-analyzer/internal/embedding"
	"github.com/jonathan/card-analyzer/internal/search"
	"github.com/jonathan/card-analyzer/internal/validation"
	"github.com/jonathan/card-analyzer/internal/vectorstore"
)

// Config is the resolved service configuration.
type Config struct {
	// Providers
	GeminiAPIKey       string `json:"gemini_api_key,omitempty"`
	GoogleSearchAPIKey string `json:"google_search_api_key,omitempty"`
	GoogleSearchCX     string `json:"google_search_cx,omitempty"`

	// Embedding inference
	EmbeddingEndpoint   string `json:"embedding_endpoint,omitempty"`
	EmbeddingAPIKey     string `json:"embedding_api_key,omitempty"`
	EmbeddingTextModel  string `json:"embedding_text_model,omitempty"`
	EmbeddingImageModel string `json:"embedding_image_model,omitempty"`

	// Vector store
	QdrantHost            string `json:"qdrant_host,omitempty"`
	QdrantPort            int    `json:"qdrant_port,omitempty"`
	QdrantAPIKey          string `json:"qdrant_api_key,omitempty"`
	QdrantTextCollection  string `json:"qdrant_text_collection,omitempty"`
	QdrantImageCollection string `json:"qdrant_image_collection,omitempty"`

	// Optional run tracking
	DatabaseURL string `json:"database_url,omitempty"`

	// Domain
	CertRegistryBaseURL string `json:"cert_registry_base_url,omitempty"`
	ExpectedSport       string `json:"expected_sport,omitempty"`

	// Search tuning
	TextWeight  float64 `json:"text_weight,omitempty"`
	ImageWeight float64 `json:"image_weight,omitempty"`
	Thresholds  search.Thresholds

	// Behavior
	UseBrowser bool `json:"use_browser,omitempty"`
	Verbose    bool `json:"verbose,omitempty"`

	// Server
	Port int `json:"port,omitempty"`
}

// FromEnv builds a Config from environment variables, applying defaults for
// everything optional. GEMINI_API_KEY is the only hard requirement and is
// checked by Validate, not here, so read-only commands can skip it.
func FromEnv() *Config {
	cfg := &Config{
		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
		GoogleSearchAPIKey: os.Getenv("GOOGLE_SEARCH_API_KEY"),
		GoogleSearchCX:     os.Getenv("GOOGLE_SEARCH_CX"),

		EmbeddingEndpoint:   os.Getenv("EMBEDDING_ENDPOINT"),
		EmbeddingAPIKey:     os.Getenv("EMBEDDING_API_KEY"),
		EmbeddingTextModel:  envOr("EMBEDDING_TEXT_MODEL", embedding.DefaultTextModel),
		EmbeddingImageModel: envOr("EMBEDDING_IMAGE_MODEL", embedding.DefaultImageModel),

		QdrantHost:            envOr("QDRANT_ENDPOINT", "localhost"),
		QdrantPort:            envInt("QDRANT_PORT", 6334),
		QdrantAPIKey:          os.Getenv("QDRANT_API_KEY"),
		QdrantTextCollection:  envOr("QDRANT_TEXT_COLLECTION", vectorstore.DefaultTextCollection),
		QdrantImageCollection: envOr("QDRANT_IMAGE_COLLECTION", vectorstore.DefaultImageCollection),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		CertRegistryBaseURL: envOr("CERT_REGISTRY_BASE_URL", certification.DefaultRegistryBaseURL),
		ExpectedSport:       envOr("EXPECTED_SPORT", validation.DefaultSport),

		TextWeight:  envFloat("SEARCH_TEXT_WEIGHT", search.DefaultTextWeight),
		ImageWeight: envFloat("SEARCH_IMAGE_WEIGHT", search.DefaultImageWeight),
		Thresholds:  thresholdsFromEnv(),

		UseBrowser: envBool("USE_BROWSER"),
		Verbose:    envBool("VERBOSE"),

		Port: envInt("PORT", 8080),
	}
	return cfg
}

func thresholdsFromEnv() search.Thresholds {
	t := search.DefaultThresholds()
	t.LowScore = envFloat("SEARCH_LOW_SCORE", t.LowScore)
	t.LowScoreShort = envFloat("SEARCH_LOW_SCORE_SHORT", t.LowScoreShort)
	t.NoWinner = envFloat("SEARCH_NO_WINNER", t.NoWinner)
	t.NoWinnerShort = envFloat("SEARCH_NO_WINNER_SHORT", t.NoWinnerShort)
	t.Gap = envFloat("SEARCH_SCORE_GAP", t.Gap)
	return t
}

// LoadFile reads defaults from a JSON config file. Environment values win
// over file values.
func LoadFile(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	return &cfg, nil
}

// Merge fills empty fields of c from defaults and returns the result.
func (c *Config) Merge(defaults *Config) *Config {
	result := *c

	if result.GeminiAPIKey == "" {
		result.GeminiAPIKey = defaults.GeminiAPIKey
	}
	if result.GoogleSearchAPIKey == "" {
		result.GoogleSearchAPIKey = defaults.GoogleSearchAPIKey
	}
	if result.GoogleSearchCX == "" {
		result.GoogleSearchCX = defaults.GoogleSearchCX
	}
	if result.EmbeddingEndpoint == "" {
		result.EmbeddingEndpoint = defaults.EmbeddingEndpoint
	}
	if result.EmbeddingAPIKey == "" {
		result.EmbeddingAPIKey = defaults.EmbeddingAPIKey
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.QdrantAPIKey == "" {
		result.QdrantAPIKey = defaults.QdrantAPIKey
	}

	return &result
}

// Validate checks the fields an analysis run actually needs.
func (c *Config) Validate() error {
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("config error: GEMINI_API_KEY is required")
	}
	if c.EmbeddingEndpoint == "" {
		return fmt.Errorf("config error: EMBEDDING_ENDPOINT is required")
	}
	if sum := c.TextWeight + c.ImageWeight; sum < 0.99 || sum > 1.01 {
		return fmt.Errorf("config error: search weights must sum to 1, got %g", sum)
	}
	return nil
}

// EmbeddingConfig builds the embedding client config.
func (c *Config) EmbeddingConfig() embedding.Config {
	return embedding.Config{
		Endpoint:   c.EmbeddingEndpoint,
		APIKey:     c.EmbeddingAPIKey,
		TextModel:  c.EmbeddingTextModel,
		ImageModel: c.EmbeddingImageModel,
		Timeout:    envDuration("EMBEDDING_TIMEOUT", embedding.DefaultTimeout),
	}
}

// VectorStoreConfig builds the Qdrant config.
func (c *Config) VectorStoreConfig() *vectorstore.Config {
	return &vectorstore.Config{
		Host:            c.QdrantHost,
		Port:            c.QdrantPort,
		APIKey:          c.QdrantAPIKey,
		TextCollection:  c.QdrantTextCollection,
		ImageCollection: c.QdrantImageCollection,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string) bool {
	v := os.Getenv(key)
	return v == "1" || v == "true" || v == "yes"
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
