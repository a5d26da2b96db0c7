// Package embedding computes the text and image vectors used for indexing
// and search. Vectors come from an OpenAI-compatible inference endpoint;
// the query-side image-space projection is computed locally.
package embedding

import (
	"fmt"
	"time"
)

// Vector dimensions for the two embedding spaces.
const (
	TextDims  = 384
	ImageDims = 512
)

// Default models served by the inference endpoint.
const (
	DefaultTextModel  = "all-MiniLM-L6-v2"
	DefaultImageModel = "clip-vit-base-patch32"
)

// DefaultTimeout bounds a single embedding request.
const DefaultTimeout = 30 * time.Second

// Config holds inference endpoint settings.
type Config struct {
	Endpoint   string
	APIKey     string
	TextModel  string
	ImageModel string
	Timeout    time.Duration
}

// Validate checks required fields and applies defaults.
func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("embedding endpoint is required")
	}
	if c.TextModel == "" {
		c.TextModel = DefaultTextModel
	}
	if c.ImageModel == "" {
		c.ImageModel = DefaultImageModel
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return nil
}
