// Package vectorstore wraps the Qdrant Go client with the two-collection
// layout used for card retrieval: a text-embedding collection and an
// image-embedding collection keyed by the same card id.
package vectorstore

import "fmt"

// Default collection names.
const (
	DefaultTextCollection  = "cards_text"
	DefaultImageCollection = "cards_image"
)

// Config holds Qdrant connection settings.
type Config struct {
	Host               string
	Port               int
	APIKey             string
	TextCollection     string
	ImageCollection    string
	CheckCompatibility bool
}

// Validate checks required fields and applies defaults.
func (c *Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("vectorstore host is required")
	}
	if c.Port == 0 {
		c.Port = 6334
	}
	if c.TextCollection == "" {
		c.TextCollection = DefaultTextCollection
	}
	if c.ImageCollection == "" {
		c.ImageCollection = DefaultImageCollection
	}
	if c.TextCollection == c.ImageCollection {
		return fmt.Errorf("text and image collections must differ")
	}
	return nil
}
