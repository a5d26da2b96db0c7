// Package extraction turns a raw card image into a best-effort structured
// record via a vision-capable model call.
package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/jonathan/card-analyzer/internal/llm"
	"github.com/jonathan/card-analyzer/internal/prompts"
	"github.com/jonathan/card-analyzer/internal/schemas"
	"github.com/jonathan/card-analyzer/internal/types"
)

// promptFile holds the extraction prompts.
const promptFile = "extraction.json"

// SchemaPath is the extraction contract schema, relative to the repo root.
const SchemaPath = "schemas/card.schema.json"

// UnsupportedInputError is returned when the model explicitly signals the
// image is not a recognizable graded card.
type UnsupportedInputError struct {
	Reason string
}

func (e *UnsupportedInputError) Error() string {
	return e.Reason
}

// Extractor performs vision extraction against a model client.
type Extractor struct {
	client llm.Client
	schema string
}

// NewExtractor creates an extractor. The JSON schema contract is loaded once;
// when the schema file cannot be found the structural check is skipped with a
// warning rather than blocking extraction.
func NewExtractor(client llm.Client) *Extractor {
	schema, err := schemas.LoadSchema(SchemaPath)
	if err != nil {
		log.Printf("extraction: %v (schema check disabled)", err)
		schema = ""
	}
	return &Extractor{client: client, schema: schema}
}

// modelResponse covers both shapes the model may return: a card record or an
// explicit not-supported signal.
type modelResponse struct {
	Error  string `json:"error,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// Extract calls the vision model and parses its response. The optional hint
// biases extraction (e.g. "1990s basketball insert"). No retries happen at
// this layer; transient upstream failures are a caller concern.
func (e *Extractor) Extract(ctx context.Context, image []byte, mimeType, hint string) (*types.ExtractedCard, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("no image data provided")
	}

	prompt := prompts.MustGet(promptFile, "user")
	if hint != "" {
		prompt += "\n\nUser hint: " + hint
	}

	raw, err := e.client.GenerateJSONFromImage(ctx, prompts.MustGet(promptFile, "system"), prompt, mimeType, image, llm.TierStandard)
	if err != nil {
		return nil, fmt.Errorf("extraction call failed: %w", err)
	}

	var signal modelResponse
	if err := json.Unmarshal([]byte(raw), &signal); err == nil && signal.Error != "" {
		reason := signal.Reason
		if reason == "" {
			reason = "image is not a recognizable graded card"
		}
		return nil, &UnsupportedInputError{Reason: reason}
	}

	if e.schema != "" {
		if err := schemas.ValidateJSONString(e.schema, raw); err != nil {
			return nil, fmt.Errorf("model output failed schema check: %w", err)
		}
	}

	var extracted types.ExtractedCard
	if err := json.Unmarshal([]byte(raw), &extracted); err != nil {
		return nil, fmt.Errorf("failed to parse extraction response: %w", err)
	}

	return &extracted, nil
}
