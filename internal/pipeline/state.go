package pipeline

import (
	"fmt"

	"github.com/jonathan/card-analyzer/internal/types"
)

// State is the single record threaded through the pipeline. Each stage owns
// a disjoint subset of fields; once a stage sets its fields no later stage
// may overwrite them. The raw image, mime type, hint and card ID are set by
// the caller before the first stage runs and are immutable.
type State struct {
	CardID   string `json:"card_id"`
	RawImage []byte `json:"-"`
	MimeType string `json:"mime_type"`
	Hint     string `json:"hint,omitempty"`

	Extracted        *types.ExtractedCard    `json:"extracted,omitempty"`
	Validated        *types.CardRecord       `json:"validated,omitempty"`
	Verification     *types.Verification     `json:"verification,omitempty"`
	Description      string                  `json:"description,omitempty"`
	WebSearchResults []types.WebSearchResult `json:"web_search_results,omitempty"`
	TextVector       []float32               `json:"-"`
	ImageVector      []float32               `json:"-"`
	Persisted        bool                    `json:"persisted"`

	Failure *Failure `json:"failure,omitempty"`
	Stage   Stage    `json:"-"`
}

// Delta is the partial update a stage returns: only the fields the stage
// owns. The orchestrator folds it into the running state.
type Delta struct {
	Extracted        *types.ExtractedCard    `json:"extracted,omitempty"`
	Validated        *types.CardRecord       `json:"validated,omitempty"`
	Verification     *types.Verification     `json:"verification,omitempty"`
	Description      *string                 `json:"description,omitempty"`
	WebSearchResults []types.WebSearchResult `json:"web_search_results,omitempty"`
	TextVector       []float32               `json:"-"`
	ImageVector      []float32               `json:"-"`
	Persisted        *bool                   `json:"persisted,omitempty"`
	Failure          *Failure                `json:"failure,omitempty"`
}

// fold merges a stage delta into a copy of the state, enforcing the
// append-only invariant: a set field is never overwritten by a later stage.
func fold(s State, d Delta) (State, error) {
	if d.Extracted != nil {
		if s.Extracted != nil {
			return s, fmt.Errorf("stage delta would overwrite extracted record")
		}
		s.Extracted = d.Extracted
	}
	if d.Validated != nil {
		if s.Validated != nil {
			return s, fmt.Errorf("stage delta would overwrite validated record")
		}
		s.Validated = d.Validated
	}
	if d.Verification != nil {
		if s.Verification != nil {
			return s, fmt.Errorf("stage delta would overwrite verification result")
		}
		s.Verification = d.Verification
	}
	if d.Description != nil {
		if s.Description != "" {
			return s, fmt.Errorf("stage delta would overwrite description")
		}
		s.Description = *d.Description
	}
	if len(d.WebSearchResults) > 0 {
		if len(s.WebSearchResults) > 0 {
			return s, fmt.Errorf("stage delta would overwrite web search results")
		}
		s.WebSearchResults = d.WebSearchResults
	}
	if d.TextVector != nil {
		if s.TextVector != nil {
			return s, fmt.Errorf("stage delta would overwrite text vector")
		}
		s.TextVector = d.TextVector
	}
	if d.ImageVector != nil {
		if s.ImageVector != nil {
			return s, fmt.Errorf("stage delta would overwrite image vector")
		}
		s.ImageVector = d.ImageVector
	}
	if d.Persisted != nil {
		if s.Persisted {
			return s, fmt.Errorf("stage delta would overwrite persisted flag")
		}
		s.Persisted = *d.Persisted
	}
	if d.Failure != nil {
		s.Failure = d.Failure
	}
	return s, nil
}
