// Package analyzer wires the concrete stage implementations into the
// pipeline state machine and translates each stage's typed errors into the
// uniform failure shape the orchestrator propagates.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jonathan/card-analyzer/internal/certification"
	"github.com/jonathan/card-analyzer/internal/extraction"
	"github.com/jonathan/card-analyzer/internal/pipeline"
	"github.com/jonathan/card-analyzer/internal/types"
	"github.com/jonathan/card-analyzer/internal/validation"
)

// Extractor pulls structured card fields out of an image.
type Extractor interface {
	Extract(ctx context.Context, image []byte, mimeType, hint string) (*types.ExtractedCard, error)
}

// Verifier checks a card's certification number against the registry.
type Verifier interface {
	Verify(ctx context.Context, card *types.CardRecord) (*types.Verification, error)
}

// Describer produces the card description and any web results used for it.
type Describer interface {
	Describe(ctx context.Context, card *types.CardRecord) (string, []types.WebSearchResult, error)
}

// Embedder computes the text and image vectors for a card.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
	EmbedImage(ctx context.Context, image []byte) ([]float32, error)
}

// Persister writes a finished card into the vector store.
type Persister interface {
	StoreCard(ctx context.Context, cardID string, card *types.CardRecord, description string, textVec, imageVec []float32) error
}

// Analyzer bundles the stage implementations behind a pipeline runner.
type Analyzer struct {
	extractor Extractor
	verifier  Verifier
	describer Describer
	embedder  Embedder
	persister Persister
	sport     string
	runner    *pipeline.Runner
}

// New wires the stages into a runner. sport is the expected sport for the
// domain gate, defaulting to validation.DefaultSport when empty.
func New(extractor Extractor, verifier Verifier, describer Describer, embedder Embedder, persister Persister, sport string) *Analyzer {
	if sport == "" {
		sport = validation.DefaultSport
	}
	a := &Analyzer{
		extractor: extractor,
		verifier:  verifier,
		describer: describer,
		embedder:  embedder,
		persister: persister,
		sport:     sport,
	}
	a.runner = pipeline.NewRunner(pipeline.Stages{
		Extract:  a.extract,
		Validate: a.validate,
		Verify:   a.verify,
		Describe: a.describe,
		Embed:    a.embed,
		Persist:  a.persist,
	})
	return a
}

// Runner exposes the underlying pipeline runner for streaming consumers.
func (a *Analyzer) Runner() *pipeline.Runner {
	return a.runner
}

// Run executes a full analysis to completion.
func (a *Analyzer) Run(ctx context.Context, state pipeline.State) pipeline.State {
	return a.runner.Run(ctx, state)
}

// Stream executes a full analysis, emitting one event per completed stage.
func (a *Analyzer) Stream(ctx context.Context, state pipeline.State) <-chan pipeline.Event {
	return a.runner.Stream(ctx, state)
}

func (a *Analyzer) extract(ctx context.Context, s pipeline.State) pipeline.Delta {
	if len(s.RawImage) == 0 {
		return pipeline.Delta{Failure: pipeline.NewFailure(pipeline.FailureMissingInputs, "no image provided")}
	}

	extracted, err := a.extractor.Extract(ctx, s.RawImage, s.MimeType, s.Hint)
	if err != nil {
		var unsupported *extraction.UnsupportedInputError
		if errors.As(err, &unsupported) {
			return pipeline.Delta{Failure: pipeline.NewFailure(pipeline.FailureUnsupportedInput, "%s", unsupported.Reason)}
		}
		return pipeline.Delta{Failure: pipeline.NewFailure(pipeline.FailureUnsupportedInput, "extraction failed: %v", err)}
	}
	return pipeline.Delta{Extracted: extracted}
}

func (a *Analyzer) validate(ctx context.Context, s pipeline.State) pipeline.Delta {
	if s.Extracted == nil {
		return pipeline.Delta{Failure: pipeline.NewFailure(pipeline.FailureMissingInputs, "no extracted card to validate")}
	}

	card, err := validation.ValidateCard(s.Extracted, a.sport)
	if err != nil {
		var mismatch *validation.DomainMismatchError
		if errors.As(err, &mismatch) {
			return pipeline.Delta{Failure: pipeline.NewFailure(pipeline.FailureDomainMismatch, "%s", mismatch.Error())}
		}
		var missing *validation.MissingFieldsError
		if errors.As(err, &missing) {
			return pipeline.Delta{Failure: pipeline.NewFailure(pipeline.FailureMissingFields, "%s", missing.Error())}
		}
		return pipeline.Delta{Failure: pipeline.NewFailure(pipeline.FailureUnsupportedInput, "validation failed: %v", err)}
	}
	return pipeline.Delta{Validated: card}
}

func (a *Analyzer) verify(ctx context.Context, s pipeline.State) pipeline.Delta {
	if s.Validated == nil {
		return pipeline.Delta{Failure: pipeline.NewFailure(pipeline.FailureMissingInputs, "no validated card to verify")}
	}

	verification, err := a.verifier.Verify(ctx, s.Validated)
	if err != nil {
		var missingCert *certification.MissingCertError
		if errors.As(err, &missingCert) {
			return pipeline.Delta{Failure: pipeline.NewFailure(pipeline.FailureMissingCertification, "%s", missingCert.Error())}
		}
		// Registry trouble is an enrichment problem, not a pipeline
		// failure; proceed with an inconclusive verification.
		log.Printf("[ANALYZE] Verification degraded: %v", err)
		verification = &types.Verification{
			IsValid:    true,
			CertNumber: s.Validated.Grading.CertNumber,
			Details: map[string]any{
				"verified": false,
				"note":     "could not verify certification with registry",
			},
		}
	}
	return pipeline.Delta{Verification: verification}
}

func (a *Analyzer) describe(ctx context.Context, s pipeline.State) pipeline.Delta {
	if s.Validated == nil {
		return pipeline.Delta{Failure: pipeline.NewFailure(pipeline.FailureMissingInputs, "no validated card to describe")}
	}

	text, results, err := a.describer.Describe(ctx, s.Validated)
	if err != nil {
		return pipeline.Delta{Failure: pipeline.NewFailure(pipeline.FailureMissingInputs, "description failed: %v", err)}
	}
	return pipeline.Delta{Description: &text, WebSearchResults: results}
}

func (a *Analyzer) embed(ctx context.Context, s pipeline.State) pipeline.Delta {
	if s.Description == "" {
		return pipeline.Delta{Failure: pipeline.NewFailure(pipeline.FailureMissingInputs, "no description to embed")}
	}
	if len(s.RawImage) == 0 {
		return pipeline.Delta{Failure: pipeline.NewFailure(pipeline.FailureMissingInputs, "no image to embed")}
	}

	textVec, err := a.embedder.EmbedText(ctx, s.Description)
	if err != nil {
		return pipeline.Delta{Failure: pipeline.NewFailure(pipeline.FailureUnsupportedInput, "text embedding failed: %v", err)}
	}
	imageVec, err := a.embedder.EmbedImage(ctx, s.RawImage)
	if err != nil {
		return pipeline.Delta{Failure: pipeline.NewFailure(pipeline.FailureUnsupportedInput, "image embedding failed: %v", err)}
	}
	return pipeline.Delta{TextVector: textVec, ImageVector: imageVec}
}

func (a *Analyzer) persist(ctx context.Context, s pipeline.State) pipeline.Delta {
	if s.Validated == nil || len(s.TextVector) == 0 || len(s.ImageVector) == 0 {
		return pipeline.Delta{Failure: pipeline.NewFailure(pipeline.FailureMissingInputs, "nothing to persist")}
	}

	if err := a.persister.StoreCard(ctx, s.CardID, s.Validated, s.Description, s.TextVector, s.ImageVector); err != nil {
		return pipeline.Delta{Failure: pipeline.NewFailure(pipeline.FailureStorage, "failed to store card embeddings: %v", err)}
	}
	persisted := true
	return pipeline.Delta{Persisted: &persisted}
}

// NewState seeds a pipeline state for one uploaded image.
func NewState(cardID string, image []byte, mimeType, hint string) pipeline.State {
	return pipeline.State{
		CardID:   cardID,
		RawImage: image,
		MimeType: mimeType,
		Hint:     hint,
	}
}

// String implements fmt.Stringer for debug logging.
func (a *Analyzer) String() string {
	return fmt.Sprintf("analyzer.Analyzer{sport=%s}", a.sport)
}
