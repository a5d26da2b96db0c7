// Package pipeline provides the state machine that sequences the card
// analysis stages: extract, validate, verify, describe, embed, persist.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"
)

// StageFunc is the contract every stage implements: it receives the current
// state and returns the delta for the fields it owns. A stage never returns
// a Go error; faults are reported through Delta.Failure.
type StageFunc func(ctx context.Context, s State) Delta

// Stages wires one function per pipeline stage.
type Stages struct {
	Extract  StageFunc
	Validate StageFunc
	Verify   StageFunc
	Describe StageFunc
	Embed    StageFunc
	Persist  StageFunc
}

// Event is one streamed progress update, emitted after a stage completes
// and before the next stage is invoked. Stage names the stage that just
// ran; Current is where the state machine stands after the transition.
type Event struct {
	Stage     string    `json:"step"`
	Timestamp time.Time `json:"timestamp"`
	Delta     Delta     `json:"data"`
	Current   string    `json:"current_step"`
	Failure   *Failure  `json:"error,omitempty"`
}

// Runner drives the pipeline state machine.
type Runner struct {
	stages Stages
}

// NewRunner creates a runner over the given stage implementations.
func NewRunner(stages Stages) *Runner {
	return &Runner{stages: stages}
}

func (r *Runner) stageFor(stage Stage) StageFunc {
	switch stage {
	case StageExtract:
		return r.stages.Extract
	case StageValidate:
		return r.stages.Validate
	case StageVerify:
		return r.stages.Verify
	case StageDescribe:
		return r.stages.Describe
	case StageEmbed:
		return r.stages.Embed
	case StagePersist:
		return r.stages.Persist
	default:
		return nil
	}
}

// step invokes the stage function for s.Stage, folds the delta into the
// state and advances the stage marker. Panics inside a stage and fold
// violations are normalized into failures tagged with the stage name.
func (r *Runner) step(ctx context.Context, s State) (State, Delta) {
	stage := s.Stage
	fn := r.stageFor(stage)
	if fn == nil {
		delta := Delta{Failure: NewFailure(FailureUnsupportedInput, "no implementation for stage %s", stage)}
		delta.Failure.Stage = stage.String()
		s.Failure = delta.Failure
		s.Stage = StageError
		return s, delta
	}

	delta := safeInvoke(ctx, stage, fn, s)
	merged, err := fold(s, delta)
	if err != nil {
		// A fold violation is a stage contract bug, not a user input
		// problem; surface it as a failure so the run still terminates
		// cleanly instead of corrupting state.
		delta = Delta{Failure: NewFailure(FailureUnsupportedInput, "stage %s: %v", stage, err)}
		delta.Failure.Stage = stage.String()
		merged = s
		merged.Failure = delta.Failure
	}

	if delta.Failure != nil {
		if delta.Failure.Stage == "" {
			delta.Failure.Stage = stage.String()
		}
		merged.Failure = delta.Failure
		merged.Stage = StageError
		return merged, delta
	}

	merged.Stage = stage.next()
	return merged, delta
}

// safeInvoke runs a stage function, converting panics into failures so the
// orchestrator never needs stage-specific error handling.
func safeInvoke(ctx context.Context, stage Stage, fn StageFunc, s State) (delta Delta) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("pipeline: stage %s panicked: %v", stage, rec)
			delta = Delta{Failure: NewFailure(FailureUnsupportedInput, "%s failed: %v", stage, rec)}
		}
	}()
	return fn(ctx, s)
}

// Run executes the pipeline to completion and returns the final state.
// The returned state carries either Persisted=true or a Failure, never both.
func (r *Runner) Run(ctx context.Context, s State) State {
	s.Stage = StageExtract
	for !s.Stage.Terminal() {
		s, _ = r.step(ctx, s)
	}
	return s
}

// Stream executes the pipeline, emitting one Event after each completed
// stage. The channel is closed when the pipeline terminates or the consumer
// goes away. Cancellation is cooperative: a stage already running finishes;
// the orchestrator checks deliverability before invoking the next stage.
func (r *Runner) Stream(ctx context.Context, s State) <-chan Event {
	events := make(chan Event)

	go func() {
		defer close(events)
		s.Stage = StageExtract
		for !s.Stage.Terminal() {
			ran := s.Stage
			var delta Delta
			s, delta = r.step(ctx, s)

			ev := Event{
				Stage:     ran.String(),
				Timestamp: time.Now().UTC(),
				Delta:     delta,
				Current:   s.Stage.String(),
				Failure:   delta.Failure,
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	return events
}

// Result summarizes a terminated pipeline state for callers that only need
// the outcome, not the full state.
type Result struct {
	CardID           string
	Card             any
	Verification     any
	Description      string
	WebSearchResults any
	Persisted        bool
	Failure          *Failure
}

// Summarize builds a Result from a terminal state. It returns an error if
// called on a state that has not terminated.
func Summarize(s State) (Result, error) {
	if !s.Stage.Terminal() {
		return Result{}, fmt.Errorf("pipeline has not terminated (stage %s)", s.Stage)
	}
	res := Result{
		CardID:      s.CardID,
		Description: s.Description,
		Persisted:   s.Persisted,
		Failure:     s.Failure,
	}
	if s.Validated != nil {
		res.Card = s.Validated
	}
	if s.Verification != nil {
		res.Verification = s.Verification
	}
	if len(s.WebSearchResults) > 0 {
		res.WebSearchResults = s.WebSearchResults
	}
	return res, nil
}
