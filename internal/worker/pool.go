// Package worker runs batches of card analyses with bounded concurrency and
// retry on transient provider failures.
package worker

import (
	"context"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/card-analyzer/internal/pipeline"
)

// Pool defaults.
const (
	DefaultConcurrency = 2
	DefaultMaxRetries  = 2
	DefaultBaseBackoff = time.Second
)

// Job is one unit of work: a seeded pipeline state.
type Job struct {
	State pipeline.State
}

// Outcome pairs a job with its terminal state and retry count.
type Outcome struct {
	CardID   string
	State    pipeline.State
	Attempts int
}

// Pool fans jobs out over a fixed number of workers.
type Pool struct {
	runner      *pipeline.Runner
	concurrency int
	maxRetries  int
	baseBackoff time.Duration
}

// Option customizes a Pool.
type Option func(*Pool)

// WithConcurrency sets the worker count.
func WithConcurrency(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithMaxRetries sets the retry budget for transient failures.
func WithMaxRetries(n int) Option {
	return func(p *Pool) {
		if n >= 0 {
			p.maxRetries = n
		}
	}
}

// WithBaseBackoff sets the first retry delay; each retry doubles it.
func WithBaseBackoff(d time.Duration) Option {
	return func(p *Pool) {
		if d > 0 {
			p.baseBackoff = d
		}
	}
}

// NewPool creates a pool over the given runner.
func NewPool(runner *pipeline.Runner, opts ...Option) *Pool {
	p := &Pool{
		runner:      runner,
		concurrency: DefaultConcurrency,
		maxRetries:  DefaultMaxRetries,
		baseBackoff: DefaultBaseBackoff,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run processes all jobs and returns one outcome per job, in job order.
// Individual pipeline failures do not abort the batch; only context
// cancellation stops early.
func (p *Pool) Run(ctx context.Context, jobs []Job) ([]Outcome, error) {
	outcomes := make([]Outcome, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for i, job := range jobs {
		g.Go(func() error {
			outcome, err := p.runOne(gctx, job)
			if err != nil {
				return err
			}
			outcomes[i] = outcome
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// runOne executes a single job, retrying when the failure reason carries a
// transient signature. Non-transient failures are terminal immediately.
func (p *Pool) runOne(ctx context.Context, job Job) (Outcome, error) {
	var state pipeline.State
	attempts := 0

	for {
		attempts++
		state = p.runner.Run(ctx, job.State)

		if state.Failure == nil || !pipeline.IsTransientReason(state.Failure.Reason) {
			break
		}
		if attempts > p.maxRetries {
			log.Printf("[WORKER] Card %s: transient failure persisted after %d attempts", job.State.CardID, attempts)
			break
		}

		delay := p.baseBackoff << (attempts - 1)
		log.Printf("[WORKER] Card %s: transient failure (%s), retrying in %s", job.State.CardID, state.Failure.Reason, delay)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return Outcome{}, ctx.Err()
		}
	}

	return Outcome{
		CardID:   job.State.CardID,
		State:    state,
		Attempts: attempts,
	}, nil
}
