// Package orchestrator calls an ordered list of models until one returns a
// response that passes validation.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pelican-stonks/internal/interfaces"
	"pelican-stonks/internal/logger"
	"pelican-stonks/internal/types"
)

// Outcome classifies a single attempt.
type Outcome int

const (
	Success Outcome = iota
	RateLimited
	Malformed
	TransientError
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "SUCCESS"
	case RateLimited:
		return "RATE_LIMITED"
	case Malformed:
		return "MALFORMED"
	default:
		return "TRANSIENT_ERROR"
	}
}

// Classify maps an attempt error onto its outcome.
func Classify(err error) Outcome {
	if err == nil {
		return Success
	}
	var rl *types.RateLimitError
	if errors.As(err, &rl) {
		return RateLimited
	}
	if types.IsMalformed(err) {
		return Malformed
	}
	return TransientError
}

// Candidate is one model served by one provider.
type Candidate struct {
	Provider interfaces.LLMProvider
	Model    string
}

func (c Candidate) String() string {
	return c.Provider.Name() + ":" + c.Model
}

type Config struct {
	MaxRetries     int
	UseFallback    bool
	RateLimitDelay time.Duration
	TransientDelay time.Duration
	// CallTimeout bounds each provider call. Zero means no per-call limit.
	CallTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxRetries:     3,
		UseFallback:    true,
		RateLimitDelay: 10 * time.Second,
		TransientDelay: 5 * time.Second,
		CallTimeout:    2 * time.Minute,
	}
}

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type Orchestrator struct {
	candidates []Candidate
	cfg        Config
	sleep      Sleeper
}

type Option func(*Orchestrator)

func WithSleeper(s Sleeper) Option {
	return func(o *Orchestrator) {
		o.sleep = s
	}
}

func New(candidates []Candidate, cfg Config, opts ...Option) *Orchestrator {
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 1
	}
	o := &Orchestrator{
		candidates: candidates,
		cfg:        cfg,
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Candidates returns the models this orchestrator will try, in order.
func (o *Orchestrator) Candidates() []Candidate {
	if !o.cfg.UseFallback && len(o.candidates) > 1 {
		return o.candidates[:1]
	}
	return o.candidates
}

// Call runs the attempt loop and returns the first validated result. When
// every candidate is used up it returns *types.ExhaustedAllModelsError.
func Call[T any](ctx context.Context, o *Orchestrator, req types.LLMRequest, validate func(types.RawResponse) (T, error)) (T, error) {
	var zero T
	candidates := o.Candidates()
	if len(candidates) == 0 {
		return zero, &types.ExhaustedAllModelsError{Last: errors.New("no models configured")}
	}

	total := 0
	var last error
	for _, cand := range candidates {
		for attempt := 1; attempt <= o.cfg.MaxRetries; attempt++ {
			total++
			result, err := tryOnce(ctx, o, cand, req, validate)
			outcome := Classify(err)
			logger.Attempt(ctx, cand.String(), attempt, outcome.String(), err)
			if outcome == Success {
				return result, nil
			}
			last = fmt.Errorf("%s: %w", cand, err)

			if ctx.Err() != nil {
				return zero, ctx.Err()
			}
			if outcome == Malformed {
				break
			}
			if attempt == o.cfg.MaxRetries {
				break
			}
			if err := o.sleep(ctx, o.delay(outcome, err)); err != nil {
				return zero, err
			}
		}
	}
	return zero, &types.ExhaustedAllModelsError{Attempts: total, Last: last}
}

// tryOnce makes a single bounded call and validates the response.
func tryOnce[T any](ctx context.Context, o *Orchestrator, cand Candidate, req types.LLMRequest, validate func(types.RawResponse) (T, error)) (T, error) {
	var zero T
	callCtx := ctx
	if o.cfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, o.cfg.CallTimeout)
		defer cancel()
	}

	raw, err := cand.Provider.Invoke(callCtx, cand.Model, req)
	if err != nil {
		return zero, err
	}
	if raw.Model == "" {
		raw.Model = cand.Model
	}
	return validate(raw)
}

// delay picks the wait before retrying the same model.
func (o *Orchestrator) delay(outcome Outcome, err error) time.Duration {
	if outcome == RateLimited {
		var rl *types.RateLimitError
		if errors.As(err, &rl) && rl.RetryAfter > 0 {
			return rl.RetryAfter
		}
		return o.cfg.RateLimitDelay
	}
	return o.cfg.TransientDelay
}
