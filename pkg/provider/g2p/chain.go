package g2p

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrWong99/confab/internal/resilience"
	"github.com/MrWong99/confab/pkg/phoneme"
)

// ChainConfig tunes the per-converter circuit breakers of a [Chain].
type ChainConfig struct {
	CircuitBreaker resilience.CircuitBreakerConfig

	// Recorder, if set, receives one request record per converter attempt.
	Recorder Recorder
}

// Chain asks its converters in registration order and returns the first
// pronunciation found. Each converter sits behind its own circuit breaker;
// [ErrUnknownWord] and context cancellation are answers, not faults, and
// never trip a breaker.
type Chain struct {
	cfg   ChainConfig
	group *resilience.FallbackGroup[Converter]
}

var _ Converter = (*Chain)(nil)

// NewChain returns an empty chain. Converters are added with [Chain.Add]
// before first use.
func NewChain(cfg ChainConfig) *Chain {
	cfg.CircuitBreaker.IsFailure = isBackendFault
	return &Chain{cfg: cfg}
}

// Add appends a named converter.
func (c *Chain) Add(name string, conv Converter) {
	if c.group == nil {
		c.group = resilience.NewFallbackGroup(conv, name, resilience.FallbackConfig{CircuitBreaker: c.cfg.CircuitBreaker})
		return
	}
	c.group.AddFallback(name, conv)
}

// Len returns the number of registered converters.
func (c *Chain) Len() int {
	if c.group == nil {
		return 0
	}
	return c.group.Len()
}

// Status reports the breaker state of every converter.
func (c *Chain) Status() []resilience.EntryStatus {
	if c.group == nil {
		return nil
	}
	return c.group.Status()
}

// Convert implements [Converter]. When every converter misses, the returned
// error wraps [ErrUnknownWord]; when any converter failed for another reason
// it wraps [resilience.ErrAllFailed] together with the individual causes.
func (c *Chain) Convert(ctx context.Context, word string) (phoneme.Sequence, error) {
	if c.group == nil {
		return nil, fmt.Errorf("g2p: chain has no converters")
	}
	seq, err := resilience.ExecuteWithResult(c.group, func(name string, conv Converter) (phoneme.Sequence, error) {
		seq, err := conv.Convert(ctx, word)
		if err == nil && len(seq) == 0 {
			err = fmt.Errorf("%w: %s returned no units for %q", ErrUnknownWord, name, word)
		}
		c.record(ctx, name, err)
		return seq, err
	})
	if err != nil {
		return nil, fmt.Errorf("g2p: convert %q: %w", word, err)
	}
	return seq, nil
}

func (c *Chain) record(ctx context.Context, provider string, err error) {
	if c.cfg.Recorder == nil {
		return
	}
	status := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrUnknownWord):
		status = "unknown"
	default:
		status = "error"
	}
	c.cfg.Recorder.RecordG2PRequest(ctx, provider, status)
}

func isBackendFault(err error) bool {
	return err != nil &&
		!errors.Is(err, ErrUnknownWord) &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded)
}
