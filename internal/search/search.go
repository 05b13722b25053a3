// Package search implements the depth-first decomposition of a phonetic
// sequence into dictionary words.
//
// The engine walks the candidate list in order at every position, descends
// into the first candidate the match strategy accepts, and backtracks when a
// branch dead-ends. The first complete decomposition found is returned; the
// engine never compares alternatives. Whether the units from a given offset
// onwards can be decomposed does not depend on how that offset was reached,
// so failed offsets are remembered and never explored twice. This keeps the
// result identical to a plain backtracking search while bounding the work by
// offsets × candidates.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/MrWong99/confab/internal/match"
	"github.com/MrWong99/confab/internal/observe"
	"github.com/MrWong99/confab/internal/rank"
	"github.com/MrWong99/confab/pkg/phoneme"
)

// ErrNoSolution is returned when no ordering of candidates reproduces the
// whole sequence.
var ErrNoSolution = errors.New("search: no decomposition found")

// Stats describes the work one [Engine.Decompose] call did.
type Stats struct {
	// Visited counts search states expanded (memoized failures excluded).
	Visited int
	// Matches counts candidates the strategy accepted.
	Matches int
	// Backtracks counts accepted candidates whose branch failed.
	Backtracks int
	// MemoHits counts states skipped because their offset already failed.
	MemoHits int
	// MaxDepth is the deepest partial decomposition reached, in words.
	MaxDepth int
}

// Solution is a complete decomposition.
type Solution struct {
	// Words are the chosen candidate words in order, exactly as they appear
	// in the candidate list.
	Words []string
	Stats Stats
}

// Engine decomposes sequences with a fixed [match.Strategy]. It holds no
// per-call state and is safe for concurrent use.
type Engine struct {
	strategy match.Strategy
	logger   *slog.Logger
}

// Option configures an [Engine].
type Option func(*Engine)

// WithLogger sets the logger used for search tracing. Tracing is emitted at
// debug level only. Default: the trace-aware logger from the call context.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New returns an Engine that accepts candidates with strategy.
func New(strategy match.Strategy, opts ...Option) *Engine {
	e := &Engine{strategy: strategy}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Strategy returns the engine's match strategy.
func (e *Engine) Strategy() match.Strategy { return e.strategy }

// Decompose finds the first sequence of candidate words, in depth-first
// candidate order, whose pronunciations cover seq under the engine's
// strategy. seq is expected to be stress-free.
//
// It returns an error wrapping [ErrNoSolution] when the search is exhausted,
// the strategy's error when a comparison cannot be made, or the context's
// error when ctx ends first. Partial decompositions are never returned.
func (e *Engine) Decompose(ctx context.Context, seq phoneme.Sequence, candidates rank.CandidateList) (Solution, error) {
	ctx, span := observe.StartSpan(ctx, "search.Decompose",
		trace.WithAttributes(
			attribute.String("strategy", e.strategy.Name()),
			attribute.Int("units", len(seq)),
			attribute.Int("candidates", len(candidates)),
		),
	)

	logger := e.logger
	if logger == nil {
		logger = observe.Logger(ctx)
	}

	r := &run{
		ctx:        ctx,
		strategy:   e.strategy,
		candidates: candidates,
		seq:        seq,
		failed:     make([]bool, len(seq)+1),
		logger:     logger,
		debug:      logger.Enabled(ctx, slog.LevelDebug),
	}
	if r.debug {
		r.explainer, _ = e.strategy.(match.Explainer)
	}
	found, err := r.step(0)
	if err == nil && !found {
		err = fmt.Errorf("%w: %d units against %d candidates", ErrNoSolution, len(seq), len(candidates))
	}

	span.SetAttributes(
		attribute.Int("visited", r.stats.Visited),
		attribute.Int("backtracks", r.stats.Backtracks),
	)
	observe.EndSpan(span, err)
	if err != nil {
		return Solution{Stats: r.stats}, err
	}
	return Solution{Words: r.path, Stats: r.stats}, nil
}

// run is the working state of a single Decompose call.
type run struct {
	ctx        context.Context
	strategy   match.Strategy
	candidates rank.CandidateList
	seq        phoneme.Sequence

	// failed[i] is set once the suffix starting at i is known to be
	// undecomposable.
	failed []bool
	path   []string
	stats  Stats

	logger    *slog.Logger
	debug     bool
	explainer match.Explainer
}

func (r *run) step(offset int) (bool, error) {
	if offset == len(r.seq) {
		return true, nil
	}
	if r.failed[offset] {
		r.stats.MemoHits++
		return false, nil
	}
	if err := r.ctx.Err(); err != nil {
		return false, err
	}

	r.stats.Visited++
	r.stats.MaxDepth = max(r.stats.MaxDepth, len(r.path))
	remaining := r.seq[offset:]
	if r.debug {
		r.logger.Debug("finding", "found", r.path, "remaining", remaining.String(), "offset", offset)
	}

	for _, c := range r.candidates {
		ok, err := r.strategy.Match(c.Phonetics, remaining)
		if err != nil {
			return false, fmt.Errorf("search: match %q at offset %d: %w", c.Word, offset, err)
		}
		if !ok {
			continue
		}
		r.stats.Matches++
		if r.explainer != nil {
			if why := r.explainer.Explain(c.Phonetics, remaining); why != nil {
				r.logger.DebugContext(r.ctx, "inexact match", append([]any{"word", c.Word, "offset", offset}, why...)...)
			}
		}
		r.path = append(r.path, c.Word)
		found, err := r.step(offset + len(c.Phonetics))
		if err != nil || found {
			return found, err
		}
		r.path = r.path[:len(r.path)-1]
		r.stats.Backtracks++
	}

	r.failed[offset] = true
	if r.debug {
		r.logger.Debug("failed", "found", r.path, "remaining", remaining.String(), "offset", offset)
	}
	return false, nil
}
