// Package confab is the top-level confabulation entry point. A [Confabulator]
// pronounces a phrase, flattens the pronunciation, ranks the dictionary
// against the phrase's own words and asks the search engine for the first
// decomposition into other words.
package confab

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/antzucaro/matchr"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/confab/internal/format"
	"github.com/MrWong99/confab/internal/match"
	"github.com/MrWong99/confab/internal/observe"
	"github.com/MrWong99/confab/internal/rank"
	"github.com/MrWong99/confab/internal/search"
	"github.com/MrWong99/confab/pkg/dictionary"
	"github.com/MrWong99/confab/pkg/phoneme"
	"github.com/MrWong99/confab/pkg/provider/g2p"
)

var (
	// ErrEmptyPhrase is returned for a phrase with no words in it.
	ErrEmptyPhrase = errors.New("confab: empty phrase")

	// ErrConversion is returned when a word of the phrase cannot be
	// pronounced.
	ErrConversion = errors.New("confab: phonetic conversion failed")
)

// DefaultBatchConcurrency bounds [Confabulator.ConfabulateBatch] when no
// limit is configured.
const DefaultBatchConcurrency = 4

// Result is one confabulated phrase.
type Result struct {
	// Input is the phrase as given.
	Input string
	// Output is the formatted decomposition.
	Output string
	// Words are the chosen dictionary words, variant tags intact.
	Words []string
	// Phonetics is the stress-free pronunciation that was decomposed.
	Phonetics phoneme.Sequence
	Stats     search.Stats
	// SpellingSimilarity is the Jaro-Winkler similarity of Output to the
	// normalized input. 1 means the phrase came back unchanged.
	SpellingSimilarity float64
}

// Unchanged reports whether the search fell back to the input words.
func (r Result) Unchanged() bool { return r.SpellingSimilarity == 1 }

// Confabulator holds the dictionary, converter and search engine shared by
// every call. It is safe for concurrent use.
type Confabulator struct {
	dict      *dictionary.Dictionary
	base      *rank.Base
	converter g2p.Converter
	engine    *search.Engine

	forceNovelty bool
	concurrency  int
	metrics      *observe.Metrics
	logger       *slog.Logger
}

// Option configures a [Confabulator].
type Option func(*Confabulator)

// WithForceNovelty toggles deprioritizing words that contain an input word.
// Default: true.
func WithForceNovelty(on bool) Option {
	return func(c *Confabulator) { c.forceNovelty = on }
}

// WithBatchConcurrency bounds how many phrases [Confabulator.ConfabulateBatch]
// works on at once. Values below 1 select [DefaultBatchConcurrency].
func WithBatchConcurrency(n int) Option {
	return func(c *Confabulator) { c.concurrency = n }
}

// WithMetrics sets the metrics sink. Default: [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(c *Confabulator) { c.metrics = m }
}

// WithLogger sets the logger. Default: the trace-aware logger of each call.
func WithLogger(l *slog.Logger) Option {
	return func(c *Confabulator) { c.logger = l }
}

// New builds a Confabulator. The dictionary is ranked once here; strategy
// decides which candidates the search accepts.
func New(dict *dictionary.Dictionary, converter g2p.Converter, strategy match.Strategy, opts ...Option) (*Confabulator, error) {
	if dict == nil {
		return nil, errors.New("confab: dictionary must not be nil")
	}
	if converter == nil {
		return nil, errors.New("confab: converter must not be nil")
	}
	if strategy == nil {
		return nil, errors.New("confab: strategy must not be nil")
	}
	c := &Confabulator{
		dict:         dict,
		converter:    converter,
		forceNovelty: true,
		concurrency:  DefaultBatchConcurrency,
	}
	for _, o := range opts {
		o(c)
	}
	if c.concurrency < 1 {
		c.concurrency = DefaultBatchConcurrency
	}
	if c.metrics == nil {
		c.metrics = observe.DefaultMetrics()
	}
	var engineOpts []search.Option
	if c.logger != nil {
		engineOpts = append(engineOpts, search.WithLogger(c.logger))
	}
	c.engine = search.New(strategy, engineOpts...)
	c.base = rank.NewBase(dict.Entries())
	return c, nil
}

// Strategy returns the name of the match strategy in use.
func (c *Confabulator) Strategy() string { return c.engine.Strategy().Name() }

// Dictionary returns the dictionary the confabulator ranks.
func (c *Confabulator) Dictionary() *dictionary.Dictionary { return c.dict }

// Pronounce converts a single word with the configured converter and strips
// stress from the result.
func (c *Confabulator) Pronounce(ctx context.Context, word string) (phoneme.Sequence, error) {
	seq, err := c.converter.Convert(ctx, strings.ToUpper(strings.TrimSpace(word)))
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrConversion, word, err)
	}
	return phoneme.Normalize(seq), nil
}

// Confabulate rewrites phrase into other dictionary words that sound the
// same, or close enough under the configured strategy.
//
// Errors wrap [ErrEmptyPhrase] or [ErrConversion] for bad input,
// [search.ErrNoSolution] when nothing decomposes, and the strategy's own
// errors, such as an unknown phonetic unit, unchanged.
func (c *Confabulator) Confabulate(ctx context.Context, phrase string) (Result, error) {
	strategy := c.Strategy()
	ctx, span := observe.StartSpan(ctx, "confab.Confabulate",
		trace.WithAttributes(attribute.String("strategy", strategy)),
	)
	res, err := c.confabulate(ctx, phrase)
	observe.EndSpan(span, err)

	status := statusOf(err)
	c.metrics.RecordConfabulation(ctx, strategy, status)
	if errors.Is(err, search.ErrNoSolution) {
		c.log(ctx).Error("no decomposition found", "phrase", phrase, "strategy", strategy, "err", err)
	}
	return res, err
}

func (c *Confabulator) confabulate(ctx context.Context, phrase string) (Result, error) {
	res := Result{Input: phrase}
	words := format.SplitPhrase(phrase)
	if len(words) == 0 {
		return res, ErrEmptyPhrase
	}

	originals := make([]dictionary.Entry, 0, len(words))
	var seqs []phoneme.Sequence
	for _, w := range words {
		seq, err := c.converter.Convert(ctx, w)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return res, ctxErr
			}
			return res, fmt.Errorf("%w: %q: %w", ErrConversion, w, err)
		}
		if len(seq) == 0 {
			return res, fmt.Errorf("%w: %q has no pronunciation", ErrConversion, w)
		}
		seq = phoneme.Normalize(seq)
		originals = append(originals, dictionary.Entry{Word: strings.ToLower(w), Phonetics: seq})
		seqs = append(seqs, seq)
	}
	res.Phonetics = phoneme.Concat(seqs...)

	candidates := c.base.Build(originals, rank.WithForceNovelty(c.forceNovelty))

	c.metrics.ActiveSearches.Add(ctx, 1)
	start := time.Now()
	sol, err := c.engine.Decompose(ctx, res.Phonetics, candidates)
	c.metrics.ActiveSearches.Add(ctx, -1)
	c.metrics.RecordSearch(ctx, c.Strategy(), statusOf(err), time.Since(start), sol.Stats.Visited, sol.Stats.Backtracks)
	res.Stats = sol.Stats
	if err != nil {
		return res, err
	}

	res.Words = sol.Words
	res.Output = format.Format(sol.Words)
	res.SpellingSimilarity = matchr.JaroWinkler(strings.ToLower(strings.Join(words, " ")), res.Output, false)

	c.log(ctx).Debug("confabulated",
		"input", phrase,
		"output", res.Output,
		"visited", res.Stats.Visited,
		"backtracks", res.Stats.Backtracks,
	)
	return res, nil
}

// BatchResult pairs one phrase of a batch with its outcome.
type BatchResult struct {
	Result
	Err error
}

// ConfabulateBatch confabulates every phrase independently, at most the
// configured number at once. Results are in input order and every entry
// carries its input. Per-phrase failures, including phrases skipped because
// ctx ended, are reported in [BatchResult.Err]; the returned error is non-nil
// only when ctx ends before the batch completes.
func (c *Confabulator) ConfabulateBatch(ctx context.Context, phrases []string) ([]BatchResult, error) {
	out := make([]BatchResult, len(phrases))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, p := range phrases {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				out[i] = BatchResult{Result: Result{Input: p}, Err: err}
				return err
			}
			res, err := c.Confabulate(gctx, p)
			res.Input = p
			out[i] = BatchResult{Result: res, Err: err}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return out, fmt.Errorf("confab: batch: %w", err)
	}
	return out, nil
}

func (c *Confabulator) log(ctx context.Context) *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return observe.Logger(ctx)
}

func statusOf(err error) string {
	switch {
	case err == nil:
		return observe.StatusOK
	case errors.Is(err, search.ErrNoSolution):
		return observe.StatusNoSolution
	case errors.Is(err, ErrEmptyPhrase), errors.Is(err, ErrConversion):
		return observe.StatusInvalid
	default:
		return observe.StatusError
	}
}
