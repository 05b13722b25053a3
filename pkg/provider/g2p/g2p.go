// Package g2p defines the Converter interface for grapheme-to-phoneme
// backends: anything that turns a written word into an ordered sequence of
// phonetic units.
//
// Converters in this package are composable. A typical setup chains a
// dictionary lookup with a model-based fallback, wrapped in an LRU cache:
//
//	chain := g2p.NewChain(g2p.ChainConfig{})
//	chain.Add("dictionary", g2p.NewDictionaryConverter(dict))
//	chain.Add("llm", llmConverter)
//	conv, _ := g2p.NewCache(chain, 4096)
//
// Implementations must be safe for concurrent use.
package g2p

import (
	"context"
	"errors"

	"github.com/MrWong99/confab/pkg/phoneme"
)

// ErrUnknownWord is returned when a converter has no pronunciation for a word.
// It describes the input, not the backend, so it never trips a circuit
// breaker.
var ErrUnknownWord = errors.New("g2p: unknown word")

// Converter turns a single word into its phonetic units.
type Converter interface {
	// Convert returns the pronunciation of word. Implementations return a
	// non-empty sequence on success and an error wrapping [ErrUnknownWord]
	// when the word cannot be pronounced.
	Convert(ctx context.Context, word string) (phoneme.Sequence, error)
}

// ConverterFunc adapts an ordinary function to the [Converter] interface.
type ConverterFunc func(ctx context.Context, word string) (phoneme.Sequence, error)

// Convert calls f(ctx, word).
func (f ConverterFunc) Convert(ctx context.Context, word string) (phoneme.Sequence, error) {
	return f(ctx, word)
}

// Recorder receives conversion telemetry. Implemented by the application's
// metrics type; a nil Recorder disables recording.
type Recorder interface {
	RecordG2PRequest(ctx context.Context, provider, status string)
	RecordG2PCache(ctx context.Context, hit bool)
}
