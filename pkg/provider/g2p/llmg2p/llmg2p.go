// Package llmg2p implements a [g2p.Converter] that asks a Large Language Model
// for a word's ARPAbet transcription.
//
// The model's reply is validated against a [features.Table]: every token must
// be a known phonetic unit, otherwise the reply is rejected. This keeps a
// chatty or hallucinating model from injecting labels the matcher cannot
// compare.
package llmg2p

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/MrWong99/confab/pkg/features"
	"github.com/MrWong99/confab/pkg/phoneme"
	"github.com/MrWong99/confab/pkg/provider/g2p"
	"github.com/MrWong99/confab/pkg/provider/llm"
)

// DefaultSystemPrompt instructs the model to answer with bare ARPAbet.
const DefaultSystemPrompt = `You convert English words to ARPAbet as used by the CMU Pronouncing Dictionary.
Reply with the phonemes only, separated by single spaces, with stress digits on vowels (0, 1 or 2).
Do not add punctuation, explanations or the word itself.
If the input is not pronounceable, reply with the single token UNKNOWN.`

// ErrInvalidReply is returned when the model's reply contains tokens that are
// not phonetic units.
var ErrInvalidReply = errors.New("llmg2p: invalid model reply")

// Converter implements [g2p.Converter] on top of an [llm.Provider].
type Converter struct {
	provider     llm.Provider
	table        *features.Table
	systemPrompt string
	temperature  float64
	maxTokens    int
}

var _ g2p.Converter = (*Converter)(nil)

// Option configures a [Converter].
type Option func(*Converter)

// WithSystemPrompt replaces [DefaultSystemPrompt].
func WithSystemPrompt(p string) Option {
	return func(c *Converter) { c.systemPrompt = p }
}

// WithTemperature sets the sampling temperature. Default 0.
func WithTemperature(t float64) Option {
	return func(c *Converter) { c.temperature = t }
}

// WithMaxTokens caps the reply length. Default 64.
func WithMaxTokens(n int) Option {
	return func(c *Converter) { c.maxTokens = n }
}

// New creates a Converter. table validates reply tokens; a nil table uses
// [features.ARPAbet].
func New(provider llm.Provider, table *features.Table, opts ...Option) (*Converter, error) {
	if provider == nil {
		return nil, errors.New("llmg2p: provider must not be nil")
	}
	if table == nil {
		table = features.ARPAbet()
	}
	c := &Converter{
		provider:     provider,
		table:        table,
		systemPrompt: DefaultSystemPrompt,
		maxTokens:    64,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Convert implements [g2p.Converter].
func (c *Converter) Convert(ctx context.Context, word string) (phoneme.Sequence, error) {
	word = strings.TrimSpace(word)
	if word == "" {
		return nil, fmt.Errorf("%w: empty word", g2p.ErrUnknownWord)
	}

	resp, err := c.provider.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: c.systemPrompt,
		Messages:     []llm.Message{{Role: llm.RoleUser, Content: strings.ToUpper(word)}},
		Temperature:  c.temperature,
		MaxTokens:    c.maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("llmg2p: complete %q: %w", word, err)
	}
	if resp == nil {
		return nil, fmt.Errorf("llmg2p: complete %q: nil response", word)
	}
	return c.parseReply(word, resp.Content)
}

// parseReply extracts the unit sequence from a model reply. Surrounding
// punctuation and a leading "WORD:" echo are tolerated.
func (c *Converter) parseReply(word, reply string) (phoneme.Sequence, error) {
	reply = strings.TrimSpace(reply)
	if line, _, ok := strings.Cut(reply, "\n"); ok {
		reply = line
	}
	if head, tail, ok := strings.Cut(reply, ":"); ok && strings.EqualFold(strings.TrimSpace(head), word) {
		reply = tail
	}
	reply = strings.TrimFunc(reply, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seq := phoneme.Parse(strings.ReplaceAll(reply, ",", " "))
	if len(seq) == 0 || (len(seq) == 1 && seq[0] == "UNKNOWN") {
		return nil, fmt.Errorf("%w: model could not pronounce %q", g2p.ErrUnknownWord, word)
	}
	for _, u := range seq {
		if !c.table.Has(u) {
			return nil, fmt.Errorf("%w: %q is not a phonetic unit (word %q)", ErrInvalidReply, u, word)
		}
	}
	return seq, nil
}
