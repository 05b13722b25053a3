// Package mock provides a test double for the g2p.Converter interface.
//
// Example:
//
//	conv := &mock.Converter{
//	    Pronunciations: map[string]string{"CAT": "K AE1 T"},
//	}
//	seq, err := conv.Convert(ctx, "cat")
package mock

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/MrWong99/confab/pkg/phoneme"
	"github.com/MrWong99/confab/pkg/provider/g2p"
)

// ConvertCall records a single invocation of Convert.
type ConvertCall struct {
	Ctx  context.Context
	Word string
}

// Converter is a mock implementation of g2p.Converter. Words are matched
// case-insensitively against Pronunciations; misses return an error wrapping
// g2p.ErrUnknownWord.
type Converter struct {
	mu sync.Mutex

	// Pronunciations maps upper-case words to space-separated unit labels.
	Pronunciations map[string]string

	// Err, if non-nil, is returned for every call.
	Err error

	// Calls records every invocation of Convert in order.
	Calls []ConvertCall
}

// Convert records the call and answers from Pronunciations.
func (c *Converter) Convert(ctx context.Context, word string) (phoneme.Sequence, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls = append(c.Calls, ConvertCall{Ctx: ctx, Word: word})
	if c.Err != nil {
		return nil, c.Err
	}
	p, ok := c.Pronunciations[strings.ToUpper(word)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", g2p.ErrUnknownWord, word)
	}
	return phoneme.Parse(p), nil
}

// CallCount returns the number of recorded calls. Thread-safe.
func (c *Converter) CallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Calls)
}

// Reset clears all recorded calls. Thread-safe.
func (c *Converter) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls = nil
}

var _ g2p.Converter = (*Converter)(nil)
