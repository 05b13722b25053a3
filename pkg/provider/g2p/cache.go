package g2p

import (
	"context"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/MrWong99/confab/pkg/phoneme"
)

// DefaultCacheSize is used when NewCache is given a non-positive size.
const DefaultCacheSize = 4096

// Cache memoizes successful conversions of an inner [Converter] in a bounded
// LRU keyed by the upper-cased word. Failures are not cached.
type Cache struct {
	inner    Converter
	entries  *lru.Cache[string, phoneme.Sequence]
	recorder Recorder
}

var _ Converter = (*Cache)(nil)

// CacheOption configures a [Cache].
type CacheOption func(*Cache)

// WithCacheRecorder reports hits and misses to r.
func WithCacheRecorder(r Recorder) CacheOption {
	return func(c *Cache) { c.recorder = r }
}

// NewCache wraps inner with an LRU of the given size.
func NewCache(inner Converter, size int, opts ...CacheOption) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	entries, err := lru.New[string, phoneme.Sequence](size)
	if err != nil {
		return nil, fmt.Errorf("g2p: new cache: %w", err)
	}
	c := &Cache{inner: inner, entries: entries}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Convert implements [Converter].
func (c *Cache) Convert(ctx context.Context, word string) (phoneme.Sequence, error) {
	key := strings.ToUpper(strings.TrimSpace(word))
	if seq, ok := c.entries.Get(key); ok {
		c.record(ctx, true)
		return append(phoneme.Sequence(nil), seq...), nil
	}
	c.record(ctx, false)

	seq, err := c.inner.Convert(ctx, word)
	if err != nil {
		return nil, err
	}
	c.entries.Add(key, append(phoneme.Sequence(nil), seq...))
	return seq, nil
}

// Len returns the number of cached words.
func (c *Cache) Len() int { return c.entries.Len() }

func (c *Cache) record(ctx context.Context, hit bool) {
	if c.recorder != nil {
		c.recorder.RecordG2PCache(ctx, hit)
	}
}
