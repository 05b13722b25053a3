package g2p

import (
	"context"
	"fmt"

	"github.com/MrWong99/confab/pkg/dictionary"
	"github.com/MrWong99/confab/pkg/phoneme"
)

// WordStore is a persistent pronunciation store queried one word at a time.
// The PostgreSQL dictionary store implements it.
type WordStore interface {
	Lookup(ctx context.Context, word string) (dictionary.Entry, bool, error)
}

// StoreConverter pronounces words by querying a [WordStore] on every call,
// so words imported after startup are found without reloading the
// in-memory dictionary. Store errors are returned as backend faults.
type StoreConverter struct {
	store WordStore
}

var _ Converter = (*StoreConverter)(nil)

// NewStoreConverter returns a converter over store.
func NewStoreConverter(store WordStore) *StoreConverter {
	return &StoreConverter{store: store}
}

// Convert implements [Converter].
func (c *StoreConverter) Convert(ctx context.Context, word string) (phoneme.Sequence, error) {
	e, ok, err := c.store.Lookup(ctx, word)
	if err != nil {
		return nil, fmt.Errorf("g2p: store: %w", err)
	}
	if !ok || len(e.Phonetics) == 0 {
		return nil, fmt.Errorf("%w: %q not in store", ErrUnknownWord, word)
	}
	return e.Phonetics, nil
}
