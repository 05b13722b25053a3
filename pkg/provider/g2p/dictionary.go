package g2p

import (
	"context"
	"fmt"

	"github.com/MrWong99/confab/pkg/dictionary"
	"github.com/MrWong99/confab/pkg/phoneme"
)

// DictionaryConverter pronounces words by looking them up in a
// [dictionary.Dictionary]. Lookups ignore case.
type DictionaryConverter struct {
	dict *dictionary.Dictionary
}

var _ Converter = (*DictionaryConverter)(nil)

// NewDictionaryConverter returns a converter over dict.
func NewDictionaryConverter(dict *dictionary.Dictionary) *DictionaryConverter {
	return &DictionaryConverter{dict: dict}
}

// Convert implements [Converter].
func (c *DictionaryConverter) Convert(ctx context.Context, word string) (phoneme.Sequence, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e, ok := c.dict.Lookup(word)
	if !ok {
		return nil, fmt.Errorf("%w: %q not in dictionary", ErrUnknownWord, word)
	}
	return append(phoneme.Sequence(nil), e.Phonetics...), nil
}
