package match

import "github.com/MrWong99/confab/pkg/phoneme"

// Strict accepts a candidate only when it equals the prefix unit for unit.
type Strict struct{}

var _ Strategy = Strict{}

// Name implements [Strategy].
func (Strict) Name() string { return NameStrict }

// Match implements [Strategy]. It never returns an error.
func (Strict) Match(candidate, remaining phoneme.Sequence) (bool, error) {
	if len(candidate) == 0 {
		return false, nil
	}
	return remaining.HasPrefix(candidate), nil
}
