package match

import (
	"fmt"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/MrWong99/confab/pkg/phoneme"
)

// Fuzzy compares candidate and prefix as sequences of opaque tokens with a
// longest-matching-block similarity ratio, accepting when the ratio is at
// least 1 - Creativity. Units carry no acoustic meaning here; a TH is as far
// from a DH as from an IY.
type Fuzzy struct {
	creativity float64
}

var _ Strategy = Fuzzy{}

// NewFuzzy returns a Fuzzy strategy. creativity must lie in [0, 1]: 0 behaves
// like [Strict], 1 accepts any equal-length prefix.
func NewFuzzy(creativity float64) (Fuzzy, error) {
	if creativity < 0 || creativity > 1 {
		return Fuzzy{}, fmt.Errorf("match: fuzzy creativity %v out of range [0, 1]", creativity)
	}
	return Fuzzy{creativity: creativity}, nil
}

// Name implements [Strategy].
func (Fuzzy) Name() string { return NameFuzzy }

// Creativity returns the configured looseness.
func (f Fuzzy) Creativity() float64 { return f.creativity }

// Match implements [Strategy]. It never returns an error.
func (f Fuzzy) Match(candidate, remaining phoneme.Sequence) (bool, error) {
	prefix, ok := window(candidate, remaining)
	if !ok {
		return false, nil
	}
	if candidate.Equal(prefix) {
		return true, nil
	}
	return Ratio(candidate, prefix) >= 1-f.creativity, nil
}

// Ratio returns the sequence similarity of a and b in [0, 1], 1 meaning
// identical.
func Ratio(a, b phoneme.Sequence) float64 {
	return difflib.NewMatcher(a.Strings(), b.Strings()).Ratio()
}
