package match

import (
	"fmt"
	"strings"

	"github.com/antzucaro/matchr"

	"github.com/MrWong99/confab/pkg/phoneme"
)

// Edit accepts a candidate whose unit-level Levenshtein distance to the
// prefix is at most MaxEdits. Like [Fuzzy] it treats units as opaque, but
// its knob is an absolute edit count rather than a ratio, so long words get
// no more slack than short ones.
type Edit struct {
	maxEdits int
}

var _ Strategy = Edit{}

// NewEdit returns an Edit strategy. maxEdits must not be negative.
func NewEdit(maxEdits int) (Edit, error) {
	if maxEdits < 0 {
		return Edit{}, fmt.Errorf("match: edit budget %d must not be negative", maxEdits)
	}
	return Edit{maxEdits: maxEdits}, nil
}

// Name implements [Strategy].
func (Edit) Name() string { return NameEdit }

// MaxEdits returns the configured edit budget.
func (e Edit) MaxEdits() int { return e.maxEdits }

// Match implements [Strategy]. It never returns an error.
func (e Edit) Match(candidate, remaining phoneme.Sequence) (bool, error) {
	prefix, ok := window(candidate, remaining)
	if !ok {
		return false, nil
	}
	if candidate.Equal(prefix) {
		return true, nil
	}
	return Distance(candidate, prefix) <= e.maxEdits, nil
}

// Distance returns the unit-level Levenshtein distance between a and b.
func Distance(a, b phoneme.Sequence) int {
	alphabet := make(map[phoneme.Unit]rune, len(a)+len(b))
	return matchr.Levenshtein(encode(a, alphabet), encode(b, alphabet))
}

// encode maps every distinct unit to one rune from the private use area so
// that a rune-level edit distance is a unit-level one.
func encode(seq phoneme.Sequence, alphabet map[phoneme.Unit]rune) string {
	var b strings.Builder
	for _, u := range seq {
		r, ok := alphabet[u]
		if !ok {
			r = rune(0xE000 + len(alphabet))
			alphabet[u] = r
		}
		b.WriteRune(r)
	}
	return b.String()
}
