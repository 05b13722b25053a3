package match

import (
	"fmt"

	"github.com/MrWong99/confab/pkg/features"
	"github.com/MrWong99/confab/pkg/phoneme"
)

// Smart aligns candidate and prefix unit by unit and charges half a slip for
// every articulatory descriptor the two units do not share. A candidate is
// accepted while the accumulated slips stay within the error budget, so a
// voicing swap (T/D: one slip) passes under the default budget while a
// consonant/vowel swap does not.
type Smart struct {
	table  *features.Table
	errors float64
}

var (
	_ Strategy  = Smart{}
	_ Explainer = Smart{}
)

// NewSmart returns a Smart strategy over table with the given slip budget.
// A nil table uses [features.ARPAbet].
func NewSmart(table *features.Table, errors float64) (Smart, error) {
	if errors < 0 {
		return Smart{}, fmt.Errorf("match: smart error budget %v must not be negative", errors)
	}
	if table == nil {
		table = features.ARPAbet()
	}
	return Smart{table: table, errors: errors}, nil
}

// Name implements [Strategy].
func (Smart) Name() string { return NameSmart }

// Errors returns the configured slip budget.
func (s Smart) Errors() float64 { return s.errors }

// Match implements [Strategy]. It returns an error wrapping
// [features.ErrUnknownUnit] when either side holds a unit the table cannot
// resolve.
func (s Smart) Match(candidate, remaining phoneme.Sequence) (bool, error) {
	prefix, ok := window(candidate, remaining)
	if !ok {
		return false, nil
	}
	_, within, err := s.Slips(candidate, prefix)
	if err != nil || !within {
		return false, err
	}
	return true, nil
}

// Explain implements [Explainer]. It returns the IPA of both sides and the
// slips charged, or nil when the candidate matched exactly or not at all.
func (s Smart) Explain(candidate, remaining phoneme.Sequence) []any {
	prefix, ok := window(candidate, remaining)
	if !ok {
		return nil
	}
	slips, within, err := s.Slips(candidate, prefix)
	if err != nil || !within || slips == 0 {
		return nil
	}
	want, _ := s.table.IPA(prefix)
	got, _ := s.table.IPA(candidate)
	return []any{"prefix", want, "candidate", got, "slips", slips}
}

// Slips accumulates the feature distance between two equal-length sequences
// and reports whether it stayed within budget. Accumulation stops as soon as
// the budget is exceeded, so the returned slips are then a lower bound.
func (s Smart) Slips(a, b phoneme.Sequence) (float64, bool, error) {
	if len(a) != len(b) {
		return 0, false, fmt.Errorf("match: smart slips: length mismatch %d != %d", len(a), len(b))
	}
	var slips float64
	for i := range a {
		d, err := s.table.UnitDistance(a[i], b[i])
		if err != nil {
			return slips, false, fmt.Errorf("match: smart: %w", err)
		}
		slips += float64(d) / 2
		if slips > s.errors {
			return slips, false, nil
		}
	}
	return slips, true, nil
}
