// Package match implements the prefix predicates the decomposition search
// uses to decide whether a dictionary word can stand in for the next few
// units of the phrase being reworded.
//
// Every [Strategy] looks only at the leading len(candidate) units of the
// remaining sequence. A candidate longer than what remains, or an empty
// candidate, never matches. Callers are expected to pass stress-free
// sequences (see [phoneme.Normalize]).
//
// Four strategies are provided, from strictest to loosest in spirit:
//
//   - [Strict]: exact unit-by-unit equality.
//   - [Smart]: articulatory feature distance with an error budget.
//   - [Edit]: unit-level Levenshtein distance with an edit budget.
//   - [Fuzzy]: opaque-token sequence similarity ratio.
//
// All strategies are immutable after construction and safe for concurrent
// use.
package match

import (
	"errors"
	"fmt"
	"strings"

	"github.com/MrWong99/confab/pkg/features"
	"github.com/MrWong99/confab/pkg/phoneme"
)

// Strategy names accepted by [New].
const (
	NameStrict = "strict"
	NameFuzzy  = "fuzzy"
	NameSmart  = "smart"
	NameEdit   = "edit"
)

// Defaults for the leniency knobs.
const (
	DefaultCreativity = 0.3
	DefaultErrors     = 1.0
	DefaultMaxEdits   = 1
)

// ErrUnknownStrategy is returned by [New] for an unrecognised name.
var ErrUnknownStrategy = errors.New("match: unknown strategy")

// Strategy decides whether candidate is an acceptable prefix of remaining.
type Strategy interface {
	// Name returns the strategy's configuration name.
	Name() string

	// Match reports whether candidate matches the first len(candidate) units
	// of remaining. An error means the comparison itself could not be made
	// (for example an unresolvable unit) and must not be read as "no match".
	Match(candidate, remaining phoneme.Sequence) (bool, error)
}

// Explainer is implemented by strategies that can say why an inexact match
// was accepted. Explain returns slog key-value pairs, or nil when there is
// nothing worth reporting.
type Explainer interface {
	Explain(candidate, remaining phoneme.Sequence) []any
}

// Params carries the knobs for every strategy; each strategy reads only its
// own fields.
type Params struct {
	// Creativity is the [Fuzzy] looseness in [0, 1].
	Creativity float64

	// Errors is the [Smart] slip budget, >= 0.
	Errors float64

	// MaxEdits is the [Edit] budget, >= 0.
	MaxEdits int

	// Table resolves feature descriptors for [Smart]. Nil uses
	// [features.ARPAbet].
	Table *features.Table
}

// Names returns the accepted strategy names in a stable order.
func Names() []string {
	return []string{NameStrict, NameFuzzy, NameSmart, NameEdit}
}

// New builds the strategy called name from p.
func New(name string, p Params) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case NameStrict, "":
		return Strict{}, nil
	case NameFuzzy:
		return NewFuzzy(p.Creativity)
	case NameSmart:
		return NewSmart(p.Table, p.Errors)
	case NameEdit:
		return NewEdit(p.MaxEdits)
	default:
		return nil, fmt.Errorf("%w: %q (want one of %s)", ErrUnknownStrategy, name, strings.Join(Names(), ", "))
	}
}

// window returns the prefix of remaining aligned with candidate, or false if
// the candidate cannot match at all.
func window(candidate, remaining phoneme.Sequence) (phoneme.Sequence, bool) {
	if len(candidate) == 0 || len(candidate) > len(remaining) {
		return nil, false
	}
	return remaining[:len(candidate)], true
}
