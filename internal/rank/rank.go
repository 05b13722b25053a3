// Package rank orders dictionary entries into the candidate list the
// decomposition search walks. The order is the whole policy: the search takes
// the first solution it finds, so whatever comes first here wins.
package rank

import (
	"cmp"
	"slices"
	"strings"

	"github.com/MrWong99/confab/pkg/dictionary"
	"github.com/MrWong99/confab/pkg/phoneme"
)

// Candidate is a word the search may place next, with its stress-free
// pronunciation.
type Candidate struct {
	Word      string
	Phonetics phoneme.Sequence
}

// CandidateList is the search's iteration order. It is read-only once built.
type CandidateList []Candidate

// Options tune [Build].
type Options struct {
	// ForceNovelty moves entries that merely restate an input word behind
	// everything else.
	ForceNovelty bool
}

// Option configures [Build].
type Option func(*Options)

// WithForceNovelty toggles the novelty partition. Default: true.
func WithForceNovelty(on bool) Option {
	return func(o *Options) { o.ForceNovelty = on }
}

// Base is a dictionary already stripped of stress and ordered longest
// pronunciation first. Sorting a full dictionary dominates [Build], so a
// long-lived caller presorts once with [NewBase] and builds per phrase.
type Base struct {
	sorted CandidateList
}

// NewBase normalizes and sorts entries. Entries with an empty pronunciation
// are dropped: they would consume nothing and could never advance the search.
func NewBase(entries []dictionary.Entry) *Base {
	sorted := make(CandidateList, 0, len(entries))
	for _, e := range entries {
		if len(e.Phonetics) == 0 {
			continue
		}
		sorted = append(sorted, Candidate{Word: e.Word, Phonetics: phoneme.Normalize(e.Phonetics)})
	}
	slices.SortStableFunc(sorted, func(a, b Candidate) int {
		return cmp.Compare(len(b.Phonetics), len(a.Phonetics))
	})
	return &Base{sorted: sorted}
}

// Len returns the number of presorted entries.
func (b *Base) Len() int { return len(b.sorted) }

// Build returns the candidate list for a phrase:
//
//  1. every entry's pronunciation is stripped of stress;
//  2. entries are ordered longest pronunciation first, keeping dictionary
//     order among equal lengths;
//  3. with novelty forced, entries whose word contains any original word as
//     a substring (ignoring case) move to the back, keeping their order;
//  4. the original words with their own pronunciations are appended last,
//     so the phrase itself is always a reachable solution.
func Build(entries []dictionary.Entry, originals []dictionary.Entry, opts ...Option) CandidateList {
	return NewBase(entries).Build(originals, opts...)
}

// Build applies steps 3 and 4 of the package-level [Build] to the presorted
// entries.
func (b *Base) Build(originals []dictionary.Entry, opts ...Option) CandidateList {
	o := Options{ForceNovelty: true}
	for _, fn := range opts {
		fn(&o)
	}

	out := make(CandidateList, 0, len(b.sorted)+len(originals))
	if o.ForceNovelty {
		needles := originalWords(originals)
		var stale CandidateList
		for _, c := range b.sorted {
			if containsAny(c.Word, needles) {
				stale = append(stale, c)
				continue
			}
			out = append(out, c)
		}
		out = append(out, stale...)
	} else {
		out = append(out, b.sorted...)
	}

	for _, e := range originals {
		if len(e.Phonetics) == 0 {
			continue
		}
		out = append(out, Candidate{Word: e.Word, Phonetics: phoneme.Normalize(e.Phonetics)})
	}
	return out
}

// Words returns the candidate words in order.
func (l CandidateList) Words() []string {
	out := make([]string, len(l))
	for i, c := range l {
		out[i] = c.Word
	}
	return out
}

func originalWords(originals []dictionary.Entry) []string {
	out := make([]string, 0, len(originals))
	for _, e := range originals {
		if w := strings.ToUpper(strings.TrimSpace(e.Word)); w != "" {
			out = append(out, w)
		}
	}
	return out
}

func containsAny(word string, needles []string) bool {
	upper := strings.ToUpper(word)
	for _, n := range needles {
		if strings.Contains(upper, n) {
			return true
		}
	}
	return false
}
