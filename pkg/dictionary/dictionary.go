// Package dictionary holds the ranked word -> pronunciation vocabulary used
// by the confabulation search.
//
// A [Dictionary] preserves load order, keeps only the first entry seen for a
// given word, and maintains a reverse index from canonical (stress-free)
// pronunciation to every word sharing it, so homophones are never lost.
package dictionary

import (
	"context"
	"strings"

	"github.com/MrWong99/confab/pkg/phoneme"
)

// Entry pairs a word with its pronunciation. Word may carry a variant tag
// such as "READ(2)" when variants were kept by the loader.
type Entry struct {
	Word      string
	Phonetics phoneme.Sequence
}

// Loader supplies dictionary entries from some backing source.
type Loader interface {
	// Load returns every entry in source order.
	Load(ctx context.Context) ([]Entry, error)
}

// Dictionary is an ordered, indexed collection of entries. It is read-only
// after construction and safe for concurrent use.
type Dictionary struct {
	entries []Entry
	byWord  map[string]int
	byKey   map[string][]int
}

// New builds a Dictionary from entries. Words are matched case-insensitively;
// when a word appears more than once only its first entry is kept. Entries
// with an empty word or empty pronunciation are skipped.
func New(entries []Entry) *Dictionary {
	d := &Dictionary{
		entries: make([]Entry, 0, len(entries)),
		byWord:  make(map[string]int, len(entries)),
		byKey:   make(map[string][]int, len(entries)),
	}
	for _, e := range entries {
		word := canonicalWord(e.Word)
		if word == "" || len(e.Phonetics) == 0 {
			continue
		}
		if _, dup := d.byWord[word]; dup {
			continue
		}
		idx := len(d.entries)
		d.entries = append(d.entries, Entry{Word: word, Phonetics: e.Phonetics})
		d.byWord[word] = idx
		key := phoneme.Normalize(e.Phonetics).Key()
		d.byKey[key] = append(d.byKey[key], idx)
	}
	return d
}

// Load builds a Dictionary from everything l returns.
func Load(ctx context.Context, l Loader) (*Dictionary, error) {
	entries, err := l.Load(ctx)
	if err != nil {
		return nil, err
	}
	return New(entries), nil
}

// Len returns the number of entries.
func (d *Dictionary) Len() int { return len(d.entries) }

// Entries returns the entries in load order. The returned slice must not be
// modified.
func (d *Dictionary) Entries() []Entry { return d.entries }

// Lookup returns the entry for word, ignoring case.
func (d *Dictionary) Lookup(word string) (Entry, bool) {
	idx, ok := d.byWord[canonicalWord(word)]
	if !ok {
		return Entry{}, false
	}
	return d.entries[idx], true
}

// Homophones returns every entry whose stress-free pronunciation equals the
// stress-free form of seq, in load order.
func (d *Dictionary) Homophones(seq phoneme.Sequence) []Entry {
	idxs := d.byKey[phoneme.Normalize(seq).Key()]
	if len(idxs) == 0 {
		return nil
	}
	out := make([]Entry, len(idxs))
	for i, idx := range idxs {
		out[i] = d.entries[idx]
	}
	return out
}

// Partner links a word to another dictionary word whose pronunciation is
// identical except that every occurrence of one unit is replaced by another.
type Partner struct {
	Word      string
	Partner   string
	Phonetics phoneme.Sequence
	Swapped   phoneme.Sequence
}

// Partners finds every word containing from whose pronunciation, with each
// from replaced by to, is also a dictionary word (for example TH -> DH turns
// up pairs like "thigh" / "thy"). Comparison ignores stress.
func (d *Dictionary) Partners(from, to phoneme.Unit) []Partner {
	from, to = from.Base(), to.Base()
	var out []Partner
	for _, e := range d.entries {
		base := phoneme.Normalize(e.Phonetics)
		if !base.Contains(from) {
			continue
		}
		swapped := base.Replace(from, to)
		for _, idx := range d.byKey[swapped.Key()] {
			partner := d.entries[idx]
			if partner.Word == e.Word {
				continue
			}
			out = append(out, Partner{
				Word:      e.Word,
				Partner:   partner.Word,
				Phonetics: base,
				Swapped:   swapped,
			})
			break
		}
	}
	return out
}

func canonicalWord(w string) string {
	return strings.ToUpper(strings.TrimSpace(w))
}
