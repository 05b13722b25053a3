// Package features maps phonetic units to articulatory descriptor sets and
// measures how far apart two units are.
//
// The distance between two units is the size of the symmetric difference of
// their descriptor sets: a voiced/voiceless swap such as T vs D differs by two
// descriptors, a place-of-articulation swap such as T vs K by two, and a
// consonant vs vowel comparison by many more.
//
// A [Table] is read-only after construction and safe for concurrent use.
package features

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/MrWong99/confab/pkg/phoneme"
)

// ErrUnknownUnit is returned when a unit label has no entry in a [Table].
var ErrUnknownUnit = errors.New("features: unknown phonetic unit")

//go:embed arpabet.yaml
var arpabetYAML []byte

// Set is an unordered set of descriptor tokens attached to one unit.
type Set map[string]struct{}

// NewSet builds a Set from the given tokens.
func NewSet(tokens ...string) Set {
	s := make(Set, len(tokens))
	for _, t := range tokens {
		s[t] = struct{}{}
	}
	return s
}

// Has reports whether token is in s.
func (s Set) Has(token string) bool {
	_, ok := s[token]
	return ok
}

// Sorted returns the tokens of s in lexical order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

// Distance returns the size of the symmetric difference of a and b.
func Distance(a, b Set) int {
	n := 0
	for t := range a {
		if _, ok := b[t]; !ok {
			n++
		}
	}
	for t := range b {
		if _, ok := a[t]; !ok {
			n++
		}
	}
	return n
}

// Diff returns the sorted symmetric difference of a and b.
func Diff(a, b Set) []string {
	var out []string
	for t := range a {
		if _, ok := b[t]; !ok {
			out = append(out, t)
		}
	}
	for t := range b {
		if _, ok := a[t]; !ok {
			out = append(out, t)
		}
	}
	slices.Sort(out)
	return out
}

// unitDef is the on-disk shape of a single unit.
type unitDef struct {
	IPA         string   `yaml:"ipa"`
	Descriptors []string `yaml:"descriptors"`
}

// tableFile is the top-level structure of a feature table YAML file.
//
// Example:
//
//	units:
//	  T: {ipa: "t", descriptors: [consonant, voiceless, alveolar, plosive]}
type tableFile struct {
	Units map[string]unitDef `yaml:"units"`
}

// Table resolves unit labels to descriptor sets. Lookups ignore stress
// markers and letter case.
type Table struct {
	sets map[phoneme.Unit]Set
	ipa  map[phoneme.Unit]string
}

// New builds a Table from label -> descriptors pairs. IPA renderings default
// to the label itself.
func New(descriptors map[phoneme.Unit][]string) *Table {
	t := &Table{
		sets: make(map[phoneme.Unit]Set, len(descriptors)),
		ipa:  make(map[phoneme.Unit]string, len(descriptors)),
	}
	for u, d := range descriptors {
		key := canonical(u)
		t.sets[key] = NewSet(d...)
		t.ipa[key] = string(key)
	}
	return t
}

var loadARPAbet = sync.OnceValues(func() (*Table, error) {
	return LoadYAML(bytes.NewReader(arpabetYAML))
})

// ARPAbet returns the built-in table covering the CMU dictionary's 39 units
// plus the common extended ARPAbet symbols. The table is parsed once and
// shared.
func ARPAbet() *Table {
	t, err := loadARPAbet()
	if err != nil {
		panic("features: built-in ARPAbet table is invalid: " + err.Error())
	}
	return t
}

// LoadFile reads a feature table YAML file from disk.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("features: open %q: %w", path, err)
	}
	defer f.Close()

	t, err := LoadYAML(f)
	if err != nil {
		return nil, fmt.Errorf("features: parse %q: %w", path, err)
	}
	return t, nil
}

// LoadYAML parses a feature table from r. Every unit must declare at least
// one descriptor.
func LoadYAML(r io.Reader) (*Table, error) {
	var tf tableFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&tf); err != nil {
		return nil, fmt.Errorf("features: decode yaml: %w", err)
	}
	if len(tf.Units) == 0 {
		return nil, errors.New("features: table declares no units")
	}

	t := &Table{
		sets: make(map[phoneme.Unit]Set, len(tf.Units)),
		ipa:  make(map[phoneme.Unit]string, len(tf.Units)),
	}
	var errs []error
	for label, def := range tf.Units {
		key := canonical(phoneme.Unit(label))
		if len(def.Descriptors) == 0 {
			errs = append(errs, fmt.Errorf("features: unit %q has no descriptors", label))
			continue
		}
		if _, dup := t.sets[key]; dup {
			errs = append(errs, fmt.Errorf("features: unit %q declared twice", label))
			continue
		}
		t.sets[key] = NewSet(def.Descriptors...)
		ipa := def.IPA
		if ipa == "" {
			ipa = string(key)
		}
		t.ipa[key] = ipa
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return t, nil
}

// Descriptors returns the descriptor set for u. It returns an error wrapping
// [ErrUnknownUnit] when u cannot be resolved; callers must not treat that as
// an empty set.
func (t *Table) Descriptors(u phoneme.Unit) (Set, error) {
	s, ok := t.sets[canonical(u)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownUnit, string(u))
	}
	return s, nil
}

// Has reports whether u resolves in t.
func (t *Table) Has(u phoneme.Unit) bool {
	_, ok := t.sets[canonical(u)]
	return ok
}

// Len returns the number of units in t.
func (t *Table) Len() int { return len(t.sets) }

// UnitDistance returns the descriptor distance between a and b.
func (t *Table) UnitDistance(a, b phoneme.Unit) (int, error) {
	sa, err := t.Descriptors(a)
	if err != nil {
		return 0, err
	}
	sb, err := t.Descriptors(b)
	if err != nil {
		return 0, err
	}
	return Distance(sa, sb), nil
}

// IPA renders seq as an IPA string.
func (t *Table) IPA(seq phoneme.Sequence) (string, error) {
	var b strings.Builder
	for _, u := range seq {
		s, ok := t.ipa[canonical(u)]
		if !ok {
			return "", fmt.Errorf("%w: %q", ErrUnknownUnit, string(u))
		}
		b.WriteString(s)
	}
	return b.String(), nil
}

func canonical(u phoneme.Unit) phoneme.Unit {
	return phoneme.Unit(strings.ToUpper(string(u.Base())))
}
