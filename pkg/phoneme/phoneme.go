// Package phoneme defines the phonetic unit and sequence types shared by every
// stage of the confabulation pipeline.
//
// A [Unit] is an opaque pronunciation label such as "AE1" or "K". Labels may
// carry a trailing numeric stress marker; [Normalize] strips it so that units
// compare by base symbol only. A [Sequence] is an ordered list of units and is
// never mutated in place by this module: every operation returns a new slice
// or works on sub-slices.
package phoneme

import (
	"slices"
	"strings"
	"unicode"
)

// Unit is a single phonetic unit label, optionally carrying a stress marker.
type Unit string

// Base returns u with any trailing stress/nuance digits removed.
func (u Unit) Base() Unit {
	return Unit(strings.TrimRightFunc(string(u), unicode.IsDigit))
}

// Sequence is an ordered pronunciation. Order is significant.
type Sequence []Unit

// Parse splits a whitespace-separated label string (e.g. "K AE1 T") into a
// Sequence. Labels are upper-cased; stress markers are kept.
func Parse(s string) Sequence {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil
	}
	seq := make(Sequence, len(fields))
	for i, f := range fields {
		seq[i] = Unit(strings.ToUpper(f))
	}
	return seq
}

// Normalize returns a copy of seq with every unit reduced to its base symbol.
// It is pure and total; Normalize(Normalize(x)) equals Normalize(x).
func Normalize(seq Sequence) Sequence {
	if seq == nil {
		return nil
	}
	out := make(Sequence, len(seq))
	for i, u := range seq {
		out[i] = u.Base()
	}
	return out
}

// Concat appends the given sequences into a freshly allocated Sequence.
func Concat(seqs ...Sequence) Sequence {
	n := 0
	for _, s := range seqs {
		n += len(s)
	}
	out := make(Sequence, 0, n)
	for _, s := range seqs {
		out = append(out, s...)
	}
	return out
}

// Equal reports whether s and other hold the same units in the same order.
func (s Sequence) Equal(other Sequence) bool {
	return slices.Equal(s, other)
}

// HasPrefix reports whether prefix is element-wise equal to the leading
// len(prefix) units of s.
func (s Sequence) HasPrefix(prefix Sequence) bool {
	if len(prefix) > len(s) {
		return false
	}
	return s[:len(prefix)].Equal(prefix)
}

// Key returns a canonical string form of s suitable as a map key. Two
// sequences have the same key iff they are Equal.
func (s Sequence) Key() string {
	return s.String()
}

// Strings returns the labels of s as plain strings.
func (s Sequence) Strings() []string {
	out := make([]string, len(s))
	for i, u := range s {
		out[i] = string(u)
	}
	return out
}

// String joins the labels of s with single spaces.
func (s Sequence) String() string {
	return strings.Join(s.Strings(), " ")
}

// Contains reports whether u occurs anywhere in s.
func (s Sequence) Contains(u Unit) bool {
	return slices.Contains(s, u)
}

// Replace returns a copy of s with every occurrence of from replaced by to.
func (s Sequence) Replace(from, to Unit) Sequence {
	out := make(Sequence, len(s))
	for i, u := range s {
		if u == from {
			u = to
		}
		out[i] = u
	}
	return out
}
