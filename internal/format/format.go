// Package format turns raw phrases into the word lists the confabulator works
// on, and word lists back into display text.
package format

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// variantTag matches the "(n)" suffix the pronouncing dictionary uses to tell
// alternate pronunciations of one spelling apart.
var variantTag = regexp.MustCompile(`\(\d+\)`)

// Format strips variant tags from words, lower-cases them and joins them with
// single spaces.
func Format(words []string) string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if w = StripVariant(w); w != "" {
			out = append(out, strings.ToLower(w))
		}
	}
	return strings.Join(out, " ")
}

// StripVariant removes every "(n)" tag from word: "READ(1)" becomes "READ".
func StripVariant(word string) string {
	return variantTag.ReplaceAllString(word, "")
}

// NormalizePhrase composes s to NFC and folds typographic quotes to their
// ASCII forms so that "don’t" finds the dictionary's DON'T.
func NormalizePhrase(s string) string {
	t := transform.Chain(norm.NFC, runes.Map(asciiQuote))
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// SplitPhrase normalizes s and returns its upper-cased words. Punctuation
// around a word is dropped; apostrophes are kept because the dictionary
// spells contractions and elisions with them.
func SplitPhrase(s string) []string {
	fields := strings.Fields(NormalizePhrase(s))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimFunc(f, isStrippable)
		if f == "" {
			continue
		}
		out = append(out, strings.ToUpper(f))
	}
	return out
}

func asciiQuote(r rune) rune {
	switch r {
	case '‘', '’', '‛', '′':
		return '\''
	case '“', '”', '‟', '″':
		return '"'
	default:
		return r
	}
}

func isStrippable(r rune) bool {
	if r == '\'' {
		return false
	}
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}
