package dictionary

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/MrWong99/confab/pkg/phoneme"
)

// ParseStats summarises a CMU dictionary parse.
type ParseStats struct {
	Lines     int
	Comments  int
	Entries   int
	Variants  int // alternate pronunciations seen, kept or not
	Malformed int
}

type parseOptions struct {
	keepVariants bool
}

// ParseOption configures [ParseCMU].
type ParseOption func(*parseOptions)

// WithVariants keeps alternate pronunciations such as "READ(2)" as distinct
// entries, tagged with their variant suffix. By default only the primary
// pronunciation of each word is retained.
func WithVariants(keep bool) ParseOption {
	return func(o *parseOptions) {
		o.keepVariants = keep
	}
}

// ParseCMU reads the CMU Pronouncing Dictionary text format:
//
//	;;; comment
//	CAT  K AE1 T
//	READ  R IY1 D
//	READ(1)  R EH1 D
//
// Word and pronunciation are separated by two or more spaces (some releases
// use three). Lines without a pronunciation are counted as malformed and
// skipped.
func ParseCMU(r io.Reader, opts ...ParseOption) ([]Entry, ParseStats, error) {
	var o parseOptions
	for _, opt := range opts {
		opt(&o)
	}

	var (
		entries []Entry
		stats   ParseStats
	)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		stats.Lines++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if strings.HasPrefix(line, ";;;") {
			stats.Comments++
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			stats.Malformed++
			continue
		}
		word := fields[0]
		if _, _, isVariant := SplitVariant(word); isVariant {
			stats.Variants++
			if !o.keepVariants {
				continue
			}
		}
		entries = append(entries, Entry{
			Word:      word,
			Phonetics: phoneme.Parse(strings.Join(fields[1:], " ")),
		})
		stats.Entries++
	}
	if err := scanner.Err(); err != nil {
		return nil, stats, fmt.Errorf("dictionary: scan cmu: %w", err)
	}
	return entries, stats, nil
}

// SplitVariant splits a tagged word like "READ(2)" into its base word and
// variant number. ok is false when word carries no variant tag.
func SplitVariant(word string) (base string, n int, ok bool) {
	open := strings.LastIndexByte(word, '(')
	if open <= 0 || !strings.HasSuffix(word, ")") {
		return word, 0, false
	}
	n, err := strconv.Atoi(word[open+1 : len(word)-1])
	if err != nil || n < 0 {
		return word, 0, false
	}
	return word[:open], n, true
}

// FileLoader is a [Loader] reading a CMU-format file from disk.
type FileLoader struct {
	Path    string
	Options []ParseOption
}

var _ Loader = (*FileLoader)(nil)

// Load implements [Loader].
func (l *FileLoader) Load(_ context.Context) ([]Entry, error) {
	f, err := os.Open(l.Path)
	if err != nil {
		return nil, fmt.Errorf("dictionary: open %q: %w", l.Path, err)
	}
	defer f.Close()

	entries, _, err := ParseCMU(f, l.Options...)
	if err != nil {
		return nil, fmt.Errorf("dictionary: parse %q: %w", l.Path, err)
	}
	return entries, nil
}

// StaticLoader is a [Loader] over an in-memory entry list.
type StaticLoader []Entry

// Load implements [Loader].
func (s StaticLoader) Load(_ context.Context) ([]Entry, error) {
	return []Entry(s), nil
}
