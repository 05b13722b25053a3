package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MrWong99/confab/internal/confab"
	"github.com/MrWong99/confab/internal/observe"
)

type sayOptions struct {
	strategy   string
	creativity float64
	errors     float64
	maxEdits   int
	noNovelty  bool
	stdin      bool
	jsonOut    bool
	verbose    bool
}

func newSayCmd(root *rootOptions) *cobra.Command {
	opts := &sayOptions{}
	cmd := &cobra.Command{
		Use:   "say [phrase...]",
		Short: "Confabulate a phrase",
		Long: `Confabulate a phrase into other words that sound the same.

Examples:
  confab say ice cream
  confab say --strategy fuzzy --creativity 0.4 "the sky is blue"
  confab say --strategy smart --errors 2 thigh
  cat phrases.txt | confab say --stdin --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSay(cmd, root, opts, args)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.strategy, "strategy", "s", "", "match strategy: strict, fuzzy, smart, edit")
	f.Float64Var(&opts.creativity, "creativity", 0, "fuzzy looseness in [0, 1]")
	f.Float64Var(&opts.errors, "errors", 0, "smart slip budget")
	f.IntVar(&opts.maxEdits, "max-edits", 0, "edit strategy budget")
	f.BoolVar(&opts.noNovelty, "no-novelty", false, "allow words that contain an input word early")
	f.BoolVar(&opts.stdin, "stdin", false, "read one phrase per line from stdin")
	f.BoolVar(&opts.jsonOut, "json", false, "print results as JSON lines")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "print phonetics and search statistics")
	return cmd
}

func runSay(cmd *cobra.Command, root *rootOptions, opts *sayOptions, args []string) error {
	phrases, err := sayPhrases(cmd.InOrStdin(), opts.stdin, args)
	if err != nil {
		return err
	}

	search := root.cfg.Search
	f := cmd.Flags()
	if f.Changed("strategy") {
		search.Strategy = opts.strategy
	}
	if f.Changed("creativity") {
		search.Creativity = opts.creativity
	}
	if f.Changed("errors") {
		search.Errors = opts.errors
	}
	if f.Changed("max-edits") {
		search.MaxEdits = opts.maxEdits
	}
	if opts.noNovelty {
		off := false
		search.ForceNovelty = &off
	}

	rt, err := buildRuntime(cmd.Context(), root.cfg, observe.DefaultMetrics())
	if err != nil {
		return err
	}
	defer rt.Close()
	c, err := rt.confabulator(search, root.cfg.Batch)
	if err != nil {
		return err
	}

	results, err := c.ConfabulateBatch(cmd.Context(), phrases)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	var failed int
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
		if err := printResult(out, r, opts); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d phrases failed", failed, len(results))
	}
	return nil
}

func sayPhrases(in io.Reader, stdin bool, args []string) ([]string, error) {
	if !stdin {
		if len(args) == 0 {
			return nil, fmt.Errorf("say: a phrase is required")
		}
		return []string{strings.Join(args, " ")}, nil
	}
	var phrases []string
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			phrases = append(phrases, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("say: read stdin: %w", err)
	}
	return phrases, nil
}

type sayJSON struct {
	Input      string   `json:"input"`
	Output     string   `json:"output,omitempty"`
	Words      []string `json:"words,omitempty"`
	Phonetics  string   `json:"phonetics,omitempty"`
	Similarity float64  `json:"similarity"`
	Visited    int      `json:"visited"`
	Backtracks int      `json:"backtracks"`
	Error      string   `json:"error,omitempty"`
}

func printResult(w io.Writer, r confab.BatchResult, opts *sayOptions) error {
	if opts.jsonOut {
		v := sayJSON{
			Input:      r.Input,
			Output:     r.Output,
			Words:      r.Words,
			Similarity: r.SpellingSimilarity,
			Visited:    r.Stats.Visited,
			Backtracks: r.Stats.Backtracks,
		}
		if len(r.Phonetics) > 0 {
			v.Phonetics = r.Phonetics.String()
		}
		if r.Err != nil {
			v.Error = r.Err.Error()
		}
		return json.NewEncoder(w).Encode(v)
	}

	if r.Err != nil {
		_, err := fmt.Fprintf(w, "%s: error: %v\n", r.Input, r.Err)
		return err
	}
	if _, err := fmt.Fprintln(w, r.Output); err != nil {
		return err
	}
	if opts.verbose {
		_, err := fmt.Fprintf(w, "  phonetics=%s similarity=%.3f visited=%d backtracks=%d\n",
			r.Phonetics, r.SpellingSimilarity, r.Stats.Visited, r.Stats.Backtracks)
		return err
	}
	return nil
}
