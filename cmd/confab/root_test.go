package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testDict = `;;; tiny test dictionary
ICE  AY1 S
CREAM  K R IY1 M
I  AY1
SCREAM  S K R IY1 M
CAT  K AE1 T
THIGH  TH AY1
THY  DH AY1
TEETH  T IY1 TH
TEETHE  T IY1 DH
`

func writeDict(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cmudict.txt")
	if err := os.WriteFile(path, []byte(testDict), 0o644); err != nil {
		t.Fatalf("write dictionary: %v", err)
	}
	return path
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	orig := slog.Default()
	t.Cleanup(func() { slog.SetDefault(orig) })

	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestSay(t *testing.T) {
	dict := writeDict(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"resegments", []string{"say", "--dict", dict, "ice", "cream"}, "i scream\n"},
		{"no novelty", []string{"say", "--dict", dict, "--no-novelty", "ice cream"}, "ice cream\n"},
		{"smart slip", []string{"say", "--dict", dict, "--strategy", "smart", "--errors", "1", "thigh"}, "thy\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, stderr, err := execute(t, "", tt.args...)
			if err != nil {
				t.Fatalf("say: %v (stderr: %s)", err, stderr)
			}
			if out != tt.want {
				t.Errorf("output = %q, want %q", out, tt.want)
			}
		})
	}
}

func TestSay_StdinJSON(t *testing.T) {
	dict := writeDict(t)
	out, _, err := execute(t, "ice cream\n\ncat\n", "say", "--dict", dict, "--stdin", "--json")
	if err != nil {
		t.Fatalf("say: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(lines), out)
	}
	var first sayJSON
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if first.Input != "ice cream" || first.Output != "i scream" {
		t.Errorf("first = %+v", first)
	}
	if first.Phonetics == "" || first.Visited == 0 {
		t.Errorf("missing phonetics or stats: %+v", first)
	}
}

func TestSay_Failures(t *testing.T) {
	dict := writeDict(t)

	out, _, err := execute(t, "", "say", "--dict", dict, "zebra")
	if err == nil || !strings.Contains(err.Error(), "1 of 1 phrases failed") {
		t.Errorf("err = %v, want failure count", err)
	}
	if !strings.Contains(out, "zebra: error:") {
		t.Errorf("output = %q, want per-phrase error", out)
	}

	if _, _, err := execute(t, "", "say", "--dict", dict); err == nil {
		t.Error("expected error for missing phrase")
	}
	if _, _, err := execute(t, "", "say", "--dict", dict, "--strategy", "psychic", "cat"); err == nil {
		t.Error("expected error for unknown strategy")
	}
}

func TestOddities(t *testing.T) {
	dict := writeDict(t)
	out, stderr, err := execute(t, "", "oddities", "--dict", dict)
	if err != nil {
		t.Fatalf("oddities: %v", err)
	}
	if !strings.HasPrefix(out, "thigh\tthy\t") {
		t.Errorf("output = %q, want thigh/thy first", out)
	}
	if !strings.Contains(out, "teeth\tteethe\t") {
		t.Errorf("output = %q, want teeth/teethe", out)
	}
	if !strings.Contains(stderr, "2 pairs") {
		t.Errorf("stderr = %q, want pair count", stderr)
	}

	out, _, err = execute(t, "", "oddities", "--dict", dict, "--limit", "1")
	if err != nil {
		t.Fatalf("oddities: %v", err)
	}
	if n := strings.Count(out, "\n"); n != 1 {
		t.Errorf("limit 1 printed %d lines", n)
	}
}

func TestRoot_ConfigFile(t *testing.T) {
	dict := writeDict(t)
	cfgPath := filepath.Join(t.TempDir(), "confab.yaml")
	yaml := "dictionary:\n  path: " + dict + "\nsearch:\n  strategy: smart\n  errors: 1\n"
	if err := os.WriteFile(cfgPath, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	out, _, err := execute(t, "", "say", "--config", cfgPath, "thigh")
	if err != nil {
		t.Fatalf("say: %v", err)
	}
	if out != "thy\n" {
		t.Errorf("output = %q, want %q", out, "thy\n")
	}

	missing := filepath.Join(t.TempDir(), "absent.yaml")
	if _, _, err := execute(t, "", "say", "--config", missing, "cat"); err == nil {
		t.Error("expected error for explicit missing config")
	}
	if _, _, err := execute(t, "", "say", "--dict", dict, "--log-level", "loud", "cat"); err == nil {
		t.Error("expected error for invalid log level")
	}
}

func TestImportDict_RequiresDSN(t *testing.T) {
	dict := writeDict(t)
	_, _, err := execute(t, "", "import-dict", "--dict", dict)
	if err == nil || !strings.Contains(err.Error(), "postgres_dsn is required") {
		t.Errorf("err = %v, want missing DSN error", err)
	}
}
