package match_test

import (
	"errors"
	"math"
	"testing"

	"github.com/MrWong99/confab/internal/match"
	"github.com/MrWong99/confab/pkg/features"
	"github.com/MrWong99/confab/pkg/phoneme"
)

func seq(s string) phoneme.Sequence { return phoneme.Normalize(phoneme.Parse(s)) }

func mustNew(t *testing.T, name string, p match.Params) match.Strategy {
	t.Helper()
	s, err := match.New(name, p)
	if err != nil {
		t.Fatalf("New(%q): %v", name, err)
	}
	return s
}

func TestNew(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		params  match.Params
		want    string
		wantErr bool
	}{
		{name: "", want: match.NameStrict},
		{name: "STRICT", want: match.NameStrict},
		{name: "fuzzy", params: match.Params{Creativity: 0.3}, want: match.NameFuzzy},
		{name: "smart", params: match.Params{Errors: 1}, want: match.NameSmart},
		{name: " edit ", params: match.Params{MaxEdits: 2}, want: match.NameEdit},
		{name: "fuzzy", params: match.Params{Creativity: 1.5}, wantErr: true},
		{name: "smart", params: match.Params{Errors: -1}, wantErr: true},
		{name: "edit", params: match.Params{MaxEdits: -1}, wantErr: true},
		{name: "telepathic", wantErr: true},
	}
	for _, tt := range tests {
		s, err := match.New(tt.name, tt.params)
		if tt.wantErr {
			if err == nil {
				t.Errorf("New(%q, %+v) = %v, want error", tt.name, tt.params, s.Name())
			}
			continue
		}
		if err != nil {
			t.Errorf("New(%q): %v", tt.name, err)
			continue
		}
		if s.Name() != tt.want {
			t.Errorf("New(%q).Name() = %q, want %q", tt.name, s.Name(), tt.want)
		}
	}

	if _, err := match.New("telepathic", match.Params{}); !errors.Is(err, match.ErrUnknownStrategy) {
		t.Errorf("err = %v, want ErrUnknownStrategy", err)
	}
}

func TestStrict(t *testing.T) {
	t.Parallel()
	s := match.Strict{}
	tests := []struct {
		candidate, remaining string
		want                 bool
	}{
		{"AY", "AY S K R IY M", true},
		{"S K R IY M", "S K R IY M", true},
		{"AY S", "AY Z K R IY M", false},
		{"K R IY M", "AY S K R IY M", false},
		{"AY S K R IY M Z", "AY S K R IY M", false},
		{"", "AY", false},
	}
	for _, tt := range tests {
		got, err := s.Match(seq(tt.candidate), seq(tt.remaining))
		if err != nil {
			t.Fatalf("Match(%q, %q): %v", tt.candidate, tt.remaining, err)
		}
		if got != tt.want {
			t.Errorf("Match(%q, %q) = %v, want %v", tt.candidate, tt.remaining, got, tt.want)
		}
	}
}

func TestFuzzy_Threshold(t *testing.T) {
	t.Parallel()
	cat, cad := seq("K AE T"), seq("K AE D")

	if r := match.Ratio(cat, cad); math.Abs(r-2.0/3.0) > 1e-9 {
		t.Fatalf("Ratio(cat, cad) = %v, want 2/3", r)
	}

	tight, _ := match.NewFuzzy(0.3)
	if ok, _ := tight.Match(cat, cad); ok {
		t.Error("creativity 0.3 accepted a 2/3 ratio")
	}
	loose, _ := match.NewFuzzy(0.4)
	if ok, _ := loose.Match(cat, cad); !ok {
		t.Error("creativity 0.4 rejected a 2/3 ratio")
	}
}

func TestSmart_Slips(t *testing.T) {
	t.Parallel()
	s, err := match.NewSmart(nil, 1)
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		candidate, remaining string
		want                 bool
	}{
		{"TH AY", "DH AY", true},     // voicing only
		{"K AE D", "K AE T", true},   // one voicing swap
		{"G AE D", "K AE T", false},  // two voicing swaps
		{"K IY", "K AE T", true},     // prefix only: IY vs AE
		{"S IY", "S AA", false},      // front high vs back low
		{"M AE T", "AE AE T", false}, // consonant for vowel
	}
	for _, tt := range tests {
		got, err := s.Match(seq(tt.candidate), seq(tt.remaining))
		if err != nil {
			t.Fatalf("Match(%q, %q): %v", tt.candidate, tt.remaining, err)
		}
		if got != tt.want {
			slips, _, _ := s.Slips(seq(tt.candidate), seq(tt.remaining)[:len(seq(tt.candidate))])
			t.Errorf("Match(%q, %q) = %v (slips >= %v), want %v", tt.candidate, tt.remaining, got, slips, tt.want)
		}
	}
}

func TestSmart_Explain(t *testing.T) {
	t.Parallel()
	s, _ := match.NewSmart(nil, 1)

	why := s.Explain(seq("DH AY"), seq("TH AY"))
	if len(why) != 6 {
		t.Fatalf("Explain(DH AY, TH AY) = %v, want prefix, candidate and slips", why)
	}
	if why[0] != "prefix" || why[2] != "candidate" || why[4] != "slips" {
		t.Errorf("Explain keys = %v", why)
	}
	if slips, ok := why[5].(float64); !ok || slips <= 0 {
		t.Errorf("slips = %v, want a positive float64", why[5])
	}

	for _, tt := range []struct{ candidate, remaining string }{
		{"TH AY", "TH AY"},     // exact
		{"G AE D", "K AE T"},   // rejected
		{"K AE T S", "K AE T"}, // longer than remaining
	} {
		if why := s.Explain(seq(tt.candidate), seq(tt.remaining)); why != nil {
			t.Errorf("Explain(%q, %q) = %v, want nil", tt.candidate, tt.remaining, why)
		}
	}
}

func TestSmart_UnknownUnit(t *testing.T) {
	t.Parallel()
	s, _ := match.NewSmart(nil, 1)

	_, err := s.Match(seq("K QQ"), seq("K AE T"))
	if !errors.Is(err, features.ErrUnknownUnit) {
		t.Fatalf("err = %v, want ErrUnknownUnit", err)
	}
}

func TestSmart_ShortCircuits(t *testing.T) {
	t.Parallel()
	s, _ := match.NewSmart(nil, 0)

	// The first pair already exceeds a zero budget, so the unknown unit in
	// second position is never looked up.
	ok, err := s.Match(seq("D QQ"), seq("T AE"))
	if err != nil {
		t.Fatalf("err = %v, want short-circuit before unknown unit", err)
	}
	if ok {
		t.Fatal("expected rejection")
	}
}

func TestSmart_CustomTable(t *testing.T) {
	t.Parallel()
	table := features.New(map[phoneme.Unit][]string{
		"A": {"x", "y"},
		"B": {"x", "z"},
	})
	s, _ := match.NewSmart(table, 1)
	if ok, err := s.Match(seq("A"), seq("B")); err != nil || !ok {
		t.Fatalf("Match(A, B) = %v, %v; want true (one slip)", ok, err)
	}
}

func TestEdit(t *testing.T) {
	t.Parallel()
	if d := match.Distance(seq("K AE T"), seq("K AE D")); d != 1 {
		t.Fatalf("Distance(cat, cad) = %d, want 1", d)
	}
	if d := match.Distance(seq("S K R IY M"), seq("S K R IY M")); d != 0 {
		t.Fatalf("Distance(identical) = %d, want 0", d)
	}

	e, _ := match.NewEdit(1)
	if ok, _ := e.Match(seq("K AE T"), seq("K AE D Z")); !ok {
		t.Error("one substitution rejected with budget 1")
	}
	if ok, _ := e.Match(seq("G AE T"), seq("K AE D")); ok {
		t.Error("two substitutions accepted with budget 1")
	}
}

// Every strategy, however loose, refuses a candidate longer than what remains.
func TestAll_LengthPrefixPrecondition(t *testing.T) {
	t.Parallel()
	loosest := []match.Strategy{
		match.Strict{},
		mustNew(t, match.NameFuzzy, match.Params{Creativity: 1}),
		mustNew(t, match.NameSmart, match.Params{Errors: math.MaxFloat64}),
		mustNew(t, match.NameEdit, match.Params{MaxEdits: math.MaxInt32}),
	}
	candidate, remaining := seq("K AE T S"), seq("K AE T")
	for _, s := range loosest {
		ok, err := s.Match(candidate, remaining)
		if err != nil || ok {
			t.Errorf("%s.Match(longer candidate) = %v, %v; want false, nil", s.Name(), ok, err)
		}
	}
}

var corpus = []struct{ candidate, remaining string }{
	{"K AE T", "K AE T S"},
	{"K AE D", "K AE T"},
	{"G AE D", "K AE T"},
	{"TH AY", "DH AY"},
	{"S IY", "S AA"},
	{"S K R IY M", "S K R IY M"},
	{"AY S", "AY Z K R IY M"},
	{"M AE T", "AE AE T"},
	{"HH AH L OW", "Y EH L OW"},
	{"P L IY Z", "B L IY S"},
}

// Anything Strict accepts is accepted by the other strategies at zero
// leniency.
func TestAll_StrictSubset(t *testing.T) {
	t.Parallel()
	others := []match.Strategy{
		mustNew(t, match.NameFuzzy, match.Params{Creativity: 0}),
		mustNew(t, match.NameSmart, match.Params{Errors: 0}),
		mustNew(t, match.NameEdit, match.Params{MaxEdits: 0}),
	}
	for _, c := range corpus {
		strict, _ := match.Strict{}.Match(seq(c.candidate), seq(c.remaining))
		if !strict {
			continue
		}
		for _, s := range others {
			ok, err := s.Match(seq(c.candidate), seq(c.remaining))
			if err != nil || !ok {
				t.Errorf("%s rejected strict match %q/%q: %v", s.Name(), c.candidate, c.remaining, err)
			}
		}
	}
}

// Raising a leniency knob never turns an accepted match into a rejected one.
func TestAll_MonotonicLooseness(t *testing.T) {
	t.Parallel()
	ladders := map[string][]match.Strategy{
		match.NameFuzzy: {
			mustNew(t, match.NameFuzzy, match.Params{Creativity: 0}),
			mustNew(t, match.NameFuzzy, match.Params{Creativity: 0.2}),
			mustNew(t, match.NameFuzzy, match.Params{Creativity: 0.4}),
			mustNew(t, match.NameFuzzy, match.Params{Creativity: 0.7}),
			mustNew(t, match.NameFuzzy, match.Params{Creativity: 1}),
		},
		match.NameSmart: {
			mustNew(t, match.NameSmart, match.Params{Errors: 0}),
			mustNew(t, match.NameSmart, match.Params{Errors: 0.5}),
			mustNew(t, match.NameSmart, match.Params{Errors: 1}),
			mustNew(t, match.NameSmart, match.Params{Errors: 3}),
			mustNew(t, match.NameSmart, match.Params{Errors: 10}),
		},
		match.NameEdit: {
			mustNew(t, match.NameEdit, match.Params{MaxEdits: 0}),
			mustNew(t, match.NameEdit, match.Params{MaxEdits: 1}),
			mustNew(t, match.NameEdit, match.Params{MaxEdits: 2}),
			mustNew(t, match.NameEdit, match.Params{MaxEdits: 4}),
		},
	}
	for name, ladder := range ladders {
		for _, c := range corpus {
			accepted := false
			for i, s := range ladder {
				ok, err := s.Match(seq(c.candidate), seq(c.remaining))
				if err != nil {
					t.Fatalf("%s[%d].Match(%q, %q): %v", name, i, c.candidate, c.remaining, err)
				}
				if accepted && !ok {
					t.Errorf("%s: step %d rejected %q/%q accepted by a stricter step", name, i, c.candidate, c.remaining)
				}
				accepted = accepted || ok
			}
		}
	}
}
