package rank_test

import (
	"slices"
	"testing"

	"github.com/MrWong99/confab/internal/rank"
	"github.com/MrWong99/confab/pkg/dictionary"
	"github.com/MrWong99/confab/pkg/phoneme"
)

func entry(word, phones string) dictionary.Entry {
	return dictionary.Entry{Word: word, Phonetics: phoneme.Parse(phones)}
}

var iceCream = []dictionary.Entry{
	entry("ICE", "AY1 S"),
	entry("CREAM", "K R IY1 M"),
	entry("I", "AY1"),
	entry("SCREAM", "S K R IY1 M"),
}

func TestBuild_LengthDescendingStable(t *testing.T) {
	t.Parallel()
	got := rank.Build(iceCream, nil).Words()
	want := []string{"SCREAM", "CREAM", "ICE", "I"}
	if !slices.Equal(got, want) {
		t.Fatalf("Build order = %v, want %v", got, want)
	}

	tied := []dictionary.Entry{entry("B", "B IY1"), entry("A", "EY1 Z"), entry("C", "S IY1")}
	got = rank.Build(tied, nil).Words()
	want = []string{"B", "A", "C"}
	if !slices.Equal(got, want) {
		t.Fatalf("equal-length order = %v, want dictionary order %v", got, want)
	}
}

func TestBuild_StripsStress(t *testing.T) {
	t.Parallel()
	list := rank.Build(iceCream[:1], nil)
	if list[0].Phonetics.String() != "AY S" {
		t.Fatalf("phonetics = %q, want stress-free", list[0].Phonetics.String())
	}
	if iceCream[0].Phonetics.String() != "AY1 S" {
		t.Fatal("Build mutated its input")
	}
}

func TestBuild_NoveltyPartition(t *testing.T) {
	t.Parallel()
	originals := []dictionary.Entry{entry("ice", "AY1 S"), entry("cream", "K R IY1 M")}

	list := rank.Build(iceCream, originals)
	want := []string{"I", "SCREAM", "CREAM", "ICE", "ice", "cream"}
	if got := list.Words(); !slices.Equal(got, want) {
		t.Fatalf("Build = %v, want %v", got, want)
	}

	// SCREAM restates CREAM as far as the substring rule is concerned.
	originals = []dictionary.Entry{entry("cream", "K R IY1 M")}
	list = rank.Build(iceCream, originals)
	want = []string{"ICE", "I", "SCREAM", "CREAM", "cream"}
	if got := list.Words(); !slices.Equal(got, want) {
		t.Fatalf("Build = %v, want %v", got, want)
	}
}

// A one-letter input word pushes back every entry that merely contains the
// letter.
func TestBuild_SubstringNoveltyIsLiteral(t *testing.T) {
	t.Parallel()
	dict := []dictionary.Entry{entry("CAT", "K AE1 T"), entry("DOG", "D AO1 G"), entry("A", "AH0")}
	list := rank.Build(dict, []dictionary.Entry{entry("a", "AH0")})
	want := []string{"DOG", "CAT", "A", "a"}
	if got := list.Words(); !slices.Equal(got, want) {
		t.Fatalf("Build = %v, want %v", got, want)
	}
}

func TestBuild_NoveltyDisabled(t *testing.T) {
	t.Parallel()
	originals := []dictionary.Entry{entry("ice", "AY1 S")}
	list := rank.Build(iceCream, originals, rank.WithForceNovelty(false))
	want := []string{"SCREAM", "CREAM", "ICE", "I", "ice"}
	if got := list.Words(); !slices.Equal(got, want) {
		t.Fatalf("Build = %v, want %v", got, want)
	}
}

func TestBuild_DropsEmptyPronunciations(t *testing.T) {
	t.Parallel()
	dict := []dictionary.Entry{{Word: "SILENT"}, entry("CAT", "K AE1 T")}
	list := rank.Build(dict, []dictionary.Entry{{Word: "hmm"}})
	if got := list.Words(); !slices.Equal(got, []string{"CAT"}) {
		t.Fatalf("Build = %v, want [CAT]", got)
	}
}

func TestBuild_OriginalsAlwaysLast(t *testing.T) {
	t.Parallel()
	originals := []dictionary.Entry{entry("x", "EH1 K S"), entry("y", "W AY1")}
	list := rank.Build(iceCream, originals)
	n := len(list)
	if n < 2 || list[n-2].Word != "x" || list[n-1].Word != "y" {
		t.Fatalf("tail = %v, want originals in phrase order", list.Words())
	}
}

func TestBase_ReusableAcrossPhrases(t *testing.T) {
	t.Parallel()
	base := rank.NewBase(iceCream)
	if base.Len() != len(iceCream) {
		t.Fatalf("Len = %d, want %d", base.Len(), len(iceCream))
	}

	first := base.Build([]dictionary.Entry{entry("ice", "AY1 S"), entry("cream", "K R IY1 M")})
	second := base.Build([]dictionary.Entry{entry("i", "AY1")})

	if got, want := first.Words(), rank.Build(iceCream, []dictionary.Entry{entry("ice", "AY1 S"), entry("cream", "K R IY1 M")}).Words(); !slices.Equal(got, want) {
		t.Errorf("Base.Build = %v, want %v", got, want)
	}
	want := []string{"SCREAM", "CREAM", "ICE", "I", "i"}
	if got := second.Words(); !slices.Equal(got, want) {
		t.Errorf("second Base.Build = %v, want %v", got, want)
	}
}
