package definition

import (
	"reflect"
	"regexp"
	"testing"
)

const mixedFamilies = `CHAPTER 1: Computing Basics

An algorithm is a step-by-step procedure for solving a problem or completing a task. It is used everywhere.
Compiler: A program that translates source code into machine code before execution.
- Variable: a named storage location that holds a value during program execution.
Recursion refers to a technique where a function calls itself to solve smaller instances.
The term "bandwidth" describes the maximum rate of data transfer across a network path.
Cache - a small fast memory that stores copies of frequently used data.`

func TestExtract_AllFamilies(t *testing.T) {
	got := New().Extract(mixedFamilies)

	want := []struct {
		term     string
		family   string
		priority int
	}{
		{"algorithm", "is-are", 10},
		{"Compiler", "colon", 9},
		{"Variable", "bullet", 8},
		{"Recursion", "refers-to", 7},
		{"bandwidth", "the-term", 6},
		{"Cache", "dash", 5},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d candidates, want %d: %+v", len(got), len(want), got)
	}
	for i, w := range want {
		if got[i].Term != w.term || got[i].Family != w.family || got[i].Priority != w.priority {
			t.Errorf("candidate %d = {%q %s %d}, want {%q %s %d}",
				i, got[i].Term, got[i].Family, got[i].Priority, w.term, w.family, w.priority)
		}
	}
	if got[0].Definition != "a step-by-step procedure for solving a problem or completing a task" {
		t.Errorf("algorithm definition = %q", got[0].Definition)
	}
	if got[4].Definition != "the maximum rate of data transfer across a network path" {
		t.Errorf("bandwidth definition = %q", got[4].Definition)
	}
}

func TestExtract_TwoSentences(t *testing.T) {
	text := "Photosynthesis is the process by which plants convert light into energy. Respiration is the process of releasing energy from food."
	got := New().Extract(text)
	if len(got) != 2 {
		t.Fatalf("got %d candidates, want 2: %+v", len(got), got)
	}
	if got[0].Term != "Photosynthesis" || got[1].Term != "Respiration" {
		t.Errorf("terms = %q, %q", got[0].Term, got[1].Term)
	}
	if got[0].Position != 0 || got[1].Position != 73 {
		t.Errorf("positions = %d, %d", got[0].Position, got[1].Position)
	}
	if got[1].Definition != "the process of releasing energy from food" {
		t.Errorf("definition = %q", got[1].Definition)
	}
}

func TestExtract_DedupKeepsHighestPriority(t *testing.T) {
	text := "Osmosis is the movement of water across a semipermeable membrane.\nOsmosis: the diffusion of water molecules through a membrane."
	got := New().Extract(text)
	if len(got) != 1 {
		t.Fatalf("got %d candidates, want 1: %+v", len(got), got)
	}
	if got[0].Family != "is-are" {
		t.Errorf("kept family %q, want is-are", got[0].Family)
	}
	if got[0].Definition != "the movement of water across a semipermeable membrane" {
		t.Errorf("definition = %q", got[0].Definition)
	}
}

func TestExtract_PronounRejected(t *testing.T) {
	if got := New().Extract("It is a pronoun."); len(got) != 0 {
		t.Errorf("expected no candidates, got %+v", got)
	}
	if got := New().Extract("This is the thing that everybody talks about daily."); len(got) != 0 {
		t.Errorf("expected no candidates, got %+v", got)
	}
}

func TestExtract_Empty(t *testing.T) {
	if got := New().Extract("   \n "); got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

func TestExtract_Deterministic(t *testing.T) {
	e := New()
	first := e.Extract(mixedFamilies)
	for i := 0; i < 5; i++ {
		if got := e.Extract(mixedFamilies); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d differs:\n got %+v\nwant %+v", i, got, first)
		}
	}
}

func TestNew_CustomFamilies(t *testing.T) {
	e := New(Family{
		Name:     "defn",
		Priority: 1,
		Scope:    ScopeLine,
		Pattern:  regexp.MustCompile(`(?m)^DEF ([A-Za-z]+) = ([^\n]+)$`),
	})
	got := e.Extract("DEF Entropy = a measure of disorder within a closed system\nEntropy is ignored by this extractor entirely.")
	if len(got) != 1 || got[0].Term != "Entropy" || got[0].Family != "defn" {
		t.Fatalf("got %+v", got)
	}
}

func TestKey(t *testing.T) {
	tests := map[string]string{
		"Cell Membrane":  "cellmembrane",
		"cell-membrane!": "cellmembrane",
		"  DNA  ":        "dna",
		"...":            "",
		"Vitamin B12":    "vitaminb12",
	}
	for in, want := range tests {
		if got := Key(in); got != want {
			t.Errorf("Key(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSplitSentences(t *testing.T) {
	got := splitSentences("First one. Second has 3.5 units!\nThird line")
	want := []sentence{
		{0, "First one"},
		{11, "Second has 3.5 units"},
		{33, "Third line"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %+v, want %+v", got, want)
	}
}
