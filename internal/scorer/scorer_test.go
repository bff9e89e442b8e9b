package scorer

import (
	"strings"
	"testing"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name string
		term string
		def  string
		want int
	}{
		// 49 chars: no length bonus, term +10, concept +10, one sentence +10.
		{"system definition", "Pipeline", "A system that processes data via a clear process.", 80},
		// 72 chars, contains "is": every bonus applies and the total caps at 100.
		{"full marks", "Photosynthesis", "the process by which plants convert light into energy, and this is vital", 100},
		{"empty strings", "", "", 50},
		{"short term no bonus", "DNA", "carries genetic information.", 60},
		{"ellipsis penalty", "Cell", "a unit...", 50},
		{"etc penalty", "Organelle", "mitochondria, ribosomes, etc", 65},
		{"many sentences", "Mitosis", "One. Two. Three. Four.", 60},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.term, tt.def)
			if got != tt.want {
				t.Errorf("Score(%q, %q) = %d, want %d", tt.term, tt.def, got, tt.want)
			}
		})
	}
}

func TestScore_Bounds(t *testing.T) {
	inputs := []string{
		"",
		"...",
		"etc and so on ... etc ...",
		strings.Repeat("x", 1000),
		strings.Repeat("is a process. ", 30),
		"???!!!...",
	}
	for _, term := range inputs {
		for _, def := range inputs {
			got := Score(term, def)
			if got < 0 || got > 100 {
				t.Fatalf("Score(%q, %q) = %d, out of [0,100]", term, def, got)
			}
		}
	}
}

func TestScore_Deterministic(t *testing.T) {
	term, def := "Respiration", "the process of releasing energy from food"
	first := Score(term, def)
	for i := 0; i < 10; i++ {
		if got := Score(term, def); got != first {
			t.Fatalf("run %d: got %d, want %d", i, got, first)
		}
	}
}
