package definition

import "testing"

func TestIsValid(t *testing.T) {
	const good = "the process by which plants convert light into energy"
	tests := []struct {
		name string
		term string
		def  string
		want bool
	}{
		{"ordinary", "Photosynthesis", good, true},
		{"acronym", "DNA", "deoxyribonucleic acid, the carrier of genetic information", true},
		{"pronoun", "It", "is a pronoun.", false},
		{"pronoun long definition", "They", good, false},
		{"question word", "What", good, false},
		{"page marker", "Page 12", good, false},
		{"chapter marker", "Chapter One", good, false},
		{"table of contents", "Table of Contents", good, false},
		{"references", "References", good, false},
		{"no letter run", "X1", good, false},
		{"single char", "A", good, false},
		{"too many words", "one two three four five six seven eight nine ten eleven", good, false},
		{"short definition", "Cell", "a unit of life", false},
		{"numeric definition", "Cell", "123 456 789 012 345", false},
		{"click here", "Link", "click here to read the full article online", false},
		{"long definition", "Cell", string(make([]byte, 501)), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValid(tt.term, tt.def); got != tt.want {
				t.Errorf("IsValid(%q, %q) = %v, want %v", tt.term, tt.def, got, tt.want)
			}
		})
	}
}
