package definition

import "regexp"

// Scope says what a family's pattern is matched against.
type Scope int

const (
	// ScopeLine patterns run over the whole text in multi-line mode.
	ScopeLine Scope = iota
	// ScopeSentence patterns are anchored and run once per sentence.
	ScopeSentence
)

// Family is one definition pattern. Group 1 captures the term and group 2 the
// definition. Priority only decides which duplicate survives.
type Family struct {
	Name     string
	Priority int
	Scope    Scope
	Pattern  *regexp.Regexp
}

// DefaultFamilies returns the built-in pattern table, highest priority first.
func DefaultFamilies() []Family {
	return []Family{
		{
			Name:     "is-are",
			Priority: 10,
			Scope:    ScopeSentence,
			Pattern:  regexp.MustCompile(`^([A-Z][A-Za-z \t'-]{1,50}?)[ \t]+(?:is|are)[ \t]+(.{15,500})$`),
		},
		{
			Name:     "colon",
			Priority: 9,
			Scope:    ScopeLine,
			Pattern:  regexp.MustCompile(`(?m)^[ \t]*\*{0,2}([A-Z][A-Za-z \t'()/-]{1,60}?)\*{0,2}[ \t]*:\*{0,2}[ \t]+([^\n]{15,500})$`),
		},
		{
			Name:     "bullet",
			Priority: 8,
			Scope:    ScopeLine,
			Pattern:  regexp.MustCompile(`(?m)^[ \t]*[-*•][ \t]+\*{0,2}([A-Za-z][A-Za-z \t'()/-]{1,60}?)\*{0,2}[ \t]*:\*{0,2}[ \t]+([^\n]{15,500})$`),
		},
		{
			Name:     "refers-to",
			Priority: 7,
			Scope:    ScopeSentence,
			Pattern:  regexp.MustCompile(`^([A-Z][A-Za-z \t'-]{1,50}?)[ \t]+(?:refers to|means|represents|denotes|is defined as|can be defined as)[ \t]+(.{15,500})$`),
		},
		{
			Name:     "the-term",
			Priority: 6,
			Scope:    ScopeSentence,
			Pattern:  regexp.MustCompile(`^(?i:the term)[ \t]+["'“‘]?([A-Za-z][A-Za-z \t'-]{1,60}?)["'”’]?[ \t]+(?:is|are|means|refers to|describes|denotes)[ \t]+(.{15,500})$`),
		},
		{
			Name:     "dash",
			Priority: 5,
			Scope:    ScopeLine,
			Pattern:  regexp.MustCompile(`(?m)^[ \t]*([A-Z][A-Za-z \t'()/]{1,60}?)[ \t]+[-–—][ \t]+([^\n]{15,500})$`),
		},
	}
}
