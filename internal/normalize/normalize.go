// Package normalize strips extraction boilerplate from document text before
// structure detection.
package normalize

import (
	"regexp"
	"strings"
	"unicode"
)

// DefaultLineFilters match whole lines that carry no study content: page
// footers, copyright notices and course metadata labels.
var DefaultLineFilters = []*regexp.Regexp{
	regexp.MustCompile(`(?im)^[ \t]*page[ \t]+\d+(?:[ \t]+of[ \t]+\d+)?[ \t]*$`),
	regexp.MustCompile(`(?m)^[ \t]*\d+[ \t]+of[ \t]+\d+[ \t]*$`),
	regexp.MustCompile(`(?im)^[^\n]*(?:copyright|©|all rights reserved)[^\n]*$`),
	regexp.MustCompile(`(?im)^[ \t]*(?:course code|instructor|professor)[ \t]*:[^\n]*$`),
}

var (
	spaceRun = regexp.MustCompile(`[ \t]+`)
	// A newline followed by two or more (possibly blank-looking) lines.
	newlineRun = regexp.MustCompile(`\n(?:[ \t]*\n){2,}`)
)

// Normalizer cleans raw extracted text. It is immutable and safe for
// concurrent use.
type Normalizer struct {
	lineFilters []*regexp.Regexp
}

// New returns a Normalizer using the given line filters, or
// DefaultLineFilters when none are passed.
func New(filters ...*regexp.Regexp) *Normalizer {
	if len(filters) == 0 {
		filters = DefaultLineFilters
	}
	fs := make([]*regexp.Regexp, len(filters))
	copy(fs, filters)
	return &Normalizer{lineFilters: fs}
}

// Normalize removes boilerplate lines, collapses runs of spaces and tabs to
// one space and runs of three or more newlines to exactly two, then trims.
func (n *Normalizer) Normalize(raw string) string {
	text, _ := n.NormalizeGaps(raw)
	return text
}

// NormalizeGaps is Normalize that also reports where the collapsed paragraph
// gaps were. Each gap is the byte offset in the returned text where the
// paragraph after a run of three or more newlines begins, in ascending order.
func (n *Normalizer) NormalizeGaps(raw string) (string, []int) {
	if raw == "" {
		return "", nil
	}
	text := strings.ReplaceAll(raw, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.ReplaceAll(text, "\f", "\n")

	for _, re := range n.lineFilters {
		text = re.ReplaceAllString(text, "")
	}
	text = spaceRun.ReplaceAllString(text, " ")

	var sb strings.Builder
	var gaps []int
	last := 0
	for _, loc := range newlineRun.FindAllStringIndex(text, -1) {
		sb.WriteString(text[last:loc[0]])
		sb.WriteString("\n\n")
		gaps = append(gaps, sb.Len())
		last = loc[1]
	}
	sb.WriteString(text[last:])

	joined := sb.String()
	out := strings.TrimLeftFunc(joined, unicode.IsSpace)
	lead := len(joined) - len(out)
	out = strings.TrimRightFunc(out, unicode.IsSpace)

	kept := gaps[:0]
	for _, g := range gaps {
		if g -= lead; g > 0 && g < len(out) {
			kept = append(kept, g)
		}
	}
	if len(kept) == 0 {
		kept = nil
	}
	return out, kept
}

var std = New()

// Normalize runs the default Normalizer.
func Normalize(raw string) string {
	return std.Normalize(raw)
}
