package structure

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/jdkato/prose/v2"
)

const (
	maxTitleRunes   = 80
	titleScanLines  = 5
	defaultDocTitle = "Document"
)

var titleLabel = regexp.MustCompile(`(?i)^(?:course|document|title)[ \t]*:[ \t]*(.+)$`)

// ExtractTitle picks a document title from the first few non-blank lines:
// a COURSE:/DOCUMENT:/TITLE: label wins, then the first line of 10 to 100
// characters, then the first line. Results are cut to 80 characters.
func ExtractTitle(text string) string {
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		l = strings.Trim(l, " \t=#*-_")
		if l == "" {
			continue
		}
		lines = append(lines, l)
		if len(lines) == titleScanLines {
			break
		}
	}
	if len(lines) == 0 {
		return defaultDocTitle
	}
	for _, l := range lines {
		if m := titleLabel.FindStringSubmatch(l); m != nil {
			if t := strings.TrimSpace(m[1]); t != "" {
				return truncateRunes(t, maxTitleRunes)
			}
		}
	}
	for _, l := range lines {
		if n := utf8.RuneCountInString(l); n >= 10 && n <= 100 {
			return truncateRunes(l, maxTitleRunes)
		}
	}
	return truncateRunes(lines[0], maxTitleRunes)
}

// sectionTitle names an unmarked piece of text: its first line when that
// reads like a heading, else its first sentence.
func sectionTitle(content string) string {
	line := content
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	if n := utf8.RuneCountInString(line); n >= 3 && n <= 80 && !strings.HasSuffix(line, ".") {
		return line
	}

	sample := content
	if len(sample) > 1000 {
		sample = truncateRunes(sample, 1000)
	}
	doc, err := prose.NewDocument(sample,
		prose.WithTokenization(false),
		prose.WithTagging(false),
		prose.WithExtraction(false))
	if err == nil {
		for _, s := range doc.Sentences() {
			if t := strings.TrimSpace(s.Text); t != "" {
				return truncateWords(t, 60)
			}
		}
	}
	return truncateWords(line, 60)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n]))
}

// truncateWords cuts s to at most n runes at a word boundary, adding "...".
func truncateWords(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	cut := truncateRunes(s, n)
	if i := strings.LastIndexByte(cut, ' '); i > n/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,;:") + "..."
}
