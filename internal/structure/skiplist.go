package structure

import (
	"strings"
	"unicode"

	"github.com/kljensen/snowball"
)

// skipPhrase matches a heading whose leading words stem to words. maxExtra
// bounds how many further words the heading may carry; -1 means any.
type skipPhrase struct {
	words    []string
	maxExtra int
}

// frontBackMatter maps book-matter headings to how many extra words they
// may carry ("Appendix B: Tables" yes, "Indexing Methods" no).
var frontBackMatter = []struct {
	phrase   string
	maxExtra int
}{
	{"table of contents", 2}, {"contents", 0}, {"index", 0}, {"references", 0},
	{"bibliography", 0}, {"works cited", 0}, {"further reading", 0},
	{"preface", 0}, {"foreword", 0}, {"acknowledgments", 0}, {"acknowledgements", 0},
	{"about the author", 1}, {"about this book", 0}, {"dedication", 0},
	{"copyright", 2}, {"appendix", 3}, {"glossary", 3},
}

var institutionalHeaders = []string{
	"university of", "department of", "faculty of", "school of",
	"college of", "institute of", "course syllabus", "syllabus",
}

func defaultSkipPhrases() []skipPhrase {
	var out []skipPhrase
	for _, p := range frontBackMatter {
		out = append(out, skipPhrase{words: stems(p.phrase), maxExtra: p.maxExtra})
	}
	for _, p := range institutionalHeaders {
		out = append(out, skipPhrase{words: stems(p), maxExtra: -1})
	}
	return out
}

// skipped reports whether a heading title names front/back matter or an
// institutional header rather than study content.
func (d *Detector) skipped(title string) bool {
	words := stems(title)
	if len(words) == 0 {
		return false
	}
	for _, p := range d.skip {
		if len(words) < len(p.words) {
			continue
		}
		if p.maxExtra >= 0 && len(words)-len(p.words) > p.maxExtra {
			continue
		}
		match := true
		for i, w := range p.words {
			if words[i] != w {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// stems lower-cases, splits on non-letters and stems each word.
func stems(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		stem, err := snowball.Stem(f, "english", true)
		if err != nil || stem == "" {
			stem = f
		}
		out = append(out, stem)
	}
	return out
}
