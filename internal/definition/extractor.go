// Package definition finds term/definition pairs in section text.
package definition

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/afumchris/edu-flashcard-app/internal/doctree"
)

var (
	leadingArticle  = regexp.MustCompile(`(?i)^(?:a|an|the)\s+`)
	leadingDefWords = regexp.MustCompile(`(?i)^(?:defined as|described as|known as)\s+`)
	wsRun           = regexp.MustCompile(`\s+`)
)

// Extractor applies an ordered table of pattern families. It holds no mutable
// state and is safe for concurrent use.
type Extractor struct {
	families []Family
}

// New returns an Extractor over the given families, or DefaultFamilies when
// none are passed.
func New(families ...Family) *Extractor {
	if len(families) == 0 {
		families = DefaultFamilies()
	}
	fs := make([]Family, len(families))
	copy(fs, families)
	return &Extractor{families: fs}
}

// Extract returns validated candidates sorted by priority (desc) then
// position (asc), keeping only the first candidate per normalized term.
func (e *Extractor) Extract(text string) []doctree.DefinitionCandidate {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var sents []sentence
	var all []doctree.DefinitionCandidate
	for _, f := range e.families {
		switch f.Scope {
		case ScopeSentence:
			if sents == nil {
				sents = splitSentences(text)
			}
			for _, s := range sents {
				loc := f.Pattern.FindStringSubmatchIndex(s.text)
				if loc == nil {
					continue
				}
				all = appendCandidate(all, f, s.text[loc[2]:loc[3]], s.text[loc[4]:loc[5]], s.start+loc[2])
			}
		default:
			for _, loc := range f.Pattern.FindAllStringSubmatchIndex(text, -1) {
				all = appendCandidate(all, f, text[loc[2]:loc[3]], text[loc[4]:loc[5]], loc[2])
			}
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Priority != all[j].Priority {
			return all[i].Priority > all[j].Priority
		}
		return all[i].Position < all[j].Position
	})

	seen := make(map[string]bool, len(all))
	out := all[:0]
	for _, c := range all {
		key := Key(c.Term)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}

func appendCandidate(dst []doctree.DefinitionCandidate, f Family, rawTerm, rawDef string, pos int) []doctree.DefinitionCandidate {
	term := cleanTerm(rawTerm)
	def := cleanDefinition(rawDef)
	if !IsValid(term, def) {
		return dst
	}
	return append(dst, doctree.DefinitionCandidate{
		Term:       term,
		Definition: def,
		Position:   pos,
		Priority:   f.Priority,
		Family:     f.Name,
	})
}

// Key normalizes a term for duplicate detection: lower case, letters and
// digits only.
func Key(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func cleanTerm(s string) string {
	s = strings.Trim(s, " \t*\"'“”‘’")
	s = wsRun.ReplaceAllString(s, " ")
	if stripped := leadingArticle.ReplaceAllString(s, ""); stripped != "" && stripped != s {
		s = stripped
	}
	return strings.TrimSpace(s)
}

func cleanDefinition(s string) string {
	s = wsRun.ReplaceAllString(strings.TrimSpace(s), " ")
	s = leadingDefWords.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

type sentence struct {
	start int
	text  string
}

// splitSentences cuts text at newlines and at . ! ? followed by whitespace or
// end of text. Terminators are not part of the sentence text.
func splitSentences(text string) []sentence {
	var out []sentence
	add := func(from, to int) {
		for from < to && (text[from] == ' ' || text[from] == '\t') {
			from++
		}
		for to > from && (text[to-1] == ' ' || text[to-1] == '\t') {
			to--
		}
		if from < to {
			out = append(out, sentence{start: from, text: text[from:to]})
		}
	}

	start := 0
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c == '\n':
		case c == '.' || c == '!' || c == '?':
			if i+1 < len(text) && text[i+1] != ' ' && text[i+1] != '\t' && text[i+1] != '\n' {
				continue
			}
		default:
			continue
		}
		add(start, i)
		start = i + 1
	}
	add(start, len(text))
	return out
}
