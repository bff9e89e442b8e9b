package definition

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	letterRun = regexp.MustCompile(`[A-Za-z]{3,}`)
	proseRun  = regexp.MustCompile(`[A-Za-z][A-Za-z ]{8,}[A-Za-z]`)

	termBlacklist = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^page\s+\d+`),
		regexp.MustCompile(`(?i)^(?:chapter|unit|section|module|part|lesson|week|lecture|topic)\b`),
		regexp.MustCompile(`(?i)^(?:figure|table|fig)\s*\d+`),
		regexp.MustCompile(`(?i)table of contents`),
		regexp.MustCompile(`(?i)^(?:references?|bibliography|index|contents|appendix|glossary)$`),
		regexp.MustCompile(`(?i)click here`),
		regexp.MustCompile(`(?i)course code`),
		regexp.MustCompile(`(?i)\bsee\s+(?:page|chapter|section)\b`),
		regexp.MustCompile(`(?i)^(?:copyright|note|example|summary|answer|question|objectives?|learning objectives|key (?:terms|concepts))$`),
		regexp.MustCompile(`(?i)^term\b`),
		regexp.MustCompile(`(?i)^step\s+\d+`),
	}

	definitionBlacklist = []*regexp.Regexp{
		regexp.MustCompile(`(?i)click here`),
		regexp.MustCompile(`(?i)^see\s+(?:page|chapter|section)\b`),
	}
)

// Bare pronouns and question words are never terms.
var stopTerms = map[string]bool{
	"it": true, "its": true, "they": true, "them": true, "their": true,
	"this": true, "that": true, "these": true, "those": true,
	"he": true, "she": true, "we": true, "you": true, "i": true, "one": true,
	"there": true, "here": true, "such": true,
	"what": true, "which": true, "who": true, "whom": true, "whose": true,
	"why": true, "how": true, "when": true, "where": true,
}

// IsValid reports whether a term/definition pair is plausible study material.
func IsValid(term, definition string) bool {
	term = strings.TrimSpace(term)
	definition = strings.TrimSpace(definition)

	words := strings.Fields(term)
	if len(words) < 1 || len(words) > 10 {
		return false
	}
	if n := utf8.RuneCountInString(term); n < 2 || n > 100 {
		return false
	}
	if !letterRun.MatchString(term) {
		return false
	}
	if stopTerms[strings.ToLower(term)] {
		return false
	}
	for _, re := range termBlacklist {
		if re.MatchString(term) {
			return false
		}
	}

	if n := utf8.RuneCountInString(definition); n < 15 || n > 500 {
		return false
	}
	if !proseRun.MatchString(definition) {
		return false
	}
	for _, re := range definitionBlacklist {
		if re.MatchString(definition) {
			return false
		}
	}
	return true
}
