// Package scorer rates heuristic flashcard candidates on a 0-100 scale.
package scorer

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	base     = 50
	minScore = 0
	maxScore = 100
)

var (
	conceptWord  = regexp.MustCompile(`(?i)\b(?:process|method|technique|system|concept)\b`)
	vagueEnding  = regexp.MustCompile(`(?i)\b(?:etc|and so on)\b`)
	sentenceStop = regexp.MustCompile(`[.!?]`)
)

// Score rates a term/definition pair. Lengths are counted in characters.
func Score(term, definition string) int {
	s := base

	defLen := utf8.RuneCountInString(definition)
	if defLen >= 50 && defLen <= 200 {
		s += 20
	}
	termLen := utf8.RuneCountInString(term)
	if termLen >= 5 && termLen <= 40 {
		s += 10
	}
	if strings.Contains(definition, "is") || strings.Contains(definition, "are") {
		s += 10
	}
	if conceptWord.MatchString(definition) {
		s += 10
	}
	if n := countSentences(definition); n >= 1 && n <= 3 {
		s += 10
	}
	if strings.Contains(definition, "...") {
		s -= 10
	}
	if vagueEnding.MatchString(definition) {
		s -= 5
	}

	if s < minScore {
		return minScore
	}
	if s > maxScore {
		return maxScore
	}
	return s
}

func countSentences(text string) int {
	n := 0
	for _, part := range sentenceStop.Split(text, -1) {
		if strings.TrimSpace(part) != "" {
			n++
		}
	}
	return n
}
