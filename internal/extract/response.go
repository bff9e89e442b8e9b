package extract

import (
	"encoding/json"
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"github.com/afumchris/edu-flashcard-app/internal/doctree"
)

const (
	maxQuestionChars = 500
	maxAnswerChars   = 2000
)

type rawCard struct {
	Question string `json:"Question"`
	Answer   string `json:"Answer"`
}

type rawDeck struct {
	ChapterTitle string    `json:"chapter_title"`
	Cards        []rawCard `json:"cards"`
}

type rawResponse struct {
	DocumentTitle string     `json:"document_title"`
	Decks         *[]rawDeck `json:"flashcard_decks"`
}

var (
	codeBlockRe = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")
	spaceRe     = regexp.MustCompile(`\s+`)

	injectionPattern = regexp.MustCompile(
		`(?i)(ignore\s+(previous|all|above)|system\s*prompt|you\s+are\s+now|` +
			`forget\s+(everything|all)|new\s+instructions)`,
	)

	stripMarkup = bluemonday.StrictPolicy()
)

// ParseDeckResponse decodes and validates a model reply. Code fences are
// stripped; if the reply does not decode, the largest brace-delimited
// substring is tried. Cards without a question or answer are dropped, and a
// reply with no surviving cards fails with ErrEmptyResponse.
func ParseDeckResponse(raw string) (*DeckSet, error) {
	text := stripCodeBlock(raw)

	var resp rawResponse
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		inner, ok := largestObject(text)
		if !ok {
			return nil, &ParseError{Reason: "no JSON object", Raw: raw, Err: ErrMalformedResponse}
		}
		resp = rawResponse{}
		if err := json.Unmarshal([]byte(inner), &resp); err != nil {
			return nil, &ParseError{Reason: err.Error(), Raw: raw, Err: ErrMalformedResponse}
		}
	}
	if resp.Decks == nil {
		return nil, &ParseError{Reason: "missing flashcard_decks", Raw: raw, Err: ErrMalformedResponse}
	}

	set := &DeckSet{DocumentTitle: cleanText(resp.DocumentTitle)}
	for i, d := range *resp.Decks {
		deck := doctree.Deck{Title: cleanText(d.ChapterTitle), Cards: []doctree.Flashcard{}}
		if deck.Title == "" {
			deck.Title = fmt.Sprintf("Section %d", i+1)
		}
		for _, c := range d.Cards {
			if card, ok := ValidateCard(c.Question, c.Answer); ok {
				deck.Cards = append(deck.Cards, card)
			}
		}
		set.Decks = append(set.Decks, deck)
	}
	if set.CardCount() == 0 {
		return nil, &ParseError{Reason: "no valid cards", Raw: raw, Err: ErrEmptyResponse}
	}
	return set, nil
}

// ValidateCard cleans a model-supplied card and reports whether it is usable.
func ValidateCard(question, answer string) (doctree.Flashcard, bool) {
	q, a := cleanText(question), cleanText(answer)
	if q == "" || a == "" {
		return doctree.Flashcard{}, false
	}
	if utf8.RuneCountInString(q) > maxQuestionChars || utf8.RuneCountInString(a) > maxAnswerChars {
		return doctree.Flashcard{}, false
	}
	if injectionPattern.MatchString(q) || injectionPattern.MatchString(a) {
		return doctree.Flashcard{}, false
	}
	return doctree.Flashcard{Question: q, Answer: a}, true
}

// cleanText drops markup and collapses whitespace.
func cleanText(s string) string {
	s = html.UnescapeString(stripMarkup.Sanitize(s))
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

func stripCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if m := codeBlockRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}

// largestObject returns the span from the first '{' to the last '}'.
func largestObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}
