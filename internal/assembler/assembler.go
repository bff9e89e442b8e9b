// Package assembler turns sections into a flat flashcard list with
// per-section index ranges.
package assembler

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/afumchris/edu-flashcard-app/internal/definition"
	"github.com/afumchris/edu-flashcard-app/internal/doctree"
	"github.com/afumchris/edu-flashcard-app/internal/scorer"
)

// Options bound the cards each section contributes.
type Options struct {
	CardsPerSection int
	MinScore        int
}

// DefaultOptions keeps up to 15 cards scoring 60 or more per section.
func DefaultOptions() Options {
	return Options{CardsPerSection: 15, MinScore: 60}
}

// Extractor finds definition candidates in section text.
type Extractor interface {
	Extract(text string) []doctree.DefinitionCandidate
}

// ScoreFunc rates a term/definition pair from 0 to 100.
type ScoreFunc func(term, definition string) int

// Assembler runs extraction and scoring over sections in order. It keeps no
// state between calls.
type Assembler struct {
	opts      Options
	extractor Extractor
	score     ScoreFunc
}

// New returns an Assembler. A nil extractor or score uses the package
// defaults.
func New(opts Options, ex Extractor, score ScoreFunc) *Assembler {
	if opts.CardsPerSection <= 0 {
		opts.CardsPerSection = DefaultOptions().CardsPerSection
	}
	if ex == nil {
		ex = definition.New()
	}
	if score == nil {
		score = scorer.Score
	}
	return &Assembler{opts: opts, extractor: ex, score: score}
}

// Result is the flat flashcard list and the range each chapter covers.
type Result struct {
	Flashcards []doctree.Flashcard   `json:"flashcards"`
	Chapters   []doctree.ChapterMeta `json:"chapters"`
}

// Assemble builds cards for every section in document order. Sections with
// no surviving cards still get a ChapterMeta with Cards == 0.
func (a *Assembler) Assemble(sections []doctree.FlatSection) Result {
	res := Result{Flashcards: []doctree.Flashcard{}, Chapters: []doctree.ChapterMeta{}}
	for _, s := range sections {
		res.append(s.Title, a.SectionCards(s.Content))
	}
	return res
}

type scored struct {
	card  doctree.Flashcard
	score int
}

// SectionCards extracts, scores, filters, ranks and caps one section's cards.
func (a *Assembler) SectionCards(content string) []doctree.Flashcard {
	var pool []scored
	seen := make(map[string]bool)
	for _, c := range a.extractor.Extract(content) {
		card := doctree.Flashcard{
			Question: fmt.Sprintf("What is %s?", c.Term),
			Answer:   capitalize(c.Definition),
		}
		key := definition.Key(card.Question)
		if seen[key] {
			continue
		}
		seen[key] = true
		if s := a.score(c.Term, c.Definition); s >= a.opts.MinScore {
			pool = append(pool, scored{card, s})
		}
	}

	sort.SliceStable(pool, func(i, j int) bool { return pool[i].score > pool[j].score })
	if len(pool) > a.opts.CardsPerSection {
		pool = pool[:a.opts.CardsPerSection]
	}

	cards := make([]doctree.Flashcard, len(pool))
	for i, p := range pool {
		cards[i] = p.card
	}
	return cards
}

// AssembleDecks lays pre-built decks out with the same range rule as
// Assemble. Card counts come from the decks themselves.
func AssembleDecks(decks []doctree.Deck) Result {
	res := Result{Flashcards: []doctree.Flashcard{}, Chapters: []doctree.ChapterMeta{}}
	for _, d := range decks {
		res.append(d.Title, d.Cards)
	}
	return res
}

// append records a chapter whose cards start at the current list length.
// An empty chapter ends one before it starts.
func (r *Result) append(title string, cards []doctree.Flashcard) {
	start := len(r.Flashcards)
	r.Flashcards = append(r.Flashcards, cards...)
	end := start - 1
	if len(cards) > 0 {
		end = len(r.Flashcards) - 1
	}
	r.Chapters = append(r.Chapters, doctree.ChapterMeta{
		ID:         len(r.Chapters) + 1,
		Title:      title,
		Cards:      len(cards),
		StartIndex: start,
		EndIndex:   end,
	})
}

// FindChapter returns the chapter holding flashcard index k.
func FindChapter(chapters []doctree.ChapterMeta, k int) (doctree.ChapterMeta, bool) {
	for _, c := range chapters {
		if c.Contains(k) {
			return c, true
		}
	}
	return doctree.ChapterMeta{}, false
}

// CheckRanges verifies chapter ranges against a flashcard list of length
// total: empty chapters end one before they start, non-empty ranges match
// their counts, and ranges are contiguous and in order.
func CheckRanges(chapters []doctree.ChapterMeta, total int) error {
	next := 0
	for _, c := range chapters {
		if c.StartIndex != next {
			return fmt.Errorf("chapter %d starts at %d, want %d", c.ID, c.StartIndex, next)
		}
		if c.Cards == 0 {
			if c.EndIndex != c.StartIndex-1 {
				return fmt.Errorf("empty chapter %d has end %d, want %d", c.ID, c.EndIndex, c.StartIndex-1)
			}
			continue
		}
		if c.EndIndex-c.StartIndex+1 != c.Cards {
			return fmt.Errorf("chapter %d range [%d,%d] does not hold %d cards", c.ID, c.StartIndex, c.EndIndex, c.Cards)
		}
		next = c.EndIndex + 1
	}
	if next != total {
		return fmt.Errorf("chapters cover %d cards, list has %d", next, total)
	}
	return nil
}

func capitalize(s string) string {
	s = strings.TrimSpace(s)
	r, n := utf8.DecodeRuneInString(s)
	if n == 0 || unicode.IsUpper(r) {
		return s
	}
	return string(unicode.ToUpper(r)) + s[n:]
}
