package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/afumchris/edu-flashcard-app/internal/chunker"
	"github.com/afumchris/edu-flashcard-app/internal/definition"
	"github.com/afumchris/edu-flashcard-app/internal/doctree"
)

// GeneratorOptions control how a document is split across model calls.
type GeneratorOptions struct {
	TokenBudget   int
	MaxConcurrent int
	Counter       chunker.Counter
	Attempts      int
	Backoff       func(attempt int) time.Duration
}

// Generator produces decks by sending token-budgeted pieces of a document
// to a Completer and merging the replies.
type Generator struct {
	llm  Completer
	opts GeneratorOptions
	log  *slog.Logger
}

func NewGenerator(llm Completer, opts GeneratorOptions, log *slog.Logger) *Generator {
	if opts.TokenBudget <= 0 {
		opts.TokenBudget = 6000
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 1
	}
	if opts.Counter == nil {
		opts.Counter = chunker.WordCounter{}
	}
	if opts.Attempts <= 0 {
		opts.Attempts = 1
	}
	if opts.Backoff == nil {
		opts.Backoff = func(int) time.Duration { return 0 }
	}
	return &Generator{llm: llm, opts: opts, log: log.With("provider", llm.Provider(), "model", llm.Model())}
}

func (g *Generator) Provider() string { return g.llm.Provider() }
func (g *Generator) Model() string    { return g.llm.Model() }

// GenerateDecks fails if any piece fails; partial decks are not returned.
func (g *Generator) GenerateDecks(ctx context.Context, title, text string) (*DeckSet, error) {
	pieces := chunker.SplitForPrompt(text, g.opts.TokenBudget, g.opts.Counter)
	if len(pieces) == 0 {
		return nil, fmt.Errorf("generate decks: %w", ErrEmptyResponse)
	}
	g.log.Debug("generating decks", "pieces", len(pieces), "counter", g.opts.Counter.Name())

	type pieceResult struct {
		set *DeckSet
		err error
		idx int
	}
	results := make(chan pieceResult, len(pieces))
	sem := make(chan struct{}, g.opts.MaxConcurrent)

	for i, piece := range pieces {
		sem <- struct{}{}
		go func(i int, piece string) {
			defer func() { <-sem }()
			set, err := g.generatePiece(ctx, title, i, len(pieces), piece)
			results <- pieceResult{set: set, err: err, idx: i}
		}(i, piece)
	}

	sets := make([]*DeckSet, len(pieces))
	var firstErr error
	for range pieces {
		r := <-results
		if r.err != nil {
			g.log.Warn("piece failed", "piece", r.idx, "error", r.err)
			if firstErr == nil {
				firstErr = fmt.Errorf("piece %d: %w", r.idx+1, r.err)
			}
			continue
		}
		sets[r.idx] = r.set
	}
	if firstErr != nil {
		return nil, firstErr
	}
	merged := MergeDeckSets(sets)
	if merged.CardCount() == 0 {
		return nil, fmt.Errorf("generate decks: %w", ErrEmptyResponse)
	}
	return merged, nil
}

func (g *Generator) generatePiece(ctx context.Context, title string, idx, total int, piece string) (*DeckSet, error) {
	prompt := BuildDeckPrompt(title, idx+1, total, piece)
	var lastErr error
	for attempt := range g.opts.Attempts {
		raw, err := g.llm.Complete(ctx, DeckPrompt, prompt)
		if err == nil {
			set, perr := ParseDeckResponse(raw)
			if errors.Is(perr, ErrEmptyResponse) && total > 1 {
				// Other pieces may still carry cards.
				return &DeckSet{}, nil
			}
			return set, perr
		}
		lastErr = err
		if !retryable(err) || attempt == g.opts.Attempts-1 {
			break
		}
		g.log.Warn("retryable model error", "piece", idx, "attempt", attempt, "error", err)
		select {
		case <-time.After(g.opts.Backoff(attempt)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

// MergeDeckSets joins per-piece replies in order. Decks with the same title
// (case-insensitive) are combined in first-seen position, and repeated
// questions within a deck are dropped.
func MergeDeckSets(sets []*DeckSet) *DeckSet {
	out := &DeckSet{}
	index := make(map[string]int)
	seen := make(map[int]map[string]bool)
	for _, set := range sets {
		if set == nil {
			continue
		}
		if out.DocumentTitle == "" {
			out.DocumentTitle = set.DocumentTitle
		}
		for _, deck := range set.Decks {
			key := strings.ToLower(strings.TrimSpace(deck.Title))
			i, ok := index[key]
			if !ok {
				i = len(out.Decks)
				index[key] = i
				seen[i] = make(map[string]bool)
				out.Decks = append(out.Decks, doctree.Deck{Title: deck.Title, Cards: []doctree.Flashcard{}})
			}
			for _, c := range deck.Cards {
				q := definition.Key(c.Question)
				if seen[i][q] {
					continue
				}
				seen[i][q] = true
				out.Decks[i].Cards = append(out.Decks[i].Cards, c)
			}
		}
	}
	return out
}
