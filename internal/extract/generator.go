package extract

import (
	"context"
	"errors"
	"fmt"

	"github.com/afumchris/edu-flashcard-app/internal/doctree"
)

var (
	// ErrNotConfigured means no language model provider is set up.
	ErrNotConfigured = errors.New("language model not configured")
	// ErrMalformedResponse means the model output could not be decoded as a deck set.
	ErrMalformedResponse = errors.New("malformed model response")
	// ErrEmptyResponse means the model output decoded but held no usable cards.
	ErrEmptyResponse = errors.New("model response has no usable cards")
)

// DeckSet is the validated form of a model response.
type DeckSet struct {
	DocumentTitle string
	Decks         []doctree.Deck
}

// CardCount is the total number of cards across all decks.
func (d *DeckSet) CardCount() int {
	n := 0
	for _, deck := range d.Decks {
		n += len(deck.Cards)
	}
	return n
}

// DeckGenerator turns document text into flashcard decks, one per chapter.
type DeckGenerator interface {
	GenerateDecks(ctx context.Context, title, text string) (*DeckSet, error)
}

// Completer sends one system/user prompt pair and returns the raw reply text.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
	Provider() string
	Model() string
}

// RetryableError indicates a transient failure that can be retried.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("retryable error: %s", truncate(e.Message, 200))
	}
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

func retryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// ParseError describes why a model reply was rejected.
type ParseError struct {
	Reason string
	Raw    string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse deck response: %s (raw: %s)", e.Reason, truncate(e.Raw, 200))
}

func (e *ParseError) Unwrap() error { return e.Err }

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
