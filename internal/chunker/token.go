package chunker

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// Counter measures text size in prompt units.
type Counter interface {
	Count(text string) int
	Name() string
}

// WordCounter approximates tokens from whitespace-separated words.
type WordCounter struct{}

func (WordCounter) Count(text string) int { return EstimateTokens(text) }
func (WordCounter) Name() string          { return "words" }

// EstimateTokens gives a rough token count at ~1.33 tokens per word.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	words := len(strings.Fields(text))
	tokens := int(float64(words) * 1.33)
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}

// TokenCounter counts cl100k_base tokens with tiktoken.
type TokenCounter struct {
	mu  sync.RWMutex
	enc *tiktoken.Tiktoken
}

// NewTokenCounter loads the cl100k_base encoding.
func NewTokenCounter() (*TokenCounter, error) {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("load cl100k_base encoding: %w", err)
	}
	return &TokenCounter{enc: enc}, nil
}

func (c *TokenCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.enc.Encode(text, nil, nil))
}

func (c *TokenCounter) Name() string { return "tokens (cl100k_base)" }
