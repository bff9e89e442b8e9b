package extract

import (
	"fmt"
	"time"
)

// ProviderConfig selects and tunes a model client.
type ProviderConfig struct {
	Provider  string // "anthropic", "openai" or "none"
	APIKey    string
	Model     string
	BaseURL   string
	Timeout   time.Duration
	MaxTokens int
}

// Client is a Completer that also exposes its latency stats.
type Client interface {
	Completer
	Stats() *LLMStats
	Close()
}

// NewClient builds the client for pc.Provider. "none" and "" return
// ErrNotConfigured.
func NewClient(pc ProviderConfig, stats *LLMStats) (Client, error) {
	opts := ClientOptions{
		BaseURL:   pc.BaseURL,
		Timeout:   pc.Timeout,
		MaxTokens: pc.MaxTokens,
		Stats:     stats,
	}
	switch pc.Provider {
	case "", "none":
		return nil, ErrNotConfigured
	case "anthropic":
		if pc.APIKey == "" {
			return nil, fmt.Errorf("anthropic: %w: missing api key", ErrNotConfigured)
		}
		return NewClaudeClient(pc.APIKey, pc.Model, opts), nil
	case "openai":
		return NewOpenAIClient(pc.APIKey, pc.Model, opts), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", pc.Provider)
	}
}
