package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerOptions configure the circuit breaker around a generator.
type BreakerOptions struct {
	Failures      uint32
	Cooldown      time.Duration
	OnStateChange func(from, to gobreaker.State)
}

// BreakerGenerator stops calling the model after repeated failures. An open
// breaker fails fast with gobreaker.ErrOpenState.
type BreakerGenerator struct {
	next DeckGenerator
	cb   *gobreaker.CircuitBreaker
}

func NewBreakerGenerator(next DeckGenerator, opts BreakerOptions, log *slog.Logger) *BreakerGenerator {
	if opts.Failures == 0 {
		opts.Failures = 5
	}
	if opts.Cooldown <= 0 {
		opts.Cooldown = time.Minute
	}
	settings := gobreaker.Settings{
		Name:        "llm",
		MaxRequests: 1,
		Timeout:     opts.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.Failures
		},
		IsSuccessful: func(err error) bool {
			// Caller cancellation says nothing about model health.
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Info("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
			if opts.OnStateChange != nil {
				opts.OnStateChange(from, to)
			}
		},
	}
	return &BreakerGenerator{next: next, cb: gobreaker.NewCircuitBreaker(settings)}
}

func (b *BreakerGenerator) GenerateDecks(ctx context.Context, title, text string) (*DeckSet, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.GenerateDecks(ctx, title, text)
	})
	if err != nil {
		return nil, fmt.Errorf("breaker %s: %w", b.cb.Name(), err)
	}
	return out.(*DeckSet), nil
}

// State reports the breaker state as "closed", "half-open" or "open".
func (b *BreakerGenerator) State() string {
	return b.cb.State().String()
}
