package pipeline

import (
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/afumchris/edu-flashcard-app/internal/chunker"
	"github.com/afumchris/edu-flashcard-app/internal/config"
	"github.com/afumchris/edu-flashcard-app/internal/extract"
	"github.com/afumchris/edu-flashcard-app/internal/metrics"
	"github.com/afumchris/edu-flashcard-app/internal/parser"
)

// Model is the configured language model: the HTTP client and the
// breaker-guarded generator built on it.
type Model struct {
	Client  extract.Client
	Breaker *extract.BreakerGenerator
}

// BuildModel wires client, chunked generator and circuit breaker from cfg.
// It returns nil and no error when no provider is configured.
func BuildModel(cfg config.Config, m *metrics.Metrics, log *slog.Logger) (*Model, error) {
	client, err := extract.NewClient(cfg.ProviderConfig(), extract.NewLLMStats(time.Hour))
	if errors.Is(err, extract.ErrNotConfigured) && (cfg.LLMProvider == "" || cfg.LLMProvider == config.ProviderNone) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var counter chunker.Counter = chunker.WordCounter{}
	if tc, err := chunker.NewTokenCounter(); err == nil {
		counter = tc
	} else {
		log.Warn("tiktoken unavailable, estimating tokens from words", "error", err)
	}

	gen := extract.NewGenerator(client, extract.GeneratorOptions{
		TokenBudget:   cfg.PromptTokenBudget,
		MaxConcurrent: cfg.MaxConcurrentLLM,
		Counter:       counter,
		Attempts:      MaxAttempts,
		Backoff:       Backoff,
	}, log)
	breaker := extract.NewBreakerGenerator(gen, extract.BreakerOptions{
		Failures: uint32(cfg.BreakerFailures),
		Cooldown: cfg.BreakerCooldown,
		OnStateChange: func(_, to gobreaker.State) {
			if m != nil {
				m.SetBreakerState(to.String())
			}
		},
	}, log)

	log.Info("language model configured",
		"provider", client.Provider(),
		"model", client.Model(),
		"counter", counter.Name(),
	)
	return &Model{Client: client, Breaker: breaker}, nil
}

// ProcessorConfigFrom maps cfg onto processor settings. Generator and
// Cache are left for the caller.
func ProcessorConfigFrom(cfg config.Config, m *metrics.Metrics) ProcessorConfig {
	return ProcessorConfig{
		Metrics:   m,
		Structure: cfg.StructureOptions(),
		Assembler: cfg.AssemblerOptions(),
		Parser:    parser.Options{PdftotextFallback: cfg.PDFFallbackPdftotext},
	}
}
