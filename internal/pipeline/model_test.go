package pipeline

import (
	"testing"

	"github.com/afumchris/edu-flashcard-app/internal/config"
	"github.com/afumchris/edu-flashcard-app/internal/metrics"
)

func TestBuildModel_NoProvider(t *testing.T) {
	cfg := config.Default()
	cfg.LLMProvider = config.ProviderNone

	model, err := BuildModel(cfg, metrics.New(), discardLogger())
	if err != nil {
		t.Fatalf("BuildModel: %v", err)
	}
	if model != nil {
		t.Fatalf("expected no model, got %+v", model)
	}
}

func TestBuildModel_OpenAICompatible(t *testing.T) {
	cfg := config.Default()
	cfg.LLMProvider = config.ProviderOpenAI
	cfg.OpenAIBaseURL = "http://localhost:11434/v1"
	cfg.OpenAIModel = "llama3"

	model, err := BuildModel(cfg, metrics.New(), discardLogger())
	if err != nil {
		t.Fatalf("BuildModel: %v", err)
	}
	if model == nil || model.Breaker == nil {
		t.Fatal("expected a breaker-guarded model")
	}
	defer model.Client.Close()
	if model.Client.Provider() != "openai" || model.Client.Model() != "llama3" {
		t.Errorf("client = %s/%s", model.Client.Provider(), model.Client.Model())
	}
	if model.Client.Stats() == nil {
		t.Error("expected latency stats")
	}
}

func TestBuildModel_AnthropicWithoutKey(t *testing.T) {
	cfg := config.Default()
	cfg.LLMProvider = config.ProviderAnthropic

	if _, err := BuildModel(cfg, metrics.New(), discardLogger()); err == nil {
		t.Fatal("expected error for anthropic without a key")
	}
}

func TestProcessorConfigFrom(t *testing.T) {
	cfg := config.Default()
	cfg.PDFFallbackPdftotext = true
	cfg.CardsPerSection = 7

	pc := ProcessorConfigFrom(cfg, nil)
	if !pc.Parser.PdftotextFallback {
		t.Error("pdftotext fallback not carried over")
	}
	if pc.Assembler.CardsPerSection != 7 {
		t.Errorf("CardsPerSection = %d", pc.Assembler.CardsPerSection)
	}
	if pc.Generator != nil || pc.Cache != nil {
		t.Error("generator and cache should be left unset")
	}
}
