package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/afumchris/edu-flashcard-app/internal/api"
	"github.com/afumchris/edu-flashcard-app/internal/config"
	"github.com/afumchris/edu-flashcard-app/internal/deckstore"
	"github.com/afumchris/edu-flashcard-app/internal/metrics"
	"github.com/afumchris/edu-flashcard-app/internal/pipeline"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	if err != nil {
		log.Error("load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()

	model, err := pipeline.BuildModel(cfg, m, log)
	if err != nil {
		log.Error("language model setup", "error", err)
		os.Exit(1)
	}

	var cache *deckstore.Store
	if cfg.CacheDB != "" {
		cache, err = deckstore.Open(cfg.CacheDB)
		if err != nil {
			log.Error("open result cache", "path", cfg.CacheDB, "error", err)
			os.Exit(1)
		}
		log.Info("result cache enabled", "path", cfg.CacheDB)
	}

	pc := pipeline.ProcessorConfigFrom(cfg, m)
	info := api.ModelInfo{Provider: cfg.LLMProvider}
	if model != nil {
		pc.Generator = model.Breaker
		info.Model = model.Client.Model()
		info.Stats = model.Client.Stats()
		info.Breaker = model.Breaker
	} else {
		log.Warn("no language model configured, using heuristic flashcards only")
	}
	if cache != nil {
		pc.Cache = cache
	}

	orch := pipeline.NewOrchestrator(pipeline.NewProcessor(pc, log), pipeline.OrchestratorOptions{
		Workers:   cfg.WorkerCount,
		QueueSize: cfg.MaxQueueSize,
		JobTTL:    cfg.JobTTL,
	}, log)
	orch.Start(ctx)

	srv := api.NewServer(orch, cache, m, info, log, api.Options{
		APIKey:         cfg.APIKey,
		MaxUploadBytes: cfg.MaxUploadBytes,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		CORSOrigins:    cfg.CORSOrigins,
		Version:        version,
	})

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.LLMTimeout + 60*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Warn("http shutdown", "error", err)
		}

		orch.Stop()
		if model != nil {
			model.Client.Close()
		}
		if cache != nil {
			if err := cache.Close(); err != nil {
				log.Warn("close result cache", "error", err)
			}
		}
	}()

	log.Info("starting flashcard service",
		"port", cfg.Port,
		"version", version,
		"provider", cfg.LLMProvider,
		"workers", cfg.WorkerCount,
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
