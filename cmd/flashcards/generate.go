package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/afumchris/edu-flashcard-app/internal/metrics"
	"github.com/afumchris/edu-flashcard-app/internal/pipeline"
)

var generateCmd = &cobra.Command{
	Use:   "generate FILE",
	Short: "Generate flashcards for a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runGenerate,
}

func init() {
	generateCmd.Flags().Bool("json", false, "Print the result as JSON (default when stdout is not a terminal)")
	generateCmd.Flags().Int("cap", 15, "Maximum heuristic cards per section")
	generateCmd.Flags().Int("min-score", 60, "Minimum heuristic card score (0-100)")
	generateCmd.Flags().Bool("llm", false, "Use the configured language model before the heuristic fallback")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	debug, _ := cmd.Flags().GetBool("debug")
	log := setupLogger(debug)

	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	m := metrics.New()
	pc := pipeline.ProcessorConfigFrom(cfg, m)
	model, err := pipeline.BuildModel(cfg, m, log)
	if err != nil {
		return fmt.Errorf("language model setup: %w", err)
	}
	if model != nil {
		defer model.Client.Close()
		pc.Generator = model.Breaker
	}

	out, err := pipeline.NewProcessor(pc, log).ProcessFile(ctx, pipeline.Upload{
		Filename: filepath.Base(args[0]),
		Data:     data,
	}, nil)
	if err != nil {
		return err
	}

	asJSON, _ := cmd.Flags().GetBool("json")
	if asJSON || !term.IsTerminal(int(os.Stdout.Fd())) {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	renderDeck(cmd.OutOrStdout(), out)
	return nil
}
