package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/afumchris/edu-flashcard-app/internal/config"
	"github.com/afumchris/edu-flashcard-app/internal/structure"
)

// setupLogger sends logs to stderr, errors only unless debug is set.
func setupLogger(debug bool) *slog.Logger {
	level := slog.LevelError
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// loadConfig reads the shared configuration and applies command flags on top.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	flags := cmd.Flags()
	if mode, _ := flags.GetString("mode"); mode != "" {
		cfg.SegmentMode = mode
	}
	if flags.Changed("cap") {
		cfg.CardsPerSection, _ = flags.GetInt("cap")
	}
	if flags.Changed("min-score") {
		cfg.MinCardScore, _ = flags.GetInt("min-score")
	}
	if flags.Changed("pdftotext") {
		cfg.PDFFallbackPdftotext, _ = flags.GetBool("pdftotext")
	}
	if useLLM, _ := flags.GetBool("llm"); !useLLM {
		cfg.LLMProvider = config.ProviderNone
	}
	return cfg, cfg.Validate()
}

var rootCmd = &cobra.Command{
	Use:   "flashcards",
	Short: "Generate study flashcards from documents",
	Long: `flashcards turns course material into question/answer decks grouped by chapter.
Supported inputs: PDF, DOCX, XLSX, CSV, HTML, Markdown and plain text.

Examples:
  flashcards generate notes.pdf
  flashcards generate --json --cap 10 syllabus.docx > cards.json
  flashcards structure lecture.md`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().Bool("debug", false, "Log debug output to stderr")
	rootCmd.PersistentFlags().String("mode", "", fmt.Sprintf("Segmentation mode: %s or %s", structure.ModeHierarchy, structure.ModeChapters))
	rootCmd.PersistentFlags().Bool("pdftotext", false, "Fall back to poppler's pdftotext for PDFs without a text layer")

	rootCmd.AddCommand(generateCmd, structureCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
