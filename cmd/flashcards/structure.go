package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/afumchris/edu-flashcard-app/internal/parser"
	"github.com/afumchris/edu-flashcard-app/internal/pipeline"
)

var structureCmd = &cobra.Command{
	Use:   "structure FILE",
	Short: "Show the detected chapter and section outline of a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runStructure,
}

func runStructure(cmd *cobra.Command, args []string) error {
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
	proc := pipeline.NewProcessor(pipeline.ProcessorConfigFrom(cfg, nil), log)
	ext, err := parser.Extract(bytes.NewReader(data), filepath.Base(args[0]), proc.ParserOptions())
	if err != nil {
		return err
	}
	renderOutline(cmd.OutOrStdout(), proc.Segment(ext.Text))
	return nil
}
