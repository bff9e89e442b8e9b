package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/afumchris/edu-flashcard-app/internal/doctree"
	"github.com/afumchris/edu-flashcard-app/internal/pipeline"
	"github.com/afumchris/edu-flashcard-app/internal/structure"
)

func TestRenderDeck(t *testing.T) {
	out := &pipeline.Output{
		Metadata: pipeline.Metadata{
			DocumentTitle:  "Biology 101",
			FlashcardCount: 2,
			ChapterCount:   2,
			UsedFallback:   true,
			FallbackReason: "no language model configured",
		},
		Flashcards: []doctree.Flashcard{
			{Question: "What is a cell?", Answer: "The unit of life"},
			{Question: "What is DNA?", Answer: "The genetic material"},
		},
		Chapters: []doctree.ChapterMeta{
			{ID: 1, Title: "Cells", Cards: 1, StartIndex: 0, EndIndex: 0},
			{ID: 2, Title: "Empty", Cards: 0, StartIndex: 1, EndIndex: 0},
			{ID: 3, Title: "Genes", Cards: 1, StartIndex: 1, EndIndex: 1},
		},
	}
	var buf bytes.Buffer
	renderDeck(&buf, out)
	got := buf.String()

	for _, want := range []string{
		"Biology 101\n",
		"(heuristic: no language model configured)",
		"== Cells (1) ==\n  1. Q: What is a cell?\n     A: The unit of life\n",
		"== Empty (0) ==\n   no cards\n",
		"== Genes (1) ==\n  2. Q: What is DNA?",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestRenderOutline(t *testing.T) {
	seg := structure.Segmentation{
		Structure: doctree.DocumentStructure{
			Title: "Field Guide",
			Hierarchy: []*doctree.SectionNode{{
				Level: doctree.LevelModule, DisplayTitle: "Module 1: Birds", StartPos: 0, EndPos: 40,
				Children: []*doctree.SectionNode{
					{Level: doctree.LevelUnit, Title: "Songbirds", StartPos: 10, EndPos: 40},
				},
			}},
		},
		Sections: make([]doctree.FlatSection, 2),
		Stage:    structure.StageMarkers,
	}
	var buf bytes.Buffer
	renderOutline(&buf, seg)

	want := "Field Guide\n" +
		"stage: markers, sections: 2\n" +
		"  - [MODULE] Module 1: Birds (40 chars)\n" +
		"    - [UNIT] Songbirds (30 chars)\n"
	if got := buf.String(); got != want {
		t.Errorf("outline =\n%s\nwant\n%s", got, want)
	}
}
