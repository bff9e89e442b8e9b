package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/afumchris/edu-flashcard-app/internal/doctree"
	"github.com/afumchris/edu-flashcard-app/internal/pipeline"
	"github.com/afumchris/edu-flashcard-app/internal/structure"
)

// renderDeck prints cards grouped under their chapter headings.
func renderDeck(w io.Writer, out *pipeline.Output) {
	md := out.Metadata
	fmt.Fprintf(w, "%s\n", md.DocumentTitle)
	fmt.Fprintf(w, "%d flashcards in %d chapters", md.FlashcardCount, md.ChapterCount)
	if md.UsedFallback {
		fmt.Fprintf(w, " (heuristic: %s)", md.FallbackReason)
	}
	fmt.Fprintln(w)

	for _, ch := range out.Chapters {
		fmt.Fprintf(w, "\n== %s (%d) ==\n", ch.Title, ch.Cards)
		if ch.Cards == 0 {
			fmt.Fprintln(w, "   no cards")
			continue
		}
		for k := ch.StartIndex; k <= ch.EndIndex && k < len(out.Flashcards); k++ {
			card := out.Flashcards[k]
			fmt.Fprintf(w, "%3d. Q: %s\n     A: %s\n", k+1, card.Question, card.Answer)
		}
	}
}

// renderOutline prints the section tree, one indented line per node.
func renderOutline(w io.Writer, seg structure.Segmentation) {
	title := seg.Structure.Title
	if title == "" {
		title = "(untitled)"
	}
	fmt.Fprintf(w, "%s\n", title)
	fmt.Fprintf(w, "stage: %s, sections: %d\n", seg.Stage, len(seg.Sections))
	writeNodes(w, seg.Structure.Hierarchy, 1)
}

func writeNodes(w io.Writer, nodes []*doctree.SectionNode, depth int) {
	for _, n := range nodes {
		label := n.DisplayTitle
		if label == "" {
			label = n.Title
		}
		fmt.Fprintf(w, "%s- [%s] %s (%d chars)\n", strings.Repeat("  ", depth), n.Level, label, n.EndPos-n.StartPos)
		writeNodes(w, n.Children, depth+1)
	}
}
