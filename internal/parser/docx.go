package parser

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fumiama/go-docx"
)

// DOCXExtractor handles .docx files. Heading styles become "#" lines, the
// Title style becomes the document title, and two-column tables become
// "Term: definition" lines.
type DOCXExtractor struct{}

func (p *DOCXExtractor) Extract(r io.Reader, filename string) (*Extraction, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read docx: %w", err)
	}
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	var blocks []string
	var title string
	for _, item := range doc.Document.Body.Items {
		switch it := item.(type) {
		case *docx.Paragraph:
			text := docxParagraphText(it)
			if text == "" {
				continue
			}
			style := docxStyle(it)
			switch level := docxHeadingLevel(style); {
			case style == "title":
				if title == "" {
					title = text
				}
				blocks = append(blocks, heading(1, text))
			case level > 0:
				blocks = append(blocks, heading(level, text))
			default:
				blocks = append(blocks, text)
			}
		case *docx.Table:
			if t := docxTableText(it); t != "" {
				blocks = append(blocks, t)
			}
		}
	}

	return &Extraction{Text: strings.Join(blocks, "\n\n"), Title: title}, nil
}

func docxStyle(para *docx.Paragraph) string {
	if para.Properties == nil || para.Properties.Style == nil {
		return ""
	}
	return strings.ToLower(strings.ReplaceAll(para.Properties.Style.Val, " ", ""))
}

// docxHeadingLevel maps "heading1".."heading9" to a level, or 0.
func docxHeadingLevel(style string) int {
	n, ok := strings.CutPrefix(style, "heading")
	if !ok {
		return 0
	}
	level, err := strconv.Atoi(n)
	if err != nil || level < 1 {
		return 0
	}
	return level
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		switch c := child.(type) {
		case *docx.Run:
			docxRunText(&buf, c)
		case *docx.Hyperlink:
			docxRunText(&buf, &c.Run)
		}
	}
	return strings.TrimSpace(buf.String())
}

func docxRunText(buf *strings.Builder, run *docx.Run) {
	for _, rc := range run.Children {
		switch t := rc.(type) {
		case *docx.Text:
			buf.WriteString(t.Text)
		case *docx.Tab:
			buf.WriteByte(' ')
		}
	}
}

func docxTableText(t *docx.Table) string {
	var lines []string
	for _, row := range t.TableRows {
		var cells []string
		for _, cell := range row.TableCells {
			var parts []string
			for _, p := range cell.Paragraphs {
				if s := docxParagraphText(p); s != "" {
					parts = append(parts, s)
				}
			}
			cells = append(cells, strings.Join(parts, " "))
		}
		if line := glossaryLine(cells); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
