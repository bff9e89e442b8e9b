package parser

import (
	"bufio"
	"io"
	"strings"
)

// TextExtractor handles plain text files. Line structure is kept so
// headings on their own line stay detectable.
type TextExtractor struct{}

func (p *TextExtractor) Extract(r io.Reader, filename string) (*Extraction, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var sb strings.Builder
	first := true
	for scanner.Scan() {
		line := scanner.Text()
		if first {
			line = strings.TrimPrefix(line, "\ufeff")
			first = false
		}
		sb.WriteString(strings.TrimRight(line, " \t\r"))
		sb.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return &Extraction{Text: sb.String()}, nil
}
