package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// CSVExtractor treats a CSV file as a glossary: the first column is the
// term and the remaining columns its definition. A header row naming the
// columns is skipped.
type CSVExtractor struct{}

func (p *CSVExtractor) Extract(r io.Reader, filename string) (*Extraction, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return &Extraction{Text: glossaryText(records)}, nil
}

var headerWords = map[string]bool{
	"term": true, "terms": true, "word": true, "concept": true, "keyword": true,
	"definition": true, "meaning": true, "description": true, "question": true, "answer": true,
}

// glossaryText renders rows as glossary lines, skipping a header row.
func glossaryText(rows [][]string) string {
	if len(rows) > 0 && isHeaderRow(rows[0]) {
		rows = rows[1:]
	}
	var lines []string
	for _, row := range rows {
		if line := glossaryLine(row); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func isHeaderRow(row []string) bool {
	for _, cell := range row {
		if headerWords[strings.ToLower(strings.TrimSpace(cell))] {
			return true
		}
	}
	return false
}

// glossaryLine renders one row: "Term: definition" for two or more
// non-empty cells, the lone cell otherwise.
func glossaryLine(cells []string) string {
	var parts []string
	for _, c := range cells {
		if c = strings.Join(strings.Fields(c), " "); c != "" {
			parts = append(parts, c)
		}
	}
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	default:
		return parts[0] + ": " + strings.Join(parts[1:], "; ")
	}
}
