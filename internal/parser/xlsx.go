package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// XLSXExtractor reads glossary workbooks. Each non-empty sheet becomes a
// "#" heading followed by one glossary line per row.
type XLSXExtractor struct{}

func (p *XLSXExtractor) Extract(r io.Reader, filename string) (*Extraction, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	var blocks []string
	for _, sheet := range sheets {
		rows, err := f.GetRows(sheet)
		if err != nil || len(rows) == 0 {
			continue
		}
		body := glossaryText(rows)
		if body == "" {
			continue
		}
		var b bytes.Buffer
		if len(sheets) > 1 {
			b.WriteString(heading(1, sheet))
			b.WriteString("\n\n")
		}
		b.WriteString(body)
		blocks = append(blocks, b.String())
	}

	return &Extraction{Text: strings.Join(blocks, "\n\n")}, nil
}
