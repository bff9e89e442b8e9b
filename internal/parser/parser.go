// Package parser turns uploaded documents into plain text for flashcard
// generation. Headings are rendered as Markdown "#" lines so structure
// detection sees them regardless of the source format.
package parser

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf8"
)

var (
	// ErrUnsupportedFormat is returned for file extensions with no extractor.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrEmptyDocument is returned when a document yields no text.
	ErrEmptyDocument = errors.New("document contains no extractable text")
)

// CharsPerPage is the page size used to estimate page counts for formats
// without real pages.
const CharsPerPage = 3000

// Extraction is the text of one document. PageCount is real for PDF and
// estimated from length otherwise. Title is set only when the format
// carries one (HTML <title>, DOCX Title style, first Markdown h1).
type Extraction struct {
	Text      string
	PageCount int
	Title     string
	Format    string
}

// Extractor converts raw document bytes into text.
type Extractor interface {
	Extract(r io.Reader, filename string) (*Extraction, error)
}

// ExtractionError marks a document that could not be read. It is fatal for
// that document.
type ExtractionError struct {
	Filename string
	Format   string
	Err      error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s (%s): %v", e.Filename, e.Format, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Options tune individual extractors.
type Options struct {
	// PdftotextFallback shells out to poppler's pdftotext when the Go PDF
	// readers find no text.
	PdftotextFallback bool
}

var extensions = map[string]string{
	".txt":      "text",
	".text":     "text",
	".md":       "markdown",
	".markdown": "markdown",
	".csv":      "csv",
	".xlsx":     "xlsx",
	".html":     "html",
	".htm":      "html",
	".pdf":      "pdf",
	".docx":     "docx",
}

// ForFile returns the appropriate extractor for a filename.
func ForFile(filename string, opts Options) (Extractor, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch extensions[ext] {
	case "text":
		return &TextExtractor{}, nil
	case "markdown":
		return &MarkdownExtractor{}, nil
	case "csv":
		return &CSVExtractor{}, nil
	case "xlsx":
		return &XLSXExtractor{}, nil
	case "html":
		return &HTMLExtractor{}, nil
	case "pdf":
		return &PDFExtractor{FallbackPdftotext: opts.PdftotextFallback}, nil
	case "docx":
		return &DOCXExtractor{}, nil
	default:
		return nil, &ExtractionError{Filename: filename, Format: ext, Err: ErrUnsupportedFormat}
	}
}

// Extract picks an extractor for filename, runs it and checks the result.
// Every failure comes back as an *ExtractionError.
func Extract(r io.Reader, filename string, opts Options) (*Extraction, error) {
	ex, err := ForFile(filename, opts)
	if err != nil {
		return nil, err
	}
	format := FormatOf(filename)
	out, err := ex.Extract(r, filename)
	if err != nil {
		var ee *ExtractionError
		if errors.As(err, &ee) {
			return nil, err
		}
		return nil, &ExtractionError{Filename: filename, Format: format, Err: err}
	}
	out.Text = strings.TrimSpace(strings.ToValidUTF8(out.Text, "�"))
	if out.Text == "" {
		return nil, &ExtractionError{Filename: filename, Format: format, Err: ErrEmptyDocument}
	}
	out.Format = format
	if out.PageCount <= 0 {
		out.PageCount = EstimatePages(out.Text)
	}
	return out, nil
}

// EstimatePages is ceil(chars / CharsPerPage), at least 1 for non-empty text.
func EstimatePages(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	return (n + CharsPerPage - 1) / CharsPerPage
}

// FormatOf names the format for a filename, or "" when unsupported.
func FormatOf(filename string) string {
	return extensions[strings.ToLower(filepath.Ext(filename))]
}

// SupportedExtensions lists the handled extensions in sorted order.
func SupportedExtensions() []string {
	out := make([]string, 0, len(extensions))
	for ext := range extensions {
		out = append(out, ext)
	}
	slices.Sort(out)
	return out
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	return FormatOf(filename) != ""
}

// heading renders a heading line at the given depth (1-4).
func heading(level int, text string) string {
	level = max(1, min(level, 4))
	return strings.Repeat("#", level) + " " + text
}
