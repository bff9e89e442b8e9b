package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/afumchris/edu-flashcard-app/internal/assembler"
	"github.com/afumchris/edu-flashcard-app/internal/deckstore"
	"github.com/afumchris/edu-flashcard-app/internal/doctree"
	"github.com/afumchris/edu-flashcard-app/internal/extract"
	"github.com/afumchris/edu-flashcard-app/internal/metrics"
	"github.com/afumchris/edu-flashcard-app/internal/normalize"
	"github.com/afumchris/edu-flashcard-app/internal/parser"
	"github.com/afumchris/edu-flashcard-app/internal/structure"
)

// Document is extracted text awaiting flashcards. Title may be empty.
type Document struct {
	Title string
	Text  string
}

// Upload is a raw file as received from a client.
type Upload struct {
	Filename string
	Data     []byte
}

// Metadata describes how an upload was processed.
type Metadata struct {
	FileName       string    `json:"fileName"`
	FileSize       int       `json:"fileSize"`
	FileType       string    `json:"fileType"`
	ContentHash    string    `json:"contentHash"`
	DocumentTitle  string    `json:"documentTitle"`
	PageCount      int       `json:"pageCount"`
	FlashcardCount int       `json:"flashcardCount"`
	ChapterCount   int       `json:"chapterCount"`
	TextLength     int       `json:"textLength"`
	ProcessedAt    time.Time `json:"processedAt"`
	UsedFallback   bool      `json:"usedFallback"`
	FallbackReason string    `json:"fallbackReason,omitempty"`
	Cached         bool      `json:"cached"`
}

// Output is the full response for one upload.
type Output struct {
	Metadata   Metadata              `json:"metadata"`
	Flashcards []doctree.Flashcard   `json:"flashcards"`
	Chapters   []doctree.ChapterMeta `json:"chapters"`
	Structure  structure.Summary     `json:"structure"`
}

// Cache stores outputs by content hash.
type Cache interface {
	Get(ctx context.Context, hash string) (*deckstore.Record, error)
	Put(ctx context.Context, rec deckstore.Record) error
}

// ProcessorConfig wires a Processor. Generator and Cache may be nil.
type ProcessorConfig struct {
	Generator extract.DeckGenerator
	Cache     Cache
	Metrics   *metrics.Metrics
	Structure structure.Options
	Assembler assembler.Options
	Parser    parser.Options
}

// Processor turns documents into flashcards: the language model first,
// the heuristic core whenever the model is absent or fails.
type Processor struct {
	gen        extract.DeckGenerator
	cache      Cache
	metrics    *metrics.Metrics
	normalizer *normalize.Normalizer
	detector   *structure.Detector
	assembler  *assembler.Assembler
	parserOpts parser.Options
	log        *slog.Logger
	now        func() time.Time
}

func NewProcessor(cfg ProcessorConfig, log *slog.Logger) *Processor {
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.New()
	}
	return &Processor{
		gen:        cfg.Generator,
		cache:      cfg.Cache,
		metrics:    cfg.Metrics,
		normalizer: normalize.New(),
		detector:   structure.New(cfg.Structure),
		assembler:  assembler.New(cfg.Assembler, nil, nil),
		parserOpts: cfg.Parser,
		log:        log.With("component", "processor"),
		now:        time.Now,
	}
}

// HasModel reports whether a language model is configured.
func (p *Processor) HasModel() bool { return p.gen != nil }

// Segment normalizes text and runs the structure fallback chain on it.
func (p *Processor) Segment(text string) structure.Segmentation {
	_, seg := p.segment(text)
	return seg
}

// segment normalizes raw and segments the result. Paragraph gaps are taken
// from raw before normalizing collapses them.
func (p *Processor) segment(raw string) (string, structure.Segmentation) {
	text, gaps := p.normalizer.NormalizeGaps(raw)
	return text, p.detector.SegmentGaps(text, gaps)
}

// ParserOptions returns the options uploads are extracted with.
func (p *Processor) ParserOptions() parser.Options { return p.parserOpts }

// Process generates flashcards for doc. It only fails when ctx is done;
// model failures fall back to the heuristic core.
func (p *Processor) Process(ctx context.Context, doc Document) (*doctree.DeckResult, error) {
	res, _, err := p.process(ctx, doc)
	return res, err
}

func (p *Processor) process(ctx context.Context, doc Document) (*doctree.DeckResult, structure.Segmentation, error) {
	text, seg := p.segment(doc.Text)
	title := doc.Title
	if title == "" {
		title = seg.Structure.Title
	}

	res := &doctree.DeckResult{Title: title, TextLength: len(text)}

	reason := "no language model configured"
	if p.gen != nil {
		start := time.Now()
		set, err := p.gen.GenerateDecks(ctx, title, text)
		p.metrics.ObserveStage("generate", time.Since(start).Seconds())
		switch {
		case err == nil:
			out := assembler.AssembleDecks(set.Decks)
			if len(out.Flashcards) > 0 {
				res.Flashcards, res.Chapters = out.Flashcards, out.Chapters
				p.metrics.Documents.WithLabelValues(metrics.PathModel).Inc()
				p.metrics.Flashcards.Add(float64(len(res.Flashcards)))
				return res, seg, nil
			}
			reason = "model returned no flashcards"
			p.metrics.ModelFailures.WithLabelValues("empty").Inc()
		case ctx.Err() != nil:
			return nil, seg, ctx.Err()
		default:
			label := failureLabel(err)
			p.metrics.ModelFailures.WithLabelValues(label).Inc()
			p.log.Warn("model generation failed, using heuristics", "reason", label, "error", err)
			reason = fmt.Sprintf("model failure (%s): %v", label, err)
		}
	}

	start := time.Now()
	out := p.assembler.Assemble(seg.Sections)
	p.metrics.ObserveStage("heuristic", time.Since(start).Seconds())
	res.Flashcards, res.Chapters = out.Flashcards, out.Chapters
	res.UsedFallback = true
	res.FallbackReason = reason
	p.metrics.Documents.WithLabelValues(metrics.PathFallback).Inc()
	p.metrics.Flashcards.Add(float64(len(res.Flashcards)))
	return res, seg, nil
}

// failureLabel buckets a model error for metrics.
func failureLabel(err error) string {
	var pe *extract.ParseError
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "breaker_open"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case IsRetryable(err):
		return "upstream"
	case errors.Is(err, extract.ErrEmptyResponse):
		return "empty"
	case errors.As(err, &pe), errors.Is(err, extract.ErrMalformedResponse):
		return "malformed"
	default:
		return "error"
	}
}

// ProcessFile extracts, generates and caches the flashcards for an
// upload. onStatus, if set, is told when extraction and generation start.
// Extraction failures are returned as *parser.ExtractionError.
func (p *Processor) ProcessFile(ctx context.Context, up Upload, onStatus func(JobStatus)) (*Output, error) {
	if onStatus == nil {
		onStatus = func(JobStatus) {}
	}
	hash := ContentHashHex(up.Data)
	log := p.log.With("file", up.Filename, "hash", hash[:12])

	if out := p.cached(ctx, hash, up.Filename, log); out != nil {
		return out, nil
	}

	onStatus(StatusExtracting)
	start := time.Now()
	ext, err := parser.Extract(bytes.NewReader(up.Data), up.Filename, p.parserOpts)
	p.metrics.ObserveStage("extract", time.Since(start).Seconds())
	if err != nil {
		format := parser.FormatOf(up.Filename)
		if format == "" {
			format = "unsupported"
		}
		p.metrics.ExtractionFailures.WithLabelValues(format).Inc()
		log.Warn("extraction failed", "error", err)
		return nil, err
	}

	onStatus(StatusGenerating)
	res, seg, err := p.process(ctx, Document{Title: ext.Title, Text: ext.Text})
	if err != nil {
		return nil, err
	}

	out := &Output{
		Metadata: Metadata{
			FileName:       up.Filename,
			FileSize:       len(up.Data),
			FileType:       ext.Format,
			ContentHash:    hash,
			DocumentTitle:  res.Title,
			PageCount:      ext.PageCount,
			FlashcardCount: len(res.Flashcards),
			ChapterCount:   len(res.Chapters),
			TextLength:     res.TextLength,
			ProcessedAt:    p.now().UTC(),
			UsedFallback:   res.UsedFallback,
			FallbackReason: res.FallbackReason,
		},
		Flashcards: res.Flashcards,
		Chapters:   res.Chapters,
		Structure:  structure.Summarize(seg.Structure),
	}
	log.Info("document processed",
		"cards", len(out.Flashcards),
		"chapters", len(out.Chapters),
		"fallback", res.UsedFallback,
	)
	p.store(ctx, out, log)
	return out, nil
}

func (p *Processor) cached(ctx context.Context, hash, filename string, log *slog.Logger) *Output {
	if p.cache == nil {
		return nil
	}
	rec, err := p.cache.Get(ctx, hash)
	if err != nil {
		if !errors.Is(err, deckstore.ErrNotFound) {
			log.Warn("cache lookup failed", "error", err)
		}
		return nil
	}
	var out Output
	if err := json.Unmarshal(rec.Payload, &out); err != nil {
		log.Warn("cached result unreadable", "error", err)
		return nil
	}
	out.Metadata.Cached = true
	out.Metadata.FileName = filename
	p.metrics.Documents.WithLabelValues(metrics.PathCached).Inc()
	log.Info("cache hit", "cards", len(out.Flashcards))
	return &out
}

func (p *Processor) store(ctx context.Context, out *Output, log *slog.Logger) {
	if p.cache == nil {
		return
	}
	payload, err := json.Marshal(out)
	if err != nil {
		log.Warn("encode result for cache", "error", err)
		return
	}
	err = p.cache.Put(ctx, deckstore.Record{
		Entry: deckstore.Entry{
			Hash:         out.Metadata.ContentHash,
			FileName:     out.Metadata.FileName,
			Title:        out.Metadata.DocumentTitle,
			Flashcards:   out.Metadata.FlashcardCount,
			Chapters:     out.Metadata.ChapterCount,
			UsedFallback: out.Metadata.UsedFallback,
			CreatedAt:    out.Metadata.ProcessedAt,
		},
		Payload: payload,
	})
	if err != nil {
		log.Warn("cache write failed", "error", err)
	}
}
