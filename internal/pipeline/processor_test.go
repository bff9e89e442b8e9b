package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/afumchris/edu-flashcard-app/internal/assembler"
	"github.com/afumchris/edu-flashcard-app/internal/deckstore"
	"github.com/afumchris/edu-flashcard-app/internal/doctree"
	"github.com/afumchris/edu-flashcard-app/internal/extract"
	"github.com/afumchris/edu-flashcard-app/internal/metrics"
	"github.com/afumchris/edu-flashcard-app/internal/parser"
	"github.com/afumchris/edu-flashcard-app/internal/structure"
)

const biology = "Photosynthesis is the process by which plants convert light into energy. " +
	"Respiration is the process of releasing energy from food."

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeGenerator struct {
	mu     sync.Mutex
	set    *extract.DeckSet
	err    error
	calls  int
	titles []string
}

func (f *fakeGenerator) GenerateDecks(ctx context.Context, title, text string) (*extract.DeckSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.titles = append(f.titles, title)
	if f.err != nil {
		return nil, f.err
	}
	return f.set, nil
}

func newTestProcessor(t *testing.T, gen extract.DeckGenerator, cache Cache) (*Processor, *metrics.Metrics) {
	t.Helper()
	m := metrics.New()
	cfg := ProcessorConfig{
		Cache:     cache,
		Metrics:   m,
		Structure: structure.DefaultOptions(),
		Assembler: assembler.DefaultOptions(),
	}
	if gen != nil {
		cfg.Generator = gen
	}
	return NewProcessor(cfg, discardLogger()), m
}

func TestProcess_NoModelUsesHeuristics(t *testing.T) {
	p, m := newTestProcessor(t, nil, nil)
	res, err := p.Process(context.Background(), Document{Title: "Biology", Text: biology})
	if err != nil {
		t.Fatal(err)
	}
	if !res.UsedFallback || res.FallbackReason != "no language model configured" {
		t.Errorf("fallback = %v, %q", res.UsedFallback, res.FallbackReason)
	}
	if res.Title != "Biology" {
		t.Errorf("title = %q", res.Title)
	}
	if len(res.Flashcards) != 2 || res.Flashcards[0].Question != "What is Photosynthesis?" {
		t.Errorf("flashcards = %+v", res.Flashcards)
	}
	if err := assembler.CheckRanges(res.Chapters, len(res.Flashcards)); err != nil {
		t.Error(err)
	}
	if got := testutil.ToFloat64(m.Documents.WithLabelValues(metrics.PathFallback)); got != 1 {
		t.Errorf("fallback documents = %v", got)
	}
}

func TestProcess_ModelDecks(t *testing.T) {
	gen := &fakeGenerator{set: &extract.DeckSet{Decks: []doctree.Deck{
		{Title: "Chapter 1: Cells", Cards: []doctree.Flashcard{{Question: "What is a cell?", Answer: "The unit of life."}}},
		{Title: "Chapter 2: Energy"},
		{Title: "Chapter 3: Genes", Cards: []doctree.Flashcard{{Question: "What is DNA?", Answer: "Genetic material."}}},
	}}}
	p, m := newTestProcessor(t, gen, nil)

	res, err := p.Process(context.Background(), Document{Text: "COURSE: Biology 101\n\n" + biology})
	if err != nil {
		t.Fatal(err)
	}
	if res.UsedFallback {
		t.Errorf("unexpected fallback: %s", res.FallbackReason)
	}
	if gen.titles[0] != "Biology 101" {
		t.Errorf("generator saw title %q", gen.titles[0])
	}
	want := []doctree.ChapterMeta{
		{ID: 1, Title: "Chapter 1: Cells", Cards: 1, StartIndex: 0, EndIndex: 0},
		{ID: 2, Title: "Chapter 2: Energy", Cards: 0, StartIndex: 1, EndIndex: 0},
		{ID: 3, Title: "Chapter 3: Genes", Cards: 1, StartIndex: 1, EndIndex: 1},
	}
	for i, w := range want {
		if res.Chapters[i] != w {
			t.Errorf("chapter %d = %+v, want %+v", i, res.Chapters[i], w)
		}
	}
	if got := testutil.ToFloat64(m.Flashcards); got != 2 {
		t.Errorf("cards metric = %v", got)
	}
}

func TestProcess_ModelFailureFallsBack(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		label string
	}{
		{"upstream", &extract.RetryableError{StatusCode: 529, Message: "overloaded"}, "upstream"},
		{"malformed", &extract.ParseError{Reason: "no json", Err: extract.ErrMalformedResponse}, "malformed"},
		{"empty", extract.ErrEmptyResponse, "empty"},
		{"other", errors.New("boom"), "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, m := newTestProcessor(t, &fakeGenerator{err: tt.err}, nil)
			res, err := p.Process(context.Background(), Document{Text: biology})
			if err != nil {
				t.Fatal(err)
			}
			if !res.UsedFallback || !strings.Contains(res.FallbackReason, tt.label) {
				t.Errorf("fallback = %v, %q", res.UsedFallback, res.FallbackReason)
			}
			if len(res.Flashcards) != 2 {
				t.Errorf("flashcards = %d", len(res.Flashcards))
			}
			if got := testutil.ToFloat64(m.ModelFailures.WithLabelValues(tt.label)); got != 1 {
				t.Errorf("model failures{%s} = %v", tt.label, got)
			}
		})
	}
}

func TestProcess_EmptyDecksFallBack(t *testing.T) {
	gen := &fakeGenerator{set: &extract.DeckSet{Decks: []doctree.Deck{{Title: "Only"}}}}
	p, _ := newTestProcessor(t, gen, nil)
	res, err := p.Process(context.Background(), Document{Text: biology})
	if err != nil {
		t.Fatal(err)
	}
	if !res.UsedFallback || res.FallbackReason != "model returned no flashcards" {
		t.Errorf("fallback = %v, %q", res.UsedFallback, res.FallbackReason)
	}
}

func TestProcess_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p, _ := newTestProcessor(t, &fakeGenerator{err: context.Canceled}, nil)
	if _, err := p.Process(ctx, Document{Text: biology}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestProcessFile_CachesByContent(t *testing.T) {
	store, err := deckstore.Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	p, m := newTestProcessor(t, nil, store)
	ctx := context.Background()

	var statuses []JobStatus
	first, err := p.ProcessFile(ctx, Upload{Filename: "bio.txt", Data: []byte(biology)}, func(s JobStatus) {
		statuses = append(statuses, s)
	})
	if err != nil {
		t.Fatal(err)
	}
	if first.Metadata.Cached {
		t.Error("first upload should not be cached")
	}
	if len(statuses) != 2 || statuses[0] != StatusExtracting || statuses[1] != StatusGenerating {
		t.Errorf("statuses = %v", statuses)
	}
	md := first.Metadata
	if md.FileType != "text" || md.PageCount != 1 || md.FileSize != len(biology) || md.FlashcardCount != 2 {
		t.Errorf("metadata = %+v", md)
	}
	if md.ContentHash != ContentHashHex([]byte(biology)) {
		t.Errorf("content hash = %q", md.ContentHash)
	}
	if first.Structure.TotalSections != 1 {
		t.Errorf("structure = %+v", first.Structure)
	}

	second, err := p.ProcessFile(ctx, Upload{Filename: "copy.txt", Data: []byte(biology)}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !second.Metadata.Cached || second.Metadata.FileName != "copy.txt" {
		t.Errorf("second metadata = %+v", second.Metadata)
	}
	if len(second.Flashcards) != 2 || second.Flashcards[1] != first.Flashcards[1] {
		t.Errorf("cached flashcards = %+v", second.Flashcards)
	}
	if got := testutil.ToFloat64(m.Documents.WithLabelValues(metrics.PathCached)); got != 1 {
		t.Errorf("cached documents = %v", got)
	}

	entries, err := store.List(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Flashcards != 2 || !entries[0].UsedFallback {
		t.Errorf("cache entries = %+v", entries)
	}
}

func TestProcessFile_ExtractionFailure(t *testing.T) {
	p, m := newTestProcessor(t, nil, nil)
	_, err := p.ProcessFile(context.Background(), Upload{Filename: "slides.pptx", Data: []byte("x")}, nil)
	var ee *parser.ExtractionError
	if !errors.As(err, &ee) || !errors.Is(err, parser.ErrUnsupportedFormat) {
		t.Fatalf("expected unsupported-format ExtractionError, got %v", err)
	}

	_, err = p.ProcessFile(context.Background(), Upload{Filename: "blank.txt", Data: []byte("   \n")}, nil)
	if !errors.Is(err, parser.ErrEmptyDocument) {
		t.Fatalf("expected ErrEmptyDocument, got %v", err)
	}
	if got := testutil.ToFloat64(m.ExtractionFailures.WithLabelValues("unsupported")); got != 1 {
		t.Errorf("unsupported extraction failures = %v", got)
	}
	if got := testutil.ToFloat64(m.ExtractionFailures.WithLabelValues("text")); got != 1 {
		t.Errorf("text extraction failures = %v", got)
	}
}

func TestFailureLabel(t *testing.T) {
	tests := map[string]error{
		"timeout":   context.DeadlineExceeded,
		"upstream":  &extract.RetryableError{StatusCode: 429},
		"malformed": extract.ErrMalformedResponse,
		"error":     errors.New("x"),
	}
	for want, err := range tests {
		if got := failureLabel(err); got != want {
			t.Errorf("failureLabel(%v) = %q, want %q", err, got, want)
		}
	}
}

func TestSegment_NormalizesFirst(t *testing.T) {
	p, _ := newTestProcessor(t, nil, nil)
	seg := p.Segment("Page 1 of 3\r\n" + biology)
	if len(seg.Sections) != 1 || strings.Contains(seg.Sections[0].Content, "\r") {
		t.Errorf("sections = %+v", seg.Sections)
	}
	if seg.Stage != structure.StageDocument {
		t.Errorf("stage = %q", seg.Stage)
	}
}

func TestProcess_ParagraphGapsSurviveNormalizing(t *testing.T) {
	plants := biology + " " + strings.Repeat("Plant cells store the captured energy as sugars for later growth and repair. ", 7)
	division := "Mitosis is the process by which one cell divides into two identical daughter cells. " +
		strings.Repeat("Dividing cells copy their chromosomes before they split apart into new cells. ", 7)
	text := plants + "\n\n\n\n" + division

	p, _ := newTestProcessor(t, nil, nil)
	seg := p.Segment(text)
	if seg.Stage != structure.StageParagraphs || len(seg.Sections) != 2 {
		t.Fatalf("stage = %s with %d sections, want paragraphs with 2", seg.Stage, len(seg.Sections))
	}

	res, err := p.Process(context.Background(), Document{Text: text})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Chapters) != 2 {
		t.Fatalf("chapters = %+v, want one per paragraph block", res.Chapters)
	}
	first, ok := assembler.FindChapter(res.Chapters, 0)
	if !ok || res.Flashcards[0].Question != "What is Photosynthesis?" || first.ID != 1 {
		t.Errorf("first card %+v in chapter %+v", res.Flashcards[0], first)
	}
	var mitosis bool
	for k, c := range res.Flashcards {
		if c.Question == "What is Mitosis?" {
			ch, _ := assembler.FindChapter(res.Chapters, k)
			mitosis = ch.ID == 2
		}
	}
	if !mitosis {
		t.Errorf("expected the Mitosis card in the second chapter: %+v", res.Flashcards)
	}
	if err := assembler.CheckRanges(res.Chapters, len(res.Flashcards)); err != nil {
		t.Error(err)
	}
}
