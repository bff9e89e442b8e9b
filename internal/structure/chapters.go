package structure

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/afumchris/edu-flashcard-app/internal/chunker"
	"github.com/afumchris/edu-flashcard-app/internal/doctree"
)

type chapterHit struct {
	kind     string
	level    doctree.Level
	number   string
	title    string
	position int
	row      int
}

// DetectChapters is the flat detector: chapter markers, then paragraph gaps,
// then fixed-size pieces, then the whole document. It always returns at
// least one section.
func (d *Detector) DetectChapters(text string) []doctree.FlatSection {
	return d.segment(text, ModeChapters, chunker.GapSpans(text)).Sections
}

// ChapterSections is the marker stage of the flat detector. Hits at the same
// offset keep the earliest table row; skip-listed titles are dropped;
// sections of MinSectionChars or fewer are dropped; survivors closer than
// DedupWindow to a kept section are dropped.
func (d *Detector) ChapterSections(text string) []doctree.FlatSection {
	hits := d.chapterHits(text)
	if len(hits) == 0 {
		return nil
	}

	type cand struct {
		hit  chapterHit
		span chunker.Span
	}
	var cands []cand
	for i, h := range hits {
		end := len(text)
		if i+1 < len(hits) {
			end = hits[i+1].position
		}
		if d.skipped(h.title) {
			continue
		}
		span := chunker.Span{Start: h.position, End: end}
		if utf8.RuneCountInString(strings.TrimSpace(span.Text(text))) <= d.opts.MinSectionChars {
			continue
		}
		cands = append(cands, cand{h, span})
	}

	var out []doctree.FlatSection
	lastPos := -1
	for _, c := range cands {
		if lastPos >= 0 && within(text, lastPos, c.hit.position, d.opts.DedupWindow) {
			continue
		}
		lastPos = c.hit.position
		content := c.span.Text(text)
		title := c.hit.title
		if title == "" {
			title = headingLine(bodyAfterHeading(content))
		}
		title = chapterTitle(c.hit.kind, c.hit.number, title)
		n := len(out) + 1
		out = append(out, doctree.FlatSection{
			ID:       fmt.Sprintf("chapter_%d", n),
			Path:     strconv.Itoa(n),
			Level:    c.hit.level,
			Title:    title,
			Content:  content,
			StartPos: c.span.Start,
			EndPos:   c.span.End,
		})
	}
	return out
}

func (d *Detector) chapterHits(text string) []chapterHit {
	var hits []chapterHit
	for row, m := range d.chapters {
		for _, loc := range m.Pattern.FindAllStringSubmatchIndex(text, -1) {
			h := chapterHit{
				kind:     m.Kind,
				level:    m.Level,
				number:   group(text, loc, m.NumberGroup),
				title:    cleanTitle(group(text, loc, m.TitleGroup)),
				position: lineStart(text, loc[0]),
				row:      row,
			}
			if m.KindGroup > 0 {
				k, ok := chapterKinds[strings.ToLower(group(text, loc, m.KindGroup))]
				if !ok {
					continue
				}
				h.kind, h.level = k.kind, k.level
			}
			if h.number == "" && utf8.RuneCountInString(h.title) < 3 {
				continue
			}
			hits = append(hits, h)
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].position != hits[j].position {
			return hits[i].position < hits[j].position
		}
		return hits[i].row < hits[j].row
	})

	out := hits[:0]
	for _, h := range hits {
		if n := len(out); n > 0 && out[n-1].position == h.position {
			continue
		}
		out = append(out, h)
	}
	return out
}

// ParagraphSections splits at gaps of three or more newlines. It only
// applies when more than one substantial piece results.
func (d *Detector) ParagraphSections(text string) []doctree.FlatSection {
	return d.GapSections(text, chunker.GapSpans(text))
}

// GapSections is the paragraph-gap stage over pieces found beforehand.
func (d *Detector) GapSections(text string, pieces []chunker.Span) []doctree.FlatSection {
	spans := d.substantial(text, pieces)
	if len(spans) <= 1 {
		return nil
	}
	return piecesToSections(text, spans, "Section")
}

// FixedSections cuts text into at most MaxFixedPieces pieces and keeps the
// substantial ones.
func (d *Detector) FixedSections(text string) []doctree.FlatSection {
	spans := d.substantial(text, chunker.FixedSpans(text, d.opts.FixedPieceSize, d.opts.MaxFixedPieces))
	if len(spans) == 0 {
		return nil
	}
	return piecesToSections(text, spans, "Part")
}

// WholeDocument is the last-resort single section covering all of text.
func WholeDocument(text string) []doctree.FlatSection {
	return Flatten([]*doctree.SectionNode{wholeDocumentNode(text)})
}

func (d *Detector) substantial(text string, spans []chunker.Span) []chunker.Span {
	var out []chunker.Span
	for _, s := range spans {
		if utf8.RuneCountInString(s.Text(text)) > d.opts.MinPieceChars {
			out = append(out, s)
		}
	}
	return out
}

func piecesToSections(text string, spans []chunker.Span, kind string) []doctree.FlatSection {
	out := make([]doctree.FlatSection, 0, len(spans))
	for i, s := range spans {
		content := s.Text(text)
		n := i + 1
		out = append(out, doctree.FlatSection{
			ID:       fmt.Sprintf("%s_%d", strings.ToLower(kind), n),
			Path:     strconv.Itoa(n),
			Level:    doctree.LevelSection,
			Title:    fmt.Sprintf("%s %d: %s", kind, n, sectionTitle(content)),
			Content:  content,
			StartPos: s.Start,
			EndPos:   s.End,
		})
	}
	return out
}

func chapterTitle(kind, number, title string) string {
	switch {
	case kind != "" && number != "" && title != "":
		return fmt.Sprintf("%s %s: %s", kind, number, title)
	case kind != "" && number != "":
		return kind + " " + number
	default:
		return title
	}
}

// bodyAfterHeading drops the heading line (and an underline) from content.
func bodyAfterHeading(content string) string {
	lines := strings.SplitN(content, "\n", 3)
	if len(lines) < 2 {
		return ""
	}
	rest := strings.Join(lines[1:], "\n")
	trimmed := strings.TrimLeft(rest, " \t")
	if strings.HasPrefix(trimmed, "===") || strings.HasPrefix(trimmed, "---") {
		if i := strings.IndexByte(rest, '\n'); i >= 0 {
			rest = rest[i+1:]
		} else {
			rest = ""
		}
	}
	return strings.TrimSpace(rest)
}

// headingLine returns the first line of s when it reads like a heading.
func headingLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)
	if n := utf8.RuneCountInString(s); n < 3 || n > 80 || strings.HasSuffix(s, ".") {
		return ""
	}
	return s
}

func lineStart(text string, pos int) int {
	for pos > 0 && text[pos-1] != '\n' {
		pos--
	}
	return pos
}
