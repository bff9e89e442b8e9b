// Package structure finds chapter, module, unit, section and topic
// boundaries in normalized document text.
package structure

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/afumchris/edu-flashcard-app/internal/doctree"
)

// Mode selects the marker stage used by Segment.
type Mode string

const (
	ModeHierarchy Mode = "hierarchy"
	ModeChapters  Mode = "chapters"
)

// Options are the detector tunables. They are copied into the Detector at
// construction and never change afterwards.
type Options struct {
	Mode Mode
	// Elements fewer than this many characters after an already-kept
	// element are treated as duplicate markers.
	DedupWindow int
	// Flat chapter sections must hold more than this many characters.
	MinSectionChars int
	// Paragraph-gap and fixed-size pieces must hold more than this many.
	MinPieceChars  int
	FixedPieceSize int
	MaxFixedPieces int
}

// DefaultOptions returns the standard tunables.
func DefaultOptions() Options {
	return Options{
		Mode:            ModeHierarchy,
		DedupWindow:     100,
		MinSectionChars: 300,
		MinPieceChars:   500,
		FixedPieceSize:  3000,
		MaxFixedPieces:  5,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Mode == "" {
		o.Mode = d.Mode
	}
	if o.DedupWindow <= 0 {
		o.DedupWindow = d.DedupWindow
	}
	if o.MinSectionChars < 0 {
		o.MinSectionChars = d.MinSectionChars
	}
	if o.MinPieceChars <= 0 {
		o.MinPieceChars = d.MinPieceChars
	}
	if o.FixedPieceSize <= 0 {
		o.FixedPieceSize = d.FixedPieceSize
	}
	if o.MaxFixedPieces <= 0 {
		o.MaxFixedPieces = d.MaxFixedPieces
	}
	return o
}

// Detector holds the marker tables and options. It is immutable and safe
// for concurrent use.
type Detector struct {
	opts     Options
	markers  []Marker
	chapters []ChapterMarker
	skip     []skipPhrase
}

// New builds a Detector with the default marker tables.
func New(opts Options) *Detector {
	return NewWithTables(opts, DefaultMarkers(), DefaultChapterMarkers())
}

// NewWithTables builds a Detector over caller-supplied marker tables.
func NewWithTables(opts Options, markers []Marker, chapters []ChapterMarker) *Detector {
	return &Detector{
		opts:     opts.withDefaults(),
		markers:  append([]Marker(nil), markers...),
		chapters: append([]ChapterMarker(nil), chapters...),
		skip:     defaultSkipPhrases(),
	}
}

// Options returns the detector's effective options.
func (d *Detector) Options() Options { return d.opts }

// Detect builds the section hierarchy of text. It never fails: with no
// markers the result is one DOCUMENT node covering the whole text.
func (d *Detector) Detect(text string) doctree.DocumentStructure {
	return supervise(text, tier{StageMarkers, d.hierarchyNodes}).Structure
}

type ranked struct {
	doctree.StructuralElement
	row int
}

// Elements runs the marker table over text and returns the kept elements in
// position order, after duplicate-marker suppression.
func (d *Detector) Elements(text string) []doctree.StructuralElement {
	var found []ranked
	for row, m := range d.markers {
		for _, loc := range m.Pattern.FindAllStringSubmatchIndex(text, -1) {
			el := doctree.StructuralElement{
				Level:       m.Level,
				Label:       m.Label,
				Number:      group(text, loc, m.NumberGroup),
				Title:       cleanTitle(group(text, loc, m.TitleGroup)),
				Position:    loc[0],
				MatchedText: text[loc[0]:loc[1]],
			}
			found = append(found, ranked{el, row})
		}
	}
	sort.SliceStable(found, func(i, j int) bool {
		if found[i].Position != found[j].Position {
			return found[i].Position < found[j].Position
		}
		return found[i].row < found[j].row
	})

	var kept []doctree.StructuralElement
	for _, f := range found {
		if n := len(kept); n > 0 && within(text, kept[n-1].Position, f.Position, d.opts.DedupWindow) {
			continue
		}
		kept = append(kept, f.StructuralElement)
	}
	return kept
}

// within reports whether offset b lies fewer than window characters after
// offset a. Both offsets are rune boundaries with a <= b.
func within(text string, a, b, window int) bool {
	if b-a >= window*utf8.UTFMax {
		return false
	}
	return utf8.RuneCountInString(text[a:b]) < window
}

// buildHierarchy nests elements with a level stack. Each node's content runs
// from its own position to the next element's position.
func buildHierarchy(text string, elems []doctree.StructuralElement) []*doctree.SectionNode {
	var roots []*doctree.SectionNode
	var stack []*doctree.SectionNode

	for i, el := range elems {
		end := len(text)
		if i+1 < len(elems) {
			end = elems[i+1].Position
		}
		node := &doctree.SectionNode{
			ID:           fmt.Sprintf("%s_%d", strings.ToLower(el.Level.String()), i+1),
			Level:        el.Level,
			Number:       el.Number,
			Title:        el.Title,
			DisplayTitle: DisplayTitle(el),
			Content:      text[el.Position:end],
			StartPos:     el.Position,
			EndPos:       end,
		}

		for len(stack) > 0 && stack[len(stack)-1].Level >= node.Level {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			roots = append(roots, node)
		} else {
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, node)
		}
		stack = append(stack, node)
	}
	return roots
}

func wholeDocumentNode(text string) *doctree.SectionNode {
	return &doctree.SectionNode{
		ID:           "main",
		Level:        doctree.LevelDocument,
		Number:       "1",
		Title:        "Main Content",
		DisplayTitle: "Main Content",
		Content:      text,
		StartPos:     0,
		EndPos:       len(text),
	}
}

// Flatten walks the hierarchy depth-first and assigns dotted path numbers.
func Flatten(roots []*doctree.SectionNode) []doctree.FlatSection {
	var out []doctree.FlatSection
	var walk func(nodes []*doctree.SectionNode, prefix string)
	walk = func(nodes []*doctree.SectionNode, prefix string) {
		for i, n := range nodes {
			path := strconv.Itoa(i + 1)
			if prefix != "" {
				path = prefix + "." + path
			}
			out = append(out, doctree.FlatSection{
				ID:          n.ID,
				Path:        path,
				Level:       n.Level,
				Title:       n.DisplayTitle,
				Content:     n.Content,
				StartPos:    n.StartPos,
				EndPos:      n.EndPos,
				HasChildren: len(n.Children) > 0,
			})
			walk(n.Children, path)
		}
	}
	walk(roots, "")
	return out
}

// DisplayTitle renders an element as "Chapter 3: Cells", "Module 1", or the
// bare heading text.
func DisplayTitle(el doctree.StructuralElement) string {
	var head string
	switch {
	case el.Label != "" && el.Number != "":
		head = el.Label + " " + el.Number
	case el.Number != "":
		head = el.Number
	}
	switch {
	case head == "":
		if el.Title == "" {
			return el.Level.String()
		}
		return el.Title
	case el.Title == "" || strings.EqualFold(el.Title, head):
		return head
	case el.Label == "":
		return head + " " + el.Title
	default:
		return head + ": " + el.Title
	}
}

func group(text string, loc []int, g int) string {
	if g <= 0 || 2*g+1 >= len(loc) || loc[2*g] < 0 {
		return ""
	}
	return text[loc[2*g]:loc[2*g+1]]
}

func cleanTitle(s string) string {
	s = strings.Trim(s, " \t=#*_:")
	return strings.Join(strings.Fields(s), " ")
}
