package structure

import (
	"github.com/afumchris/edu-flashcard-app/internal/chunker"
	"github.com/afumchris/edu-flashcard-app/internal/doctree"
)

// Stage names the fallback stage that produced a segmentation.
type Stage string

const (
	StageMarkers    Stage = "markers"
	StageParagraphs Stage = "paragraphs"
	StageFixed      Stage = "fixed"
	StageDocument   Stage = "document"
)

// Segmentation is the section list handed to flashcard assembly, with the
// structure it came from.
type Segmentation struct {
	Structure doctree.DocumentStructure
	Sections  []doctree.FlatSection
	Stage     Stage
}

// tier is one stage of a fallback chain. run returns nil when the stage
// does not apply to the text.
type tier struct {
	stage Stage
	run   func(text string) []*doctree.SectionNode
}

// supervise tries each tier in order and falls back to a single
// whole-document node when none applies.
func supervise(text string, tiers ...tier) Segmentation {
	var hier []*doctree.SectionNode
	stage := StageDocument
	for _, t := range tiers {
		if nodes := t.run(text); len(nodes) > 0 {
			stage, hier = t.stage, nodes
			break
		}
	}
	if hier == nil {
		hier = nodesOf(WholeDocument)(text)
	}
	flat := Flatten(hier)
	return Segmentation{
		Structure: doctree.DocumentStructure{Title: ExtractTitle(text), Hierarchy: hier, FlatList: flat},
		Sections:  flat,
		Stage:     stage,
	}
}

// Segment tries marker detection, paragraph gaps, fixed-size pieces and the
// whole document, in that order, and returns the first stage that yields
// sections. The marker stage is hierarchical or flat depending on Mode.
// Paragraph gaps are runs of three or more newlines in text.
func (d *Detector) Segment(text string) Segmentation {
	return d.segment(text, d.opts.Mode, chunker.GapSpans(text))
}

// SegmentGaps is Segment for text whose paragraph gaps were collapsed
// before detection; gaps are the byte offsets where each such paragraph
// begins, as reported by the normalizer.
func (d *Detector) SegmentGaps(text string, gaps []int) Segmentation {
	return d.segment(text, d.opts.Mode, chunker.SplitAt(text, gaps))
}

func (d *Detector) segment(text string, mode Mode, gaps []chunker.Span) Segmentation {
	markers := tier{StageMarkers, d.hierarchyNodes}
	if mode == ModeChapters {
		markers = tier{StageMarkers, nodesOf(d.ChapterSections)}
	}
	return supervise(text,
		markers,
		tier{StageParagraphs, nodesOf(func(text string) []doctree.FlatSection { return d.GapSections(text, gaps) })},
		tier{StageFixed, nodesOf(d.FixedSections)},
	)
}

func (d *Detector) hierarchyNodes(text string) []*doctree.SectionNode {
	elems := d.Elements(text)
	if len(elems) == 0 {
		return nil
	}
	return buildHierarchy(text, elems)
}

// nodesOf adapts a flat stage to a tier: each section becomes a root node.
func nodesOf(stage func(string) []doctree.FlatSection) func(string) []*doctree.SectionNode {
	return func(text string) []*doctree.SectionNode {
		secs := stage(text)
		if len(secs) == 0 {
			return nil
		}
		nodes := make([]*doctree.SectionNode, len(secs))
		for i, s := range secs {
			nodes[i] = &doctree.SectionNode{
				ID:           s.ID,
				Level:        s.Level,
				Number:       s.Path,
				Title:        s.Title,
				DisplayTitle: s.Title,
				Content:      s.Content,
				StartPos:     s.StartPos,
				EndPos:       s.EndPos,
			}
		}
		return nodes
	}
}

// Summary describes a detected structure for display.
type Summary struct {
	DocumentTitle  string         `json:"documentTitle"`
	TotalSections  int            `json:"totalSections"`
	HierarchyDepth int            `json:"hierarchyDepth"`
	Breakdown      map[string]int `json:"breakdown"`
}

// Summarize counts sections per level and measures nesting depth.
func Summarize(ds doctree.DocumentStructure) Summary {
	s := Summary{
		DocumentTitle: ds.Title,
		TotalSections: len(ds.FlatList),
		Breakdown:     make(map[string]int),
	}
	for _, f := range ds.FlatList {
		s.Breakdown[f.Level.String()]++
	}
	s.HierarchyDepth = depth(ds.Hierarchy)
	return s
}

func depth(nodes []*doctree.SectionNode) int {
	deepest := 0
	for _, n := range nodes {
		d := 1
		if !n.IsLeaf() {
			d += depth(n.Children)
		}
		if d > deepest {
			deepest = d
		}
	}
	return deepest
}
