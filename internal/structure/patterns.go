package structure

import (
	"regexp"

	"github.com/afumchris/edu-flashcard-app/internal/doctree"
)

// Marker is one row of the hierarchical marker table. Rows are scanned in
// table order; when two rows match at the same offset the earlier row wins.
type Marker struct {
	Level       doctree.Level
	Label       string // display word, e.g. "Chapter"; empty for bare headings
	Pattern     *regexp.Regexp
	NumberGroup int // 0 when the pattern has no number
	TitleGroup  int
}

const sep = `[ \t:.\-–—]*`

func mk(level doctree.Level, label, pattern string, num, title int) Marker {
	return Marker{Level: level, Label: label, Pattern: regexp.MustCompile(pattern), NumberGroup: num, TitleGroup: title}
}

// DefaultMarkers returns the hierarchical marker table, coarsest level first.
func DefaultMarkers() []Marker {
	const (
		roman = `(\d+|[IVXLCDM]+)\b`
		dec   = `(\d+(?:\.\d+)*)\b`
	)
	return []Marker{
		// MODULE
		mk(doctree.LevelModule, "Module", `(?im)^={3,}[ \t]*MODULE[ \t]+`+roman+sep+`([^\n=]*?)[ \t]*={3,}[ \t]*$`, 1, 2),
		mk(doctree.LevelModule, "Module", `(?im)^={3,}[ \t]*\n[ \t]*MODULE[ \t]+`+roman+sep+`([^\n]*)\n[ \t]*={3,}`, 1, 2),
		mk(doctree.LevelModule, "Module", `(?im)^MODULE[ \t]+`+roman+sep+`([^\n]*)`, 1, 2),
		mk(doctree.LevelModule, "Part", `(?im)^PART[ \t]+`+roman+sep+`([^\n]*)\n[ \t]*={3,}`, 1, 2),
		mk(doctree.LevelModule, "Module", `(?im)^#[ \t]+MODULE[ \t]+`+roman+sep+`([^\n]*)`, 1, 2),
		mk(doctree.LevelModule, "Part", `(?im)^#[ \t]+PART[ \t]+`+roman+sep+`([^\n]*)`, 1, 2),
		mk(doctree.LevelModule, "", `(?m)^#[ \t]+([^\n#][^\n]{1,79}?)[ \t#]*$`, 0, 1),

		// UNIT
		mk(doctree.LevelUnit, "Unit", `(?im)^UNIT[ \t]+`+dec+sep+`([^\n]*)`, 1, 2),
		mk(doctree.LevelUnit, "Chapter", `(?im)^CHAPTER[ \t]+`+roman+sep+`([^\n]*)`, 1, 2),
		mk(doctree.LevelUnit, "Unit", `(?im)^##[ \t]+UNIT[ \t]+`+dec+sep+`([^\n]*)`, 1, 2),
		mk(doctree.LevelUnit, "Chapter", `(?im)^##[ \t]+CHAPTER[ \t]+`+roman+sep+`([^\n]*)`, 1, 2),
		mk(doctree.LevelUnit, "", `(?m)^(\d+\.\d+)[ \t:.\-–—]+([A-Z][^\n]{10,80})`, 1, 2),
		mk(doctree.LevelUnit, "", `(?m)^##[ \t]+([^\n#][^\n]{1,79}?)[ \t#]*$`, 0, 1),

		// SECTION
		mk(doctree.LevelSection, "Section", `(?im)^SECTION[ \t]+`+dec+sep+`([^\n]*)`, 1, 2),
		mk(doctree.LevelSection, "", `(?m)^###[ \t]+([^\n#][^\n]{1,79}?)[ \t#]*$`, 0, 1),
		mk(doctree.LevelSection, "", `(?m)^([A-Z][A-Z0-9 \t,&'/-]{9,79})\n[ \t]*-{3,}[ \t]*$`, 0, 1),
		mk(doctree.LevelSection, "", `(?m)^(\d+\.\d+\.\d+)[ \t:.\-–—]+([A-Z][^\n]{10,80})`, 1, 2),

		// TOPIC
		mk(doctree.LevelTopic, "Topic", `(?im)^TOPIC[ \t]+`+dec+sep+`([^\n]*)`, 1, 2),
		mk(doctree.LevelTopic, "", `(?m)^#{4,6}[ \t]+([^\n#][^\n]{1,79}?)[ \t#]*$`, 0, 1),
	}
}

// ChapterMarker is one row of the flat chapter table. KindGroup, when set,
// captures the marker word; otherwise Kind names the section type.
type ChapterMarker struct {
	Kind        string
	Level       doctree.Level
	Pattern     *regexp.Regexp
	KindGroup   int
	NumberGroup int
	TitleGroup  int
}

// chapterKinds maps marker words to a display kind and level.
var chapterKinds = map[string]struct {
	kind  string
	level doctree.Level
}{
	"chapter":    {"Chapter", doctree.LevelUnit},
	"ch.":        {"Chapter", doctree.LevelUnit},
	"unit":       {"Unit", doctree.LevelUnit},
	"section":    {"Section", doctree.LevelSection},
	"sec.":       {"Section", doctree.LevelSection},
	"part":       {"Part", doctree.LevelModule},
	"module":     {"Module", doctree.LevelModule},
	"lesson":     {"Lesson", doctree.LevelUnit},
	"week":       {"Week", doctree.LevelUnit},
	"day":        {"Day", doctree.LevelUnit},
	"topic":      {"Topic", doctree.LevelTopic},
	"exercise":   {"Exercise", doctree.LevelSection},
	"assignment": {"Assignment", doctree.LevelSection},
	"lecture":    {"Lecture", doctree.LevelUnit},
	"session":    {"Session", doctree.LevelUnit},
}

// DefaultChapterMarkers returns the flat chapter table.
func DefaultChapterMarkers() []ChapterMarker {
	cm := func(kind string, level doctree.Level, pattern string, kindGroup, num, title int) ChapterMarker {
		return ChapterMarker{Kind: kind, Level: level, Pattern: regexp.MustCompile(pattern), KindGroup: kindGroup, NumberGroup: num, TitleGroup: title}
	}
	return []ChapterMarker{
		cm("", 0, `(?im)^[ \t]*(?:#{1,6}[ \t]+)?(chapter|ch\.|unit|section|sec\.|part|module|lesson|week|day|topic|exercise|assignment|lecture|session)[ \t]+(\d+(?:\.\d+)*|[IVXLCDM]+)\b`+sep+`([^\n]*)`, 1, 2, 3),
		cm("Section", doctree.LevelSection, `(?m)^[ \t]*(\d{1,2})\.[ \t]+([A-Z][^\n.!?]{2,80})\n[ \t]*\n`, 0, 1, 2),
		cm("Part", doctree.LevelModule, `(?m)^[ \t]*([IVXLCDM]{1,6})\.[ \t]+([A-Z][^\n.!?]{2,80})\n[ \t]*\n`, 0, 1, 2),
		cm("", doctree.LevelSection, `(?m)^([^\n=\-][^\n]{2,79})\n[ \t]*(?:={3,}|-{3,})[ \t]*$`, 0, 0, 1),
		cm("", doctree.LevelModule, `(?m)^#[ \t]+([^\n#][^\n]{1,79}?)[ \t#]*$`, 0, 0, 1),
		cm("", doctree.LevelUnit, `(?m)^##[ \t]+([^\n#][^\n]{1,79}?)[ \t#]*$`, 0, 0, 1),
		cm("", doctree.LevelSection, `(?m)^###[ \t]+([^\n#][^\n]{1,79}?)[ \t#]*$`, 0, 0, 1),
		cm("", doctree.LevelSection, `(?m)^([A-Z][A-Z0-9 \t,&:'/-]{9,79})[ \t]*$`, 0, 0, 1),
	}
}
