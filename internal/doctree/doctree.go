package doctree

import "strings"

// Level is a rung of the document hierarchy. Lower values are coarser.
type Level int

const (
	LevelDocument Level = iota
	LevelModule
	LevelUnit
	LevelSection
	LevelTopic
)

var levelNames = [...]string{"DOCUMENT", "MODULE", "UNIT", "SECTION", "TOPIC"}

func (l Level) String() string {
	if l < 0 || int(l) >= len(levelNames) {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// ParseLevel maps a level name (any case) back to a Level.
func ParseLevel(s string) (Level, bool) {
	for i, name := range levelNames {
		if strings.EqualFold(s, name) {
			return Level(i), true
		}
	}
	return 0, false
}

// MarshalText renders levels by name in JSON output.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// StructuralElement is one detected boundary marker.
type StructuralElement struct {
	Level       Level
	Label       string // marker word as written in the family table ("Chapter", "Module"); empty for bare headings
	Number      string
	Title       string
	Position    int // byte offset into the normalized text
	MatchedText string
}

// SectionNode is a node in the detected hierarchy. Content is text[StartPos:EndPos].
type SectionNode struct {
	ID           string         `json:"id"`
	Level        Level          `json:"level"`
	Number       string         `json:"number,omitempty"`
	Title        string         `json:"title"`
	DisplayTitle string         `json:"displayTitle"`
	Content      string         `json:"-"`
	Children     []*SectionNode `json:"children,omitempty"`
	StartPos     int            `json:"startPos"`
	EndPos       int            `json:"endPos"`
}

// IsLeaf reports whether the node has no children.
func (n *SectionNode) IsLeaf() bool { return len(n.Children) == 0 }

// FlatSection is a depth-first flattened SectionNode. Path is the dotted
// hierarchical number ("1.2").
type FlatSection struct {
	ID          string `json:"id"`
	Path        string `json:"path"`
	Level       Level  `json:"level"`
	Title       string `json:"title"`
	Content     string `json:"-"`
	StartPos    int    `json:"startPos"`
	EndPos      int    `json:"endPos"`
	HasChildren bool   `json:"hasChildren"`
}

// DocumentStructure is the output of structure detection.
type DocumentStructure struct {
	Title     string         `json:"title"`
	Hierarchy []*SectionNode `json:"hierarchy"`
	FlatList  []FlatSection  `json:"flatList"`
}

// DefinitionCandidate is a term/definition pair found by pattern matching.
type DefinitionCandidate struct {
	Term       string
	Definition string
	Position   int
	Priority   int
	Family     string
}

// Flashcard is one question/answer pair. JSON keys follow the deck format
// returned by language models so both paths serialize the same way.
type Flashcard struct {
	Question string `json:"Question"`
	Answer   string `json:"Answer"`
}

// Deck is a titled group of flashcards for one section.
type Deck struct {
	Title string
	Cards []Flashcard
}

// ChapterMeta locates one section's cards in the flat flashcard list.
// A section with no cards has EndIndex == StartIndex-1.
type ChapterMeta struct {
	ID         int    `json:"id"`
	Title      string `json:"title"`
	Cards      int    `json:"cards"`
	StartIndex int    `json:"startIndex"`
	EndIndex   int    `json:"endIndex"`
}

// Contains reports whether flashcard index k belongs to this chapter.
// Empty chapters never contain any index.
func (c ChapterMeta) Contains(k int) bool {
	return c.Cards > 0 && k >= c.StartIndex && k <= c.EndIndex
}

// DeckResult is the full output for one document.
type DeckResult struct {
	Title          string        `json:"documentTitle"`
	Flashcards     []Flashcard   `json:"flashcards"`
	Chapters       []ChapterMeta `json:"chapters"`
	UsedFallback   bool          `json:"usedFallback"`
	FallbackReason string        `json:"fallbackReason,omitempty"`
	TextLength     int           `json:"textLength"`
}
