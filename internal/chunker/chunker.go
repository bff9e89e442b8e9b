package chunker

import (
	"regexp"
	"unicode"
	"unicode/utf8"
)

// Span is the half-open byte range [Start, End) of a text.
type Span struct {
	Start int
	End   int
}

// Len returns the span length in bytes.
func (s Span) Len() int { return s.End - s.Start }

// Text returns the spanned substring.
func (s Span) Text(text string) string { return text[s.Start:s.End] }

// gap is three or more newlines, where the blank lines may hold spaces.
var gap = regexp.MustCompile(`\n(?:[ \t]*\n){2,}`)

// GapSpans splits text at paragraph gaps of three or more newlines. Spans are
// trimmed of surrounding whitespace and empty pieces are dropped.
func GapSpans(text string) []Span {
	var spans []Span
	start := 0
	for _, loc := range gap.FindAllStringIndex(text, -1) {
		if s := trim(text, Span{start, loc[0]}); s.Len() > 0 {
			spans = append(spans, s)
		}
		start = loc[1]
	}
	if s := trim(text, Span{start, len(text)}); s.Len() > 0 {
		spans = append(spans, s)
	}
	return spans
}

// SplitAt cuts text at the given byte offsets. Offsets outside the text or
// not ascending are ignored. Spans are trimmed and empty pieces dropped.
func SplitAt(text string, cuts []int) []Span {
	var spans []Span
	start := 0
	for _, c := range cuts {
		if c <= start || c >= len(text) {
			continue
		}
		if s := trim(text, Span{start, c}); s.Len() > 0 {
			spans = append(spans, s)
		}
		start = c
	}
	if s := trim(text, Span{start, len(text)}); s.Len() > 0 {
		spans = append(spans, s)
	}
	return spans
}

// FixedSpans cuts text into at most maxPieces pieces of roughly pieceChars
// bytes each. Each cut is moved forward to the next whitespace (within a
// short reach) so words stay whole.
func FixedSpans(text string, pieceChars, maxPieces int) []Span {
	whole := trim(text, Span{0, len(text)})
	if whole.Len() == 0 {
		return nil
	}
	if pieceChars <= 0 {
		pieceChars = 3000
	}
	if maxPieces <= 0 {
		maxPieces = 5
	}

	pieces := (whole.Len() + pieceChars - 1) / pieceChars
	if pieces > maxPieces {
		pieces = maxPieces
	}
	if pieces < 1 {
		pieces = 1
	}
	size := (whole.Len() + pieces - 1) / pieces

	var spans []Span
	start := whole.Start
	for i := 0; i < pieces && start < whole.End; i++ {
		end := whole.End
		if i < pieces-1 {
			end = snapForward(text, start+size, whole.End)
		}
		if s := trim(text, Span{start, end}); s.Len() > 0 {
			spans = append(spans, s)
		}
		start = end
	}
	return spans
}

const snapReach = 200

// snapForward moves pos to the next whitespace byte, or failing that to the
// next rune boundary, never past limit.
func snapForward(text string, pos, limit int) int {
	if pos >= limit {
		return limit
	}
	for i := pos; i < limit && i < pos+snapReach; i++ {
		if text[i] == ' ' || text[i] == '\n' || text[i] == '\t' {
			return i
		}
	}
	for pos < limit && !utf8.RuneStart(text[pos]) {
		pos++
	}
	return pos
}

func trim(text string, s Span) Span {
	for s.Start < s.End {
		r, n := utf8.DecodeRuneInString(text[s.Start:s.End])
		if !unicode.IsSpace(r) {
			break
		}
		s.Start += n
	}
	for s.End > s.Start {
		r, n := utf8.DecodeLastRuneInString(text[s.Start:s.End])
		if !unicode.IsSpace(r) {
			break
		}
		s.End -= n
	}
	return s
}
