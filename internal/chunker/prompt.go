package chunker

import "strings"

// SplitForPrompt breaks text into pieces of at most budget units under c,
// cutting at paragraph boundaries first and sentence boundaries for
// paragraphs that are too large on their own. Text within budget comes back
// as a single piece.
func SplitForPrompt(text string, budget int, c Counter) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if c == nil {
		c = WordCounter{}
	}
	if budget <= 0 || c.Count(text) <= budget {
		return []string{text}
	}

	var result []string
	var current strings.Builder
	used := 0
	flush := func() {
		if used > 0 {
			result = append(result, current.String())
			current.Reset()
			used = 0
		}
	}

	for _, para := range splitByParagraphs(text) {
		n := c.Count(para)
		if n > budget {
			flush()
			result = append(result, splitBySentences(para, budget, c)...)
			continue
		}
		if used+n > budget {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
		used += n
	}
	flush()
	return result
}

func splitByParagraphs(text string) []string {
	var result []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			result = append(result, p)
		}
	}
	return result
}

// splitBySentences packs sentences up to budget. A single sentence larger
// than budget becomes its own piece.
func splitBySentences(text string, budget int, c Counter) []string {
	var result []string
	var current strings.Builder
	used := 0

	for _, sent := range splitSentences(text) {
		n := c.Count(sent)
		if used+n > budget && used > 0 {
			result = append(result, current.String())
			current.Reset()
			used = 0
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(sent)
		used += n
	}
	if used > 0 {
		result = append(result, current.String())
	}
	return result
}

func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for i, r := range text {
		current.WriteRune(r)
		if (r == '.' || r == '!' || r == '?') && i+1 < len(text) && text[i+1] == ' ' {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}
