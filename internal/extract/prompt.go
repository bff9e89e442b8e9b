package extract

import (
	"fmt"
	"strings"
)

const DeckPrompt = `You write study flashcards from course material. Return a single JSON object with this shape:

{
  "document_title": "title of the document",
  "flashcard_decks": [
    {
      "chapter_title": "Chapter 1: Title as written in the document",
      "card_count": 2,
      "cards": [
        {"Question": "What is ...?", "Answer": "..."}
      ]
    }
  ]
}

Rules:
- One deck per chapter, unit or module, in the order they appear in the text
- Use the chapter headings exactly as written; if there are none, use one deck titled "Main Content"
- One card per distinct concept, definition, process or fact; do not repeat a concept within a deck
- Questions must be answerable from the text alone; answers are one to three sentences
- Skip tables of contents, references, bibliographies and administrative details
- Plain text only inside Question and Answer, no markup
- If a chapter has nothing worth a card, return it with "cards": []

Respond with ONLY the JSON object, no other text.`

// BuildDeckPrompt creates the user prompt for one piece of a document.
// part and total are 1-based; a single-piece document omits the part line.
func BuildDeckPrompt(docTitle string, part, total int, text string) string {
	var sb strings.Builder
	sb.WriteString("---\n")
	sb.WriteString(fmt.Sprintf("Document: %q\n", docTitle))
	if total > 1 {
		sb.WriteString(fmt.Sprintf("Part %d of %d. Continue chapter titles across parts exactly as written.\n", part, total))
	}
	sb.WriteString("---\n")
	sb.WriteString(text)
	return sb.String()
}
