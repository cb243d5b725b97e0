package library

import (
	"fmt"
	"strings"

	"github.com/pbaille/reflect/internal/domain"
)

// NoteDateLayout is how note dates appear in a study set
const NoteDateLayout = "2006-01-02"

// StudySet renders a chapter, the user's highlights and notes as a plain
// text document
func StudySet(book domain.Book, ch domain.Chapter) string {
	var b strings.Builder

	fmt.Fprintf(&b, "CHAPTER: %s\n", ch.Title)
	fmt.Fprintf(&b, "BOOK: %s\n\n", book.Metadata.Title)

	b.WriteString("SOURCE TEXT:\n")
	b.WriteString(sourceText(ch))
	b.WriteString("\n\n--- YOUR HIGHLIGHTS ---\n")
	for i, h := range ch.Highlights {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "- %s", h.Text)
	}
	b.WriteString("\n\n--- YOUR NOTES ---\n")
	for i, n := range ch.Notes {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "[%s] %s", n.Timestamp.Format(NoteDateLayout), n.Text)
	}
	b.WriteString("\n")

	return b.String()
}

// sourceText prefers structured content and falls back to the full text
func sourceText(ch domain.Chapter) string {
	if len(ch.Content) == 0 {
		return ch.FullText
	}

	sections := make([]string, 0, len(ch.Content))
	for _, c := range ch.Content {
		body := c.Text
		if len(c.Parts) > 0 {
			lines := make([]string, 0, len(c.Parts))
			for _, p := range c.Parts {
				line := fmt.Sprintf("[%s] %s", strings.ToUpper(p.Type), p.Content)
				if p.Source != "" {
					line += " — " + p.Source
				}
				lines = append(lines, line)
			}
			body = strings.Join(lines, "\n")
		}
		sections = append(sections, fmt.Sprintf("--- %s ---\n%s\nTakeaway: %s", c.Section, body, c.Takeaway))
	}
	return strings.Join(sections, "\n\n")
}

// ExportFilename is the download name of a chapter's study set
func ExportFilename(ch domain.Chapter) string {
	return strings.Join(strings.Fields(ch.Title), "_") + "_Study_Set.txt"
}
