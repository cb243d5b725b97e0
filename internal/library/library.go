// Package library answers read-only questions about the corpus held in a
// snapshot: searching books and chapters, explaining themes.
package library

import (
	"sort"
	"strings"

	"github.com/pbaille/reflect/internal/domain"
)

// SearchBooks returns the books whose title, chapter titles or chapter
// summaries contain query, ignoring case. A blank query matches everything.
func SearchBooks(books []domain.Book, query string) []domain.Book {
	q := normalize(query)
	if q == "" {
		return books
	}

	out := []domain.Book{}
	for _, b := range books {
		if contains(b.Metadata.Title, q) || anyChapter(b.Chapters, q) {
			out = append(out, b)
		}
	}
	return out
}

func anyChapter(chapters []domain.Chapter, q string) bool {
	for _, ch := range chapters {
		if contains(ch.Title, q) || contains(ch.Summary.ShortSummary, q) {
			return true
		}
	}
	return false
}

// SearchChapters filters the chapters of a book by title, short summary
// and principle titles
func SearchChapters(book domain.Book, query string) []domain.Chapter {
	q := normalize(query)
	if q == "" {
		return book.Chapters
	}

	out := []domain.Chapter{}
	for _, ch := range book.Chapters {
		if contains(ch.Title, q) || contains(ch.Summary.ShortSummary, q) || anyPrinciple(ch.Principles, q) {
			out = append(out, ch)
		}
	}
	return out
}

func anyPrinciple(ps []domain.Principle, q string) bool {
	for _, p := range ps {
		if contains(p.Title, q) {
			return true
		}
	}
	return false
}

// Lookup finds a chapter of a book in s
func Lookup(s *domain.AppState, bookID, chapterID string) (domain.Book, domain.Chapter, bool) {
	bi := s.FindBook(bookID)
	if bi < 0 {
		return domain.Book{}, domain.Chapter{}, false
	}
	book := s.Books[bi]
	ci := book.FindChapter(chapterID)
	if ci < 0 {
		return book, domain.Chapter{}, false
	}
	return book, book.Chapters[ci], true
}

const defaultExplanation = "A central pillar of the creative law and the transformation of the inner man."

var themeExplanations = map[string]string{
	"feeling":       "The creative engine of manifestation; the secret to impressing the subconscious.",
	"subconscious":  "The impersonal, sensitive power that accepts as true what is felt as true.",
	"assumption":    "The act of living as though your desire is already a present reality.",
	"imagination":   "The divine spark within; the workshop where reality is constructed before it is seen.",
	"faith":         "The loyalty to the unseen reality; the persistence in an inner state.",
	"identity":      "The root of all experience; the 'I AM' which determines every outer condition.",
	"sleep":         "The gateway to the subconscious; the ideal time for impressing new states.",
	"prayer":        "A yielding to the feeling of the wish fulfilled; not asking, but receiving internally.",
	"consciousness": "The one and only reality; the cause of all that appears in the world of shadows.",
}

// Explain returns the glossary text for a theme, case-insensitive
func Explain(theme string) string {
	if e, ok := themeExplanations[normalize(theme)]; ok {
		return e
	}
	return defaultExplanation
}

// ThemeExplanation is one glossary row
type ThemeExplanation struct {
	Theme       string `json:"theme"`
	Explanation string `json:"explanation"`
}

// Glossary lists the known themes alphabetically
func Glossary() []ThemeExplanation {
	out := make([]ThemeExplanation, 0, len(themeExplanations))
	for theme, e := range themeExplanations {
		out = append(out, ThemeExplanation{Theme: theme, Explanation: e})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Theme < out[j].Theme })
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func contains(s, q string) bool {
	return strings.Contains(strings.ToLower(s), q)
}
