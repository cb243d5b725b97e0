package state

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/pbaille/reflect/internal/domain"
	"github.com/pbaille/reflect/internal/observability"
)

// AppendMessage adds a message to the end of the transcript. Missing id,
// timestamp and mode are filled in.
func (s *Store) AppendMessage(ctx context.Context, msg domain.ChatMessage) (domain.ChatMessage, error) {
	err := s.apply(ctx, func(next *domain.AppState) error {
		if msg.ID == "" {
			msg.ID = uuid.New().String()
		}
		if msg.Timestamp.IsZero() {
			msg.Timestamp = s.now()
		}
		if msg.Mode == "" {
			msg.Mode = next.CurrentMode
		}
		next.ActiveChat = append(slices.Clone(next.ActiveChat), msg)
		return nil
	})
	return msg, err
}

// SetMode changes the current conversational mode
func (s *Store) SetMode(ctx context.Context, mode domain.Mode) error {
	return s.apply(ctx, func(next *domain.AppState) error {
		next.CurrentMode = mode
		return nil
	})
}

// SetActiveChapter points the conversation at another chapter of the corpus
func (s *Store) SetActiveChapter(ctx context.Context, chapterID string) error {
	return s.apply(ctx, func(next *domain.AppState) error {
		if !next.HasChapter(chapterID) {
			return fmt.Errorf("%w: %s", ErrUnknownChapter, chapterID)
		}
		next.ActiveChapterID = chapterID
		return nil
	})
}

// UpdateBookMetadata merges patch into the metadata of a book
func (s *Store) UpdateBookMetadata(ctx context.Context, bookID string, patch domain.BookMetadataPatch) (domain.BookMetadata, error) {
	var out domain.BookMetadata
	err := s.apply(ctx, func(next *domain.AppState) error {
		bi := next.FindBook(bookID)
		if bi < 0 {
			return fmt.Errorf("%w: %s", ErrUnknownBook, bookID)
		}
		books := slices.Clone(next.Books)
		// the id is the lookup key and never changes
		out = patch.Apply(books[bi].Metadata)
		out.ID = bookID
		books[bi].Metadata = out
		next.Books = books
		return nil
	})
	return out, err
}

// UpdateChapterExtras merges the user-owned fields of a chapter
func (s *Store) UpdateChapterExtras(ctx context.Context, bookID, chapterID string, extras domain.ChapterExtras) (domain.Chapter, error) {
	var out domain.Chapter
	err := s.apply(ctx, func(next *domain.AppState) error {
		return withChapter(next, bookID, chapterID, func(ch *domain.Chapter) error {
			if extras.IsBookmarked != nil {
				ch.IsBookmarked = *extras.IsBookmarked
			}
			if extras.Notes != nil {
				ch.Notes = slices.Clone(extras.Notes)
			}
			if extras.Highlights != nil {
				ch.Highlights = slices.Clone(extras.Highlights)
			}
			out = *ch
			return nil
		})
	})
	return out, err
}

// ToggleBookmark flips the bookmark flag of a chapter and returns the new value
func (s *Store) ToggleBookmark(ctx context.Context, bookID, chapterID string) (bool, error) {
	var marked bool
	err := s.apply(ctx, func(next *domain.AppState) error {
		return withChapter(next, bookID, chapterID, func(ch *domain.Chapter) error {
			ch.IsBookmarked = !ch.IsBookmarked
			marked = ch.IsBookmarked
			return nil
		})
	})
	return marked, err
}

// AddNote attaches a note to a chapter
func (s *Store) AddNote(ctx context.Context, bookID, chapterID, text string) (domain.Note, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.Note{}, ErrEmptyMessage
	}
	note := domain.Note{ID: uuid.New().String(), Text: text, Timestamp: s.now()}
	err := s.apply(ctx, func(next *domain.AppState) error {
		return withChapter(next, bookID, chapterID, func(ch *domain.Chapter) error {
			ch.Notes = append(slices.Clone(ch.Notes), note)
			return nil
		})
	})
	return note, err
}

// DeleteNote removes a note from a chapter
func (s *Store) DeleteNote(ctx context.Context, bookID, chapterID, noteID string) error {
	return s.apply(ctx, func(next *domain.AppState) error {
		return withChapter(next, bookID, chapterID, func(ch *domain.Chapter) error {
			i := slices.IndexFunc(ch.Notes, func(n domain.Note) bool { return n.ID == noteID })
			if i < 0 {
				return fmt.Errorf("%w: %s", ErrUnknownNote, noteID)
			}
			ch.Notes = slices.Delete(slices.Clone(ch.Notes), i, i+1)
			return nil
		})
	})
}

// AddHighlight saves a passage of a chapter. An empty color means the default.
func (s *Store) AddHighlight(ctx context.Context, bookID, chapterID, text, color string) (domain.Highlight, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.Highlight{}, ErrEmptyMessage
	}
	if color == "" {
		color = domain.DefaultHighlightColor
	}
	hl := domain.Highlight{ID: uuid.New().String(), Text: text, Color: color}
	err := s.apply(ctx, func(next *domain.AppState) error {
		return withChapter(next, bookID, chapterID, func(ch *domain.Chapter) error {
			ch.Highlights = append(slices.Clone(ch.Highlights), hl)
			return nil
		})
	})
	return hl, err
}

// DeleteHighlight removes a highlight from a chapter
func (s *Store) DeleteHighlight(ctx context.Context, bookID, chapterID, highlightID string) error {
	return s.apply(ctx, func(next *domain.AppState) error {
		return withChapter(next, bookID, chapterID, func(ch *domain.Chapter) error {
			i := slices.IndexFunc(ch.Highlights, func(h domain.Highlight) bool { return h.ID == highlightID })
			if i < 0 {
				return fmt.Errorf("%w: %s", ErrUnknownHighlight, highlightID)
			}
			ch.Highlights = slices.Delete(slices.Clone(ch.Highlights), i, i+1)
			return nil
		})
	})
}

// AddJournalEntry records an entry, newest first, and recomputes the stats
// derived from the journal: every detected theme is counted once more and
// chaptersExplored becomes the number of distinct linked chapters, at least 1.
func (s *Store) AddJournalEntry(ctx context.Context, entry domain.JournalEntry) (domain.JournalEntry, error) {
	err := s.apply(ctx, func(next *domain.AppState) error {
		if entry.LinkedChapter != "" && !next.HasChapter(entry.LinkedChapter) {
			return fmt.Errorf("%w: %s", ErrUnknownChapter, entry.LinkedChapter)
		}
		if entry.ID == "" {
			entry.ID = "JE-" + uuid.New().String()
		}
		if entry.Timestamp.IsZero() {
			entry.Timestamp = s.now()
		}
		if entry.Mode == "" {
			entry.Mode = next.CurrentMode
		}
		entry.DetectedFeelings = nonNil(entry.DetectedFeelings)
		entry.DetectedThemes = nonNil(entry.DetectedThemes)
		entry.LinkedPrinciples = nonNil(entry.LinkedPrinciples)

		entries := make([]domain.JournalEntry, 0, len(next.JournalEntries)+1)
		entries = append(entries, entry)
		entries = append(entries, next.JournalEntries...)

		themes := maps.Clone(next.Stats.ThemesEngaged)
		if themes == nil {
			themes = map[string]int{}
		}
		for _, t := range entry.DetectedThemes {
			themes[t]++
		}

		next.JournalEntries = entries
		next.Stats.ThemesEngaged = themes
		next.Stats.ChaptersExplored = max(1, distinctChapters(entries))
		return nil
	})
	if err == nil {
		observability.JournalEntries.Inc()
	}
	return entry, err
}

// ImportChapter appends a chapter to a book. A missing id or number is
// derived from the book's chapter count.
func (s *Store) ImportChapter(ctx context.Context, bookID string, ch domain.Chapter) (domain.Chapter, error) {
	err := s.apply(ctx, func(next *domain.AppState) error {
		bi := next.FindBook(bookID)
		if bi < 0 {
			return fmt.Errorf("%w: %s", ErrUnknownBook, bookID)
		}
		book := next.Books[bi]
		if ch.Number == 0 {
			ch.Number = len(book.Chapters) + 1
		}
		if ch.ID == "" {
			ch.ID = fmt.Sprintf("ch_%02d", ch.Number)
		}
		if next.HasChapter(ch.ID) {
			return fmt.Errorf("%w: %s", ErrDuplicateChapter, ch.ID)
		}

		book.Chapters = append(slices.Clone(book.Chapters), ch)
		books := slices.Clone(next.Books)
		books[bi] = book
		next.Books = books
		next.Stats.BooksLoaded = len(books)
		return nil
	})
	return ch, err
}

// withChapter copies the path down to one chapter, lets fn edit the copy
// and swaps it into next.
func withChapter(next *domain.AppState, bookID, chapterID string, fn func(ch *domain.Chapter) error) error {
	bi := next.FindBook(bookID)
	if bi < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownBook, bookID)
	}
	ci := next.Books[bi].FindChapter(chapterID)
	if ci < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownChapter, chapterID)
	}

	book := next.Books[bi]
	book.Chapters = slices.Clone(book.Chapters)
	ch := book.Chapters[ci]
	if err := fn(&ch); err != nil {
		return err
	}
	book.Chapters[ci] = ch

	books := slices.Clone(next.Books)
	books[bi] = book
	next.Books = books
	return nil
}

func distinctChapters(entries []domain.JournalEntry) int {
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		seen[e.LinkedChapter] = struct{}{}
	}
	return len(seen)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
