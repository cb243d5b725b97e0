package state

import (
	"fmt"

	"github.com/pbaille/reflect/internal/corpus"
	"github.com/pbaille/reflect/internal/domain"
)

// migrations[i] upgrades a document from version i+1 to version i+2.
// Documents without a version are treated as version 1.
var migrations = []func(s *domain.AppState) error{
	seedActiveChapter,
}

// Upgrade brings a decoded snapshot up to domain.CurrentSchema and repairs
// missing collections so the rest of the code never sees nil maps.
func Upgrade(s *domain.AppState) error {
	v := s.SchemaVersion
	if v == 0 {
		v = 1
	}
	if v > domain.CurrentSchema {
		return fmt.Errorf("state schema %d is newer than supported %d", v, domain.CurrentSchema)
	}

	if len(s.Books) == 0 {
		books, err := corpus.Books()
		if err != nil {
			return err
		}
		s.Books = books
	}

	for ; v < domain.CurrentSchema; v++ {
		if err := migrations[v-1](s); err != nil {
			return fmt.Errorf("upgrade state to schema %d: %w", v+1, err)
		}
	}
	s.SchemaVersion = domain.CurrentSchema

	repair(s)
	return nil
}

// seedActiveChapter fills a missing active chapter pointer from the first
// chapter available, falling back to the corpus.
func seedActiveChapter(s *domain.AppState) error {
	if s.ActiveChapterID != "" {
		return nil
	}
	s.ActiveChapterID = s.FirstChapterID()
	if s.ActiveChapterID != "" {
		return nil
	}

	initial, err := corpus.InitialState()
	if err != nil {
		return err
	}
	s.ActiveChapterID = initial.ActiveChapterID
	return nil
}

func repair(s *domain.AppState) {
	if s.ActiveChat == nil {
		s.ActiveChat = []domain.ChatMessage{}
	}
	if s.JournalEntries == nil {
		s.JournalEntries = []domain.JournalEntry{}
	}
	if s.CurrentMode == "" {
		s.CurrentMode = domain.ModeFree
	}
	if s.Stats.ThemesEngaged == nil {
		s.Stats.ThemesEngaged = map[string]int{}
	}
	s.Stats.BooksLoaded = len(s.Books)
}
