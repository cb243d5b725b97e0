package corpus

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/pbaille/reflect/internal/domain"
)

//go:embed feeling_is_the_secret.yaml
var seedBook []byte

// Books decodes the embedded corpus. Each call returns fresh values so
// callers can mutate the result freely.
func Books() ([]domain.Book, error) {
	var book domain.Book
	if err := yaml.Unmarshal(seedBook, &book); err != nil {
		return nil, fmt.Errorf("decode corpus: %w", err)
	}
	return []domain.Book{book}, nil
}

// InitialState is the snapshot a fresh installation starts from
func InitialState() (*domain.AppState, error) {
	books, err := Books()
	if err != nil {
		return nil, err
	}

	s := &domain.AppState{
		SchemaVersion:  domain.CurrentSchema,
		Books:          books,
		ActiveChat:     []domain.ChatMessage{},
		JournalEntries: []domain.JournalEntry{},
		CurrentMode:    domain.ModeFree,
		Stats: domain.Stats{
			BooksLoaded:   len(books),
			ThemesEngaged: map[string]int{},
		},
	}
	s.ActiveChapterID = s.FirstChapterID()
	return s, nil
}
