package domain

import (
	"fmt"
	"strings"
	"time"
)

// StorageKey is the fixed key the whole snapshot is persisted under
const StorageKey = "reflect_state_v3"

// CurrentSchema is the snapshot layout written by this version
const CurrentSchema = 2

// Mode is the conversational framing of a chat turn
type Mode string

const (
	ModeFree        Mode = "free"
	ModeStudy       Mode = "study"
	ModeApplication Mode = "application"
	ModeReflection  Mode = "reflection"
)

// Modes lists every mode in display order
var Modes = []Mode{ModeFree, ModeStudy, ModeApplication, ModeReflection}

// ParseMode accepts a mode name in any case
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Modes {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown mode %q", s)
}

// Role of a chat message author
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one turn of the transcript
type ChatMessage struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Mode      Mode      `json:"mode"`
}

// JournalEntry is the persisted record of one exchange worth keeping
type JournalEntry struct {
	ID               string    `json:"entry_id"`
	Timestamp        time.Time `json:"timestamp"`
	Mode             Mode      `json:"mode"`
	UserInput        string    `json:"user_input"`
	SystemResponse   string    `json:"system_response"`
	DetectedFeelings []string  `json:"detected_feelings"`
	DetectedThemes   []string  `json:"detected_themes"`
	LinkedBook       string    `json:"linked_book"`
	LinkedChapter    string    `json:"linked_chapter"`
	LinkedPrinciples []string  `json:"linked_principles"`
}

// Stats is derived from the journal and kept next to it in the snapshot
type Stats struct {
	BooksLoaded      int            `json:"booksLoaded"`
	ChaptersExplored int            `json:"chaptersExplored"`
	ThemesEngaged    map[string]int `json:"themesEngaged"`
}

// AppState is the root of everything that gets persisted
type AppState struct {
	SchemaVersion   int            `json:"schemaVersion,omitempty"`
	Books           []Book         `json:"books"`
	ActiveChat      []ChatMessage  `json:"activeChat"`
	JournalEntries  []JournalEntry `json:"journalEntries"`
	CurrentMode     Mode           `json:"currentMode"`
	ActiveChapterID string         `json:"activeChapterId"`
	Stats           Stats          `json:"stats"`
}

// FindBook returns the index of the book with the given id, or -1
func (s *AppState) FindBook(bookID string) int {
	for i := range s.Books {
		if s.Books[i].Metadata.ID == bookID {
			return i
		}
	}
	return -1
}

// HasChapter reports whether any book owns the chapter
func (s *AppState) HasChapter(chapterID string) bool {
	for i := range s.Books {
		if s.Books[i].FindChapter(chapterID) >= 0 {
			return true
		}
	}
	return false
}

// FirstChapterID is the first chapter of the first book, or ""
func (s *AppState) FirstChapterID() string {
	for _, b := range s.Books {
		if len(b.Chapters) > 0 {
			return b.Chapters[0].ID
		}
	}
	return ""
}
