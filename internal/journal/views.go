package journal

import "github.com/pbaille/reflect/internal/domain"

const (
	recentReflections = 5
	themesInFocus     = 4
)

// Dashboard is the landing overview of the journal
type Dashboard struct {
	RecentReflections []domain.JournalEntry `json:"recent_reflections"`
	RecurringFeelings []Count               `json:"recurring_feelings"`
	ThemesInFocus     []Count               `json:"themes_in_focus"`
	BooksLoaded       int                   `json:"books_loaded"`
	ChaptersExplored  int                   `json:"chapters_explored"`
	TotalChapters     int                   `json:"total_chapters"`
	ProgressPercent   float64               `json:"progress_percent"`
	TotalEntries      int                   `json:"total_entries"`
}

// BuildDashboard derives the dashboard from a snapshot
func BuildDashboard(s *domain.AppState) Dashboard {
	recent := SortByTime(s.JournalEntries, OrderNewest)
	if len(recent) > recentReflections {
		recent = recent[:recentReflections]
	}

	d := Dashboard{
		RecentReflections: recent,
		RecurringFeelings: Top(CountLabels(s.JournalEntries, feelingsOf), TopFeelings),
		ThemesInFocus:     Top(engagedThemes(s.JournalEntries), themesInFocus),
		BooksLoaded:       s.Stats.BooksLoaded,
		ChaptersExplored:  s.Stats.ChaptersExplored,
		TotalEntries:      len(s.JournalEntries),
	}

	// progress is measured against the first book of the curriculum
	if len(s.Books) > 0 {
		d.TotalChapters = len(s.Books[0].Chapters)
	}
	if d.TotalChapters > 0 {
		d.ProgressPercent = float64(d.ChaptersExplored) / float64(d.TotalChapters) * 100
	}
	return d
}

// Analytics is the trends view of the journal
type Analytics struct {
	Themes   []Count         `json:"themes"`
	Modes    []Count         `json:"modes"`
	Timeline []TimelinePoint `json:"timeline"`
}

// BuildAnalytics derives the analytics view from the entries
func BuildAnalytics(entries []domain.JournalEntry) Analytics {
	sum := Aggregate(entries)
	return Analytics{
		Themes:   engagedThemes(entries),
		Modes:    CountModes(entries),
		Timeline: sum.Timeline,
	}
}

// engagedThemes counts themes per entry. Equal counts keep the order in which
// the journal first met each theme, whatever order entries are stored in.
func engagedThemes(entries []domain.JournalEntry) []Count {
	return CountLabels(SortByTime(entries, OrderOldest), themesOf)
}
