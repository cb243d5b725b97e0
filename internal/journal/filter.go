package journal

import (
	"sort"
	"strings"
	"time"

	"github.com/pbaille/reflect/internal/domain"
)

// Order is the chronological direction of a listing
type Order string

const (
	OrderNewest Order = "desc"
	OrderOldest Order = "asc"
)

// ParseOrder maps user input to an Order, defaulting to newest-first
func ParseOrder(s string) Order {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc", "oldest", "oldest-first":
		return OrderOldest
	default:
		return OrderNewest
	}
}

// ModeAll disables mode filtering
const ModeAll = "all"

// Query is a set of predicates over journal entries.
// Zero values mean "no constraint".
type Query struct {
	Mode  string `json:"mode,omitempty"`
	Text  string `json:"q,omitempty"`
	From  string `json:"from,omitempty"`
	To    string `json:"to,omitempty"`
	Order Order  `json:"order,omitempty"`
}

// Filter returns the entries matching every predicate of q, ordered by
// timestamp. Unparseable date bounds are ignored.
func Filter(entries []domain.JournalEntry, q Query) []domain.JournalEntry {
	mode := strings.ToLower(strings.TrimSpace(q.Mode))
	text := strings.ToLower(strings.TrimSpace(q.Text))
	from, hasFrom := parseBound(q.From, false)
	to, hasTo := parseBound(q.To, true)

	out := make([]domain.JournalEntry, 0, len(entries))
	for _, e := range entries {
		if mode != "" && mode != ModeAll && string(e.Mode) != mode {
			continue
		}
		if text != "" && !matchesText(e, text) {
			continue
		}
		if hasFrom && e.Timestamp.Before(from) {
			continue
		}
		if hasTo && e.Timestamp.After(to) {
			continue
		}
		out = append(out, e)
	}

	order := q.Order
	if order == "" {
		order = OrderNewest
	}
	return SortByTime(out, order)
}

// SortByTime returns a copy of entries ordered by timestamp. Entries with
// equal timestamps keep their input order in both directions.
func SortByTime(entries []domain.JournalEntry, order Order) []domain.JournalEntry {
	sorted := make([]domain.JournalEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		if order == OrderOldest {
			return sorted[i].Timestamp.Before(sorted[j].Timestamp)
		}
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})
	return sorted
}

// FindEntry looks an entry up by id or unique id prefix
func FindEntry(entries []domain.JournalEntry, id string) (domain.JournalEntry, bool) {
	if id == "" {
		return domain.JournalEntry{}, false
	}
	var found *domain.JournalEntry
	for i := range entries {
		if entries[i].ID == id {
			return entries[i], true
		}
		if strings.HasPrefix(entries[i].ID, id) {
			if found != nil {
				return domain.JournalEntry{}, false
			}
			found = &entries[i]
		}
	}
	if found == nil {
		return domain.JournalEntry{}, false
	}
	return *found, true
}

func matchesText(e domain.JournalEntry, needle string) bool {
	if strings.Contains(strings.ToLower(e.UserInput), needle) {
		return true
	}
	for _, t := range e.DetectedThemes {
		if strings.Contains(strings.ToLower(t), needle) {
			return true
		}
	}
	for _, f := range e.DetectedFeelings {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

var boundLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	time.DateOnly,
}

// parseBound reads a date bound. A date-only upper bound covers the whole day.
func parseBound(s string, upper bool) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range boundLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if upper && layout == time.DateOnly {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		return t, true
	}
	return time.Time{}, false
}
