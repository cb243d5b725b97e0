package journal

import (
	"sort"
	"time"

	"github.com/pbaille/reflect/internal/domain"
)

const (
	// TopFeelings is how many recurring feelings the views report
	TopFeelings = 3
	// TimelineSize is how many recent entries the trend timeline holds
	TimelineSize = 10
)

// Count is one row of a frequency table
type Count struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// TimelinePoint carries per-entry tag counts for trend display
type TimelinePoint struct {
	EntryID       string      `json:"entry_id"`
	Timestamp     time.Time   `json:"timestamp"`
	Mode          domain.Mode `json:"mode"`
	FeelingsCount int         `json:"feelings_count"`
	ThemesCount   int         `json:"themes_count"`
}

// Summary is everything derived from a list of entries
type Summary struct {
	Themes      []Count         `json:"themes"`
	TopFeelings []Count         `json:"top_feelings"`
	Timeline    []TimelinePoint `json:"timeline"`
}

// Aggregate derives theme and feeling frequencies and the recent timeline.
// It does not modify entries.
func Aggregate(entries []domain.JournalEntry) Summary {
	return Summary{
		Themes:      CountLabels(entries, themesOf),
		TopFeelings: Top(CountLabels(entries, feelingsOf), TopFeelings),
		Timeline:    Timeline(entries, TimelineSize),
	}
}

// CountLabels tallies the labels returned by pick across entries, sorted by
// count desc. Equal counts keep the order in which labels were first seen.
func CountLabels(entries []domain.JournalEntry, pick func(domain.JournalEntry) []string) []Count {
	counts := []Count{}
	index := make(map[string]int)
	for _, e := range entries {
		for _, label := range pick(e) {
			if i, ok := index[label]; ok {
				counts[i].Count++
				continue
			}
			index[label] = len(counts)
			counts = append(counts, Count{Label: label, Count: 1})
		}
	}
	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
	return counts
}

// CountModes tallies entries per mode, first-seen order on ties
func CountModes(entries []domain.JournalEntry) []Count {
	return CountLabels(entries, func(e domain.JournalEntry) []string {
		return []string{string(e.Mode)}
	})
}

// Top returns at most n leading rows
func Top(counts []Count, n int) []Count {
	if n < 0 || len(counts) <= n {
		return counts
	}
	return counts[:n]
}

// Timeline returns the n most recent entries, oldest first
func Timeline(entries []domain.JournalEntry, n int) []TimelinePoint {
	sorted := SortByTime(entries, OrderOldest)
	if len(sorted) > n {
		sorted = sorted[len(sorted)-n:]
	}

	points := make([]TimelinePoint, 0, len(sorted))
	for _, e := range sorted {
		points = append(points, TimelinePoint{
			EntryID:       e.ID,
			Timestamp:     e.Timestamp,
			Mode:          e.Mode,
			FeelingsCount: len(e.DetectedFeelings),
			ThemesCount:   len(e.DetectedThemes),
		})
	}
	return points
}

// TotalCount sums a frequency table
func TotalCount(counts []Count) int {
	total := 0
	for _, c := range counts {
		total += c.Count
	}
	return total
}

func themesOf(e domain.JournalEntry) []string   { return e.DetectedThemes }
func feelingsOf(e domain.JournalEntry) []string { return e.DetectedFeelings }
