package journal

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbaille/reflect/internal/domain"
)

var base = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func entry(id string, mode domain.Mode, at time.Time, themes, feelings []string) domain.JournalEntry {
	return domain.JournalEntry{
		ID:               id,
		Timestamp:        at,
		Mode:             mode,
		UserInput:        "input " + id,
		DetectedThemes:   themes,
		DetectedFeelings: feelings,
		LinkedChapter:    "ch_01",
	}
}

func sampleEntries() []domain.JournalEntry {
	return []domain.JournalEntry{
		entry("e1", domain.ModeReflection, base, []string{"feeling"}, []string{"calm"}),
		entry("e2", domain.ModeStudy, base.Add(time.Hour), []string{"feeling", "sleep"}, []string{"anxious", "calm"}),
		entry("e3", domain.ModeApplication, base.Add(48*time.Hour), []string{"prayer"}, []string{"hopeful"}),
		entry("e4", domain.ModeFree, base.Add(72*time.Hour), nil, []string{"anxious", "tired"}),
	}
}

func TestAggregate_ThemeExample(t *testing.T) {
	entries := []domain.JournalEntry{
		{Mode: domain.ModeReflection, DetectedThemes: []string{"feeling"}},
		{Mode: domain.ModeStudy, DetectedThemes: []string{"feeling", "sleep"}},
	}

	sum := Aggregate(entries)

	assert.Equal(t, []Count{{Label: "feeling", Count: 2}, {Label: "sleep", Count: 1}}, sum.Themes)
}

func TestAggregate_Empty(t *testing.T) {
	sum := Aggregate(nil)

	assert.Empty(t, sum.Themes)
	assert.Empty(t, sum.TopFeelings)
	assert.Empty(t, sum.Timeline)
	assert.NotNil(t, sum.Themes)
}

func TestAggregate_Idempotent(t *testing.T) {
	entries := sampleEntries()

	assert.Equal(t, Aggregate(entries), Aggregate(entries))
}

func TestAggregate_ThemeTotalsMatchTags(t *testing.T) {
	entries := sampleEntries()

	tags := 0
	for _, e := range entries {
		tags += len(e.DetectedThemes)
	}

	assert.Equal(t, tags, TotalCount(Aggregate(entries).Themes))
}

func TestAggregate_TopFeelingsTieBreak(t *testing.T) {
	entries := []domain.JournalEntry{
		{DetectedFeelings: []string{"calm", "tired"}},
		{DetectedFeelings: []string{"hopeful", "anxious"}},
		{DetectedFeelings: []string{"anxious", "tired"}},
	}

	got := Aggregate(entries).TopFeelings

	require.Len(t, got, TopFeelings)
	assert.Equal(t, []Count{
		{Label: "tired", Count: 2},
		{Label: "anxious", Count: 2},
		{Label: "calm", Count: 1},
	}, got)
}

func TestTimeline_MostRecentAscending(t *testing.T) {
	var entries []domain.JournalEntry
	// stored newest first, like the journal itself
	for i := 14; i >= 0; i-- {
		entries = append(entries, entry(fmt.Sprintf("e%02d", i), domain.ModeFree, base.Add(time.Duration(i)*time.Hour), []string{"a"}, nil))
	}

	points := Timeline(entries, TimelineSize)

	require.Len(t, points, TimelineSize)
	assert.Equal(t, "e05", points[0].EntryID)
	assert.Equal(t, "e14", points[len(points)-1].EntryID)
	for i := 1; i < len(points); i++ {
		assert.True(t, points[i-1].Timestamp.Before(points[i].Timestamp))
	}
	assert.Equal(t, 1, points[0].ThemesCount)
	assert.Equal(t, 0, points[0].FeelingsCount)
}

func TestFilter_ModeSoundnessAndPartition(t *testing.T) {
	entries := sampleEntries()

	for _, mode := range domain.Modes {
		t.Run(string(mode), func(t *testing.T) {
			matched := Filter(entries, Query{Mode: string(mode)})
			ids := map[string]bool{}
			for _, e := range matched {
				assert.Equal(t, mode, e.Mode)
				ids[e.ID] = true
			}

			var rest []domain.JournalEntry
			for _, other := range domain.Modes {
				if other != mode {
					rest = append(rest, Filter(entries, Query{Mode: string(other)})...)
				}
			}
			for _, e := range rest {
				assert.False(t, ids[e.ID], "entry %s in both partitions", e.ID)
			}
			assert.Equal(t, len(entries), len(matched)+len(rest))
		})
	}
}

func TestFilter_AllModes(t *testing.T) {
	entries := sampleEntries()

	assert.Len(t, Filter(entries, Query{Mode: ModeAll}), len(entries))
	assert.Len(t, Filter(entries, Query{}), len(entries))
}

func TestFilter_Text(t *testing.T) {
	entries := sampleEntries()

	tests := []struct {
		name string
		text string
		want []string
	}{
		{name: "theme case-insensitive", text: "SLEEP", want: []string{"e2"}},
		{name: "feeling substring", text: "anx", want: []string{"e4", "e2"}},
		{name: "user input", text: "input e3", want: []string{"e3"}},
		{name: "no match", text: "zebra", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Filter(entries, Query{Text: tt.text})))
		})
	}
}

func TestFilter_DateRange(t *testing.T) {
	entries := sampleEntries()

	tests := []struct {
		name     string
		from, to string
		want     []string
	}{
		{name: "date-only end is inclusive", from: "2025-03-10", to: "2025-03-10", want: []string{"e2", "e1"}},
		{name: "open end", from: "2025-03-12", want: []string{"e4", "e3"}},
		{name: "rfc3339 bounds", from: "2025-03-10T09:30:00Z", to: "2025-03-12T09:00:00Z", want: []string{"e3", "e2"}},
		{name: "malformed bounds ignored", from: "yesterday", to: "13/45/2025", want: []string{"e4", "e3", "e2", "e1"}},
		{name: "inverted range is empty", from: "2025-03-13", to: "2025-03-10", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Filter(entries, Query{From: tt.from, To: tt.to})))
		})
	}
}

func TestFilter_OrderReversal(t *testing.T) {
	entries := sampleEntries()

	newest := ids(Filter(entries, Query{Order: OrderNewest}))
	oldest := ids(Filter(entries, Query{Order: OrderOldest}))

	require.Len(t, oldest, len(newest))
	for i := range newest {
		assert.Equal(t, newest[i], oldest[len(oldest)-1-i])
	}
}

func TestSortByTime_StableOnTies(t *testing.T) {
	entries := []domain.JournalEntry{
		entry("a", domain.ModeFree, base, nil, nil),
		entry("b", domain.ModeFree, base, nil, nil),
		entry("c", domain.ModeFree, base.Add(-time.Hour), nil, nil),
	}

	assert.Equal(t, []string{"a", "b", "c"}, ids(SortByTime(entries, OrderNewest)))
	assert.Equal(t, []string{"c", "a", "b"}, ids(SortByTime(entries, OrderOldest)))
	assert.Equal(t, "a", entries[0].ID, "input must not be reordered")
}

func TestFindEntry(t *testing.T) {
	entries := []domain.JournalEntry{{ID: "JE-abc"}, {ID: "JE-abd"}, {ID: "JE-x"}}

	got, ok := FindEntry(entries, "JE-x")
	require.True(t, ok)
	assert.Equal(t, "JE-x", got.ID)

	_, ok = FindEntry(entries, "JE-ab")
	assert.False(t, ok, "ambiguous prefix")

	got, ok = FindEntry(entries, "JE-abd")
	require.True(t, ok)
	assert.Equal(t, "JE-abd", got.ID)
}

func TestBuildDashboard(t *testing.T) {
	state := &domain.AppState{
		Books: []domain.Book{{Chapters: []domain.Chapter{{ID: "ch_01"}, {ID: "ch_02"}, {ID: "ch_03"}, {ID: "ch_04"}}}},
		JournalEntries: sampleEntries(),
		Stats: domain.Stats{
			BooksLoaded:      1,
			ChaptersExplored: 1,
			ThemesEngaged:    map[string]int{"feeling": 2, "sleep": 1, "prayer": 1},
		},
	}

	d := BuildDashboard(state)

	assert.Equal(t, []string{"e4", "e3", "e2", "e1"}, ids(d.RecentReflections))
	assert.Equal(t, []Count{{Label: "calm", Count: 2}, {Label: "anxious", Count: 2}, {Label: "hopeful", Count: 1}}, d.RecurringFeelings)
	assert.Equal(t, []Count{
		{Label: "feeling", Count: 2},
		{Label: "sleep", Count: 1},
		{Label: "prayer", Count: 1},
	}, d.ThemesInFocus)
	assert.Equal(t, 4, d.TotalChapters)
	assert.InDelta(t, 25.0, d.ProgressPercent, 0.001)
	assert.Equal(t, 4, d.TotalEntries)
}

func TestBuildAnalytics_Modes(t *testing.T) {
	entries := append(sampleEntries(), entry("e5", domain.ModeStudy, base.Add(96*time.Hour), nil, nil))

	a := BuildAnalytics(entries)

	assert.Equal(t, Count{Label: "study", Count: 2}, a.Modes[0])
	assert.Len(t, a.Modes, 4)
	assert.Len(t, a.Timeline, 5)
}

func TestViews_ThemeTiesKeepFirstSeenOrder(t *testing.T) {
	// stored newest first, as the state owner keeps them
	entries := []domain.JournalEntry{
		entry("e3", domain.ModeStudy, base.Add(2*time.Hour), []string{"assumption"}, nil),
		entry("e2", domain.ModeStudy, base.Add(time.Hour), []string{"sleep", "feeling"}, nil),
		entry("e1", domain.ModeStudy, base, []string{"prayer"}, nil),
	}
	want := []Count{
		{Label: "prayer", Count: 1},
		{Label: "sleep", Count: 1},
		{Label: "feeling", Count: 1},
		{Label: "assumption", Count: 1},
	}

	d := BuildDashboard(&domain.AppState{JournalEntries: entries})
	a := BuildAnalytics(entries)

	assert.Equal(t, want, d.ThemesInFocus)
	assert.Equal(t, want, a.Themes)
}

func ids(entries []domain.JournalEntry) []string {
	var out []string
	for _, e := range entries {
		out = append(out, e.ID)
	}
	return out
}
