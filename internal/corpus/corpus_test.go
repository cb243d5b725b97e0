package corpus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbaille/reflect/internal/domain"
)

func TestBooks(t *testing.T) {
	books, err := Books()
	require.NoError(t, err)
	require.Len(t, books, 1)

	b := books[0]
	assert.Equal(t, "feeling_is_the_secret", b.Metadata.ID)
	require.Len(t, b.Chapters, 3)
	for i, ch := range b.Chapters {
		assert.Equal(t, i+1, ch.Number)
		assert.NotEmpty(t, ch.Title)
		assert.NotEmpty(t, ch.Summary.ShortSummary)
		assert.NotEmpty(t, ch.FullText)
		assert.False(t, ch.IsBookmarked)
	}
	assert.NotEmpty(t, b.Chapters[2].Content)
}

func TestBooks_FreshCopies(t *testing.T) {
	first, err := Books()
	require.NoError(t, err)
	first[0].Chapters[0].Title = "changed"

	second, err := Books()
	require.NoError(t, err)
	assert.Equal(t, "Law and Its Operation", second[0].Chapters[0].Title)
}

func TestInitialState(t *testing.T) {
	s, err := InitialState()
	require.NoError(t, err)

	assert.Equal(t, domain.CurrentSchema, s.SchemaVersion)
	assert.Equal(t, domain.ModeFree, s.CurrentMode)
	assert.Equal(t, "ch_01", s.ActiveChapterID)
	assert.Equal(t, 1, s.Stats.BooksLoaded)
	assert.Zero(t, s.Stats.ChaptersExplored)
	assert.NotNil(t, s.Stats.ThemesEngaged)
	assert.NotNil(t, s.ActiveChat)
	assert.NotNil(t, s.JournalEntries)
}
