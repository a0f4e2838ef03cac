package domain_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lettura-app/lettura-engine/internal/core/domain"
)

func TestNewBook(t *testing.T) {
	t.Run("valid book gets defaults", func(t *testing.T) {
		b, err := domain.NewBook("user-1", "  Dune  ", " Frank Herbert ", "", 412)

		require.NoError(t, err)
		assert.NotEmpty(t, b.ID)
		assert.Equal(t, "Dune", b.Title)
		assert.Equal(t, "Frank Herbert", b.Author)
		assert.Equal(t, domain.StatusWantToRead, b.Status)
		assert.Equal(t, 0, b.Progress)
		assert.Equal(t, 412, b.TotalPages)
	})

	t.Run("finished status implies full progress", func(t *testing.T) {
		b, err := domain.NewBook("user-1", "Dune", "Frank Herbert", domain.StatusFinished, 0)

		require.NoError(t, err)
		assert.Equal(t, 100, b.Progress)
	})

	t.Run("empty title rejected", func(t *testing.T) {
		_, err := domain.NewBook("user-1", "   ", "Author", "", 0)
		assert.ErrorIs(t, err, domain.ErrBookTitleEmpty)
	})

	t.Run("overlong title rejected", func(t *testing.T) {
		_, err := domain.NewBook("user-1", strings.Repeat("x", domain.MaxBookTitleLen+1), "Author", "", 0)
		assert.ErrorIs(t, err, domain.ErrBookTitleTooLong)
	})

	t.Run("missing user rejected", func(t *testing.T) {
		_, err := domain.NewBook("", "Dune", "Author", "", 0)
		assert.ErrorIs(t, err, domain.ErrBookInvalidUserID)
	})

	t.Run("unknown status rejected", func(t *testing.T) {
		_, err := domain.NewBook("user-1", "Dune", "Author", "paused", 0)
		assert.ErrorIs(t, err, domain.ErrInvalidStatus)
	})

	t.Run("negative page count rejected", func(t *testing.T) {
		_, err := domain.NewBook("user-1", "Dune", "Author", "", -1)
		assert.ErrorIs(t, err, domain.ErrInvalidTotalPages)
	})
}

func TestBook_SetProgress(t *testing.T) {
	t.Run("first progress starts the book", func(t *testing.T) {
		b, _ := domain.NewBook("user-1", "Dune", "Author", domain.StatusWantToRead, 0)

		require.NoError(t, b.SetProgress(10))

		assert.Equal(t, domain.StatusCurrentlyReading, b.Status)
		assert.NotNil(t, b.DateStarted)
	})

	t.Run("full progress finishes the book", func(t *testing.T) {
		b, _ := domain.NewBook("user-1", "Dune", "Author", domain.StatusCurrentlyReading, 0)

		require.NoError(t, b.SetProgress(100))

		assert.Equal(t, domain.StatusFinished, b.Status)
		assert.NotNil(t, b.DateFinished)
	})

	t.Run("out of range rejected", func(t *testing.T) {
		b, _ := domain.NewBook("user-1", "Dune", "Author", "", 0)

		assert.ErrorIs(t, b.SetProgress(101), domain.ErrInvalidProgress)
		assert.ErrorIs(t, b.SetProgress(-1), domain.ErrInvalidProgress)
	})

	t.Run("deleted book rejected", func(t *testing.T) {
		b, _ := domain.NewBook("user-1", "Dune", "Author", "", 0)
		now := time.Now().UTC()
		b.DeletedAt = &now

		assert.ErrorIs(t, b.SetProgress(10), domain.ErrBookArchived)
	})
}

func TestBook_HasPeriod(t *testing.T) {
	start := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

	b, _ := domain.NewBook("user-1", "Dune", "Author", "", 0)
	assert.False(t, b.HasPeriod())

	b.DateStarted = &start
	assert.False(t, b.HasPeriod())

	b.DateFinished = &end
	assert.False(t, b.HasPeriod(), "inverted range is not a period")

	b.DateFinished = &start
	assert.True(t, b.HasPeriod(), "same-day range is a period")
}

func TestMatchByTitleAuthor(t *testing.T) {
	a, _ := domain.NewBook("user-1", "The Hobbit", "J.R.R. Tolkien", "", 0)
	b, _ := domain.NewBook("user-2", "the hobbit", "j.r.r. tolkien", "", 0)
	c, _ := domain.NewBook("user-1", "The Hobbit", "Someone Else", "", 0)

	assert.True(t, domain.MatchByTitleAuthor(a, b))
	assert.False(t, domain.MatchByTitleAuthor(a, c))
	assert.False(t, domain.MatchByTitleAuthor(a, nil))
}
