package streak_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lettura-app/lettura-engine/internal/core/domain"
	"github.com/lettura-app/lettura-engine/internal/core/streak"
)

func day(s string) time.Time {
	t, err := domain.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func bookWithDates(title, started, finished string) *domain.Book {
	b, err := domain.NewBook("user-1", title, "Test Author", domain.StatusFinished, 0)
	if err != nil {
		panic(err)
	}
	if started != "" {
		d := day(started)
		b.DateStarted = &d
	}
	if finished != "" {
		d := day(finished)
		b.DateFinished = &d
	}
	return b
}

func TestExtractPeriods(t *testing.T) {
	t.Run("book with both dates yields one inclusive period", func(t *testing.T) {
		b := bookWithDates("Dune", "2024-01-01", "2024-01-05")

		periods := streak.ExtractPeriods([]*domain.Book{b})

		require.Len(t, periods, 1)
		assert.Equal(t, b.ID, periods[0].BookID)
		assert.Equal(t, "Dune", periods[0].Title)
		assert.Equal(t, 5, periods[0].TotalDays)
	})

	t.Run("identical start and finish is a one-day period", func(t *testing.T) {
		b := bookWithDates("Novella", "2024-03-10", "2024-03-10")

		periods := streak.ExtractPeriods([]*domain.Book{b})

		require.Len(t, periods, 1)
		assert.Equal(t, 1, periods[0].TotalDays)
	})

	t.Run("inverted range is silently skipped", func(t *testing.T) {
		b := bookWithDates("Backwards", "2024-01-10", "2024-01-05")

		periods := streak.ExtractPeriods([]*domain.Book{b})

		assert.Empty(t, periods)
	})

	t.Run("missing boundaries are silently skipped", func(t *testing.T) {
		onlyStart := bookWithDates("Started", "2024-01-01", "")
		onlyFinish := bookWithDates("Finished", "", "2024-01-05")
		neither := bookWithDates("Shelf", "", "")

		periods := streak.ExtractPeriods([]*domain.Book{onlyStart, onlyFinish, neither, nil})

		assert.Empty(t, periods)
	})

	t.Run("multi-year range counts days without overflow", func(t *testing.T) {
		b := bookWithDates("Proust", "2020-01-01", "2023-12-31")

		periods := streak.ExtractPeriods([]*domain.Book{b})

		require.Len(t, periods, 1)
		// 2020 is a leap year: 366 + 365 + 365 + 365.
		assert.Equal(t, 1461, periods[0].TotalDays)
	})

	t.Run("century-scale range stays exact", func(t *testing.T) {
		b := bookWithDates("Longue Duree", "2000-01-01", "2399-12-31")

		periods := streak.ExtractPeriods([]*domain.Book{b})

		require.Len(t, periods, 1)
		// One full Gregorian 400-year cycle is 146097 days. A duration
		// subtraction would overflow well before this.
		assert.Equal(t, 146097, periods[0].TotalDays)
	})

	t.Run("future dates are accepted as-is", func(t *testing.T) {
		b := bookWithDates("Time Travel", "2099-01-01", "2099-01-03")

		periods := streak.ExtractPeriods([]*domain.Book{b})

		require.Len(t, periods, 1)
		assert.Equal(t, 3, periods[0].TotalDays)
	})
}

func TestDedupPeriods(t *testing.T) {
	b := bookWithDates("Dune", "2024-01-01", "2024-01-05")
	periods := streak.ExtractPeriods([]*domain.Book{b, b, b})

	deduped := streak.DedupPeriods(append(periods, streak.ExtractPeriods([]*domain.Book{
		bookWithDates("Other", "2024-02-01", "2024-02-02"),
	})...))

	assert.Len(t, deduped, 2)
}
