// Package streak is the reading-streak computation engine. Every function
// here is pure: inputs in, values out, no I/O and no clock reads ("now" is
// always an argument). Persistence of the snapshots it produces belongs to
// the caller.
package streak

import (
	"time"

	"github.com/lettura-app/lettura-engine/internal/core/domain"
)

// ExtractPeriods derives a reading period from every book that has both a
// start and a finish date with finish >= start. Books missing a boundary or
// with an inverted range are silently skipped: partial data is expected from
// imports and is not an error.
func ExtractPeriods(books []*domain.Book) []domain.ReadingPeriod {
	periods := make([]domain.ReadingPeriod, 0, len(books))

	for _, b := range books {
		if b == nil || !b.HasPeriod() {
			continue
		}

		start := midnightUTC(*b.DateStarted)
		end := midnightUTC(*b.DateFinished)

		periods = append(periods, domain.ReadingPeriod{
			BookID:    b.ID,
			Title:     b.Title,
			Author:    b.Author,
			StartDate: start,
			EndDate:   end,
			TotalDays: inclusiveDays(start, end),
		})
	}

	return periods
}

// DedupPeriods drops periods that repeat an earlier (bookID, start, end)
// tuple, preserving order. Keeps repeated imports of the same batch from
// growing the period list without bound.
func DedupPeriods(periods []domain.ReadingPeriod) []domain.ReadingPeriod {
	type key struct {
		bookID     string
		start, end string
	}

	seen := make(map[key]bool, len(periods))
	out := make([]domain.ReadingPeriod, 0, len(periods))

	for _, p := range periods {
		k := key{p.BookID, domain.DateKey(p.StartDate), domain.DateKey(p.EndDate)}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, p)
	}

	return out
}

func midnightUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// inclusiveDays counts calendar days in [start, end], both at UTC midnight.
// Works on day numbers rather than a time.Duration subtraction, which
// saturates at roughly 292 years.
func inclusiveDays(start, end time.Time) int {
	const secondsPerDay = 86400
	return int(end.Unix()/secondsPerDay-start.Unix()/secondsPerDay) + 1
}
