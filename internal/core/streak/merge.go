package streak

import (
	"time"

	"github.com/lettura-app/lettura-engine/internal/core/domain"
)

// MergeReadingDays combines reading-day evidence from all sources into one
// canonical entry per date:
//
//  1. every calendar day covered by a reading period, as book_completion;
//  2. explicit manual marks, sources carried over verbatim;
//  3. books whose last modification falls on "now"'s date with progress > 0,
//     as progress_update carrying a pages estimate for the goal display.
//
// Merging unions source lists and never overwrites, so the UI can always
// answer "why was this day counted". The result has at most one entry per
// date; a date is a reading day iff it has at least one source, whatever the
// type.
func MergeReadingDays(periods []domain.ReadingPeriod, manual []*domain.ReadingDayEntry, books []*domain.Book, now time.Time) map[string]*domain.ReadingDayEntry {
	entries := make(map[string]*domain.ReadingDayEntry)

	ensure := func(date string) *domain.ReadingDayEntry {
		if e, ok := entries[date]; ok {
			return e
		}
		e := domain.NewReadingDayEntry(date)
		entries[date] = e
		return e
	}

	for _, p := range periods {
		if p.EndDate.Before(p.StartDate) {
			continue
		}
		for d := p.StartDate; !d.After(p.EndDate); d = d.AddDate(0, 0, 1) {
			ensure(domain.DateKey(d)).AddSource(domain.Source{
				Type:      domain.SourceBookCompletion,
				Timestamp: now,
				BookIDs:   []string{p.BookID},
			})
		}
	}

	for _, m := range manual {
		if m == nil || m.Date == "" {
			continue
		}
		e := ensure(m.Date)
		if len(m.Sources) == 0 {
			e.AddSource(domain.Source{Type: domain.SourceManual, Timestamp: now})
			continue
		}
		for _, s := range m.Sources {
			e.AddSource(s)
		}
	}

	today := domain.DateKey(now)
	for _, b := range books {
		if b == nil || b.Progress <= 0 {
			continue
		}
		if domain.DateKey(b.UpdatedAt) != today {
			continue
		}
		// The day's true delta is unknown here; the current progress value
		// stands in as the estimate. TrackProgressUpdate produces the exact
		// figure at edit time.
		ensure(today).AddSource(domain.Source{
			Type:      domain.SourceProgressUpdate,
			Timestamp: b.UpdatedAt,
			BookIDs:   []string{b.ID},
			Progress:  float64(EstimatePages(b, b.Progress)),
		})
	}

	return entries
}

// daySetOf collapses merged entries into the bare set of counted dates.
func daySetOf(entries map[string]*domain.ReadingDayEntry) domain.DaySet {
	set := domain.NewDaySet()
	for date, e := range entries {
		if len(e.Sources) > 0 {
			set.Add(date)
		}
	}
	return set
}
