package streak

import (
	"time"

	"github.com/lettura-app/lettura-engine/internal/core/domain"
)

// EstimatePages turns a progress-percentage delta into a pages-read figure.
// With a known page count the estimate is exact; without one it falls back
// to a coarse one-page-per-10-percent guess, never below a single page.
// Non-positive deltas estimate zero.
func EstimatePages(book *domain.Book, delta int) int {
	if delta <= 0 {
		return 0
	}

	if book != nil && book.TotalPages > 0 {
		return delta * book.TotalPages / 100
	}

	pages := delta / 10
	if pages < 1 {
		pages = 1
	}
	return pages
}

// TrackProgressUpdate records what a progress edit means in pages read
// today. The estimate only drives the daily goal display; the streak boolean
// comes from the day having any source at all.
func TrackProgressUpdate(book *domain.Book, oldProgress, newProgress int, now time.Time) *domain.ProgressEntry {
	entry := &domain.ProgressEntry{
		Date:      domain.DateKey(now),
		PagesRead: EstimatePages(book, newProgress-oldProgress),
	}
	if book != nil {
		entry.BookID = book.ID
	}
	return entry
}
