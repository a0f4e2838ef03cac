package domain

import (
	"errors"
	"time"
)

var (
	ErrInvalidDate      = errors.New("invalid date (must be YYYY-MM-DD)")
	ErrDayEntryNotFound = errors.New("reading day entry not found")
)

const (
	SourceManual         = "manual"
	SourceBookCompletion = "book_completion"
	SourceProgressUpdate = "progress_update"
)

// DateLayout is the calendar-date format used everywhere a date crosses a
// boundary: persisted day sets, entry keys, API payloads.
const DateLayout = "2006-01-02"

// DateKey truncates a timestamp to its UTC calendar date.
func DateKey(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD string into a UTC midnight time.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t.UTC(), nil
}

// Source is a provenance record backing a reading day: why the day counts.
type Source struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	BookIDs   []string  `json:"book_ids,omitempty"`

	// Progress is a pages-read contribution used only for the daily goal
	// display, never for the streak boolean itself.
	Progress float64 `json:"progress,omitempty"`
	Notes    string  `json:"notes,omitempty"`
}

// ReadingDayEntry is the canonical record for one calendar date. A date has
// at most one entry; evidence from multiple origins lands in Sources.
type ReadingDayEntry struct {
	Date    string   `json:"date"`
	Sources []Source `json:"sources"`
}

func NewReadingDayEntry(date string) *ReadingDayEntry {
	return &ReadingDayEntry{Date: date}
}

// AddSource merges a source into the entry. Sources of the same type are
// unioned (book ids deduplicated, progress summed), never overwritten, so
// the provenance of a counted day stays inspectable.
func (e *ReadingDayEntry) AddSource(s Source) {
	for i := range e.Sources {
		if e.Sources[i].Type != s.Type {
			continue
		}

		existing := &e.Sources[i]
		seen := make(map[string]bool, len(existing.BookIDs))
		for _, id := range existing.BookIDs {
			seen[id] = true
		}
		for _, id := range s.BookIDs {
			if !seen[id] {
				existing.BookIDs = append(existing.BookIDs, id)
			}
		}
		existing.Progress += s.Progress
		if existing.Notes == "" {
			existing.Notes = s.Notes
		}
		if s.Timestamp.Before(existing.Timestamp) {
			existing.Timestamp = s.Timestamp
		}
		return
	}

	e.Sources = append(e.Sources, s)
}

// TotalProgress sums the pages-read contributions across all sources.
func (e *ReadingDayEntry) TotalProgress() float64 {
	var total float64
	for _, s := range e.Sources {
		total += s.Progress
	}
	return total
}

// HasSource reports whether the entry carries a source of the given type.
func (e *ReadingDayEntry) HasSource(sourceType string) bool {
	for _, s := range e.Sources {
		if s.Type == sourceType {
			return true
		}
	}
	return false
}

// DisplaySource picks the single source type the UI should label the day
// with: manual beats book_completion beats progress_update. Purely a
// presentation rule; the streak counts a day with any source at all.
func (e *ReadingDayEntry) DisplaySource() string {
	for _, t := range []string{SourceManual, SourceBookCompletion, SourceProgressUpdate} {
		if e.HasSource(t) {
			return t
		}
	}
	return ""
}

// ProgressEntry is the pages-read estimate produced by a progress update.
type ProgressEntry struct {
	Date      string `json:"date"`
	BookID    string `json:"book_id"`
	PagesRead int    `json:"pages_read"`
}
