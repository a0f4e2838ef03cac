package streak

import (
	"time"

	"github.com/lettura-app/lettura-engine/internal/core/domain"
)

// ImportResult reports what an imported batch changed. PeriodsProcessed = 0
// on a non-empty batch means nothing usable was found (every record missing
// or inverting its date range); that is an anomaly for the caller to
// display, not an error.
type ImportResult struct {
	PeriodsProcessed int `json:"periods_processed"`
	DaysAdded        int `json:"days_added"`

	OldCurrentStreak int `json:"old_current_streak"`
	OldLongestStreak int `json:"old_longest_streak"`
	NewCurrentStreak int `json:"new_current_streak"`
	NewLongestStreak int `json:"new_longest_streak"`

	// History is the reconciled snapshot for the caller to persist.
	History *domain.StreakHistory `json:"-"`
}

// ProcessImport folds a batch of imported books into the existing shelf and
// history without mutating any input. Overlapping periods inside the batch
// never double-count days (the merge deduplicates dates), and re-importing
// the same batch is idempotent for both the day set and, thanks to period
// dedup, the period list.
func ProcessImport(imported, existing []*domain.Book, history *domain.StreakHistory, dailyGoal int, now time.Time) *ImportResult {
	old := CalculateWithHistory(existing, history, dailyGoal, now)

	importedPeriods := ExtractPeriods(imported)
	importedDays := daySetOf(MergeReadingDays(importedPeriods, nil, nil, now))

	days := importedDays
	periods := importedPeriods
	if history != nil {
		days = days.Union(history.ReadingDays)

		combined := make([]domain.ReadingPeriod, 0, len(history.BookPeriods)+len(importedPeriods))
		combined = append(combined, history.BookPeriods...)
		combined = append(combined, importedPeriods...)
		periods = DedupPeriods(combined)
	}

	reconciled := &domain.StreakHistory{
		ReadingDays:    days,
		BookPeriods:    periods,
		LastCalculated: now.UTC(),
	}

	updated := CalculateWithHistory(existing, reconciled, dailyGoal, now)

	return &ImportResult{
		PeriodsProcessed: len(importedPeriods),
		DaysAdded:        importedDays.Len(),
		OldCurrentStreak: old.CurrentStreak,
		OldLongestStreak: old.LongestStreak,
		NewCurrentStreak: updated.CurrentStreak,
		NewLongestStreak: updated.LongestStreak,
		History:          reconciled,
	}
}

// CalculateFromImport reconciles a batch against an empty shelf: the common
// first-import case.
func CalculateFromImport(imported []*domain.Book, dailyGoal int, now time.Time) *ImportResult {
	return ProcessImport(imported, nil, nil, dailyGoal, now)
}
