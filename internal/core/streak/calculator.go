package streak

import (
	"time"

	"github.com/lettura-app/lettura-engine/internal/core/domain"
)

// LookbackDays bounds the backward scan of the calculator. A user inactive
// for over a year is streak-broken regardless of older history; this is a
// deliberate design parameter, not a defect, and changing it changes
// observable behavior.
const LookbackDays = 365

// DayStats is the raw output of the calculator over a day set.
type DayStats struct {
	CurrentStreak int
	LongestStreak int
	LastReadDate  string
	HasReadToday  bool
}

// CalculateDays walks backward from "now"'s calendar date for up to
// LookbackDays and derives the streak figures. Day granularity, calendar
// local to UTC; no timezone logic beyond date truncation.
//
// The current streak is the run of consecutive reading days anchored at
// today, or at yesterday when today has no activity yet: a streak is not
// broken until a full day has actually been missed.
func CalculateDays(days domain.DaySet, now time.Time) DayStats {
	today := midnightUTC(now)

	stats := DayStats{
		HasReadToday: days.Contains(domain.DateKey(today)),
	}

	run := 0
	for i := 0; i < LookbackDays; i++ {
		key := domain.DateKey(today.AddDate(0, 0, -i))
		if days.Contains(key) {
			run++
			if stats.LastReadDate == "" {
				stats.LastReadDate = key
			}
		} else {
			if run > stats.LongestStreak {
				stats.LongestStreak = run
			}
			run = 0
		}
	}
	if run > stats.LongestStreak {
		stats.LongestStreak = run
	}

	anchor := today
	offset := 0
	if !stats.HasReadToday {
		anchor = today.AddDate(0, 0, -1)
		offset = 1
	}
	for i := 0; i+offset < LookbackDays; i++ {
		if !days.Contains(domain.DateKey(anchor.AddDate(0, 0, -i))) {
			break
		}
		stats.CurrentStreak++
	}

	return stats
}

// Calculate computes streak data from the books alone: periods are
// extracted, merged into reading days, and scanned.
func Calculate(books []*domain.Book, dailyGoal int, now time.Time) *domain.StreakData {
	return CalculateWithHistory(books, nil, dailyGoal, now)
}

// CalculateWithHistory computes streak data from the books unioned with a
// previously persisted history snapshot. The snapshot is read, never
// mutated.
func CalculateWithHistory(books []*domain.Book, history *domain.StreakHistory, dailyGoal int, now time.Time) *domain.StreakData {
	merged := MergeReadingDays(ExtractPeriods(books), nil, books, now)

	days := daySetOf(merged)
	if history != nil {
		days = days.Union(history.ReadingDays)
	}

	stats := CalculateDays(days, now)

	var todayProgress float64
	if e, ok := merged[domain.DateKey(now)]; ok {
		todayProgress = e.TotalProgress()
	}

	return &domain.StreakData{
		CurrentStreak: stats.CurrentStreak,
		LongestStreak: stats.LongestStreak,
		LastReadDate:  stats.LastReadDate,
		TodayProgress: todayProgress,
		DailyGoal:     dailyGoal,
		HasReadToday:  stats.HasReadToday,
	}
}

// HistoryFromBooks builds a fresh history snapshot from a shelf: one period
// per dated book, one reading day per covered date.
func HistoryFromBooks(books []*domain.Book, now time.Time) *domain.StreakHistory {
	periods := ExtractPeriods(books)
	merged := MergeReadingDays(periods, nil, nil, now)

	return &domain.StreakHistory{
		ReadingDays:    daySetOf(merged),
		BookPeriods:    periods,
		LastCalculated: now.UTC(),
	}
}

// RefreshHistory rebuilds the snapshot from the current shelf while keeping
// every previously recorded day and period: days are only ever removed by an
// explicit user action, never by recalculation.
func RefreshHistory(books []*domain.Book, history *domain.StreakHistory, now time.Time) *domain.StreakHistory {
	fresh := HistoryFromBooks(books, now)

	if history != nil {
		fresh.ReadingDays = fresh.ReadingDays.Union(history.ReadingDays)

		combined := make([]domain.ReadingPeriod, 0, len(history.BookPeriods)+len(fresh.BookPeriods))
		combined = append(combined, history.BookPeriods...)
		combined = append(combined, fresh.BookPeriods...)
		fresh.BookPeriods = DedupPeriods(combined)
	}

	return fresh
}
