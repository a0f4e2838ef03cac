package domain

import (
	"encoding/json"
	"sort"
	"time"
)

// DaySet is an ordered set of ISO calendar dates (YYYY-MM-DD). The in-memory
// core only ever sees this one representation; (de)serialization to the
// stored sorted-array form happens at the storage boundary via the JSON
// methods below.
type DaySet struct {
	days map[string]struct{}
}

func NewDaySet(dates ...string) DaySet {
	s := DaySet{days: make(map[string]struct{}, len(dates))}
	for _, d := range dates {
		s.days[d] = struct{}{}
	}
	return s
}

func (s *DaySet) Add(date string) {
	if s.days == nil {
		s.days = make(map[string]struct{})
	}
	s.days[date] = struct{}{}
}

func (s *DaySet) Remove(date string) {
	delete(s.days, date)
}

func (s DaySet) Contains(date string) bool {
	_, ok := s.days[date]
	return ok
}

func (s DaySet) Len() int {
	return len(s.days)
}

// Dates returns the member dates in ascending order. ISO dates sort
// lexicographically, so plain string sort is chronological.
func (s DaySet) Dates() []string {
	out := make([]string, 0, len(s.days))
	for d := range s.days {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// Union returns a new set holding the dates of both operands.
func (s DaySet) Union(other DaySet) DaySet {
	merged := NewDaySet()
	for d := range s.days {
		merged.days[d] = struct{}{}
	}
	for d := range other.days {
		merged.days[d] = struct{}{}
	}
	return merged
}

func (s DaySet) Clone() DaySet {
	return s.Union(NewDaySet())
}

func (s DaySet) Equal(other DaySet) bool {
	if len(s.days) != len(other.days) {
		return false
	}
	for d := range s.days {
		if _, ok := other.days[d]; !ok {
			return false
		}
	}
	return true
}

func (s DaySet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Dates())
}

func (s *DaySet) UnmarshalJSON(data []byte) error {
	var dates []string
	if err := json.Unmarshal(data, &dates); err != nil {
		return err
	}
	*s = NewDaySet(dates...)
	return nil
}

// ReadingPeriod is the inclusive date range a single book was actively being
// read, derived from its start/finish dates. Never persisted on its own.
type ReadingPeriod struct {
	BookID    string    `json:"book_id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	TotalDays int       `json:"total_days"`
}

// StreakHistory is the persisted per-user snapshot the engine reads and
// rebuilds. The engine never writes it anywhere; callers persist the value
// it returns.
type StreakHistory struct {
	ReadingDays    DaySet          `json:"reading_days"`
	BookPeriods    []ReadingPeriod `json:"book_periods"`
	LastCalculated time.Time       `json:"last_calculated"`
}

// StreakData is the computed output consumed by the API layer.
type StreakData struct {
	CurrentStreak int     `json:"current_streak"`
	LongestStreak int     `json:"longest_streak"`
	LastReadDate  string  `json:"last_read_date,omitempty"`
	TodayProgress float64 `json:"today_progress"`
	DailyGoal     int     `json:"daily_goal"`
	HasReadToday  bool    `json:"has_read_today"`
}
