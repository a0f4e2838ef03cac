package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/lettura-app/lettura-engine/internal/core/domain"
	"github.com/lettura-app/lettura-engine/internal/core/streak"
)

// StreakService orchestrates the pure engine against storage: it reads a
// fully-materialized snapshot, computes, and persists the returned value.
// All temporal logic lives in the engine.
type StreakService struct {
	books   domain.BookRepository
	history domain.StreakHistoryRepository
}

func NewStreakService(books domain.BookRepository, history domain.StreakHistoryRepository) *StreakService {
	return &StreakService{
		books:   books,
		history: history,
	}
}

func (s *StreakService) loadHistory(ctx context.Context, userID string) (*domain.StreakHistory, error) {
	history, err := s.history.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrHistoryNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return history, nil
}

// GetStreak computes the user's streak data and refreshes the persisted
// snapshot alongside.
func (s *StreakService) GetStreak(ctx context.Context, userID string, dailyGoal int) (*domain.StreakData, error) {
	books, err := s.books.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	history, err := s.loadHistory(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	data := streak.CalculateWithHistory(books, history, dailyGoal, now)

	if err := s.history.Save(ctx, userID, streak.RefreshHistory(books, history, now)); err != nil {
		return nil, err
	}

	return data, nil
}

// MarkDay records an explicit "I read on this date" action. An empty date
// means today. Marking an already-marked date merges sources instead of
// duplicating the day.
func (s *StreakService) MarkDay(ctx context.Context, userID, date, notes string) (*domain.ReadingDayEntry, error) {
	now := time.Now().UTC()

	if date == "" {
		date = domain.DateKey(now)
	}
	if _, err := domain.ParseDate(date); err != nil {
		return nil, err
	}

	entry := domain.NewReadingDayEntry(date)
	entry.AddSource(domain.Source{
		Type:      domain.SourceManual,
		Timestamp: now,
		Notes:     notes,
	})

	if err := recordReadingDay(ctx, s.history, userID, entry); err != nil {
		return nil, err
	}

	return entry, nil
}

// UnmarkDay removes a single day's entry and its date from the snapshot:
// the only way reading history ever shrinks.
func (s *StreakService) UnmarkDay(ctx context.Context, userID, date string) error {
	if _, err := domain.ParseDate(date); err != nil {
		return err
	}

	if err := s.history.RemoveReadingDay(ctx, userID, date); err != nil {
		return err
	}

	history, err := s.loadHistory(ctx, userID)
	if err != nil || history == nil {
		return err
	}

	history.ReadingDays.Remove(date)
	history.LastCalculated = time.Now().UTC()

	return s.history.Save(ctx, userID, history)
}

// ListDays returns the calendar history for the inclusive date range: stored
// entries plus the days covered by book reading periods, so every day the
// streak counts shows up with its evidence.
func (s *StreakService) ListDays(ctx context.Context, userID, from, to string) ([]*domain.ReadingDayEntry, error) {
	fromDate, err := domain.ParseDate(from)
	if err != nil {
		return nil, err
	}
	toDate, err := domain.ParseDate(to)
	if err != nil {
		return nil, err
	}
	if toDate.Before(fromDate) {
		return nil, domain.ErrInvalidDate
	}

	entries, err := s.history.ListReadingDays(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	history, err := s.loadHistory(ctx, userID)
	if err != nil {
		return nil, err
	}
	if history == nil || len(history.BookPeriods) == 0 {
		return entries, nil
	}

	byDate := make(map[string]*domain.ReadingDayEntry, len(entries))
	for _, e := range entries {
		byDate[e.Date] = e
	}

	// Period-covered days have no stored row of their own. Materialize their
	// book_completion evidence into the view; AddSource dedups against any
	// evidence the stored entry already carries.
	for _, p := range history.BookPeriods {
		start, end := p.StartDate, p.EndDate
		if start.Before(fromDate) {
			start = fromDate
		}
		if end.After(toDate) {
			end = toDate
		}
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			key := domain.DateKey(d)
			entry, ok := byDate[key]
			if !ok {
				entry = domain.NewReadingDayEntry(key)
				byDate[key] = entry
			}
			entry.AddSource(domain.Source{
				Type:      domain.SourceBookCompletion,
				Timestamp: p.EndDate,
				BookIDs:   []string{p.BookID},
			})
		}
	}

	out := make([]*domain.ReadingDayEntry, 0, len(byDate))
	for _, e := range byDate {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })

	return out, nil
}
