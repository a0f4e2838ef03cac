package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lettura-app/lettura-engine/internal/core/domain"
	"github.com/lettura-app/lettura-engine/internal/core/streak"
	"github.com/lettura-app/lettura-engine/internal/core/workers"
)

type BookService struct {
	repo    domain.BookRepository
	history domain.StreakHistoryRepository
	worker  *workers.StreakWorker
}

func NewBookService(repo domain.BookRepository, history domain.StreakHistoryRepository, worker *workers.StreakWorker) *BookService {
	return &BookService{
		repo:    repo,
		history: history,
		worker:  worker,
	}
}

type CreateBookInput struct {
	UserID       string
	Title        string
	Author       string
	Status       string
	Progress     int
	TotalPages   int
	DateStarted  *time.Time
	DateFinished *time.Time
}

type UpdateBookInput struct {
	ID           string
	UserID       string
	Title        string
	Author       string
	Status       string
	TotalPages   int
	DateStarted  *time.Time
	DateFinished *time.Time
	Version      int
}

func mergeString(newVal, oldVal string) string {
	if newVal == "" {
		return oldVal
	}
	return newVal
}

func (s *BookService) Create(ctx context.Context, input CreateBookInput) (*domain.Book, error) {
	book, err := domain.NewBook(input.UserID, input.Title, input.Author, input.Status, input.TotalPages)
	if err != nil {
		return nil, err
	}

	if input.DateStarted != nil {
		if err := book.StartReading(*input.DateStarted); err != nil {
			return nil, err
		}
	}
	if input.DateFinished != nil {
		if err := book.FinishReading(*input.DateFinished); err != nil {
			return nil, err
		}
	}
	if input.Progress > 0 && book.Status != domain.StatusFinished {
		if err := book.SetProgress(input.Progress); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Create(ctx, book); err != nil {
		return nil, err
	}

	s.worker.Enqueue(book.UserID)

	return book, nil
}

func (s *BookService) GetByID(ctx context.Context, id, userID string) (*domain.Book, error) {
	book, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if book.UserID != userID {
		return nil, domain.ErrBookNotFound
	}
	return book, nil
}

func (s *BookService) ListByUserID(ctx context.Context, userID string) ([]*domain.Book, error) {
	return s.repo.ListByUserID(ctx, userID)
}

func (s *BookService) GetDelta(ctx context.Context, userID string, lastSync time.Time) ([]*domain.Book, error) {
	return s.repo.GetChanges(ctx, userID, lastSync)
}

func (s *BookService) Update(ctx context.Context, input UpdateBookInput) (*domain.Book, error) {
	book, err := s.GetByID(ctx, input.ID, input.UserID)
	if err != nil {
		return nil, err
	}

	if input.Version > 0 && book.Version != input.Version {
		return nil, fmt.Errorf("%w: client v%d vs server v%d", domain.ErrBookConflict, input.Version, book.Version)
	}

	book.Title = mergeString(input.Title, book.Title)
	book.Author = mergeString(input.Author, book.Author)

	if input.TotalPages > 0 {
		book.TotalPages = input.TotalPages
	}
	if input.DateStarted != nil {
		if err := book.StartReading(*input.DateStarted); err != nil {
			return nil, err
		}
	}
	if input.DateFinished != nil {
		if err := book.FinishReading(*input.DateFinished); err != nil {
			return nil, err
		}
	}
	if input.Status != "" && input.Status != book.Status {
		switch input.Status {
		case domain.StatusFinished:
			if err := book.FinishReading(time.Now().UTC()); err != nil {
				return nil, err
			}
		case domain.StatusCurrentlyReading:
			if err := book.StartReading(time.Now().UTC()); err != nil {
				return nil, err
			}
		case domain.StatusWantToRead:
			book.Status = domain.StatusWantToRead
		default:
			return nil, domain.ErrInvalidStatus
		}
	}
	book.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, book); err != nil {
		return nil, err
	}

	s.worker.Enqueue(book.UserID)

	return book, nil
}

// UpdateProgress moves a book's progress and records what the edit means for
// today's reading activity: a positive pages estimate becomes a
// progress_update source on today's entry, which in turn makes today count
// toward the streak.
func (s *BookService) UpdateProgress(ctx context.Context, userID, bookID string, progress int) (*domain.ProgressEntry, error) {
	book, err := s.GetByID(ctx, bookID, userID)
	if err != nil {
		return nil, err
	}

	oldProgress := book.Progress
	if err := book.SetProgress(progress); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, book); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	entry := streak.TrackProgressUpdate(book, oldProgress, progress, now)

	if entry.PagesRead > 0 {
		dayEntry := domain.NewReadingDayEntry(entry.Date)
		dayEntry.AddSource(domain.Source{
			Type:      domain.SourceProgressUpdate,
			Timestamp: now,
			BookIDs:   []string{book.ID},
			Progress:  float64(entry.PagesRead),
		})
		if err := recordReadingDay(ctx, s.history, userID, dayEntry); err != nil {
			return nil, err
		}
	}

	s.worker.Enqueue(userID)

	return entry, nil
}

func (s *BookService) Delete(ctx context.Context, id, userID string) error {
	book, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if book.UserID != userID {
		return domain.ErrBookNotFound
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.worker.Enqueue(userID)

	return nil
}

// recordReadingDay persists a day entry and folds its date into the stored
// snapshot's day set, creating the snapshot when the user has none yet.
func recordReadingDay(ctx context.Context, repo domain.StreakHistoryRepository, userID string, entry *domain.ReadingDayEntry) error {
	if err := repo.AddReadingDay(ctx, userID, entry); err != nil {
		return err
	}

	history, err := repo.GetByUserID(ctx, userID)
	if err != nil {
		if !errors.Is(err, domain.ErrHistoryNotFound) {
			return err
		}
		history = &domain.StreakHistory{}
	}

	history.ReadingDays.Add(entry.Date)
	history.LastCalculated = time.Now().UTC()

	return repo.Save(ctx, userID, history)
}
