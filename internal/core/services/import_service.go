package services

import (
	"context"
	"errors"
	"time"

	"github.com/lettura-app/lettura-engine/internal/core/domain"
	"github.com/lettura-app/lettura-engine/internal/core/streak"
	"github.com/lettura-app/lettura-engine/internal/core/workers"
)

// ImportService folds batches of externally-parsed book records into a
// user's shelf and reading history. Import is best-effort end to end:
// records that cannot produce a valid book or period are skipped, never
// errored.
type ImportService struct {
	books   domain.BookRepository
	history domain.StreakHistoryRepository
	matcher domain.BookMatcher
	worker  *workers.StreakWorker
}

func NewImportService(books domain.BookRepository, history domain.StreakHistoryRepository, worker *workers.StreakWorker, matcher domain.BookMatcher) *ImportService {
	if matcher == nil {
		matcher = domain.MatchByTitleAuthor
	}
	return &ImportService{
		books:   books,
		history: history,
		matcher: matcher,
		worker:  worker,
	}
}

// ImportBookInput is one already-parsed record; date parsing from CSV or
// locale formats happens upstream.
type ImportBookInput struct {
	Title        string
	Author       string
	Status       string
	Progress     int
	TotalPages   int
	DateStarted  *time.Time
	DateFinished *time.Time
}

// ImportBooks reconciles a batch against the user's existing shelf and
// history, persists the new books and the updated snapshot, and reports what
// changed. Records matching an existing book (by the configured equivalence
// heuristic) still contribute their reading periods but are not added to the
// shelf again.
func (s *ImportService) ImportBooks(ctx context.Context, userID string, batch []ImportBookInput, dailyGoal int) (*streak.ImportResult, error) {
	existing, err := s.books.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	history, err := s.history.GetByUserID(ctx, userID)
	if err != nil {
		if !errors.Is(err, domain.ErrHistoryNotFound) {
			return nil, err
		}
		history = nil
	}

	var imported, toCreate []*domain.Book
	for _, in := range batch {
		book, err := domain.NewBook(userID, in.Title, in.Author, in.Status, in.TotalPages)
		if err != nil {
			continue
		}

		if in.DateStarted != nil {
			d := in.DateStarted.UTC()
			book.DateStarted = &d
		}
		if in.DateFinished != nil {
			d := in.DateFinished.UTC()
			book.DateFinished = &d
		}
		if in.Progress > 0 && in.Progress <= 100 && book.Status != domain.StatusFinished {
			book.Progress = in.Progress
		}

		// A record matching a shelved book keeps that book's identity so its
		// period dedups against prior imports instead of minting a new id.
		if match := s.findExisting(existing, book); match != nil {
			book.ID = match.ID
		} else {
			toCreate = append(toCreate, book)
		}
		imported = append(imported, book)
	}

	result := streak.ProcessImport(imported, existing, history, dailyGoal, time.Now().UTC())

	for _, book := range toCreate {
		if err := s.books.Create(ctx, book); err != nil {
			return nil, err
		}
	}

	if err := s.history.Save(ctx, userID, result.History); err != nil {
		return nil, err
	}

	s.worker.Enqueue(userID)

	return result, nil
}

func (s *ImportService) findExisting(existing []*domain.Book, candidate *domain.Book) *domain.Book {
	for _, b := range existing {
		if s.matcher(b, candidate) {
			return b
		}
	}
	return nil
}
