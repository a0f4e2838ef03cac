package workers

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/lettura-app/lettura-engine/internal/core/domain"
	"github.com/lettura-app/lettura-engine/internal/core/streak"
)

type BookRepository interface {
	ListByUserID(ctx context.Context, userID string) ([]*domain.Book, error)
}

type HistoryRepository interface {
	GetByUserID(ctx context.Context, userID string) (*domain.StreakHistory, error)
	Save(ctx context.Context, userID string, history *domain.StreakHistory) error
}

type StreakJob struct {
	UserID string
}

// StreakWorker refreshes a user's streak snapshot in the background after
// shelf writes, so reads stay cheap and the HTTP path never waits on a
// recomputation.
type StreakWorker struct {
	books   BookRepository
	history HistoryRepository
	jobs    chan StreakJob
}

func NewStreakWorker(books BookRepository, history HistoryRepository) *StreakWorker {
	return &StreakWorker{
		books:   books,
		history: history,
		jobs:    make(chan StreakJob, 100),
	}
}

func (w *StreakWorker) Start(ctx context.Context) {
	go func() {
		log.Println("Streak Worker started in background...")
		for {
			select {
			case job := <-w.jobs:
				w.processJob(ctx, job)
			case <-ctx.Done():
				log.Println("Streak Worker shutting down...")
				return
			}
		}
	}()
}

func (w *StreakWorker) Enqueue(userID string) {
	select {
	case w.jobs <- StreakJob{UserID: userID}:
	default:
		log.Printf("Streak Worker queue full! Dropping job for user %s", userID)
	}
}

func (w *StreakWorker) processJob(ctx context.Context, job StreakJob) {
	books, err := w.books.ListByUserID(ctx, job.UserID)
	if err != nil {
		log.Printf("Worker Error fetching books for %s: %v", job.UserID, err)
		return
	}

	history, err := w.history.GetByUserID(ctx, job.UserID)
	if err != nil && !errors.Is(err, domain.ErrHistoryNotFound) {
		log.Printf("Worker Error fetching history for %s: %v", job.UserID, err)
		return
	}

	refreshed := streak.RefreshHistory(books, history, time.Now().UTC())

	if history != nil &&
		refreshed.ReadingDays.Equal(history.ReadingDays) &&
		len(refreshed.BookPeriods) == len(history.BookPeriods) {
		return
	}

	if err := w.history.Save(ctx, job.UserID, refreshed); err != nil {
		log.Printf("Worker Failed to save snapshot for %s: %v", job.UserID, err)
		return
	}

	log.Printf("Streak snapshot refreshed for %s: %d reading days, %d periods",
		job.UserID, refreshed.ReadingDays.Len(), len(refreshed.BookPeriods))
}
