package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrBookNotFound    = errors.New("book not found")
	ErrBookConflict    = errors.New("book version conflict")
	ErrHistoryNotFound = errors.New("streak history not found")
)

type BookRepository interface {
	// Create persists a new book on the user's shelf.
	Create(ctx context.Context, book *Book) error

	// GetByID retrieves an active (non-deleted) book by its identifier.
	GetByID(ctx context.Context, id string) (*Book, error)

	// ListByUserID retrieves all active books belonging to a user.
	ListByUserID(ctx context.Context, userID string) ([]*Book, error)

	// Update modifies an existing book. Implementations must enforce
	// optimistic locking on the version column.
	Update(ctx context.Context, book *Book) error

	// Delete soft-deletes a book.
	Delete(ctx context.Context, id string) error

	// GetChanges returns only the deltas occurring after a specific
	// timestamp, soft-deletes included. Used by offline clients to sync.
	GetChanges(ctx context.Context, userID string, since time.Time) ([]*Book, error)
}

// StreakHistoryRepository owns the per-user streak snapshot and the
// per-date reading-day entries that back it. The engine itself never touches
// this interface; services read a snapshot, run the engine, and save the
// result back.
type StreakHistoryRepository interface {
	// GetByUserID returns the stored snapshot, or ErrHistoryNotFound when
	// the user has no history yet.
	GetByUserID(ctx context.Context, userID string) (*StreakHistory, error)

	// Save upserts the snapshot as a whole.
	Save(ctx context.Context, userID string, history *StreakHistory) error

	// AddReadingDay inserts a day entry, merging sources into the existing
	// entry when the date is already present. A date never gets two rows.
	AddReadingDay(ctx context.Context, userID string, entry *ReadingDayEntry) error

	// UpdateReadingDay replaces the stored entry for a date.
	UpdateReadingDay(ctx context.Context, userID string, entry *ReadingDayEntry) error

	// RemoveReadingDay deletes the entry for a date.
	RemoveReadingDay(ctx context.Context, userID string, date string) error

	// ListReadingDays returns entries in [from, to], ascending by date.
	ListReadingDays(ctx context.Context, userID string, from, to string) ([]*ReadingDayEntry, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
}
