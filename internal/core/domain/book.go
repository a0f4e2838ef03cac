package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrBookTitleEmpty    = errors.New("book title cannot be empty")
	ErrBookTitleTooLong  = errors.New("book title is too long (max 200 chars)")
	ErrBookInvalidUserID = errors.New("invalid user id")
	ErrInvalidStatus     = errors.New("invalid status (must be want_to_read, currently_reading, or finished)")
	ErrInvalidProgress   = errors.New("progress must be between 0 and 100")
	ErrInvalidTotalPages = errors.New("total pages cannot be negative")
	ErrBookArchived      = errors.New("cannot update a deleted book")
)

const (
	StatusWantToRead       = "want_to_read"
	StatusCurrentlyReading = "currently_reading"
	StatusFinished         = "finished"
	MaxBookTitleLen        = 200
)

type Book struct {
	ID     string `json:"id" db:"id"`
	UserID string `json:"user_id" db:"user_id"`
	Title  string `json:"title" db:"title"`
	Author string `json:"author" db:"author"`
	Status string `json:"status" db:"status"`

	// Progress is a percentage in [0,100]. A finished book is conventionally 100.
	Progress int `json:"progress" db:"progress"`

	// TotalPages is 0 when the page count is unknown.
	TotalPages int `json:"total_pages,omitempty" db:"total_pages"`

	DateStarted  *time.Time `json:"date_started,omitempty" db:"date_started"`
	DateFinished *time.Time `json:"date_finished,omitempty" db:"date_finished"`

	Version   int        `json:"version" db:"version"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

func validStatus(status string) bool {
	switch status {
	case StatusWantToRead, StatusCurrentlyReading, StatusFinished:
		return true
	}
	return false
}

func NewBook(userID, title, author, status string, totalPages int) (*Book, error) {
	if userID == "" {
		return nil, ErrBookInvalidUserID
	}

	trimmedTitle := strings.TrimSpace(title)
	if trimmedTitle == "" {
		return nil, ErrBookTitleEmpty
	}
	if len(trimmedTitle) > MaxBookTitleLen {
		return nil, ErrBookTitleTooLong
	}

	if status == "" {
		status = StatusWantToRead
	}
	if !validStatus(status) {
		return nil, ErrInvalidStatus
	}

	if totalPages < 0 {
		return nil, ErrInvalidTotalPages
	}

	now := time.Now().UTC()

	b := &Book{
		ID:         uuid.New().String(),
		UserID:     userID,
		Title:      trimmedTitle,
		Author:     strings.TrimSpace(author),
		Status:     status,
		TotalPages: totalPages,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if status == StatusFinished {
		b.Progress = 100
	}

	return b, nil
}

// SetProgress moves the reading progress to a new percentage. A book that was
// still on the shelf becomes currently_reading; hitting 100 finishes it.
func (b *Book) SetProgress(progress int) error {
	if b.DeletedAt != nil {
		return ErrBookArchived
	}
	if progress < 0 || progress > 100 {
		return ErrInvalidProgress
	}

	now := time.Now().UTC()

	b.Progress = progress
	if b.Status == StatusWantToRead && progress > 0 {
		b.Status = StatusCurrentlyReading
		if b.DateStarted == nil {
			b.DateStarted = &now
		}
	}
	if progress == 100 {
		b.Status = StatusFinished
		if b.DateFinished == nil {
			b.DateFinished = &now
		}
	}

	b.UpdatedAt = now
	return nil
}

func (b *Book) StartReading(date time.Time) error {
	if b.DeletedAt != nil {
		return ErrBookArchived
	}

	d := date.UTC()
	b.DateStarted = &d
	if b.Status == StatusWantToRead {
		b.Status = StatusCurrentlyReading
	}
	b.UpdatedAt = time.Now().UTC()
	return nil
}

func (b *Book) FinishReading(date time.Time) error {
	if b.DeletedAt != nil {
		return ErrBookArchived
	}

	d := date.UTC()
	b.DateFinished = &d
	b.Status = StatusFinished
	b.Progress = 100
	b.UpdatedAt = time.Now().UTC()
	return nil
}

// HasPeriod reports whether the book carries a usable reading period: both
// boundaries present and not inverted. Partial or inverted ranges are
// expected from imports and are simply not usable.
func (b *Book) HasPeriod() bool {
	if b.DateStarted == nil || b.DateFinished == nil {
		return false
	}
	return !b.DateFinished.Before(*b.DateStarted)
}

// BookMatcher decides whether two book records refer to the same book.
// Import reconciliation uses it to avoid duplicating a user's shelf.
type BookMatcher func(a, b *Book) bool

// MatchByTitleAuthor is the default equivalence heuristic: case-insensitive
// title + author. It is not a true identity; callers holding a stable
// external id should supply their own matcher.
func MatchByTitleAuthor(a, b *Book) bool {
	if a == nil || b == nil {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(a.Title), strings.TrimSpace(b.Title)) &&
		strings.EqualFold(strings.TrimSpace(a.Author), strings.TrimSpace(b.Author))
}
