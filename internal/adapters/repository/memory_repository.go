package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/lettura-app/lettura-engine/internal/core/domain"
)

// In-memory repositories back handler tests and local development without a
// database. They hold pointers as-is; callers own copy semantics.

type InMemoryBookRepository struct {
	store map[string]*domain.Book

	mu sync.RWMutex
}

func NewInMemoryBookRepository() *InMemoryBookRepository {
	return &InMemoryBookRepository{
		store: make(map[string]*domain.Book),
	}
}

func (r *InMemoryBookRepository) Create(ctx context.Context, book *domain.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	book.Version = 1
	r.store[book.ID] = book
	return nil
}

func (r *InMemoryBookRepository) GetByID(ctx context.Context, id string) (*domain.Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	book, ok := r.store[id]
	if !ok || book.DeletedAt != nil {
		return nil, domain.ErrBookNotFound
	}
	return book, nil
}

func (r *InMemoryBookRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var books []*domain.Book
	for _, b := range r.store {
		if b.UserID == userID && b.DeletedAt == nil {
			books = append(books, b)
		}
	}

	sort.Slice(books, func(i, j int) bool {
		return books[i].CreatedAt.After(books[j].CreatedAt)
	})

	return books, nil
}

func (r *InMemoryBookRepository) Update(ctx context.Context, book *domain.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.store[book.ID]
	if !ok || existing.DeletedAt != nil {
		return domain.ErrBookNotFound
	}
	if existing.Version != book.Version {
		return domain.ErrBookConflict
	}

	book.Version++
	book.UpdatedAt = time.Now().UTC()
	r.store[book.ID] = book
	return nil
}

func (r *InMemoryBookRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	book, ok := r.store[id]
	if !ok || book.DeletedAt != nil {
		return domain.ErrBookNotFound
	}

	now := time.Now().UTC()
	book.DeletedAt = &now
	book.UpdatedAt = now
	book.Version++
	return nil
}

func (r *InMemoryBookRepository) GetChanges(ctx context.Context, userID string, since time.Time) ([]*domain.Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var books []*domain.Book
	for _, b := range r.store {
		if b.UserID == userID && b.UpdatedAt.After(since) {
			books = append(books, b)
		}
	}

	sort.Slice(books, func(i, j int) bool {
		return books[i].UpdatedAt.Before(books[j].UpdatedAt)
	})

	return books, nil
}

type InMemoryUserRepository struct {
	store map[string]*domain.User

	mu sync.RWMutex
}

func NewInMemoryUserRepository() *InMemoryUserRepository {
	return &InMemoryUserRepository{
		store: make(map[string]*domain.User),
	}
}

func (r *InMemoryUserRepository) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.store {
		if u.Email == user.Email {
			return domain.ErrEmailAlreadyExists
		}
	}
	r.store[user.ID] = user
	return nil
}

func (r *InMemoryUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	email = domain.NormalizeEmail(email)
	for _, u := range r.store {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *InMemoryUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.store[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

type InMemoryStreakHistoryRepository struct {
	histories map[string]*domain.StreakHistory
	entries   map[string]map[string]*domain.ReadingDayEntry

	mu sync.RWMutex
}

func NewInMemoryStreakHistoryRepository() *InMemoryStreakHistoryRepository {
	return &InMemoryStreakHistoryRepository{
		histories: make(map[string]*domain.StreakHistory),
		entries:   make(map[string]map[string]*domain.ReadingDayEntry),
	}
}

func (r *InMemoryStreakHistoryRepository) GetByUserID(ctx context.Context, userID string) (*domain.StreakHistory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.histories[userID]
	if !ok {
		return nil, domain.ErrHistoryNotFound
	}
	return h, nil
}

func (r *InMemoryStreakHistoryRepository) Save(ctx context.Context, userID string, history *domain.StreakHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.histories[userID] = history
	return nil
}

func (r *InMemoryStreakHistoryRepository) AddReadingDay(ctx context.Context, userID string, entry *domain.ReadingDayEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.entries[userID] == nil {
		r.entries[userID] = make(map[string]*domain.ReadingDayEntry)
	}

	if existing, ok := r.entries[userID][entry.Date]; ok {
		for _, s := range entry.Sources {
			existing.AddSource(s)
		}
		return nil
	}

	r.entries[userID][entry.Date] = entry
	return nil
}

func (r *InMemoryStreakHistoryRepository) UpdateReadingDay(ctx context.Context, userID string, entry *domain.ReadingDayEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.entries[userID] == nil {
		r.entries[userID] = make(map[string]*domain.ReadingDayEntry)
	}
	r.entries[userID][entry.Date] = entry
	return nil
}

func (r *InMemoryStreakHistoryRepository) RemoveReadingDay(ctx context.Context, userID string, date string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[userID][date]; !ok {
		return domain.ErrDayEntryNotFound
	}
	delete(r.entries[userID], date)
	return nil
}

func (r *InMemoryStreakHistoryRepository) ListReadingDays(ctx context.Context, userID string, from, to string) ([]*domain.ReadingDayEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.ReadingDayEntry
	for date, e := range r.entries[userID] {
		if date >= from && date <= to {
			out = append(out, e)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Date < out[j].Date
	})

	return out, nil
}

var (
	_ domain.BookRepository          = (*InMemoryBookRepository)(nil)
	_ domain.UserRepository          = (*InMemoryUserRepository)(nil)
	_ domain.StreakHistoryRepository = (*InMemoryStreakHistoryRepository)(nil)
)
