package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lettura-app/lettura-engine/internal/core/domain"
)

var _ domain.BookRepository = (*CachedBookRepository)(nil)

// CachedBookRepository decorates a BookRepository with a per-user shelf cache.
// Only ListByUserID is cached; it is the query both the streak worker and the
// shelf page hammer. Writes invalidate the whole user key.
type CachedBookRepository struct {
	next  domain.BookRepository
	cache *redis.Client
}

func NewCachedBookRepository(next domain.BookRepository, cache *redis.Client) *CachedBookRepository {
	return &CachedBookRepository{
		next:  next,
		cache: cache,
	}
}

func (r *CachedBookRepository) cacheKey(userID string) string {
	return fmt.Sprintf("books:%s", userID)
}

func (r *CachedBookRepository) invalidate(ctx context.Context, userID string) {
	if err := r.cache.Del(ctx, r.cacheKey(userID)).Err(); err != nil {
		log.Printf("[CACHE] Failed to invalidate for user %s: %v", userID, err)
	}
}

func (r *CachedBookRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Book, error) {
	key := r.cacheKey(userID)

	val, err := r.cache.Get(ctx, key).Result()
	if err == nil {
		var books []*domain.Book
		if err := json.Unmarshal([]byte(val), &books); err == nil {
			return books, nil
		}

		log.Printf("[CACHE] Corrupted data for user %s, cleaning up key", userID)
		r.cache.Del(ctx, key)
	} else if err != redis.Nil {
		log.Printf("[CACHE] Redis read error: %v", err)
	}

	books, err := r.next.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(books); err == nil {
		if setErr := r.cache.Set(ctx, key, data, 30*time.Minute).Err(); setErr != nil {
			log.Printf("[CACHE] Redis set error: %v", setErr)
		}
	}

	return books, nil
}

func (r *CachedBookRepository) GetByID(ctx context.Context, id string) (*domain.Book, error) {
	return r.next.GetByID(ctx, id)
}

func (r *CachedBookRepository) GetChanges(ctx context.Context, userID string, since time.Time) ([]*domain.Book, error) {
	return r.next.GetChanges(ctx, userID, since)
}

func (r *CachedBookRepository) Create(ctx context.Context, book *domain.Book) error {
	if err := r.next.Create(ctx, book); err != nil {
		return err
	}
	r.invalidate(ctx, book.UserID)
	return nil
}

func (r *CachedBookRepository) Update(ctx context.Context, book *domain.Book) error {
	if err := r.next.Update(ctx, book); err != nil {
		return err
	}
	r.invalidate(ctx, book.UserID)
	return nil
}

func (r *CachedBookRepository) Delete(ctx context.Context, id string) error {
	book, err := r.next.GetByID(ctx, id)
	if err == nil && book != nil {
		defer r.invalidate(ctx, book.UserID)
	}

	return r.next.Delete(ctx, id)
}
