package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/lettura-app/lettura-engine/internal/core/domain"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type PostgresBookRepository struct {
	db *sqlx.DB
}

func NewPostgresBookRepository(db *sqlx.DB) *PostgresBookRepository {
	return &PostgresBookRepository{db: db}
}

type scannable interface {
	Scan(dest ...interface{}) error
}

func (r *PostgresBookRepository) scanRow(row scannable) (*domain.Book, error) {
	var b domain.Book

	err := row.Scan(
		&b.ID, &b.UserID, &b.Title, &b.Author, &b.Status,
		&b.Progress, &b.TotalPages,
		&b.DateStarted, &b.DateFinished,
		&b.Version, &b.DeletedAt, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &b, nil
}

func (r *PostgresBookRepository) Create(ctx context.Context, b *domain.Book) error {
	query := `
        INSERT INTO books (
            id, user_id, title, author, status,
            progress, total_pages,
            date_started, date_finished,
            version, deleted_at, created_at, updated_at
        ) VALUES (
            $1, $2, $3, $4, $5,
            $6, $7,
            $8, $9,
            1, NULL, $10, $11
        )`

	_, err := r.db.ExecContext(ctx, query,
		b.ID, b.UserID, b.Title, b.Author, b.Status,
		b.Progress, b.TotalPages,
		b.DateStarted, b.DateFinished,
		b.CreatedAt, b.UpdatedAt,
	)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("failed to insert book: %w", err)
	}

	b.Version = 1
	return nil
}

func (r *PostgresBookRepository) GetByID(ctx context.Context, id string) (*domain.Book, error) {
	query := `SELECT * FROM books WHERE id = $1 AND deleted_at IS NULL`

	row := r.db.QueryRowContext(ctx, query, id)

	b, err := r.scanRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrBookNotFound
		}
		return nil, fmt.Errorf("database scan error: %w", err)
	}

	return b, nil
}

func (r *PostgresBookRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Book, error) {
	query := `
        SELECT * FROM books
        WHERE user_id = $1 AND deleted_at IS NULL
        ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	var books []*domain.Book

	for rows.Next() {
		b, err := r.scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("row scan error: %w", err)
		}
		books = append(books, b)
	}

	return books, nil
}

func (r *PostgresBookRepository) Update(ctx context.Context, b *domain.Book) error {
	query := `
        UPDATE books SET
            title=$1, author=$2, status=$3,
            progress=$4, total_pages=$5,
            date_started=$6, date_finished=$7,
            updated_at=NOW(), version = version + 1
        WHERE id=$8 AND version=$9 AND deleted_at IS NULL
        RETURNING version, updated_at`

	row := r.db.QueryRowContext(ctx, query,
		b.Title, b.Author, b.Status,
		b.Progress, b.TotalPages,
		b.DateStarted, b.DateFinished,
		b.ID, b.Version,
	)

	var newVersion int
	var newUpdatedAt time.Time

	err := row.Scan(&newVersion, &newUpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			existsQuery := `SELECT count(*) FROM books WHERE id = $1`
			var count int
			if checkErr := r.db.QueryRowContext(ctx, existsQuery, b.ID).Scan(&count); checkErr != nil {
				return fmt.Errorf("existence check failed: %w", checkErr)
			}

			if count == 0 {
				return domain.ErrBookNotFound
			}
			return domain.ErrBookConflict
		}
		return fmt.Errorf("update query failed: %w", err)
	}

	b.Version = newVersion
	b.UpdatedAt = newUpdatedAt

	return nil
}

func (r *PostgresBookRepository) Delete(ctx context.Context, id string) error {
	query := `
        UPDATE books
        SET deleted_at = NOW(), updated_at = NOW(), version = version + 1
        WHERE id = $1 AND deleted_at IS NULL`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete query failed: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrBookNotFound
	}

	return nil
}

func (r *PostgresBookRepository) GetChanges(ctx context.Context, userID string, since time.Time) ([]*domain.Book, error) {
	query := `
        SELECT * FROM books
        WHERE user_id = $1 AND updated_at > $2
        ORDER BY updated_at ASC`

	rows, err := r.db.QueryContext(ctx, query, userID, since)
	if err != nil {
		return nil, fmt.Errorf("sync query error: %w", err)
	}
	defer rows.Close()

	var books []*domain.Book

	for rows.Next() {
		b, err := r.scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("sync row scan error: %w", err)
		}
		books = append(books, b)
	}

	return books, nil
}
