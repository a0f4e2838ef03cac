package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/lettura-app/lettura-engine/internal/core/domain"
)

// PostgresStreakHistoryRepository stores the per-user streak snapshot as a
// single row (day set and periods as jsonb) plus one row per reading day in
// reading_day_entries, keyed on (user_id, date) so a date never duplicates.
type PostgresStreakHistoryRepository struct {
	db *sqlx.DB
}

func NewPostgresStreakHistoryRepository(db *sqlx.DB) *PostgresStreakHistoryRepository {
	return &PostgresStreakHistoryRepository{db: db}
}

func (r *PostgresStreakHistoryRepository) GetByUserID(ctx context.Context, userID string) (*domain.StreakHistory, error) {
	query := `
        SELECT reading_days, book_periods, last_calculated
        FROM streak_histories
        WHERE user_id = $1`

	var daysJSON, periodsJSON []byte
	var lastCalculated time.Time

	err := r.db.QueryRowContext(ctx, query, userID).Scan(&daysJSON, &periodsJSON, &lastCalculated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrHistoryNotFound
		}
		return nil, fmt.Errorf("history query error: %w", err)
	}

	history := &domain.StreakHistory{LastCalculated: lastCalculated}

	if len(daysJSON) > 0 {
		if err := json.Unmarshal(daysJSON, &history.ReadingDays); err != nil {
			return nil, fmt.Errorf("failed to unmarshal reading days: %w", err)
		}
	}
	if len(periodsJSON) > 0 {
		if err := json.Unmarshal(periodsJSON, &history.BookPeriods); err != nil {
			return nil, fmt.Errorf("failed to unmarshal book periods: %w", err)
		}
	}

	return history, nil
}

func (r *PostgresStreakHistoryRepository) Save(ctx context.Context, userID string, history *domain.StreakHistory) error {
	daysJSON, err := json.Marshal(history.ReadingDays)
	if err != nil {
		return fmt.Errorf("failed to marshal reading days: %w", err)
	}
	periodsJSON, err := json.Marshal(history.BookPeriods)
	if err != nil {
		return fmt.Errorf("failed to marshal book periods: %w", err)
	}

	query := `
        INSERT INTO streak_histories (user_id, reading_days, book_periods, last_calculated, updated_at)
        VALUES ($1, $2, $3, $4, NOW())
        ON CONFLICT (user_id) DO UPDATE SET
            reading_days = EXCLUDED.reading_days,
            book_periods = EXCLUDED.book_periods,
            last_calculated = EXCLUDED.last_calculated,
            updated_at = NOW()`

	_, err = r.db.ExecContext(ctx, query, userID, daysJSON, periodsJSON, history.LastCalculated)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("failed to save history: %w", err)
	}

	return nil
}

func (r *PostgresStreakHistoryRepository) AddReadingDay(ctx context.Context, userID string, entry *domain.ReadingDayEntry) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	existing, err := r.getEntryTx(ctx, tx, userID, entry.Date, true)
	if err != nil && !errors.Is(err, domain.ErrDayEntryNotFound) {
		return err
	}

	merged := entry
	if existing != nil {
		for _, s := range entry.Sources {
			existing.AddSource(s)
		}
		merged = existing
	}

	if err := upsertEntryTx(ctx, tx, userID, merged); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *PostgresStreakHistoryRepository) UpdateReadingDay(ctx context.Context, userID string, entry *domain.ReadingDayEntry) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := upsertEntryTx(ctx, tx, userID, entry); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *PostgresStreakHistoryRepository) RemoveReadingDay(ctx context.Context, userID string, date string) error {
	query := `DELETE FROM reading_day_entries WHERE user_id = $1 AND date = $2`

	res, err := r.db.ExecContext(ctx, query, userID, date)
	if err != nil {
		return fmt.Errorf("delete query failed: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrDayEntryNotFound
	}

	return nil
}

func (r *PostgresStreakHistoryRepository) ListReadingDays(ctx context.Context, userID string, from, to string) ([]*domain.ReadingDayEntry, error) {
	query := `
        SELECT date, sources
        FROM reading_day_entries
        WHERE user_id = $1 AND date >= $2 AND date <= $3
        ORDER BY date ASC`

	rows, err := r.db.QueryContext(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("entries query error: %w", err)
	}
	defer rows.Close()

	var entries []*domain.ReadingDayEntry

	for rows.Next() {
		var date string
		var sourcesJSON []byte

		if err := rows.Scan(&date, &sourcesJSON); err != nil {
			return nil, fmt.Errorf("entry scan error: %w", err)
		}

		e := &domain.ReadingDayEntry{Date: date}
		if len(sourcesJSON) > 0 {
			if err := json.Unmarshal(sourcesJSON, &e.Sources); err != nil {
				return nil, fmt.Errorf("failed to unmarshal sources: %w", err)
			}
		}
		entries = append(entries, e)
	}

	return entries, nil
}

func (r *PostgresStreakHistoryRepository) getEntryTx(ctx context.Context, tx *sqlx.Tx, userID, date string, forUpdate bool) (*domain.ReadingDayEntry, error) {
	query := `SELECT sources FROM reading_day_entries WHERE user_id = $1 AND date = $2`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var sourcesJSON []byte
	err := tx.QueryRowContext(ctx, query, userID, date).Scan(&sourcesJSON)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrDayEntryNotFound
		}
		return nil, fmt.Errorf("entry query error: %w", err)
	}

	e := &domain.ReadingDayEntry{Date: date}
	if len(sourcesJSON) > 0 {
		if err := json.Unmarshal(sourcesJSON, &e.Sources); err != nil {
			return nil, fmt.Errorf("failed to unmarshal sources: %w", err)
		}
	}
	return e, nil
}

func upsertEntryTx(ctx context.Context, tx *sqlx.Tx, userID string, entry *domain.ReadingDayEntry) error {
	sourcesJSON, err := json.Marshal(entry.Sources)
	if err != nil {
		return fmt.Errorf("failed to marshal sources: %w", err)
	}

	query := `
        INSERT INTO reading_day_entries (user_id, date, sources, created_at, updated_at)
        VALUES ($1, $2, $3, NOW(), NOW())
        ON CONFLICT (user_id, date) DO UPDATE SET
            sources = EXCLUDED.sources,
            updated_at = NOW()`

	_, err = tx.ExecContext(ctx, query, userID, entry.Date, sourcesJSON)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("failed to upsert entry: %w", err)
	}

	return nil
}
