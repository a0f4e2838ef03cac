package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adapterHTTP "github.com/lettura-app/lettura-engine/internal/adapters/handler/http"
	"github.com/lettura-app/lettura-engine/internal/adapters/repository"
	"github.com/lettura-app/lettura-engine/internal/core/services"
	"github.com/lettura-app/lettura-engine/internal/core/workers"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func setupTestDB(t *testing.T) *sqlx.DB {
	dbUser := os.Getenv("DB_USER")
	if dbUser == "" {
		dbUser = "lettura_user"
	}
	dbPass := os.Getenv("DB_PASSWORD")
	if dbPass == "" {
		dbPass = "secret"
	}
	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		dbHost = "localhost"
	}
	dbPort := os.Getenv("DB_PORT")
	if dbPort == "" {
		dbPort = "5432"
	}
	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		dbName = "lettura_db"
	}

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		dbUser, dbPass, dbHost, dbPort, dbName)

	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		t.Skipf("Skipping end-to-end tests: database connection failed: %v", err)
	}
	return db
}

func setupRouter(t *testing.T, db *sqlx.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)

	bookRepo := repository.NewPostgresBookRepository(db)
	historyRepo := repository.NewPostgresStreakHistoryRepository(db)
	userRepo := repository.NewPostgresUserRepository(db)

	worker := workers.NewStreakWorker(bookRepo, historyRepo)

	authService := services.NewAuthService(userRepo)
	tokenService := services.NewTokenService("e2e-test-secret", "lettura-e2e", time.Hour, userRepo)
	bookService := services.NewBookService(bookRepo, historyRepo, worker)
	streakService := services.NewStreakService(bookRepo, historyRepo)
	importService := services.NewImportService(bookRepo, historyRepo, worker, nil)

	return adapterHTTP.NewRouter(adapterHTTP.RouterDependencies{
		AuthHandler:   adapterHTTP.NewAuthHandler(authService, tokenService),
		BookHandler:   adapterHTTP.NewBookHandler(bookService),
		StreakHandler: adapterHTTP.NewStreakHandler(streakService),
		ImportHandler: adapterHTTP.NewImportHandler(importService),
		TokenService:  tokenService,
		DB:            db,
		StartTime:     time.Now(),
	})
}

func do(t *testing.T, router *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	req, err := http.NewRequest(method, path, bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestEndToEnd_ReadingLifecycle(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	_, err := db.Exec("TRUNCATE TABLE reading_day_entries, streak_histories, books, users CASCADE")
	require.NoError(t, err, "Failed to clean test database")

	router := setupRouter(t, db)

	var token, bookID string

	t.Run("1. Register and Login", func(t *testing.T) {
		creds := `{"email": "e2e@lettura.app", "password": "StrongPassword123!"}`

		w := do(t, router, http.MethodPost, "/api/v1/auth/register", "", creds)
		require.Equal(t, http.StatusCreated, w.Code)

		w = do(t, router, http.MethodPost, "/api/v1/auth/login", "", creds)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Token string `json:"token"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.NotEmpty(t, resp.Token)
		token = resp.Token
	})

	t.Run("2. Create Book", func(t *testing.T) {
		require.NotEmpty(t, token)

		w := do(t, router, http.MethodPost, "/api/v1/books",
			token, `{"title": "Dune", "author": "Frank Herbert", "total_pages": 412}`)
		require.Equal(t, http.StatusCreated, w.Code)

		var resp struct {
			ID string `json:"id"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.NotEmpty(t, resp.ID)
		bookID = resp.ID
	})

	t.Run("3. Progress Update Counts Today", func(t *testing.T) {
		w := do(t, router, http.MethodPatch, "/api/v1/books/"+bookID+"/progress", token, `{"progress": 25}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"pages_read":103`)

		w = do(t, router, http.MethodGet, "/api/v1/streak", token, "")
		require.Equal(t, http.StatusOK, w.Code)

		var streakResp struct {
			CurrentStreak int  `json:"current_streak"`
			HasReadToday  bool `json:"has_read_today"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &streakResp))
		assert.True(t, streakResp.HasReadToday)
		assert.GreaterOrEqual(t, streakResp.CurrentStreak, 1)
	})

	t.Run("4. Manual Mark Extends History", func(t *testing.T) {
		yesterday := time.Now().UTC().AddDate(0, 0, -1).Format("2006-01-02")

		w := do(t, router, http.MethodPost, "/api/v1/streak/days", token,
			fmt.Sprintf(`{"date": %q}`, yesterday))
		require.Equal(t, http.StatusCreated, w.Code)

		w = do(t, router, http.MethodGet, "/api/v1/streak", token, "")
		require.Equal(t, http.StatusOK, w.Code)

		var streakResp struct {
			CurrentStreak int `json:"current_streak"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &streakResp))
		assert.Equal(t, 2, streakResp.CurrentStreak)
	})

	t.Run("5. Import Backfills Periods", func(t *testing.T) {
		w := do(t, router, http.MethodPost, "/api/v1/import/books", token, `{"books": [
			{"title": "Hyperion", "author": "Dan Simmons", "status": "finished", "date_started": "2026-01-01", "date_finished": "2026-01-07"}
		]}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"periods_processed":1`)
		assert.Contains(t, w.Body.String(), `"days_added":7`)
	})

	t.Run("6. Calendar Shows the Marked Day", func(t *testing.T) {
		w := do(t, router, http.MethodGet, "/api/v1/streak/days?from=2026-01-01&to=2026-01-07", token, "")
		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("7. Delete Book", func(t *testing.T) {
		w := do(t, router, http.MethodDelete, "/api/v1/books/"+bookID, token, "")
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = do(t, router, http.MethodGet, "/api/v1/books", token, "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotContains(t, w.Body.String(), bookID)
	})

	t.Run("8. Auth Required", func(t *testing.T) {
		w := do(t, router, http.MethodGet, "/api/v1/books", "", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
