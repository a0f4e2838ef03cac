package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adapterHTTP "github.com/lettura-app/lettura-engine/internal/adapters/handler/http"
	"github.com/lettura-app/lettura-engine/internal/adapters/repository"
	"github.com/lettura-app/lettura-engine/internal/core/domain"
	"github.com/lettura-app/lettura-engine/internal/core/services"
)

func setupStreakRouter() (*gin.Engine, *repository.InMemoryStreakHistoryRepository) {
	gin.SetMode(gin.TestMode)

	books := repository.NewInMemoryBookRepository()
	history := repository.NewInMemoryStreakHistoryRepository()

	svc := services.NewStreakService(books, history)
	handler := adapterHTTP.NewStreakHandler(svc)

	r := gin.New()
	group := r.Group("/api/v1")
	group.Use(headerAuth())
	handler.RegisterRoutes(group)

	return r, history
}

func TestMarkDay(t *testing.T) {
	t.Run("Success: 201 with explicit date", func(t *testing.T) {
		router, _ := setupStreakRouter()

		w := doJSON(t, router, "POST", "/api/v1/streak/days", "user-1", `{"date": "2026-08-20", "notes": "train ride"}`)

		assert.Equal(t, http.StatusCreated, w.Code)

		var entry domain.ReadingDayEntry
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entry))
		assert.Equal(t, "2026-08-20", entry.Date)
		assert.True(t, entry.HasSource(domain.SourceManual))
	})

	t.Run("Success: empty date means today", func(t *testing.T) {
		router, _ := setupStreakRouter()

		w := doJSON(t, router, "POST", "/api/v1/streak/days", "user-1", `{}`)

		assert.Equal(t, http.StatusCreated, w.Code)

		var entry domain.ReadingDayEntry
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entry))
		assert.Equal(t, domain.DateKey(time.Now().UTC()), entry.Date)
	})

	t.Run("Fail: 400 on malformed date", func(t *testing.T) {
		router, _ := setupStreakRouter()

		w := doJSON(t, router, "POST", "/api/v1/streak/days", "user-1", `{"date": "20/08/2026"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestUnmarkDay(t *testing.T) {
	router, _ := setupStreakRouter()

	w := doJSON(t, router, "POST", "/api/v1/streak/days", "user-1", `{"date": "2026-08-20"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	t.Run("Success: 204 No Content", func(t *testing.T) {
		w := doJSON(t, router, "DELETE", "/api/v1/streak/days/2026-08-20", "user-1", "")
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("Fail: 404 for a date never marked", func(t *testing.T) {
		w := doJSON(t, router, "DELETE", "/api/v1/streak/days/2026-08-21", "user-1", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Fail: 400 on malformed date", func(t *testing.T) {
		w := doJSON(t, router, "DELETE", "/api/v1/streak/days/not-a-date", "user-1", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGetStreak(t *testing.T) {
	t.Run("Success: marked days feed the streak", func(t *testing.T) {
		router, _ := setupStreakRouter()

		today := time.Now().UTC()
		for i := 0; i < 3; i++ {
			date := domain.DateKey(today.AddDate(0, 0, -i))
			body := fmt.Sprintf(`{"date": %q}`, date)
			w := doJSON(t, router, "POST", "/api/v1/streak/days", "user-1", body)
			require.Equal(t, http.StatusCreated, w.Code)
		}

		w := doJSON(t, router, "GET", "/api/v1/streak?daily_goal=20", "user-1", "")
		assert.Equal(t, http.StatusOK, w.Code)

		var data domain.StreakData
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &data))
		assert.Equal(t, 3, data.CurrentStreak)
		assert.Equal(t, 3, data.LongestStreak)
		assert.True(t, data.HasReadToday)
		assert.Equal(t, 20, data.DailyGoal)
	})

	t.Run("Success: empty history yields zeros", func(t *testing.T) {
		router, _ := setupStreakRouter()

		w := doJSON(t, router, "GET", "/api/v1/streak", "user-1", "")
		assert.Equal(t, http.StatusOK, w.Code)

		var data domain.StreakData
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &data))
		assert.Equal(t, 0, data.CurrentStreak)
		assert.Equal(t, 0, data.LongestStreak)
		assert.False(t, data.HasReadToday)
		assert.Equal(t, 1, data.DailyGoal, "absent daily_goal defaults to one page")
	})

	t.Run("Fail: 400 on negative daily_goal", func(t *testing.T) {
		router, _ := setupStreakRouter()

		w := doJSON(t, router, "GET", "/api/v1/streak?daily_goal=-5", "user-1", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestListDays(t *testing.T) {
	router, _ := setupStreakRouter()

	for _, date := range []string{"2026-08-18", "2026-08-19", "2026-08-21"} {
		body := fmt.Sprintf(`{"date": %q}`, date)
		w := doJSON(t, router, "POST", "/api/v1/streak/days", "user-1", body)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	t.Run("Success: explicit range", func(t *testing.T) {
		w := doJSON(t, router, "GET", "/api/v1/streak/days?from=2026-08-18&to=2026-08-19", "user-1", "")
		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			From string                    `json:"from"`
			To   string                    `json:"to"`
			Days []*domain.ReadingDayEntry `json:"days"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Days, 2)
		assert.Equal(t, "2026-08-18", resp.Days[0].Date)
		assert.Equal(t, "2026-08-19", resp.Days[1].Date)
	})

	t.Run("Fail: 400 on inverted range", func(t *testing.T) {
		w := doJSON(t, router, "GET", "/api/v1/streak/days?from=2026-08-21&to=2026-08-18", "user-1", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Success: period-covered days render without stored rows", func(t *testing.T) {
		router, history := setupStreakRouter()

		start, err := domain.ParseDate("2026-07-01")
		require.NoError(t, err)
		end, err := domain.ParseDate("2026-07-03")
		require.NoError(t, err)
		require.NoError(t, history.Save(context.Background(), "user-1", &domain.StreakHistory{
			ReadingDays: domain.NewDaySet("2026-07-01", "2026-07-02", "2026-07-03"),
			BookPeriods: []domain.ReadingPeriod{{
				BookID:    "book-1",
				Title:     "Dune",
				StartDate: start,
				EndDate:   end,
				TotalDays: 3,
			}},
		}))

		w := doJSON(t, router, "GET", "/api/v1/streak/days?from=2026-07-01&to=2026-07-03", "user-1", "")
		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Days []*domain.ReadingDayEntry `json:"days"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Days, 3)
		for _, d := range resp.Days {
			assert.Equal(t, domain.SourceBookCompletion, d.DisplaySource(), d.Date)
		}
	})
}
