package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lettura-app/lettura-engine/internal/adapters/handler/http/middleware"
	"github.com/lettura-app/lettura-engine/internal/core/domain"
	"github.com/lettura-app/lettura-engine/internal/core/services"
)

type StreakHandler struct {
	svc *services.StreakService
}

func NewStreakHandler(svc *services.StreakService) *StreakHandler {
	return &StreakHandler{svc: svc}
}

type markDayRequest struct {
	Date  string `json:"date"`
	Notes string `json:"notes"`
}

func (h *StreakHandler) RegisterRoutes(router *gin.RouterGroup) {
	streak := router.Group("/streak")
	{
		streak.GET("", h.GetStreak)
		streak.GET("/days", h.ListDays)
		streak.POST("/days", h.MarkDay)
		streak.DELETE("/days/:date", h.UnmarkDay)
	}
}

func (h *StreakHandler) GetStreak(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	// One page a day unless the client says otherwise.
	dailyGoal := 1
	if goalStr := c.Query("daily_goal"); goalStr != "" {
		goal, err := strconv.Atoi(goalStr)
		if err != nil || goal < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "daily_goal must be a non-negative integer"})
			return
		}
		dailyGoal = goal
	}

	data, err := h.svc.GetStreak(c.Request.Context(), userID, dailyGoal)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute streak"})
		return
	}

	c.JSON(http.StatusOK, data)
}

func (h *StreakHandler) MarkDay(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	var req markDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.svc.MarkDay(c.Request.Context(), userID, req.Date, req.Notes)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidDate) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusCreated, entry)
}

func (h *StreakHandler) UnmarkDay(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	err := h.svc.UnmarkDay(c.Request.Context(), userID, c.Param("date"))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidDate):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
		case errors.Is(err, domain.ErrDayEntryNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "no entry for that date"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// ListDays serves the calendar view: one entry per reading day in the range,
// defaulting to the last 30 days.
func (h *StreakHandler) ListDays(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	now := time.Now().UTC()
	from := c.Query("from")
	to := c.Query("to")
	if to == "" {
		to = domain.DateKey(now)
	}
	if from == "" {
		from = domain.DateKey(now.AddDate(0, 0, -29))
	}

	entries, err := h.svc.ListDays(c.Request.Context(), userID, from, to)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidDate) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid range, expected YYYY-MM-DD dates with from <= to"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"from": from,
		"to":   to,
		"days": entries,
	})
}
