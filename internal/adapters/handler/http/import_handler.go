package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lettura-app/lettura-engine/internal/adapters/handler/http/middleware"
	"github.com/lettura-app/lettura-engine/internal/core/domain"
	"github.com/lettura-app/lettura-engine/internal/core/services"
)

type ImportHandler struct {
	svc *services.ImportService
}

func NewImportHandler(svc *services.ImportService) *ImportHandler {
	return &ImportHandler{svc: svc}
}

type importBookRecord struct {
	Title        string `json:"title"`
	Author       string `json:"author"`
	Status       string `json:"status"`
	Progress     int    `json:"progress"`
	TotalPages   int    `json:"total_pages"`
	DateStarted  string `json:"date_started"`
	DateFinished string `json:"date_finished"`
}

type importBooksRequest struct {
	Books     []importBookRecord `json:"books" binding:"required"`
	DailyGoal int                `json:"daily_goal"`
}

func (h *ImportHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/import/books", h.ImportBooks)
}

// ImportBooks accepts a batch exported from another app. Record dates are
// plain calendar dates; unparseable ones are dropped rather than failing the
// whole batch, matching how the reconciler treats unusable periods.
func (h *ImportHandler) ImportBooks(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	var req importBooksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.Books) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "books must not be empty"})
		return
	}
	if req.DailyGoal < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "daily_goal must be non-negative"})
		return
	}

	batch := make([]services.ImportBookInput, 0, len(req.Books))
	for _, rec := range req.Books {
		batch = append(batch, services.ImportBookInput{
			Title:        rec.Title,
			Author:       rec.Author,
			Status:       rec.Status,
			Progress:     rec.Progress,
			TotalPages:   rec.TotalPages,
			DateStarted:  parseOptionalDate(rec.DateStarted),
			DateFinished: parseOptionalDate(rec.DateFinished),
		})
	}

	result, err := h.svc.ImportBooks(c.Request.Context(), userID, batch, req.DailyGoal)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "import failed"})
		return
	}

	c.JSON(http.StatusOK, result)
}

func parseOptionalDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := domain.ParseDate(s)
	if err != nil {
		return nil
	}
	return &t
}
