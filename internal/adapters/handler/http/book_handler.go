package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lettura-app/lettura-engine/internal/adapters/handler/http/middleware"
	"github.com/lettura-app/lettura-engine/internal/core/domain"
	"github.com/lettura-app/lettura-engine/internal/core/services"
)

type BookHandler struct {
	svc *services.BookService
}

func NewBookHandler(svc *services.BookService) *BookHandler {
	return &BookHandler{
		svc: svc,
	}
}

type createBookRequest struct {
	Title        string     `json:"title" binding:"required"`
	Author       string     `json:"author"`
	Status       string     `json:"status"`
	Progress     int        `json:"progress"`
	TotalPages   int        `json:"total_pages"`
	DateStarted  *time.Time `json:"date_started"`
	DateFinished *time.Time `json:"date_finished"`
}

type updateBookRequest struct {
	Title        string     `json:"title"`
	Author       string     `json:"author"`
	Status       string     `json:"status"`
	TotalPages   int        `json:"total_pages"`
	DateStarted  *time.Time `json:"date_started"`
	DateFinished *time.Time `json:"date_finished"`
	Version      int        `json:"version"`
}

type updateProgressRequest struct {
	Progress *int `json:"progress" binding:"required"`
}

func (h *BookHandler) RegisterRoutes(router *gin.RouterGroup) {
	books := router.Group("/books")
	{
		books.POST("", h.Create)
		books.GET("", h.List)
		books.GET("/sync", h.Sync)
		books.GET("/:id", h.Get)
		books.PUT("/:id", h.Update)
		books.PATCH("/:id/progress", h.UpdateProgress)
		books.DELETE("/:id", h.Delete)
	}
}

func (h *BookHandler) Create(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	var req createBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := services.CreateBookInput{
		UserID:       userID,
		Title:        req.Title,
		Author:       req.Author,
		Status:       req.Status,
		Progress:     req.Progress,
		TotalPages:   req.TotalPages,
		DateStarted:  req.DateStarted,
		DateFinished: req.DateFinished,
	}

	book, err := h.svc.Create(c.Request.Context(), input)
	if err != nil {
		if isBookValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusCreated, book)
}

func (h *BookHandler) List(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	list, err := h.svc.ListByUserID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, list)
}

func (h *BookHandler) Get(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	book, err := h.svc.GetByID(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		if errors.Is(err, domain.ErrBookNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "book not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, book)
}

func (h *BookHandler) Sync(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	lastSyncStr := c.Query("last_sync")
	var lastSync time.Time
	var err error

	if lastSyncStr != "" {
		lastSync, err = time.Parse(time.RFC3339, lastSyncStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid last_sync format, use RFC3339"})
			return
		}
	}

	deltas, err := h.svc.GetDelta(c.Request.Context(), userID, lastSync)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sync failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"changes":   deltas,
		"timestamp": time.Now().UTC(),
	})
}

func (h *BookHandler) Update(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	var req updateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := services.UpdateBookInput{
		ID:           c.Param("id"),
		UserID:       userID,
		Title:        req.Title,
		Author:       req.Author,
		Status:       req.Status,
		TotalPages:   req.TotalPages,
		DateStarted:  req.DateStarted,
		DateFinished: req.DateFinished,
		Version:      req.Version,
	}

	book, err := h.svc.Update(c.Request.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrBookConflict):
			c.JSON(http.StatusConflict, gin.H{
				"error":   "version conflict",
				"message": "Data has been modified elsewhere. Please sync.",
			})
		case errors.Is(err, domain.ErrBookNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "book not found"})
		case isBookValidationError(err):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, book)
}

func (h *BookHandler) UpdateProgress(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	var req updateProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Progress == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "progress is required"})
		return
	}

	entry, err := h.svc.UpdateProgress(c.Request.Context(), userID, c.Param("id"), *req.Progress)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrBookNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "book not found"})
		case errors.Is(err, domain.ErrInvalidProgress), errors.Is(err, domain.ErrBookArchived):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, entry)
}

func (h *BookHandler) Delete(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	err := h.svc.Delete(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		if errors.Is(err, domain.ErrBookNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "book not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.Status(http.StatusNoContent)
}

func isBookValidationError(err error) bool {
	return errors.Is(err, domain.ErrBookTitleEmpty) ||
		errors.Is(err, domain.ErrBookTitleTooLong) ||
		errors.Is(err, domain.ErrInvalidStatus) ||
		errors.Is(err, domain.ErrInvalidProgress) ||
		errors.Is(err, domain.ErrInvalidTotalPages) ||
		errors.Is(err, domain.ErrBookArchived)
}
