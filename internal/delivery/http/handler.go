package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/powersearch/backend/internal/domain"
	"github.com/powersearch/backend/internal/usecase"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	search *usecase.SearchService
	logger *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(search *usecase.SearchService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{search: search, logger: logger}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "powersearch-backend",
		"version": "1.0.0",
	})
}

// Search handles product search requests. Invalid input gets a 400; a search
// where every source failed still returns 200 with success=false in the body
// so clients read one response shape.
func (h *Handler) Search(c *gin.Context) {
	var req domain.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "invalid request body: " + err.Error(),
		})
		return
	}

	resp, err := h.search.Search(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidRequest) {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   err.Error(),
			})
			return
		}
		h.logger.Error("search failed",
			zap.String("query", req.Query),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "internal server error",
		})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Regions returns the supported region list
func (h *Handler) Regions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"regions": h.search.Regions(),
	})
}

// Stores returns the supported store list with the regions each one serves
func (h *Handler) Stores(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stores":  h.search.Stores(),
	})
}
