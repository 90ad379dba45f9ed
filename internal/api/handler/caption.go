package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/timmy/memeverse/internal/metrics"
	"github.com/timmy/memeverse/internal/service"
)

// CaptionHandler serves caption suggestions.
type CaptionHandler struct {
	captions *service.CaptionService
}

// NewCaptionHandler creates a new caption handler.
func NewCaptionHandler(captions *service.CaptionService) *CaptionHandler {
	return &CaptionHandler{captions: captions}
}

// CaptionRequest is the body of POST /api/v1/captions.
type CaptionRequest struct {
	Title string `json:"title"`
}

// Generate handles POST /api/v1/captions.
func (h *CaptionHandler) Generate(c *gin.Context) {
	var req CaptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	caption, err := h.captions.Generate(c.Request.Context(), req.Title)
	if err != nil {
		if errors.Is(err, service.ErrTitleRequired) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Please add a title first"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate caption: " + err.Error()})
		return
	}
	metrics.CaptionsTotal.Inc()
	c.JSON(http.StatusOK, gin.H{"caption": caption})
}
