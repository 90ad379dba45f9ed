package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/timmy/memeverse/internal/metrics"
	"github.com/timmy/memeverse/internal/repository"
	"github.com/timmy/memeverse/internal/service"
)

// StatsHandler serves catalog metadata.
type StatsHandler struct {
	catalog *service.CatalogService
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(catalog *service.CatalogService) *StatsHandler {
	return &StatsHandler{catalog: catalog}
}

// Categories handles GET /api/v1/categories.
func (h *StatsHandler) Categories(c *gin.Context) {
	categories, err := h.catalog.Categories(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get categories: " + err.Error()})
		return
	}
	if categories == nil {
		categories = []string{}
	}
	c.JSON(http.StatusOK, gin.H{
		"feeds":      []string{repository.FeedTrending, repository.FeedNew, repository.FeedClassic, repository.FeedRandom},
		"categories": categories,
	})
}

// Stats handles GET /api/v1/stats.
func (h *StatsHandler) Stats(c *gin.Context) {
	stats, err := h.catalog.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get stats: " + err.Error()})
		return
	}
	metrics.MemesTotal.Set(float64(stats.ActiveMemes))
	c.JSON(http.StatusOK, stats)
}
