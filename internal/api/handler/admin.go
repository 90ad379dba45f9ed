package handler

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/timmy/memeverse/internal/logger"
	"github.com/timmy/memeverse/internal/repository"
	"github.com/timmy/memeverse/internal/service"
	"github.com/timmy/memeverse/internal/source"
)

// AdminHandler handles catalog seeding operations.
type AdminHandler struct {
	ingestService *service.IngestService
	jobRepo       *repository.JobRepository
	sources       map[string]source.Source

	mu            sync.RWMutex
	isRunning     bool
	currentStats  *service.IngestStats
	lastRunTime   time.Time
	lastRunStatus string
}

// NewAdminHandler creates a new admin handler.
// Parameters:
//   - ingestService: ingest service instance.
//   - jobRepo: ingest job history.
//   - sources: source adapters keyed by name.
//
// Returns:
//   - *AdminHandler: initialized handler.
func NewAdminHandler(ingestService *service.IngestService, jobRepo *repository.JobRepository, sources map[string]source.Source) *AdminHandler {
	return &AdminHandler{
		ingestService: ingestService,
		jobRepo:       jobRepo,
		sources:       sources,
	}
}

// IngestRequest represents the ingest API request.
type IngestRequest struct {
	Source string `json:"source" binding:"required"`
	Limit  int    `json:"limit" binding:"required,min=1,max=10000"`
	Force  bool   `json:"force"`
}

// IngestResponse represents the ingest API response.
type IngestResponse struct {
	Message string               `json:"message"`
	Stats   *service.IngestStats `json:"stats,omitempty"`
}

// IngestStatusResponse represents the ingest status.
type IngestStatusResponse struct {
	IsRunning     bool                 `json:"is_running"`
	Sources       []string             `json:"sources"`
	LastRunTime   string               `json:"last_run_time,omitempty"`
	LastRunStatus string               `json:"last_run_status,omitempty"`
	CurrentStats  *service.IngestStats `json:"current_stats,omitempty"`
}

// TriggerIngest handles POST /api/v1/admin/ingest.
func (h *AdminHandler) TriggerIngest(c *gin.Context) {
	ctx := c.Request.Context()

	var req IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.CtxWarn(ctx, "Invalid ingest request: client_ip=%s, error=%v", c.ClientIP(), err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	src, ok := h.sources[req.Source]
	if !ok {
		logger.CtxWarn(ctx, "Unknown source requested: source=%s, client_ip=%s", req.Source, c.ClientIP())
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown source: " + req.Source})
		return
	}

	h.mu.Lock()
	if h.isRunning {
		h.mu.Unlock()
		logger.CtxWarn(ctx, "Ingest request rejected: already running, source=%s", req.Source)
		c.JSON(http.StatusConflict, gin.H{"error": "Ingest is already running"})
		return
	}
	h.isRunning = true
	h.currentStats = nil
	h.mu.Unlock()

	logger.CtxInfo(ctx, "Starting ingest: source=%s, limit=%d, force=%v", req.Source, req.Limit, req.Force)

	// A dropped client connection must not abort a half-written run.
	ingestCtx := context.WithoutCancel(ctx)
	startTime := time.Now()
	stats, err := h.ingestService.IngestFromSource(ingestCtx, src, req.Limit, &service.IngestOptions{
		Force: req.Force,
	})
	duration := time.Since(startTime)

	h.mu.Lock()
	h.isRunning = false
	h.currentStats = stats
	h.lastRunTime = time.Now()
	if err != nil {
		h.lastRunStatus = "failed: " + err.Error()
	} else {
		h.lastRunStatus = "success"
	}
	h.mu.Unlock()

	if err != nil {
		logger.With(logger.Fields{logger.FieldDurationMs: duration.Milliseconds()}).
			Error(ctx, "Ingest failed: source=%s, error=%v", req.Source, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	logger.With(logger.Fields{logger.FieldDurationMs: duration.Milliseconds()}).
		Info(ctx, "Ingest completed: source=%s, total=%d, skipped=%d, failed=%d",
			req.Source, stats.TotalItems, stats.SkippedItems, stats.FailedItems)

	c.JSON(http.StatusOK, IngestResponse{
		Message: "Ingest completed successfully",
		Stats:   stats,
	})
}

// GetIngestStatus handles GET /api/v1/admin/ingest/status.
func (h *AdminHandler) GetIngestStatus(c *gin.Context) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	names := make([]string, 0, len(h.sources))
	for name := range h.sources {
		names = append(names, name)
	}
	sort.Strings(names)

	resp := IngestStatusResponse{
		IsRunning:     h.isRunning,
		Sources:       names,
		LastRunStatus: h.lastRunStatus,
		CurrentStats:  h.currentStats,
	}
	if !h.lastRunTime.IsZero() {
		resp.LastRunTime = h.lastRunTime.Format(time.RFC3339)
	}

	c.JSON(http.StatusOK, resp)
}

// ListJobs handles GET /api/v1/admin/jobs.
func (h *AdminHandler) ListJobs(c *gin.Context) {
	ctx := c.Request.Context()

	jobs, err := h.jobRepo.ListRecent(ctx, 20)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list jobs: " + err.Error()})
		return
	}
	sources, err := h.jobRepo.ListSources(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list sources: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"jobs": jobs, "sources": sources})
}
