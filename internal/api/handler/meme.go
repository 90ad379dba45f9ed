package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/timmy/memeverse/internal/domain"
	"github.com/timmy/memeverse/internal/metrics"
	"github.com/timmy/memeverse/internal/service"
)

// MemeHandler serves the meme listing, detail and engagement endpoints.
type MemeHandler struct {
	catalog *service.CatalogService
}

// NewMemeHandler creates a new meme handler.
func NewMemeHandler(catalog *service.CatalogService) *MemeHandler {
	return &MemeHandler{catalog: catalog}
}

// ListResponse is one page of a feed.
type ListResponse struct {
	Results []domain.Meme `json:"results"`
	Total   int64         `json:"total"`
	Page    int           `json:"page"`
	Limit   int           `json:"limit"`
}

// SearchResponse carries search hits.
type SearchResponse struct {
	Results []domain.Meme `json:"results"`
	Total   int           `json:"total"`
	Query   string        `json:"query"`
}

// TrendingResponse carries the trending feed.
type TrendingResponse struct {
	Results []domain.Meme `json:"results"`
	Total   int           `json:"total"`
}

// ListMemes handles GET /api/v1/memes?category=&page=&sortBy=&limit=.
func (h *MemeHandler) ListMemes(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit"))

	sortBy := c.Query("sortBy")
	switch sortBy {
	case "", "likes", "date", "comments":
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid sortBy: " + sortBy})
		return
	}

	result, err := h.catalog.List(c.Request.Context(), service.ListParams{
		Category: c.DefaultQuery("category", "trending"),
		SortBy:   sortBy,
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list memes: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, ListResponse{
		Results: nonNil(result.Memes),
		Total:   result.Total,
		Page:    result.Page,
		Limit:   result.Limit,
	})
}

// SearchMemes handles GET /api/v1/memes/search?q=&limit=.
func (h *MemeHandler) SearchMemes(c *gin.Context) {
	query := c.Query("q")
	limit, _ := strconv.Atoi(c.Query("limit"))

	memes, err := h.catalog.Search(c.Request.Context(), query, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Search failed: " + err.Error()})
		return
	}
	metrics.SearchesTotal.Inc()

	c.JSON(http.StatusOK, SearchResponse{Results: nonNil(memes), Total: len(memes), Query: query})
}

// Trending handles GET /api/v1/memes/trending.
func (h *MemeHandler) Trending(c *gin.Context) {
	memes, err := h.catalog.Trending(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get trending memes: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, TrendingResponse{Results: nonNil(memes), Total: len(memes)})
}

// GetMeme handles GET /api/v1/memes/:id.
func (h *MemeHandler) GetMeme(c *gin.Context) {
	meme, err := h.catalog.Detail(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeLookupError(c, err)
		return
	}
	c.JSON(http.StatusOK, meme)
}

// LikeMeme handles POST /api/v1/memes/:id/like.
func (h *MemeHandler) LikeMeme(c *gin.Context) {
	id := c.Param("id")
	likes, err := h.catalog.Like(c.Request.Context(), id)
	if err != nil {
		h.writeLookupError(c, err)
		return
	}
	metrics.LikesTotal.Inc()
	c.JSON(http.StatusOK, gin.H{"id": id, "likes": likes})
}

// CommentRequest is the body of POST /api/v1/memes/:id/comments.
type CommentRequest struct {
	Text string `json:"text"`
}

// AddComment handles POST /api/v1/memes/:id/comments.
func (h *MemeHandler) AddComment(c *gin.Context) {
	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	id := c.Param("id")
	comments, err := h.catalog.Comment(c.Request.Context(), id, req.Text)
	if err != nil {
		if errors.Is(err, service.ErrEmptyComment) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Comment cannot be empty"})
			return
		}
		h.writeLookupError(c, err)
		return
	}
	metrics.CommentsTotal.Inc()
	c.JSON(http.StatusOK, gin.H{"id": id, "comments": comments})
}

func (h *MemeHandler) writeLookupError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrMemeNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Meme not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load meme: " + err.Error()})
}

func nonNil(memes []domain.Meme) []domain.Meme {
	if memes == nil {
		return []domain.Meme{}
	}
	return memes
}
