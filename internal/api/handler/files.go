package handler

import (
	"errors"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/timmy/memeverse/internal/source"
	"github.com/timmy/memeverse/internal/storage"
)

// FileHandler streams stored images when the store has no public endpoint of its own.
type FileHandler struct {
	store storage.ImageStore
}

// NewFileHandler creates a new file handler.
func NewFileHandler(store storage.ImageStore) *FileHandler {
	return &FileHandler{store: store}
}

// Get handles GET /files/*key.
func (h *FileHandler) Get(c *gin.Context) {
	key := strings.TrimPrefix(path.Clean(c.Param("key")), "/")
	if key == "" || key == "." {
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
		return
	}

	body, err := h.store.Get(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to read file: " + err.Error()})
		return
	}
	defer body.Close()

	c.Header("Content-Type", storage.ContentType(source.FormatFromExt(path.Ext(key))))
	c.Header("Cache-Control", "public, max-age=31536000, immutable")
	c.Status(http.StatusOK)
	io.Copy(c.Writer, body)
}
