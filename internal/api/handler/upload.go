package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/timmy/memeverse/internal/logger"
	"github.com/timmy/memeverse/internal/metrics"
	"github.com/timmy/memeverse/internal/service"
)

// UploadHandler serves the image upload endpoint. Its request and response
// shapes follow the imgbb upload API so that clients can target either.
type UploadHandler struct {
	uploads *service.UploadService
}

// NewUploadHandler creates a new upload handler.
func NewUploadHandler(uploads *service.UploadService) *UploadHandler {
	return &UploadHandler{uploads: uploads}
}

// UploadData is the payload of a successful upload.
type UploadData struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Size   int64  `json:"size"`
}

// UploadResponse is the imgbb-style envelope.
type UploadResponse struct {
	Success bool        `json:"success"`
	Data    *UploadData `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Status  int         `json:"status"`
}

// Upload handles POST /api/v1/upload?key= with multipart field "image" and optional "name".
func (h *UploadHandler) Upload(c *gin.Context) {
	ctx := c.Request.Context()
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.uploads.MaxSize()+1<<20)

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("rejected").Inc()
		h.fail(c, http.StatusBadRequest, "Missing image file: "+err.Error())
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.uploads.MaxSize()+1))
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("rejected").Inc()
		h.fail(c, http.StatusBadRequest, "Failed to read image: "+err.Error())
		return
	}

	meme, err := h.uploads.Upload(ctx, header.Filename, c.PostForm("name"), data)
	if err != nil {
		if errors.Is(err, service.ErrInvalidImage) {
			metrics.UploadsTotal.WithLabelValues("rejected").Inc()
			h.fail(c, http.StatusBadRequest, err.Error())
			return
		}
		metrics.UploadsTotal.WithLabelValues("error").Inc()
		logger.FromContext(ctx).WithError(err).Error("Upload failed")
		h.fail(c, http.StatusInternalServerError, "Upload failed: "+err.Error())
		return
	}

	metrics.UploadsTotal.WithLabelValues("ok").Inc()
	c.JSON(http.StatusOK, UploadResponse{
		Success: true,
		Status:  http.StatusOK,
		Data: &UploadData{
			ID:     meme.ID,
			Title:  meme.Name,
			URL:    meme.URL,
			Width:  meme.Width,
			Height: meme.Height,
			Size:   meme.FileSize,
		},
	})
}

func (h *UploadHandler) fail(c *gin.Context, status int, msg string) {
	c.JSON(status, UploadResponse{Success: false, Status: status, Error: msg})
}

// RejectUnauthorized counts an upload refused by the API key check.
func RejectUnauthorized(c *gin.Context) {
	metrics.UploadsTotal.WithLabelValues("unauthorized").Inc()
}
