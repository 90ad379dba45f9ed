package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultEmbeddingEndpoint = "https://api.jina.ai/v1/embeddings"

// EmbeddingService turns meme titles and search queries into vectors through
// a Jina-compatible embeddings API.
type EmbeddingService struct {
	client     *resty.Client
	endpoint   string
	model      string
	dimensions int
}

// EmbeddingConfig holds configuration for the embedding service.
type EmbeddingConfig struct {
	Endpoint   string
	Model      string
	APIKey     string
	Dimensions int
}

// NewEmbeddingService creates a new embedding service.
func NewEmbeddingService(cfg *EmbeddingConfig) *EmbeddingService {
	client := resty.New().
		SetHeader("Authorization", "Bearer "+cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(30 * time.Second)

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultEmbeddingEndpoint
	}

	return &EmbeddingService{
		client:     client,
		endpoint:   endpoint,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
	}
}

// Model returns the embedding model name.
func (s *EmbeddingService) Model() string {
	return s.model
}

type embeddingRequest struct {
	Model         string   `json:"model"`
	Task          string   `json:"task,omitempty"`
	Dimensions    int      `json:"dimensions,omitempty"`
	Input         []string `json:"input"`
	EmbeddingType string   `json:"embedding_type,omitempty"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Detail string `json:"detail,omitempty"`
}

// EmbedPassage embeds a meme title for indexing.
func (s *EmbeddingService) EmbedPassage(ctx context.Context, text string) ([]float32, error) {
	return s.embed(ctx, "retrieval.passage", text)
}

// EmbedQuery embeds a search query.
func (s *EmbeddingService) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return s.embed(ctx, "retrieval.query", text)
}

func (s *EmbeddingService) embed(ctx context.Context, task, text string) ([]float32, error) {
	req := embeddingRequest{
		Model:         s.model,
		Task:          task,
		Dimensions:    s.dimensions,
		Input:         []string{text},
		EmbeddingType: "float",
	}

	var resp embeddingResponse
	httpResp, err := s.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&resp).
		SetError(&resp).
		Post(s.endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to call embedding API: %w", err)
	}

	if httpResp.IsError() {
		if resp.Detail != "" {
			return nil, fmt.Errorf("embedding API error: %s", resp.Detail)
		}
		return nil, fmt.Errorf("embedding API error: status %d", httpResp.StatusCode())
	}

	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	return resp.Data[0].Embedding, nil
}
