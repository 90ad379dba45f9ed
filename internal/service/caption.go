package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/timmy/memeverse/internal/logger"
	"github.com/timmy/memeverse/internal/prompts"
)

// CaptionService suggests a caption for a meme title. It asks an
// OpenAI-compatible chat model when one is configured and falls back to a
// canned caption otherwise.
type CaptionService struct {
	client   *resty.Client
	model    string
	endpoint string
	enabled  bool
	logger   *logger.Logger
	pick     func(n int) int
}

// CaptionConfig holds configuration for the caption service.
type CaptionConfig struct {
	Enabled bool
	Model   string
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// NewCaptionService creates a new caption service.
// Parameters:
//   - cfg: model endpoint and credentials; Enabled=false serves canned captions only.
//   - log: service logger.
//
// Returns:
//   - *CaptionService: initialized service.
func NewCaptionService(cfg *CaptionConfig, log *logger.Logger) *CaptionService {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	client := resty.New().
		SetHeader("Authorization", "Bearer "+cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)

	return &CaptionService{
		client:   client,
		model:    cfg.Model,
		endpoint: baseURL + "/chat/completions",
		enabled:  cfg.Enabled && cfg.APIKey != "",
		logger:   log,
		pick:     rand.IntN,
	}
}

func (s *CaptionService) log(ctx context.Context) *logger.Logger {
	return logger.FromContextOr(ctx, s.logger)
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Generate returns a caption for title. Model failures are logged and
// answered with a canned caption, so the only error is a blank title.
func (s *CaptionService) Generate(ctx context.Context, title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", ErrTitleRequired
	}

	if s.enabled {
		caption, err := s.complete(ctx, title)
		if err == nil {
			return caption, nil
		}
		s.log(ctx).WithError(err).Warn("Caption model failed, using canned caption")
	}

	return prompts.CannedCaptions[s.pick(len(prompts.CannedCaptions))], nil
}

func (s *CaptionService) complete(ctx context.Context, title string) (string, error) {
	req := chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: prompts.CaptionSystemPrompt},
			{Role: "user", Content: prompts.CaptionUserPrompt(title)},
		},
		MaxTokens:   60,
		Temperature: 0.9,
	}

	var resp chatResponse
	httpResp, err := s.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&resp).
		SetError(&resp).
		Post(s.endpoint)
	if err != nil {
		return "", fmt.Errorf("failed to call caption API: %w", err)
	}

	if httpResp.IsError() {
		if resp.Error != nil {
			return "", fmt.Errorf("caption API returned HTTP %d: %s", httpResp.StatusCode(), resp.Error.Message)
		}
		return "", fmt.Errorf("caption API returned HTTP %d", httpResp.StatusCode())
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in caption response")
	}

	caption := strings.Trim(strings.TrimSpace(resp.Choices[0].Message.Content), `"`)
	if caption == "" {
		return "", fmt.Errorf("empty caption in response")
	}
	return caption, nil
}
