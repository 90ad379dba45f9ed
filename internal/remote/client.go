package remote

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/timmy/memeverse/internal/logger"
)

// ClientConfig holds configuration for the meme API client.
type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
}

// Client talks to the meme API.
type Client struct {
	http *resty.Client
}

// NewClient creates a new meme API client.
// Parameters:
//   - cfg: API base URL (including /api/v1) and request timeout.
//
// Returns:
//   - *Client: initialized client.
func NewClient(cfg *ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	rc := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)
	return &Client{http: rc}
}

type apiError struct {
	Error string `json:"error"`
}

type listResponse struct {
	Results []Meme `json:"results"`
	Total   int    `json:"total"`
	Page    int    `json:"page"`
}

type likeResponse struct {
	ID    string `json:"id"`
	Likes int    `json:"likes"`
}

type captionResponse struct {
	Caption string `json:"caption"`
}

// do sends req and maps transport failures, undecodable bodies and non-2xx
// answers to ErrNetwork. Bodies are decoded as JSON whatever Content-Type the
// server reports.
func (c *Client) do(ctx context.Context, method, path string, req *resty.Request) error {
	var apiErr apiError
	resp, err := req.SetContext(ctx).
		SetError(&apiErr).
		ForceContentType("application/json").
		Execute(method, path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	logger.FromContext(ctx).WithFields(logger.Fields{
		"method":               method,
		"path":                 path,
		logger.FieldStatus:     resp.StatusCode(),
		logger.FieldDurationMs: resp.Time().Milliseconds(),
	}).Debug("Meme API call")

	if resp.IsError() {
		if apiErr.Error != "" {
			return fmt.Errorf("%w: %s", ErrNetwork, apiErr.Error)
		}
		return fmt.Errorf("%w: status %d", ErrNetwork, resp.StatusCode())
	}
	return nil
}

// Trending returns the trending feed.
func (c *Client) Trending(ctx context.Context) ([]Meme, error) {
	var out listResponse
	if err := c.do(ctx, resty.MethodGet, "/memes/trending", c.http.R().SetResult(&out)); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// List returns one page of a feed.
func (c *Client) List(ctx context.Context, q ListQuery) (*ListPage, error) {
	params := map[string]string{}
	if q.Category != "" {
		params["category"] = q.Category
	}
	if q.Page > 0 {
		params["page"] = strconv.Itoa(q.Page)
	}
	if q.SortBy != "" {
		params["sortBy"] = q.SortBy
	}
	if q.Limit > 0 {
		params["limit"] = strconv.Itoa(q.Limit)
	}

	var out listResponse
	if err := c.do(ctx, resty.MethodGet, "/memes", c.http.R().SetQueryParams(params).SetResult(&out)); err != nil {
		return nil, err
	}
	page := out.Page
	if page == 0 {
		page = q.Page
	}
	return &ListPage{Memes: out.Results, Total: out.Total, Page: page}, nil
}

// Search returns memes matching term.
func (c *Client) Search(ctx context.Context, term string) ([]Meme, error) {
	var out listResponse
	req := c.http.R().SetQueryParam("q", term).SetResult(&out)
	if err := c.do(ctx, resty.MethodGet, "/memes/search", req); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// Detail returns a single meme.
func (c *Client) Detail(ctx context.Context, id string) (*Meme, error) {
	var out Meme
	if err := c.do(ctx, resty.MethodGet, "/memes/"+url.PathEscape(id), c.http.R().SetResult(&out)); err != nil {
		return nil, err
	}
	return &out, nil
}

// Like records one like and returns the server's new count.
func (c *Client) Like(ctx context.Context, id string) (int, error) {
	var out likeResponse
	if err := c.do(ctx, resty.MethodPost, "/memes/"+url.PathEscape(id)+"/like", c.http.R().SetResult(&out)); err != nil {
		return 0, err
	}
	return out.Likes, nil
}

// GenerateCaption asks the server for a caption suggestion.
func (c *Client) GenerateCaption(ctx context.Context, title string) (string, error) {
	var out captionResponse
	req := c.http.R().
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{"title": title}).
		SetResult(&out)
	if err := c.do(ctx, resty.MethodPost, "/captions", req); err != nil {
		return "", err
	}
	return out.Caption, nil
}
