// Package wikijs is a GraphQL client for the Wiki.js pages API.
package wikijs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/starford/autoindex/internal/apperr"
	"github.com/starford/autoindex/internal/models"
)

const treeQuery = `query ($path: String, $parent: Int, $mode: PageTreeMode!, $locale: String!) {
  pages {
    tree(path: $path, parent: $parent, mode: $mode, locale: $locale) {
      id
      title
      path
      pageId
    }
  }
}`

const singleQuery = `query ($id: Int!) {
  pages {
    single(id: $id) {
      id
      title
      description
      path
    }
  }
}`

// maxResponseBytes bounds the size of a GraphQL response body.
const maxResponseBytes = 16 << 20

// Client talks to a Wiki.js GraphQL endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
	headers    map[string]string
	limiter    *rate.Limiter
	logger     *slog.Logger
	timeout    time.Duration
}

// Option is a functional option for Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the request timeout. A client passed via WithHTTPClient
// is copied rather than modified.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHeaders adds headers sent with every request, verbatim. Credentials
// are the caller's business; the client never adds any of its own.
func WithHeaders(h map[string]string) Option {
	return func(c *Client) {
		for k, v := range h {
			c.headers[k] = v
		}
	}
}

// WithRateLimit throttles outbound requests to rps per second with the given
// burst. rps <= 0 disables throttling.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithLogger sets the client logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a client for the GraphQL endpoint (e.g. https://wiki.example.com/graphql).
func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		headers: map[string]string{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 && c.httpClient.Timeout != c.timeout {
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}
	return c
}

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type gqlError struct {
	Message string `json:"message"`
}

type gqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []gqlError      `json:"errors"`
}

// Tree returns one level of the page tree matching q.
func (c *Client) Tree(ctx context.Context, q models.TreeQuery) ([]models.TreeNode, error) {
	mode := q.Mode
	if mode == "" {
		mode = models.ModeAll
	}
	vars := map[string]any{
		"mode":   mode,
		"locale": q.Locale,
	}
	if q.Parent != nil {
		vars["parent"] = *q.Parent
	} else {
		vars["path"] = q.Path
	}

	var data struct {
		Pages struct {
			Tree []models.TreeNode `json:"tree"`
		} `json:"pages"`
	}
	if err := c.do(ctx, treeQuery, vars, &data); err != nil {
		return nil, err
	}
	return data.Pages.Tree, nil
}

// Single returns the detail record for a page, or nil when the page does not exist.
func (c *Client) Single(ctx context.Context, id int) (*models.PageDetail, error) {
	var data struct {
		Pages struct {
			Single *models.PageDetail `json:"single"`
		} `json:"pages"`
	}
	if err := c.do(ctx, singleQuery, map[string]any{"id": id}, &data); err != nil {
		return nil, err
	}
	return data.Pages.Single, nil
}

// do posts one GraphQL request and decodes its data into out. Every failure
// wraps apperr.ErrTransport.
func (c *Client) do(ctx context.Context, query string, vars map[string]any, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("wikijs: rate limit: %w: %w", apperr.ErrTransport, err)
		}
	}

	body, err := json.Marshal(gqlRequest{Query: query, Variables: vars})
	if err != nil {
		return fmt.Errorf("wikijs: marshal request: %w: %w", apperr.ErrTransport, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("wikijs: create request: %w: %w", apperr.ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("wikijs: send request: %w: %w", apperr.ErrTransport, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("wikijs: read response: %w: %w", apperr.ErrTransport, err)
	}
	c.logger.Debug("wikijs: request",
		slog.Int("status", resp.StatusCode),
		slog.Int("bytes", len(raw)),
		slog.Duration("duration", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("wikijs: status %d: %w: %s", resp.StatusCode, apperr.ErrTransport, snippet(raw))
	}

	var gr gqlResponse
	if err := json.Unmarshal(raw, &gr); err != nil {
		return fmt.Errorf("wikijs: decode response: %w: %w", apperr.ErrTransport, err)
	}
	if len(gr.Errors) > 0 {
		msgs := make([]string, 0, len(gr.Errors))
		for _, e := range gr.Errors {
			msgs = append(msgs, e.Message)
		}
		return fmt.Errorf("wikijs: graphql: %w: %s", apperr.ErrTransport, strings.Join(msgs, "; "))
	}
	if len(gr.Data) == 0 || string(gr.Data) == "null" {
		return fmt.Errorf("wikijs: empty data: %w", apperr.ErrTransport)
	}
	if err := json.Unmarshal(gr.Data, out); err != nil {
		return fmt.Errorf("wikijs: decode data: %w: %w", apperr.ErrTransport, err)
	}
	return nil
}

func snippet(b []byte) string {
	const max = 200
	s := strings.TrimSpace(string(b))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
