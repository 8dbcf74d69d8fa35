package httpfetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	ErrUnexpectedStatus = errors.New("unexpected status")
	ErrBodyTooLarge     = errors.New("response body too large")
)

// maxBodySize caps the size of a single fetched document or image.
const maxBodySize = 64 << 20

// Client fetches pages and image assets over plain HTTP, rotating user agents.
type Client struct {
	http       *http.Client
	userAgents []string
	maxBody    int64
	logger     *zap.Logger

	mu      sync.Mutex
	uaIndex int
}

// NewClient creates a fetch client with the given per-request timeout.
func NewClient(timeout time.Duration, userAgents []string, logger *zap.Logger) *Client {
	return &Client{
		http:       &http.Client{Timeout: timeout},
		userAgents: userAgents,
		maxBody:    maxBodySize,
		logger:     logger,
	}
}

// userAgent returns the next user agent from the list, rotating sequentially.
func (c *Client) userAgent() string {
	if len(c.userAgents) == 0 {
		return ""
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	ua := c.userAgents[c.uaIndex]
	c.uaIndex = (c.uaIndex + 1) % len(c.userAgents)
	return ua
}

func (c *Client) do(ctx context.Context, method, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if ua := c.userAgent(); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s %s: %s", ErrUnexpectedStatus, method, url, resp.Status)
	}
	return resp, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.ContentLength > c.maxBody {
		return nil, fmt.Errorf("%w: %s: %d bytes", ErrBodyTooLarge, url, resp.ContentLength)
	}
	// One byte past the limit tells a body that is exactly maxBody long from a longer one.
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("read body of %s: %w", url, err)
	}
	if int64(len(body)) > c.maxBody {
		return nil, fmt.Errorf("%w: %s: over %d bytes", ErrBodyTooLarge, url, c.maxBody)
	}
	c.logger.Debug("fetched", zap.String("url", url), zap.Int("bytes", len(body)))
	return body, nil
}

// FetchPage returns the HTML of url.
func (c *Client) FetchPage(ctx context.Context, url string) ([]byte, error) {
	return c.get(ctx, url)
}

// Fetch returns the body of an image asset.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	return c.get(ctx, url)
}

// ContentType issues a HEAD request and returns the Content-Type header.
func (c *Client) ContentType(ctx context.Context, url string) (string, error) {
	resp, err := c.do(ctx, http.MethodHead, url)
	if err != nil {
		return "", err
	}
	resp.Body.Close()
	return resp.Header.Get("Content-Type"), nil
}
