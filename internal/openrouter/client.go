// Package openrouter provides a client for the OpenRouter billing endpoints.
package openrouter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const (
	defaultBaseURL = "https://openrouter.ai/api/v1"
	defaultTimeout = 10 * time.Second
	maxBodySize    = 1 << 20 // 1 MB
	userAgent      = "github.com/theirongolddev/orline/1.0"
)

var (
	// ErrUnauthorized indicates the API key is missing, expired or invalid.
	ErrUnauthorized = errors.New("openrouter: unauthorized (API key rejected)")
	// ErrRateLimited indicates the API rate limit was hit.
	ErrRateLimited = errors.New("openrouter: rate limited")
	// ErrNotFound indicates the generation is not (yet) known to the API.
	ErrNotFound = errors.New("openrouter: not found")
	// ErrMalformed indicates a response body without the expected fields.
	ErrMalformed = errors.New("openrouter: malformed response")
)

// Client fetches generation and credit data from the OpenRouter API.
type Client struct {
	apiKey  string
	baseURL string
	timeout time.Duration
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API root.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// NewClient creates a client for the given API key.
// Returns nil if the key is empty.
func NewClient(apiKey string, opts ...Option) *Client {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil
	}
	c := &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		timeout: defaultTimeout,
		http:    &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchGeneration returns billing data for a single generation id.
// A response without a numeric data.total_cost is ErrMalformed.
func (c *Client) FetchGeneration(ctx context.Context, id string) (Generation, error) {
	body, err := c.get(ctx, "/generation?id="+url.QueryEscape(id))
	if err != nil {
		return Generation{}, err
	}
	return parseGeneration(id, body)
}

// FetchCredits returns the account credit snapshot.
// Non-numeric total_credits or total_usage is ErrMalformed.
func (c *Client) FetchCredits(ctx context.Context) (Credits, error) {
	body, err := c.get(ctx, "/credits")
	if err != nil {
		return Credits{}, err
	}
	return parseCredits(body)
}

func parseGeneration(id string, body []byte) (Generation, error) {
	if !gjson.ValidBytes(body) {
		return Generation{}, fmt.Errorf("%w: generation %s: invalid JSON", ErrMalformed, id)
	}
	data := gjson.GetBytes(body, "data")
	if !data.IsObject() {
		return Generation{}, fmt.Errorf("%w: generation %s: missing data", ErrMalformed, id)
	}
	cost := data.Get("total_cost")
	if cost.Type != gjson.Number {
		return Generation{}, fmt.Errorf("%w: generation %s: total_cost not a number", ErrMalformed, id)
	}

	g := Generation{ID: id, TotalCost: cost.Num}
	if v := data.Get("cache_discount"); v.Type == gjson.Number {
		g.CacheDiscount = v.Num
	}
	if v := data.Get("provider_name"); v.Type == gjson.String {
		g.ProviderName = v.Str
	}
	if v := data.Get("model"); v.Type == gjson.String {
		g.Model = v.Str
	}
	return g, nil
}

func parseCredits(body []byte) (Credits, error) {
	if !gjson.ValidBytes(body) {
		return Credits{}, fmt.Errorf("%w: credits: invalid JSON", ErrMalformed)
	}
	data := gjson.GetBytes(body, "data")
	total := data.Get("total_credits")
	usage := data.Get("total_usage")
	if total.Type != gjson.Number || usage.Type != gjson.Number {
		return Credits{}, fmt.Errorf("%w: credits: non-numeric fields", ErrMalformed)
	}
	return Credits{TotalCredits: total.Num, TotalUsage: usage.Num}, nil
}

// get performs an authenticated GET request and returns the response body.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("openrouter: creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	//nolint:gosec // URL is built from the configured base URL
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openrouter: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrUnauthorized
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case http.StatusNotFound:
		return nil, ErrNotFound
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("openrouter: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("openrouter: reading response: %w", err)
	}
	return body, nil
}
