// Package shortener rewrites download links through an external shortening
// service. Shortening is best effort: a Shortener never returns an error, it
// falls back to the original link instead.
package shortener

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/marianozunino/dropqr/internal/config"
)

// Default provider endpoints
const (
	IsGdEndpoint    = "https://is.gd/create.php"
	TinyURLEndpoint = "https://tinyurl.com/api-create.php"
)

// Result is the outcome of a shortening attempt.
// When Degraded is set, URL holds the original link and Reason says why.
type Result struct {
	URL      string
	Degraded bool
	Reason   string
}

//go:generate mockgen -destination=mock/shortener.go -package=mock github.com/marianozunino/dropqr/internal/shortener Shortener

// Shortener shortens a URL in a single attempt.
type Shortener interface {
	Shorten(ctx context.Context, longURL string) Result
}

func degraded(longURL, reason string) Result {
	return Result{URL: longURL, Degraded: true, Reason: reason}
}

// Client talks to an HTTP shortening API that takes the long URL as a query
// parameter on a GET request.
type Client struct {
	http     *resty.Client
	endpoint string
	params   map[string]string
	name     string
}

// NewIsGd creates a client for is.gd, asking for JSON responses.
func NewIsGd(endpoint string, timeout time.Duration) *Client {
	if endpoint == "" {
		endpoint = IsGdEndpoint
	}
	return newClient("is.gd", endpoint, timeout, map[string]string{"format": "json"})
}

// NewTinyURL creates a client for TinyURL's plain-text API.
func NewTinyURL(endpoint string, timeout time.Duration) *Client {
	if endpoint == "" {
		endpoint = TinyURLEndpoint
	}
	return newClient("tinyurl", endpoint, timeout, nil)
}

func newClient(name, endpoint string, timeout time.Duration, params map[string]string) *Client {
	c := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json, text/plain")

	return &Client{
		http:     c,
		endpoint: endpoint,
		params:   params,
		name:     name,
	}
}

// FromConfig selects a Shortener based on the configured provider.
// It returns nil when shortening is disabled.
func FromConfig(cfg config.ShortenerConfig) (Shortener, error) {
	if !cfg.Enabled() {
		return nil, nil
	}

	switch cfg.Provider {
	case config.ProviderIsGd:
		return NewIsGd(cfg.Endpoint, cfg.Timeout), nil
	case config.ProviderTinyURL:
		return NewTinyURL(cfg.Endpoint, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown shortener provider %q", cfg.Provider)
	}
}

// Shorten calls the provider once. Any failure yields a degraded Result.
func (c *Client) Shorten(ctx context.Context, longURL string) Result {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(c.params).
		SetQueryParam("url", longURL).
		Get(c.endpoint)
	if err != nil {
		log.Printf("Warning: %s shortening failed for %s: %v", c.name, longURL, err)
		return degraded(longURL, "request failed")
	}

	if !resp.IsSuccess() {
		log.Printf("Warning: %s returned status %d for %s", c.name, resp.StatusCode(), longURL)
		return degraded(longURL, fmt.Sprintf("status %d", resp.StatusCode()))
	}

	short, err := parseBody(resp.Body())
	if err != nil {
		log.Printf("Warning: %s response rejected for %s: %v", c.name, longURL, err)
		return degraded(longURL, err.Error())
	}

	return Result{URL: short}
}
