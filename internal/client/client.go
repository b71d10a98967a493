package client

import (
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/rickgao/shoplog/internal/version"
)

// Client provides access to the indexer REST API.
type Client struct {
	baseURL string
	http    *resty.Client
	logger  *slog.Logger

	maxRetries   int
	retryBackoff time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// New creates a client for the server at baseURL, e.g. http://localhost:8080.
func New(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		http:         resty.New(),
		logger:       slog.Default(),
		maxRetries:   3,
		retryBackoff: time.Second,
	}
	c.http.SetTimeout(30 * time.Second)
	c.http.SetHeader("Accept", "application/json")
	c.http.SetHeader("User-Agent", version.UserAgent())

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.http.SetTimeout(d)
	}
}

// WithRetries sets the retry configuration.
func WithRetries(max int, backoff time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetries = max
		c.retryBackoff = backoff
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}
