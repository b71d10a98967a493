package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// APIError represents an error response from the indexer.
type APIError struct {
	StatusCode int
	Message    string
	Errors     []string // validation messages, if any
	Body       []byte
}

func (e *APIError) Error() string {
	if len(e.Errors) > 0 {
		return fmt.Sprintf("indexer api error %d: %s: %s", e.StatusCode, e.Message, strings.Join(e.Errors, " "))
	}
	return fmt.Sprintf("indexer api error %d: %s", e.StatusCode, e.Message)
}

// IsRetryable returns true if the error should trigger a retry.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests || e.StatusCode == http.StatusConflict
}

// errorBody is the shape of error responses.
type errorBody struct {
	Error   string   `json:"error"`
	Message string   `json:"message"`
	Errors  []string `json:"errors"`
}

func newAPIError(resp *resty.Response) *APIError {
	e := &APIError{
		StatusCode: resp.StatusCode(),
		Message:    http.StatusText(resp.StatusCode()),
		Body:       resp.Body(),
	}
	var body errorBody
	if json.Unmarshal(resp.Body(), &body) == nil {
		switch {
		case body.Error != "":
			e.Message = body.Error
		case body.Message != "":
			e.Message = body.Message
		}
		e.Errors = body.Errors
	}
	return e
}

// prepare builds a request; it is called again for every attempt.
type prepare func(r *resty.Request) *resty.Request

// doRequest performs one request.
func (c *Client) doRequest(ctx context.Context, method, path string, build prepare) ([]byte, error) {
	req := c.http.R().SetContext(ctx)
	if build != nil {
		req = build(req)
	}

	resp, err := req.Execute(method, c.baseURL+path)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}

	if resp.StatusCode() >= 400 {
		return nil, newAPIError(resp)
	}

	return resp.Body(), nil
}

// doWithRetry performs a request with exponential backoff retry.
func (c *Client) doWithRetry(ctx context.Context, method, path string, build prepare) ([]byte, error) {
	var lastErr error
	backoff := c.retryBackoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			// Add jitter: backoff * (0.5 to 1.5)
			wait := backoff / 2
			if backoff > 0 {
				wait += time.Duration(rand.Int64N(int64(backoff)))
			}
			c.logger.Debug("retrying request",
				"attempt", attempt,
				"backoff", wait,
				"path", path,
			)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}

			backoff *= 2
		}

		body, err := c.doRequest(ctx, method, path, build)
		if err == nil {
			return body, nil
		}

		lastErr = err

		var apiErr *APIError
		if !errors.As(err, &apiErr) || !apiErr.IsRetryable() {
			return nil, err
		}
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// getJSON performs a GET request with retries and decodes the body.
func (c *Client) getJSON(ctx context.Context, path string, build prepare, result any) error {
	body, err := c.doWithRetry(ctx, http.MethodGet, path, build)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}

	return nil
}
