package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-resty/resty/v2"

	"github.com/rickgao/shoplog/internal/ingest"
	"github.com/rickgao/shoplog/internal/model"
)

// UploaderHeader carries the uploader identity.
const UploaderHeader = "X-Uploader-ID"

// UploadResponse is the body of a successful upload.
type UploadResponse struct {
	Message string         `json:"message"`
	Receipt ingest.Receipt `json:"receipt"`
}

// IndexResponse is the body of GET /api/v1/index.
type IndexResponse struct {
	Version int64       `json:"version"`
	Entries model.Index `json:"entries"`
}

// LookupResponse is the body of GET /api/v1/index/lookup.
type LookupResponse struct {
	Key   string           `json:"key"`
	Entry model.IndexEntry `json:"entry"`
}

// UploadRecords posts records as one batch under uploader.
func (c *Client) UploadRecords(ctx context.Context, uploader string, records []model.ShopRecord) (*UploadResponse, error) {
	body, err := c.doWithRetry(ctx, http.MethodPost, "/api/v1/inventory", func(r *resty.Request) *resty.Request {
		return r.
			SetHeader("Content-Type", "application/json").
			SetHeader(UploaderHeader, uploader).
			SetBody(records)
	})
	if err != nil {
		return nil, err
	}

	var resp UploadResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return &resp, nil
}

// FetchIndex returns the full index.
func (c *Client) FetchIndex(ctx context.Context) (*IndexResponse, error) {
	var resp IndexResponse
	if err := c.getJSON(ctx, "/api/v1/index", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Entries == nil {
		resp.Entries = model.Index{}
	}
	return &resp, nil
}

// Lookup returns the entry for item with the given enchantments, in any
// order.
func (c *Client) Lookup(ctx context.Context, item string, enchants ...string) (*LookupResponse, error) {
	var resp LookupResponse
	err := c.getJSON(ctx, "/api/v1/index/lookup", func(r *resty.Request) *resty.Request {
		return r.SetQueryParamsFromValues(url.Values{
			"item":    {item},
			"enchant": enchants,
		})
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Health checks the server.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.doRequest(ctx, http.MethodGet, "/health", nil)
	return err
}
