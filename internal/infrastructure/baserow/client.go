// Package baserow is the transport to the remote tabular row store and
// hosts the typed repositories built on top of it.
package baserow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultTimeout = 30 * time.Second

// ErrTableNotConfigured is returned by repositories whose table ID was
// not provided in the environment.
var ErrTableNotConfigured = errors.New("table not configured")

// RequestError is returned for any non-success response from the row
// store. It carries the remote status code; there is no retry and no
// partial-result recovery at this layer.
type RequestError struct {
	StatusCode int
	Detail     string
}

func (e *RequestError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("store request failed (status %d): %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("store request failed (status %d)", e.StatusCode)
}

// Client is a stateless transport to the row store API. It owns no row
// state; every call is a single authenticated HTTP round-trip.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// NewClient creates a row store client for the given base URL,
// authenticated with a static token credential.
func NewClient(baseURL, token string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		baseURL: baseURL,
		token:   token,
	}
}

// ListResponse is the row store's list envelope.
type ListResponse struct {
	Count   int               `json:"count"`
	Results []json.RawMessage `json:"results"`
}

// ListRows fetches rows from a table, filtered by the given query
// parameters, and decodes the list envelope.
func (c *Client) ListRows(ctx context.Context, tableID string, filter url.Values) (*ListResponse, error) {
	var list ListResponse
	path := fmt.Sprintf("/database/rows/table/%s/", tableID)
	if err := c.do(ctx, http.MethodGet, path, filter, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// CreateRow inserts a single row. The created row (including its store
// assigned id) is decoded into out when out is non-nil.
func (c *Client) CreateRow(ctx context.Context, tableID string, row, out any) error {
	path := fmt.Sprintf("/database/rows/table/%s/", tableID)
	return c.do(ctx, http.MethodPost, path, nil, row, out)
}

// CreateRows inserts a batch of rows in a single request. There is no
// rollback: rows inserted before a failure stay inserted.
func (c *Client) CreateRows(ctx context.Context, tableID string, items any) error {
	path := fmt.Sprintf("/database/rows/table/%s/batch/", tableID)
	body := map[string]any{"items": items}
	return c.do(ctx, http.MethodPost, path, nil, body, nil)
}

// UpdateRow patches an existing row by its store row id.
func (c *Client) UpdateRow(ctx context.Context, tableID string, rowID int64, patch any) error {
	path := fmt.Sprintf("/database/rows/table/%s/%d/", tableID, rowID)
	return c.do(ctx, http.MethodPatch, path, nil, patch, nil)
}

// DeleteRows deletes every row matching the given filter.
func (c *Client) DeleteRows(ctx context.Context, tableID string, filter url.Values) error {
	path := fmt.Sprintf("/database/rows/table/%s/", tableID)
	return c.do(ctx, http.MethodDelete, path, filter, nil, nil)
}

// do performs one request against the row store. Non-success statuses
// surface as *RequestError; the response body is always closed.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Token %s", c.token))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &RequestError{StatusCode: resp.StatusCode, Detail: errorDetail(respBody)}
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}

	return nil
}

func errorDetail(body []byte) string {
	var e struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &e); err != nil {
		return ""
	}
	if e.Detail != "" {
		return e.Detail
	}
	return e.Error
}
