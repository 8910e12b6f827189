// Package remote implements the HTTP client for the upstream CRM API.
//
// The upstream exposes three surfaces: a resource-oriented read endpoint
// (GET /api/v1/{resource} with pagination, sort, search and per-field filter
// parameters), a write endpoint (POST/PUT/DELETE /api/v1/{resource}[/{id}]),
// and a read-only catalog endpoint (GET /api/v1/options). Every response is
// wrapped in a success envelope; this package unwraps envelopes and maps
// failures onto the error taxonomy in errors.go.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// Record is a raw wire record as returned by the read endpoint. Field types
// are whatever the upstream sends (numbers as strings, comma-joined lists,
// embedded JSON blobs); decoding into the internal model is the transformer's
// job, not this package's.
type Record map[string]any

// Catalog holds the upstream option lists used to populate pickers.
type Catalog struct {
	Tags       []string `json:"tags"`
	AssignedTo []string `json:"assigned_to"`
	Lists      []string `json:"lists"`
}

type listEnvelope struct {
	Success bool     `json:"success"`
	Data    []Record `json:"data"`
	Meta    struct {
		Total int `json:"total"`
	} `json:"meta"`
	Message string `json:"message"`
}

type getEnvelope struct {
	Success bool   `json:"success"`
	Data    Record `json:"data"`
	Message string `json:"message"`
}

type writeEnvelope struct {
	Success bool   `json:"success"`
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

// Client talks to the upstream CRM API. It is safe for concurrent use.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client (30s timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger replaces the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a Client for the given base URL (scheme://host[:port], without
// the /api/v1 prefix). apiKey may be empty when the upstream does not require
// authentication (e.g. the local mock server).
func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshalling request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return nil, err
	}
	reqID := uuid.New().String()
	req.Header.Set("X-Request-ID", reqID)
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("remote request", "method", method, "path", path, "request_id", reqID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: method + " " + path, Err: err}
	}
	return resp, nil
}

// decode unwraps the HTTP layer into v, mapping non-2xx statuses onto
// TransportError. Envelope-level failure (success:false) is the caller's
// concern since the envelope shape differs per endpoint.
func decode(resp *http.Response, v any) error {
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		// The envelope still decodes on 404 so the caller can distinguish
		// "no such record" from a routing failure.
		if err := json.NewDecoder(resp.Body).Decode(v); err == nil {
			return nil
		}
		return ErrNotFound
	}
	if resp.StatusCode >= 400 {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return &TransportError{Op: "read response", Err: fmt.Errorf("status %d (unreadable body: %w)", resp.StatusCode, err)}
		}
		return &TransportError{Op: "response", Err: fmt.Errorf("status %d: %s", resp.StatusCode, string(body))}
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return &TransportError{Op: "decode response", Err: err}
	}
	return nil
}

// List fetches a page of records for resource ("contacts" or "activities").
// Returns the records and the total count across all pages.
func (c *Client) List(ctx context.Context, resource string, query url.Values) ([]Record, int, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/v1/"+resource, query, nil)
	if err != nil {
		return nil, 0, err
	}
	var env listEnvelope
	if err := decode(resp, &env); err != nil {
		return nil, 0, err
	}
	if !env.Success {
		return nil, 0, &RemoteError{Resource: resource, Message: env.Message}
	}
	return env.Data, env.Meta.Total, nil
}

// Get fetches a single record by id. Returns ErrNotFound when the upstream
// reports no such record.
func (c *Client) Get(ctx context.Context, resource string, id int64) (Record, error) {
	resp, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/v1/%s/%d", resource, id), nil, nil)
	if err != nil {
		return nil, err
	}
	var env getEnvelope
	if err := decode(resp, &env); err != nil {
		return nil, err
	}
	if !env.Success {
		if env.Data == nil {
			return nil, ErrNotFound
		}
		return nil, &RemoteError{Resource: resource, Message: env.Message}
	}
	return env.Data, nil
}

// Create posts a new record and returns the server-assigned id.
func (c *Client) Create(ctx context.Context, resource string, fields map[string]any) (int64, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/v1/"+resource, nil, fields)
	if err != nil {
		return 0, err
	}
	var env writeEnvelope
	if err := decode(resp, &env); err != nil {
		return 0, err
	}
	if !env.Success {
		return 0, &RemoteError{Resource: resource, Message: env.Message}
	}
	return env.ID, nil
}

// Update sends a partial update. fields carries only the wire-named fields
// that actually changed.
func (c *Client) Update(ctx context.Context, resource string, id int64, fields map[string]any) error {
	resp, err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/v1/%s/%d", resource, id), nil, fields)
	if err != nil {
		return err
	}
	var env writeEnvelope
	if err := decode(resp, &env); err != nil {
		return err
	}
	if !env.Success {
		return &RemoteError{Resource: resource, Message: env.Message}
	}
	return nil
}

// Delete removes a record permanently.
func (c *Client) Delete(ctx context.Context, resource string, id int64) error {
	resp, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/v1/%s/%d", resource, id), nil, nil)
	if err != nil {
		return err
	}
	var env writeEnvelope
	if err := decode(resp, &env); err != nil {
		return err
	}
	if !env.Success {
		return &RemoteError{Resource: resource, Message: env.Message}
	}
	return nil
}

// FetchCatalog retrieves the option catalog (tags, assignable owners, named
// lists).
func (c *Client) FetchCatalog(ctx context.Context) (Catalog, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/v1/options", nil, nil)
	if err != nil {
		return Catalog{}, err
	}
	var cat Catalog
	if err := decode(resp, &cat); err != nil {
		return Catalog{}, err
	}
	return cat, nil
}
