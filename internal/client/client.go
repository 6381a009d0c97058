// Package client is the remote mutation adapter the console controllers use
// to reach the settings API. Each method is exactly one HTTP call; nothing is
// cached or retried.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Config configures a Client.
type Config struct {
	BaseURL    string
	TenantID   uuid.UUID
	Token      string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client wraps interactions with the settings API.
type Client struct {
	baseURL    string
	tenantID   uuid.UUID
	token      string
	httpClient *http.Client
}

// New constructs a new client.
func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		tenantID:   cfg.TenantID,
		token:      cfg.Token,
		httpClient: httpClient,
	}
}

type request struct {
	method      string
	path        string
	body        io.Reader
	contentType string
	headers     map[string]string
}

func jsonRequest(method, path string, payload any) (request, error) {
	req := request{method: method, path: path}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return request{}, fmt.Errorf("client: encode %s %s: %w", method, path, err)
		}
		req.body = bytes.NewReader(raw)
		req.contentType = "application/json"
	}
	return req, nil
}

// do sends req and decodes a 2xx JSON body into out when out is non-nil.
// Non-2xx responses become *Error.
func (c *Client) do(ctx context.Context, req request, out any) error {
	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+req.path, req.body)
	if err != nil {
		return err
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	if c.tenantID != uuid.Nil {
		httpReq.Header.Set("X-Tenant-ID", c.tenantID.String())
	}
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, v := range req.headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("client: decode %s %s: %w", req.method, req.path, err)
	}
	return nil
}
