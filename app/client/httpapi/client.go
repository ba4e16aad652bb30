// Package httpapi is the JSON-over-HTTP transport shared by the source clients.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"focuswatch/app/client/payload"
)

const (
	defaultTimeout = 3 * time.Second
	maxBodySize    = 4 * 1024 * 1024
)

type Client struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
}

// RequestError is a response with a non-2xx status.
type RequestError struct {
	Method     string
	Path       string
	StatusCode int
	Status     string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s %s: http %d %s", e.Method, e.Path, e.StatusCode, strings.TrimSpace(e.Status))
}

// TransportError is a request that never produced a response.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func New(baseURL string, timeout time.Duration) *Client {
	return NewWithClient(baseURL, &http.Client{}, timeout)
}

func NewWithClient(baseURL string, client *http.Client, timeout time.Duration) *Client {
	if client == nil {
		client = &http.Client{}
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		timeout: timeout,
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) Get(ctx context.Context, path string) (payload.Document, error) {
	return c.JSON(ctx, http.MethodGet, path, nil)
}

func (c *Client) Post(ctx context.Context, path string, body any) (payload.Document, error) {
	return c.JSON(ctx, http.MethodPost, path, body)
}

// JSON performs the request and parses the response body.
func (c *Client) JSON(ctx context.Context, method, path string, body any) (payload.Document, error) {
	raw, err := c.Do(ctx, method, path, body)
	if err != nil {
		return payload.Document{}, err
	}

	doc, err := payload.Parse(raw)
	if err != nil {
		return payload.Document{}, fmt.Errorf("%s %s: %w", method, path, err)
	}

	return doc, nil
}

// Do performs the request and returns the raw body of a 2xx response.
func (c *Client) Do(ctx context.Context, method, path string, body any) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &TransportError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &TransportError{Method: method, Path: path, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RequestError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Status:     http.StatusText(resp.StatusCode),
		}
	}

	return data, nil
}
