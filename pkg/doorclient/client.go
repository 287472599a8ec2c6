// Package doorclient is a small Go client for the /door API.
package doorclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrNotFound is returned by Latest when no building exists yet.
var ErrNotFound = errors.New("no buildings found")

// CreateRequest is the POST /door body.
type CreateRequest struct {
	Lat           float64  `json:"lat"`
	Long          float64  `json:"long"`
	Info          string   `json:"info"`
	Language      string   `json:"language"`
	NumberOfDoors int      `json:"numberOfDoors"`
	Addresses     []string `json:"addresses,omitempty"`
}

// CreateResponse is the success body of POST /door.
type CreateResponse struct {
	Message string `json:"message"`
}

// Building is the summary returned by GET /door.
type Building struct {
	ID          int64   `json:"id"`
	Lat         float64 `json:"lat"`
	Long        float64 `json:"long"`
	Information string  `json:"information"`
	DoorCount   int     `json:"doorCount"`
	Language    string  `json:"language"`
}

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("door api: %d %s", e.Status, e.Message)
}

// Client talks to a door server.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the default client's timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http = &http.Client{Timeout: d} }
}

// New returns a client for baseURL, e.g. "http://localhost:3001".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Create submits one building and its doors. It is never retried.
func (c *Client) Create(ctx context.Context, req CreateRequest) (*CreateResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	var out CreateResponse
	if err := c.do(ctx, http.MethodPost, bytes.NewReader(body), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Latest returns the most recently created building.
func (c *Client) Latest(ctx context.Context) (*Building, error) {
	var out struct {
		Building Building `json:"building"`
	}
	err := c.do(ctx, http.MethodGet, nil, &out)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out.Building, nil
}

func (c *Client) do(ctx context.Context, method string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/door", body)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s /door: %w", method, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		_ = json.Unmarshal(data, &e)
		msg := e.Error
		if msg == "" {
			msg = e.Message
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
