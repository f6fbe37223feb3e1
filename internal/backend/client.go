// Package backend implements the typed client for the platform REST API.
// Every durable record (users, carts, products, orders) lives behind this API;
// the storefront holds no persistence of its own beyond session credentials.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/Kirito-012/Ancient-Health/pkg/httpclient"

	apperrors "github.com/Kirito-012/Ancient-Health/pkg/errors"
)

// envelope is the platform API's standard response shape.
type envelope struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	Pagination *Pagination     `json:"pagination,omitempty"`
}

// Pagination describes the page window of a paginated backend response.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// Client is a typed client for the platform backend API.
//
// Mutations and authenticated reads go through an HTTP client with retries
// disabled: a failed cart or order mutation must surface to the user, never be
// replayed silently. Public catalog reads go through a circuit breaker so a
// struggling backend degrades browsing instead of hammering it.
type Client struct {
	baseURL string
	http    *httpclient.Client
	public  *httpclient.CircuitBreakerClient
	logger  *slog.Logger
}

// New creates a backend client rooted at baseURL.
func New(baseURL string, client *httpclient.Client, public *httpclient.CircuitBreakerClient, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    client,
		public:  public,
		logger:  logger,
	}
}

// do issues one request against the backend and decodes the response envelope.
// credential is attached as a bearer token when non-empty.
func (c *Client) do(ctx context.Context, method, path, credential string, body any) (*envelope, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, apperrors.Internal(fmt.Errorf("encode request body: %w", err))
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("create request: %w", err))
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if credential != "" {
		req.Header.Set("Authorization", "Bearer "+credential)
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, apperrors.Network(err)
	}
	defer resp.Body.Close()

	return c.decode(ctx, resp, method, path)
}

func (c *Client) decode(ctx context.Context, resp *http.Response, method, path string) (*envelope, error) {
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if resp.StatusCode >= 400 {
			// The backend failed without its usual envelope; treat the
			// transport status as the whole story.
			return nil, c.statusError(resp.StatusCode, "")
		}
		return nil, apperrors.Internal(fmt.Errorf("decode %s %s response: %w", method, path, err))
	}

	if resp.StatusCode >= 400 || !env.Success {
		c.logger.WarnContext(ctx, "backend rejected request",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
			slog.String("message", env.Message),
		)
		return nil, c.statusError(resp.StatusCode, env.Message)
	}

	return &env, nil
}

func (c *Client) statusError(status int, message string) error {
	switch status {
	case http.StatusUnauthorized:
		if message == "" {
			message = "unauthorized"
		}
		return apperrors.Unauthorized(message)
	case http.StatusNotFound:
		return &apperrors.AppError{
			Code:    "NOT_FOUND",
			Message: message,
			Status:  http.StatusNotFound,
			Err:     apperrors.ErrNotFound,
		}
	default:
		if message == "" {
			message = "Something went wrong. Please try again."
		}
		return apperrors.BackendRejected(message)
	}
}

// call issues a request and unmarshals the envelope's data field into out.
func (c *Client) call(ctx context.Context, method, path, credential string, body, out any) error {
	env, err := c.do(ctx, method, path, credential, body)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return apperrors.Internal(fmt.Errorf("decode %s %s data: %w", method, path, err))
	}
	return nil
}
