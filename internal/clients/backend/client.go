// Package backend is the authenticated REST client for the remote finance
// backend. Every request carries a bearer token; a 401 triggers exactly one
// session refresh and replay before surfacing ErrUnauthorized.
package backend

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

	"github.com/rs/zerolog"
)

// TokenSource supplies bearer tokens. Implemented by the auth client.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
	Refresh(ctx context.Context) error
}

// Client issues authenticated requests against the backend
type Client struct {
	baseURL string
	client  *http.Client
	tokens  TokenSource
	log     zerolog.Logger
}

// NewClient creates a new backend client
func NewClient(baseURL string, tokens TokenSource, log zerolog.Logger) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, baseURL)
	}

	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		tokens: tokens,
		log:    log.With().Str("client", "backend").Logger(),
	}, nil
}

// Get issues a GET request and decodes the response into out
func (c *Client) Get(ctx context.Context, endpoint string, out interface{}) error {
	return c.do(ctx, http.MethodGet, endpoint, nil, out)
}

// Post issues a POST request with a JSON body
func (c *Client) Post(ctx context.Context, endpoint string, body, out interface{}) error {
	return c.do(ctx, http.MethodPost, endpoint, body, out)
}

// Put issues a PUT request with a JSON body
func (c *Client) Put(ctx context.Context, endpoint string, body, out interface{}) error {
	return c.do(ctx, http.MethodPut, endpoint, body, out)
}

// Delete issues a DELETE request
func (c *Client) Delete(ctx context.Context, endpoint string) error {
	return c.do(ctx, http.MethodDelete, endpoint, nil, nil)
}

// do executes a request with at most one refresh-and-replay on 401.
func (c *Client) do(ctx context.Context, method, endpoint string, body, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return &UnknownError{Err: fmt.Errorf("failed to marshal request body: %w", err)}
		}
	}

	refreshed := false
	for {
		status, data, err := c.execute(ctx, method, endpoint, payload)
		if err != nil {
			return err
		}

		if status == http.StatusUnauthorized {
			if refreshed {
				return fmt.Errorf("%w: %s %s", ErrUnauthorized, method, endpoint)
			}
			refreshed = true

			c.log.Debug().
				Str("method", method).
				Str("endpoint", endpoint).
				Msg("Got 401, refreshing session")

			if err := c.tokens.Refresh(ctx); err != nil {
				return fmt.Errorf("%w: session refresh failed: %v", ErrUnauthorized, err)
			}
			continue
		}

		return c.handleResponse(method, endpoint, status, data, out)
	}
}

// execute performs a single HTTP round trip and reads the full body
func (c *Client) execute(ctx context.Context, method, endpoint string, payload []byte) (int, []byte, error) {
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: no access token: %v", ErrUnauthorized, err)
	}

	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, bodyReader)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, &NetworkError{Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	return resp.StatusCode, data, nil
}

// handleResponse maps the status code and decodes 2xx bodies
func (c *Client) handleResponse(method, endpoint string, status int, data []byte, out interface{}) error {
	switch {
	case status >= 200 && status < 300:
		if out == nil {
			return nil
		}
		if len(data) == 0 {
			return fmt.Errorf("%w: %s %s", ErrNoData, method, endpoint)
		}
		if err := json.Unmarshal(data, out); err != nil {
			decErr := &DecodingError{FieldPath: fieldPath(err), Err: err}
			c.log.Error().
				Str("method", method).
				Str("endpoint", endpoint).
				Str("field", decErr.FieldPath).
				Err(err).
				Msg("Failed to decode response")
			return decErr
		}
		return nil

	case status == http.StatusForbidden:
		return fmt.Errorf("%w: %s %s", ErrForbidden, method, endpoint)

	case status == http.StatusNotFound:
		return fmt.Errorf("%w: %s %s", ErrNotFound, method, endpoint)

	default:
		return &ServerError{Status: status, Message: extractErrorMessage(data)}
	}
}

// fieldPath pulls the offending field out of a json decode error when the
// decoder exposes one.
func fieldPath(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		if typeErr.Struct != "" && typeErr.Field != "" {
			return typeErr.Struct + "." + typeErr.Field
		}
		return typeErr.Field
	}
	return ""
}

// extractErrorMessage reads the "error" field from an error response body
func extractErrorMessage(data []byte) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	return body.Error
}
