// Package auth is the thin slice of the auth service this process consumes:
// access-token lookup and session refresh. Account management (sign-up,
// password reset, sign-out) happens in the UI against the auth service
// directly and never passes through here.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// expirySlack refreshes slightly early so a token never expires mid-request.
const expirySlack = 30 * time.Second

// Client holds the current session against the auth service
type Client struct {
	baseURL      string
	refreshToken string
	client       *http.Client
	log          zerolog.Logger

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
}

// NewClient creates a new auth client. The refresh token is the long-lived
// credential issued at sign-in; access tokens are minted from it on demand.
func NewClient(baseURL, refreshToken string, log zerolog.Logger) *Client {
	return &Client{
		baseURL:      baseURL,
		refreshToken: refreshToken,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log.With().Str("client", "auth").Logger(),
	}
}

// AccessToken returns the current access token, refreshing the session first
// if the cached token is missing or about to expire.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	token, fresh := c.accessToken, time.Now().Add(expirySlack).Before(c.expiresAt)
	c.mu.Unlock()

	if token != "" && fresh {
		return token, nil
	}

	if err := c.Refresh(ctx); err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken, nil
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type refreshResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"` // seconds
}

// Refresh exchanges the refresh token for a new access token
func (c *Client) Refresh(ctx context.Context) error {
	body, err := json.Marshal(refreshRequest{RefreshToken: c.refreshToken})
	if err != nil {
		return fmt.Errorf("failed to marshal refresh request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/session/refresh", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("refresh request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("refresh rejected with status %d: %s", resp.StatusCode, data)
	}

	var result refreshResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode refresh response: %w", err)
	}
	if result.AccessToken == "" {
		return fmt.Errorf("refresh response missing access token")
	}

	c.mu.Lock()
	c.accessToken = result.AccessToken
	c.expiresAt = time.Now().Add(time.Duration(result.ExpiresIn) * time.Second)
	c.mu.Unlock()

	c.log.Debug().Int("expires_in", result.ExpiresIn).Msg("Session refreshed")
	return nil
}
