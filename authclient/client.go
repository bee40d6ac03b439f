package authclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/MrEthical07/tokenauth"
)

const (
	validatePath = "/api/auth/token/validate"
	userPath     = "/api/auth/user"
)

// Client calls the validate and user endpoints of a tokenauth server.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *log.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default client (10s timeout).
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithLogger redirects request logging.
func WithLogger(l *log.Logger) Option {
	return func(cl *Client) { cl.logger = l }
}

// New returns a Client for the server at baseURL, e.g. "http://auth:8080".
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("base URL required")
	}

	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		logger:  log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ValidateToken asks the server whether token is valid.
func (c *Client) ValidateToken(ctx context.Context, token string) (tokenauth.TokenResponse, error) {
	c.logger.Printf("tokenauth: sending token validation request")

	var out tokenauth.TokenResponse
	if err := c.call(ctx, http.MethodPost, validatePath, token, &out); err != nil {
		return tokenauth.TokenResponse{}, &tokenauth.AuthenticationError{
			Message: "Auth error: " + err.Error(),
			Err:     err,
		}
	}

	c.logger.Printf("tokenauth: token is valid")
	return out, nil
}

// GetAuthenticatedUser asks the server who owns token.
func (c *Client) GetAuthenticatedUser(ctx context.Context, token string) (tokenauth.AuthenticatedUser, error) {
	c.logger.Printf("tokenauth: sending authenticated user request")

	var out tokenauth.AuthenticatedUser
	if err := c.call(ctx, http.MethodGet, userPath, token, &out); err != nil {
		return tokenauth.AuthenticatedUser{}, &tokenauth.AuthenticationError{
			Message: "Auth to get authentication user: " + err.Error(),
			Err:     err,
		}
	}

	c.logger.Printf("tokenauth: auth user found: id=%s username=%s", out.ID, out.Username)
	return out, nil
}

// StatusError is a non-200 answer from the server.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("status %d", e.Status)
	}
	return fmt.Sprintf("status %d: %s", e.Status, e.Message)
}

func (c *Client) call(ctx context.Context, method, path, token string, out any) error {
	if strings.TrimSpace(token) == "" {
		return tokenauth.ErrTokenRequired
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		var e struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(body, &e)
		return &StatusError{Status: resp.StatusCode, Message: e.Message}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
