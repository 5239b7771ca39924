package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/vango-go/vai-speak/pkg/core"
)

// DefaultBaseURL is the auth service used when none is configured.
const DefaultBaseURL = "http://localhost:8001"

// Client talks to the auth service.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// LoginResponse is the body returned by POST /auth/login.
type LoginResponse struct {
	AccessToken string          `json:"access_token"`
	TokenType   string          `json:"token_type,omitempty"`
	User        json.RawMessage `json:"user,omitempty"`
}

// User is the account returned by /auth/me and /auth/register.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// Login exchanges credentials for an access token.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, core.NewInvalidRequestError("email and password are required")
	}
	var out LoginResponse
	payload := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", payload, &out); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.AccessToken) == "" {
		return nil, core.NewAPIError("login response has no access token")
	}
	return &out, nil
}

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, email, password, fullName string) (*User, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, core.NewInvalidRequestError("email and password are required")
	}
	var out User
	payload := map[string]string{"email": email, "password": password, "full_name": fullName}
	if err := c.do(ctx, http.MethodPost, "/auth/register", "", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me returns the account that token belongs to. A rejected token yields a
// *core.Error of type ErrAuthentication.
func (c *Client) Me(ctx context.Context, token string) (*User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, &core.Error{Type: core.ErrAuthentication, Message: "not logged in"}
	}
	var out User
	if err := c.do(ctx, http.MethodGet, "/auth/me", token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// IsUnauthorized reports whether err means the credential was rejected.
func IsUnauthorized(err error) bool {
	var apiErr *core.Error
	return errors.As(err, &apiErr) && apiErr.Type == core.ErrAuthentication
}

func (c *Client) do(ctx context.Context, method, path, token string, payload, out any) error {
	base := strings.TrimSpace(c.BaseURL)
	if base == "" {
		base = DefaultBaseURL
	}
	endpoint, err := url.JoinPath(base, path)
	if err != nil {
		return core.NewInvalidRequestError("invalid auth base URL")
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return core.DecodeErrorResponse(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return core.WrapAPIError("failed to decode "+path+" response", err)
	}
	return nil
}
