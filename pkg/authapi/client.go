package authapi

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

	pkgerrors "github.com/ticketeira/storefront/pkg/errors"
)

const (
	tenantHeader                = "tenant-id"
	responseBodyReadLimit int64 = 1024
)

var errTenantRequired = errors.New("tenant id is required")

// Client wraps the external Auth API consumed by the storefront. Tokens are
// opaque to the gateway; it only stores and forwards them.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tenantID   string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout overrides the default request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewClient builds the Auth API client for one tenant.
func NewClient(baseURL, tenantID string, opts ...Option) (*Client, error) {
	trimmedURL := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmedURL == "" {
		return nil, errors.New("auth api base url is required")
	}
	trimmedTenant := strings.TrimSpace(tenantID)
	if trimmedTenant == "" {
		return nil, errTenantRequired
	}

	client := &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    trimmedURL,
		tenantID:   trimmedTenant,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// TokenPair mirrors the token payload returned by login and refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// User is the authenticated profile returned by the Auth API.
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

// CreateUserRequest registers a new account.
type CreateUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateUserRequest changes the authenticated profile.
type UpdateUserRequest struct {
	Name      string `json:"name,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email,omitempty"`
}

// Login exchanges credentials for a token pair.
func (c *Client) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and password are required")
	}

	body := map[string]string{"email": email, "password": password}
	var pair TokenPair
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", body, &pair); err != nil {
		return nil, err
	}
	return &pair, nil
}

// GetLoggedUser fetches the profile tied to the access token.
func (c *Client) GetLoggedUser(ctx context.Context, accessToken string) (*User, error) {
	if strings.TrimSpace(accessToken) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "access token is required")
	}

	var user User
	if err := c.do(ctx, http.MethodGet, "/auth/me", accessToken, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Refresh exchanges a refresh token for a new token pair.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "refresh token is required")
	}

	body := map[string]string{"refresh_token": refreshToken}
	var pair TokenPair
	if err := c.do(ctx, http.MethodPost, "/auth/refresh", "", body, &pair); err != nil {
		return nil, err
	}
	return &pair, nil
}

// CreateUser registers a new account with the Auth API.
func (c *Client) CreateUser(ctx context.Context, req CreateUserRequest) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodPost, "/users", "", req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUser changes the authenticated profile.
func (c *Client) UpdateUser(ctx context.Context, accessToken string, req UpdateUserRequest) (*User, error) {
	if strings.TrimSpace(accessToken) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "access token is required")
	}

	var user User
	if err := c.do(ctx, http.MethodPut, "/users/me", accessToken, req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) do(ctx context.Context, method, path, accessToken string, body, dest any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal auth api request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build auth api request")
	}
	req.Header.Set(tenantHeader, c.tenantID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute auth api request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return mapStatusError(resp, path)
	}

	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode auth api response")
	}
	return nil
}

func mapStatusError(resp *http.Response, path string) error {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	cause := fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, cause, "auth api rejected credentials")
	case http.StatusNotFound:
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, cause, "auth api resource not found")
	case http.StatusConflict:
		return pkgerrors.Wrap(pkgerrors.CodeConflict, cause, "auth api conflict")
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return pkgerrors.Wrap(pkgerrors.CodeValidation, cause, "auth api rejected request")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, cause, fmt.Sprintf("auth api %s failed", path))
}
