package authsdk

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// Default paths of a tokengate server. They match the jwtauth defaults.
const (
	DefaultIssuancePath = "/api-token-auth"
	DefaultRefreshPath  = "/api-token-refresh"
)

// Client is a client for a tokengate server.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	// Paths and field names, in case the server was configured away from the
	// defaults.
	IssuancePath  string
	RefreshPath   string
	UsernameField string
	PasswordField string
	TokenField    string

	// RefreshBefore is how long before exp a Session refreshes its token.
	RefreshBefore time.Duration
}

// NewClient creates a client with the server defaults.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		IssuancePath:  DefaultIssuancePath,
		RefreshPath:   DefaultRefreshPath,
		UsernameField: "username",
		PasswordField: "password",
		TokenField:    "token",
		RefreshBefore: 30 * time.Second,
	}
}

// Login obtains a token and wraps it in a Session.
func (c *Client) Login(ctx context.Context, username, password string) (*Session, error) {
	tok, err := c.ObtainToken(ctx, username, password)
	if err != nil {
		return nil, err
	}
	return newSession(c, tok), nil
}

// NewSessionFromToken wraps a token obtained elsewhere.
func (c *Client) NewSessionFromToken(token string) (*Session, error) {
	tok, err := parseToken(token)
	if err != nil {
		return nil, err
	}
	return newSession(c, tok), nil
}
