package authsdk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token is an issued token plus what the client could read from it. The
// claims are decoded without checking the signature; only the server can do
// that.
type Token struct {
	Token     string
	Claims    map[string]any
	ExpiresAt time.Time // zero when the token has no exp
}

// ObtainToken trades a username and password for a token.
func (c *Client) ObtainToken(ctx context.Context, username, password string) (*Token, error) {
	return c.requestToken(ctx, c.IssuancePath, url.Values{
		c.UsernameField: {username},
		c.PasswordField: {password},
	})
}

// RefreshToken trades a token, possibly just expired, for a fresh one.
func (c *Client) RefreshToken(ctx context.Context, token string) (*Token, error) {
	return c.requestToken(ctx, c.RefreshPath, url.Values{
		c.TokenField: {token},
	})
}

// Me calls GET /v1/me with token.
func (c *Client) Me(ctx context.Context, token string) (*MeResponse, error) {
	var out MeResponse
	if err := c.getJSON(ctx, "/v1/me", token, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetUser calls GET /v1/users/{username}. The token needs the admin role.
func (c *Client) GetUser(ctx context.Context, token, username string) (*UserResponse, error) {
	var out UserResponse
	if err := c.getJSON(ctx, "/v1/users/"+url.PathEscape(username), token, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) requestToken(ctx context.Context, path string, form url.Values) (*Token, error) {
	raw, err := c.postForm(ctx, path, form)
	if err != nil {
		return nil, err
	}

	var resp map[string]any
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("authsdk: decode token response: %w", err)
	}
	token, _ := resp[c.TokenField].(string)
	return parseToken(token)
}

// parseToken reads the claims out of a compact JWT without verifying it.
func parseToken(token string) (*Token, error) {
	if token == "" {
		return nil, ErrNoToken
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("authsdk: parse token: %w", err)
	}

	tok := &Token{Token: token, Claims: claims}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		tok.ExpiresAt = exp.Time
	}
	return tok, nil
}
