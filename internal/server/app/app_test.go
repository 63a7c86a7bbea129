package app

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/tokengate/pkg/authsdk"
	"github.com/aussiebroadwan/tokengate/pkg/jwtauth"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T, tweak func(*Config)) (*Application, *authsdk.Client) {
	t.Helper()
	dir := t.TempDir()

	cfg := Config{
		Secret:            "integration-secret",
		Algorithm:         "HS256",
		TokenLife:         time.Minute,
		RefreshLeeway:     30 * time.Second,
		DatabaseFile:      filepath.Join(dir, "tokengate.db"),
		PepperFile:        filepath.Join(dir, "pepper"),
		BootstrapUsername: "root",
		BootstrapPassword: "root-password",
		Env:               "test",
		LogLevel:          "error",
		LookupTimeout:     time.Second,
		LogOutput:         io.Discard,
	}
	if tweak != nil {
		tweak(&cfg)
	}

	a, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.db.Close() })

	srv := httptest.NewServer(a.Handler())
	t.Cleanup(srv.Close)

	return a, authsdk.NewClient(srv.URL)
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var se *authsdk.StatusError
	require.True(t, errors.As(err, &se), "want *StatusError, got %v", err)
	return se.StatusCode
}

func TestNewRejectsMissingSecret(t *testing.T) {
	_, err := New(Config{})
	require.ErrorIs(t, err, ErrMissingSecret)
}

func TestNewRejectsBadAlgorithm(t *testing.T) {
	dir := t.TempDir()
	_, err := New(Config{
		Secret:       "x",
		Algorithm:    "RS256",
		DatabaseFile: filepath.Join(dir, "db"),
		PepperFile:   filepath.Join(dir, "pepper"),
		LogOutput:    io.Discard,
	})
	require.ErrorIs(t, err, jwtauth.ErrConfiguration)
}

func TestTokenLifecycle(t *testing.T) {
	ctx := context.Background()
	a, c := newTestApp(t, nil)

	tok, err := c.ObtainToken(ctx, "ROOT", "root-password")
	require.NoError(t, err)
	require.Equal(t, "root", tok.Claims["username"])
	require.Equal(t, []any{"admin"}, tok.Claims["roles"])
	require.NotContains(t, tok.Claims, "password_hash")

	me, err := c.Me(ctx, tok.Token)
	require.NoError(t, err)
	require.Equal(t, tok.Claims["sub"], me.Subject)
	require.Equal(t, []string{"admin"}, me.Roles)
	require.NotNil(t, me.ExpiresAt)
	require.NotContains(t, me.Claims, "exp")

	fresh, err := c.RefreshToken(ctx, tok.Token)
	require.NoError(t, err)
	require.Equal(t, tok.Claims["sub"], fresh.Claims["sub"])
	require.NotEqual(t, tok.Claims["jti"], fresh.Claims["jti"])

	u, err := c.GetUser(ctx, tok.Token, "root")
	require.NoError(t, err)
	require.Equal(t, "root", u.Username)
	require.Equal(t, []string{"admin"}, u.Roles)

	_, err = c.GetUser(ctx, tok.Token, "nobody")
	require.Equal(t, http.StatusNotFound, statusOf(t, err))

	// A non-admin gets a 403 from the users endpoint but can still read /v1/me.
	_, err = a.userService.CreateUser(ctx, "bob", "bob-password")
	require.NoError(t, err)
	bob, err := c.ObtainToken(ctx, "bob", "bob-password")
	require.NoError(t, err)

	_, err = c.GetUser(ctx, bob.Token, "root")
	require.Equal(t, http.StatusForbidden, statusOf(t, err))
	_, err = c.Me(ctx, bob.Token)
	require.NoError(t, err)
}

func TestRejections(t *testing.T) {
	ctx := context.Background()
	_, c := newTestApp(t, nil)

	_, err := c.ObtainToken(ctx, "root", "wrong")
	require.Equal(t, http.StatusUnauthorized, statusOf(t, err))

	_, err = c.ObtainToken(ctx, "ghost", "whatever")
	require.Equal(t, http.StatusUnauthorized, statusOf(t, err))

	_, err = c.Me(ctx, "")
	require.Equal(t, http.StatusUnauthorized, statusOf(t, err))

	_, err = c.Me(ctx, "not-a-token")
	require.Equal(t, http.StatusUnauthorized, statusOf(t, err))

	_, err = c.RefreshToken(ctx, "not-a-token")
	require.Equal(t, http.StatusUnauthorized, statusOf(t, err))

	// Unknown routes still sit behind the gate.
	resp, err := http.Get(c.BaseURL + "/v1/unknown")
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "Bearer", resp.Header.Get("WWW-Authenticate"))
}

func TestRefreshLeewayAgainstServerClock(t *testing.T) {
	ctx := context.Background()
	_, c := newTestApp(t, func(cfg *Config) {
		cfg.TokenLife = time.Second
		cfg.RefreshLeeway = time.Minute
	})

	tok, err := c.ObtainToken(ctx, "root", "root-password")
	require.NoError(t, err)

	// Wait for the one second token to lapse.
	require.Eventually(t, func() bool {
		_, err := c.Me(ctx, tok.Token)
		return err != nil
	}, 5*time.Second, 100*time.Millisecond)

	fresh, err := c.RefreshToken(ctx, tok.Token)
	require.NoError(t, err, "expired token is still inside the leeway")
	require.NotEmpty(t, fresh.Token)
}

func TestIssuanceIsRateLimited(t *testing.T) {
	_, c := newTestApp(t, nil)

	post := func() *http.Response {
		form := url.Values{"username": {"mallory"}, "password": {"guess"}}
		resp, err := http.Post(c.BaseURL+"/api-token-auth", "application/x-www-form-urlencoded",
			strings.NewReader(form.Encode()))
		require.NoError(t, err)
		_ = resp.Body.Close()
		return resp
	}

	for range 5 {
		require.Equal(t, http.StatusUnauthorized, post().StatusCode)
	}
	resp := post()
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get("Retry-After"))

	// Another username from the same address has its own bucket.
	_, err := c.ObtainToken(context.Background(), "root", "root-password")
	require.NoError(t, err)
}

func TestIssuanceRejectsBadForms(t *testing.T) {
	_, c := newTestApp(t, nil)

	post := func(body string) int {
		resp, err := http.Post(c.BaseURL+"/api-token-auth", "application/x-www-form-urlencoded", strings.NewReader(body))
		require.NoError(t, err)
		_ = resp.Body.Close()
		return resp.StatusCode
	}

	valid := url.Values{"username": {"root"}, "password": {"root-password"}}.Encode()
	require.Equal(t, http.StatusOK, post(valid))

	// Valid credentials do not help a body over the 100 KiB cap.
	require.Equal(t, http.StatusUnauthorized, post(valid+"&pad="+strings.Repeat("a", 120<<10)))

	// Nor one that only partly parses.
	require.Equal(t, http.StatusUnauthorized, post(valid+"&pad=%zz"))
}

func TestHealthAndDocs(t *testing.T) {
	ctx := context.Background()
	_, c := newTestApp(t, nil)

	live, err := c.GetLiveness(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", live.Status)
	require.Equal(t, BuildVersion, live.Version)

	ready, err := c.GetReadiness(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", ready.Checks.Database)

	resp, err := http.Get(c.BaseURL + "/swagger/doc.json")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), "/api-token-auth")
}

func TestBootstrapRunsOnce(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	base := func(cfg *Config) {
		cfg.DatabaseFile = filepath.Join(dir, "shared.db")
		cfg.PepperFile = filepath.Join(dir, "pepper")
	}

	a, _ := newTestApp(t, base)
	require.NoError(t, a.db.Close())

	// Second start with different bootstrap credentials keeps the first admin.
	_, c := newTestApp(t, func(cfg *Config) {
		base(cfg)
		cfg.BootstrapPassword = "other-password"
	})

	_, err := c.ObtainToken(ctx, "root", "other-password")
	require.Equal(t, http.StatusUnauthorized, statusOf(t, err))
	_, err = c.ObtainToken(ctx, "root", "root-password")
	require.NoError(t, err)
}
