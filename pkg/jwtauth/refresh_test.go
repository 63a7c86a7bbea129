package jwtauth_test

import (
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/aussiebroadwan/tokengate/pkg/jwtauth"
	"github.com/aussiebroadwan/tokengate/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

// captureRefreshErr records what RefreshTokenError was called with.
func captureRefreshErr(dst *error) func(*jwtauth.Options) {
	return func(o *jwtauth.Options) {
		o.RefreshTokenError = jwtauth.ErrorHandlerFunc(func(w http.ResponseWriter, _ *http.Request, _ http.Handler, err error) {
			*dst = err
			w.WriteHeader(http.StatusUnauthorized)
		})
	}
}

func TestRefreshValidToken(t *testing.T) {
	f := newFixture(t, nil)
	token := f.login("alice")

	f.advance(30 * time.Second)
	rec := f.do(postJSON("/api-token-refresh", map[string]string{"token": token}))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	require.Equal(t, "alice", body["username"])
	fresh, _ := body["token"].(string)
	require.NotEmpty(t, fresh)
	require.NotEqual(t, token, fresh)

	// The new token runs from the refresh, not from the original login.
	rec = f.do(postForm("/api-token-refresh", url.Values{"token": {fresh}}))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Zero(t, f.reached.Load())
}

func TestRefreshLeeway(t *testing.T) {
	cases := []struct {
		name    string
		leeway  time.Duration
		pastExp time.Duration
		ok      bool
	}{
		{"just inside leeway", 30 * time.Second, 29 * time.Second, true},
		{"expired ten seconds ago", 30 * time.Second, 10 * time.Second, true},
		{"exactly at leeway", 30 * time.Second, 30 * time.Second, false},
		{"past leeway", 30 * time.Second, 31 * time.Second, false},
		{"no leeway", 0, time.Second, false},
		{"no leeway at expiry", 0, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got error
			f := newFixture(t, func(o *jwtauth.Options) {
				o.RefreshLeeway = tc.leeway
				captureRefreshErr(&got)(o)
			})
			token := f.login("alice")

			f.advance(time.Minute + tc.pastExp)
			rec := f.do(postJSON("/api-token-refresh", map[string]string{"token": token}))

			if tc.ok {
				require.Equal(t, http.StatusOK, rec.Code)
				require.NoError(t, got)
				return
			}
			require.Equal(t, http.StatusUnauthorized, rec.Code)
			require.ErrorIs(t, got, jwtx.ErrExpired)
			require.EqualValues(t, 1, f.lookups.Load(), "only the login should have looked up")
		})
	}
}

func TestRefreshUsesConfiguredTokenField(t *testing.T) {
	f := newFixture(t, func(o *jwtauth.Options) {
		o.TokenPropertyName = "jwt"
	})
	token := f.login("alice")

	rec := f.do(postJSON("/api-token-refresh", map[string]string{"jwt": token}))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, decodeBody(t, rec)["jwt"])

	rec = f.do(postJSON("/api-token-refresh", map[string]string{"token": token}))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshFailures(t *testing.T) {
	t.Run("missing token", func(t *testing.T) {
		var got error
		f := newFixture(t, captureRefreshErr(&got))

		rec := f.do(postJSON("/api-token-refresh", map[string]string{}))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.ErrorIs(t, got, jwtauth.ErrMissingFields)
	})

	t.Run("garbage token", func(t *testing.T) {
		var got error
		f := newFixture(t, captureRefreshErr(&got))

		rec := f.do(postJSON("/api-token-refresh", map[string]string{"token": "not.a.jwt"}))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.ErrorIs(t, got, jwtx.ErrMalformed)
	})

	t.Run("token signed with another secret", func(t *testing.T) {
		var got error
		f := newFixture(t, captureRefreshErr(&got))

		other, err := jwtx.NewCodec([]byte("a-different-secret"), "", 0, jwtx.WithClock(func() time.Time { return f.now }))
		require.NoError(t, err)
		forged, err := other.Sign(jwtx.Claims{"username": "alice"})
		require.NoError(t, err)

		rec := f.do(postJSON("/api-token-refresh", map[string]string{"token": forged}))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.ErrorIs(t, got, jwtx.ErrInvalidSig)
		require.Zero(t, f.lookups.Load())
	})

	t.Run("expiry at the zero time", func(t *testing.T) {
		var got error
		f := newFixture(t, func(o *jwtauth.Options) {
			o.RefreshLeeway = 30 * time.Second
			captureRefreshErr(&got)(o)
		})

		// exp decodes to 0001-01-01T00:00:00Z, which carries no usable expiry.
		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"username": "alice",
			"exp":      -62135596800,
		})
		raw, err := tok.SignedString([]byte(testSecret))
		require.NoError(t, err)

		rec := f.do(postJSON("/api-token-refresh", map[string]string{"token": raw}))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.ErrorIs(t, got, jwtauth.ErrMalformedExpiry)
		require.Zero(t, f.lookups.Load())
	})

	t.Run("user removed since login", func(t *testing.T) {
		var got error
		f := newFixture(t, captureRefreshErr(&got))
		token := f.login("bob")
		delete(f.users, "bob")

		rec := f.do(postJSON("/api-token-refresh", map[string]string{"token": token}))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.ErrorIs(t, got, errUnknownUser)
	})

	t.Run("claims without identification", func(t *testing.T) {
		var got error
		f := newFixture(t, func(o *jwtauth.Options) {
			o.CreateToken = jwtauth.CreateTokenFunc(func(_ *http.Request, rec jwtauth.Record) (jwtx.Claims, error) {
				return jwtx.Claims{"id": rec.(*testUser).ID}, nil
			})
			captureRefreshErr(&got)(o)
		})
		token := f.login("alice")

		rec := f.do(postJSON("/api-token-refresh", map[string]string{"token": token}))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.ErrorIs(t, got, jwtauth.ErrNoIdentification)
	})
}

func TestRefreshCustomLookup(t *testing.T) {
	f := newFixture(t, func(o *jwtauth.Options) {
		o.RefreshLookup = jwtauth.RefreshLookupFunc(func(_ *http.Request, claims jwtx.Claims) (jwtauth.Record, error) {
			if _, ok := claims["id"]; !ok {
				return nil, errors.New("no id")
			}
			return &testUser{ID: 99, Username: "refreshed"}, nil
		})
	})
	token := f.login("alice")

	rec := f.do(postJSON("/api-token-refresh", map[string]string{"token": token}))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "refreshed", decodeBody(t, rec)["username"])
}
