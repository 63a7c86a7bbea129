package httpx_test

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/aussiebroadwan/tokengate/pkg/httpx"
	"github.com/stretchr/testify/require"
)

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := httpx.Chain(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		order = append(order, "handler")
	}), mark("outer"), mark("inner"))

	serve(h, fromIP("127.0.0.1", "/"))
	require.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestWriteError(t *testing.T) {
	rec := serve(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "nope")
	}), fromIP("127.0.0.1", "/"))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	var body httpx.ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, httpx.ErrorBody{Error: "invalid_request", Description: "nope"}, body)
}

func TestRequireAnyOf(t *testing.T) {
	roles := func(r *http.Request) []string {
		if v := r.Header.Get("X-Roles"); v != "" {
			return strings.Split(v, ",")
		}
		return nil
	}
	withRoles := func(v string) *http.Request {
		r := fromIP("127.0.0.1", "/")
		r.Header.Set("X-Roles", v)
		return r
	}

	anyOf := httpx.RequireAnyOf(roles, "admin", "ops")(okHandler)
	allOf := httpx.RequireAllOf(roles, "admin", "ops")(okHandler)

	cases := []struct {
		roles   string
		anyCode int
		allCode int
	}{
		{"", http.StatusForbidden, http.StatusForbidden},
		{"user", http.StatusForbidden, http.StatusForbidden},
		{"user,ops", http.StatusOK, http.StatusForbidden},
		{"admin,ops", http.StatusOK, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run("roles="+tc.roles, func(t *testing.T) {
			rec := serve(anyOf, withRoles(tc.roles))
			require.Equal(t, tc.anyCode, rec.Code)

			rec = serve(allOf, withRoles(tc.roles))
			require.Equal(t, tc.allCode, rec.Code)
			if rec.Code == http.StatusForbidden {
				require.Contains(t, rec.Header().Get("WWW-Authenticate"), "insufficient_scope")
			}
		})
	}
}
