package httpx

import (
	"net/http"
	"strings"
)

// ValuesExtractor pulls a set of grants (roles, scopes, ...) out of a request,
// usually from whatever an earlier authentication middleware stored in the
// context.
type ValuesExtractor func(*http.Request) []string

// RequireAnyOf lets the request through when the caller holds at least one of
// the required values.
func RequireAnyOf(have ValuesExtractor, required ...string) Middleware {
	want := make(map[string]struct{}, len(required))
	for _, s := range required {
		want[s] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, s := range have(r) {
				if _, ok := want[s]; ok {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeForbidden(w, required...)
		})
	}
}

// RequireAllOf lets the request through only when the caller holds every
// required value.
func RequireAllOf(have ValuesExtractor, required ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := make(map[string]struct{})
			for _, s := range have(r) {
				got[s] = struct{}{}
			}

			for _, req := range required {
				if _, ok := got[req]; !ok {
					writeForbidden(w, required...)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RFC 6750 insufficient_scope, reused for roles.
func writeForbidden(w http.ResponseWriter, required ...string) {
	w.Header().
		Set("WWW-Authenticate", `Bearer error="insufficient_scope", scope="`+strings.Join(required, " ")+`"`)
	WriteError(w, http.StatusForbidden, "insufficient_scope", "the token does not carry the required grants")
}
