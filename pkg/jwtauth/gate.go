package jwtauth

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/tokengate/pkg/jwtx"
	"github.com/aussiebroadwan/tokengate/pkg/slogx"
)

// gate lets a request through to next only with a valid bearer token, and
// puts the decoded claims in its context.
func (m *Middleware) gate(w http.ResponseWriter, r *http.Request, next http.Handler) {
	raw, ok := m.bearerToken(r)
	if !ok {
		m.cfg.AuthError.HandleError(w, r, next, ErrNoToken)
		return
	}

	claims, err := m.codec.Verify(raw, jwtx.VerifyOptions{})
	if err != nil {
		slogx.FromContext(r.Context()).Warn("jwt verify failed", "err", err)
		m.cfg.AuthError.HandleError(w, r, next, err)
		return
	}

	next.ServeHTTP(w, r.WithContext(ContextWithClaims(r.Context(), claims)))
}

// bearerToken strips the configured prefix. The prefix match is exact and
// case-sensitive, and a prefix with nothing after it is no token at all.
func (m *Middleware) bearerToken(r *http.Request) (string, bool) {
	v := r.Header.Get(m.cfg.AuthorizationHeaderName)
	p := m.cfg.AuthorizationPrefix
	if len(v) <= len(p) || !strings.HasPrefix(v, p) {
		return "", false
	}
	return v[len(p):], true
}
