package jwtauth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/tokengate/pkg/httpx"
	"github.com/aussiebroadwan/tokengate/pkg/jwtx"
	"github.com/aussiebroadwan/tokengate/pkg/slogx"
)

// Middleware issues, refreshes and checks bearer tokens. Build it with New
// and put Handler in front of the application.
type Middleware struct {
	cfg   Config
	codec *jwtx.Codec
}

// New validates opts, fills in the defaults and returns a ready middleware.
// Every error it returns matches ErrConfiguration.
func New(opts *Options) (*Middleware, error) {
	cfg, err := resolve(opts)
	if err != nil {
		return nil, err
	}

	codec, err := jwtx.NewCodec(cfg.secret, cfg.Algorithm, cfg.TokenLife, jwtx.WithClock(cfg.clock))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	return &Middleware{cfg: cfg, codec: codec}, nil
}

// Config returns the resolved configuration.
func (m *Middleware) Config() Config { return m.cfg }

// Handler routes POSTs on the issuance and refresh endpoints to those flows
// and runs every other request through the gate before next.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	if next == nil {
		next = http.NotFoundHandler()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			switch {
			case matchPath(r.URL.Path, m.cfg.IssuanceEndpoint):
				m.issue(w, r, next)
				return
			case matchPath(r.URL.Path, m.cfg.RefreshEndpoint):
				m.refresh(w, r, next)
				return
			}
		}
		m.gate(w, r, next)
	})
}

// IssueHandler serves only the issuance flow, for routers that register the
// endpoints themselves.
func (m *Middleware) IssueHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.issue(w, r, http.NotFoundHandler())
	})
}

// RefreshHandler serves only the refresh flow.
func (m *Middleware) RefreshHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.refresh(w, r, http.NotFoundHandler())
	})
}

// Gate returns only the verification gate in front of next.
func (m *Middleware) Gate(next http.Handler) http.Handler {
	if next == nil {
		next = http.NotFoundHandler()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.gate(w, r, next)
	})
}

// respond signs claims and writes them back with the token added. The
// claims map handed in by CreateToken is not modified.
func (m *Middleware) respond(w http.ResponseWriter, r *http.Request, next http.Handler, claims jwtx.Claims, onErr ErrorHandler) {
	token, err := m.codec.Sign(claims)
	if err != nil {
		slogx.FromContext(r.Context()).Error("token signing failed", "err", err)
		onErr.HandleError(w, r, next, err)
		return
	}

	body := claims.Clone()
	body[m.cfg.TokenPropertyName] = token
	httpx.WriteJSON(w, http.StatusOK, body)
}

// matchPath accepts the endpoint with or without a trailing slash.
func matchPath(path, endpoint string) bool {
	return path == endpoint || strings.TrimSuffix(path, "/") == endpoint
}
