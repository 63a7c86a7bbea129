package jwtauth

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/tokengate/pkg/jwtx"
	"github.com/aussiebroadwan/tokengate/pkg/slogx"
)

// refresh exchanges a still valid, or recently expired, token for a new one.
//
//	decode (maybe with leeway) -> refreshLookup -> createToken -> sign -> respond
//
// Failures go to RefreshTokenError.
func (m *Middleware) refresh(w http.ResponseWriter, r *http.Request, next http.Handler) {
	log := slogx.FromContext(r.Context())
	fail := func(stage string, err error) {
		log.Debug("token refresh failed", "stage", stage, "err", err)
		m.cfg.RefreshTokenError.HandleError(w, r, next, err)
	}

	body, err := m.readBody(w, r)
	if err != nil {
		fail("body", err)
		return
	}

	raw := body.Get(m.cfg.TokenPropertyName)
	if raw == "" {
		fail("body", ErrMissingFields)
		return
	}

	claims, graced, err := m.decodeForRefresh(raw)
	if err != nil {
		fail("decode", err)
		return
	}
	if graced {
		log.Debug("refreshing expired token within leeway")
	}

	rec, err := m.cfg.RefreshLookup.RefreshLookup(r, claims)
	if err != nil {
		fail("refresh_lookup", err)
		return
	}

	fresh, err := m.cfg.CreateToken.CreateToken(r, rec)
	if err != nil {
		fail("create_token", err)
		return
	}

	m.respond(w, r, next, fresh, m.cfg.RefreshTokenError)
}

// decodeForRefresh verifies strictly first. An expired token is accepted
// again, expiry ignored, only while it is younger than RefreshLeeway; graced
// reports when that happened.
func (m *Middleware) decodeForRefresh(raw string) (claims jwtx.Claims, graced bool, err error) {
	claims, err = m.codec.Verify(raw, jwtx.VerifyOptions{})
	if err == nil {
		return claims, false, nil
	}

	var expired *jwtx.ExpiredError
	if m.cfg.RefreshLeeway <= 0 || !errors.As(err, &expired) {
		return nil, false, err
	}
	if expired.ExpiredAt.IsZero() {
		return nil, false, ErrMalformedExpiry
	}
	if m.cfg.clock().Sub(expired.ExpiredAt) >= m.cfg.RefreshLeeway {
		return nil, false, err
	}

	claims, err = m.codec.Verify(raw, jwtx.VerifyOptions{IgnoreExpiration: true})
	if err != nil {
		return nil, false, err
	}
	return claims, true, nil
}
