package jwtauth

import (
	"net/http"

	"github.com/aussiebroadwan/tokengate/pkg/slogx"
)

// issue exchanges an identification and password for a signed token.
//
//	lookup -> verify -> createToken -> sign -> respond
//
// The first failing stage goes to CreateTokenError and nothing after it runs.
func (m *Middleware) issue(w http.ResponseWriter, r *http.Request, next http.Handler) {
	log := slogx.FromContext(r.Context())
	fail := func(stage string, err error) {
		log.Debug("token issuance failed", "stage", stage, "err", err)
		m.cfg.CreateTokenError.HandleError(w, r, next, err)
	}

	body, err := m.readBody(w, r)
	if err != nil {
		fail("body", err)
		return
	}

	ident := body.Get(m.cfg.IdentificationField)
	password := body.Get(m.cfg.PasswordField)
	if ident == "" || password == "" {
		fail("body", ErrMissingFields)
		return
	}

	rec, err := m.cfg.Lookup.Lookup(r, ident)
	if err != nil {
		fail("lookup", err)
		return
	}

	ok, err := m.cfg.Verify.Verify(r, password, rec)
	if err != nil {
		fail("verify", err)
		return
	}
	if !ok {
		fail("verify", ErrVerificationFailed)
		return
	}

	claims, err := m.cfg.CreateToken.CreateToken(r, rec)
	if err != nil {
		fail("create_token", err)
		return
	}

	m.respond(w, r, next, claims, m.cfg.CreateTokenError)
}
