package jwtauth

import (
	"net/http"

	"github.com/aussiebroadwan/tokengate/pkg/jwtx"
)

// Record is whatever a Lookup returns. The middleware never looks inside it,
// it only hands it on to Verify and CreateToken.
type Record = any

// Lookup resolves an identification (a username, an email, ...) into a
// credential record. The request is passed so implementations can reach
// request-scoped state such as its context.
type Lookup interface {
	Lookup(r *http.Request, identification string) (Record, error)
}

// Verifier checks a presented password against a looked up record. A false
// result without an error is reported as ErrVerificationFailed.
type Verifier interface {
	Verify(r *http.Request, password string, rec Record) (bool, error)
}

// TokenCreator builds the claims that get signed for a record.
type TokenCreator interface {
	CreateToken(r *http.Request, rec Record) (jwtx.Claims, error)
}

// RefreshLookup re-resolves identity from the claims of a token being
// refreshed.
type RefreshLookup interface {
	RefreshLookup(r *http.Request, claims jwtx.Claims) (Record, error)
}

// ErrorHandler writes the response for a failed request. next is the
// downstream handler, so a handler may choose to let the request through.
type ErrorHandler interface {
	HandleError(w http.ResponseWriter, r *http.Request, next http.Handler, err error)
}

type LookupFunc func(r *http.Request, identification string) (Record, error)

func (f LookupFunc) Lookup(r *http.Request, identification string) (Record, error) {
	return f(r, identification)
}

type VerifyFunc func(r *http.Request, password string, rec Record) (bool, error)

func (f VerifyFunc) Verify(r *http.Request, password string, rec Record) (bool, error) {
	return f(r, password, rec)
}

type CreateTokenFunc func(r *http.Request, rec Record) (jwtx.Claims, error)

func (f CreateTokenFunc) CreateToken(r *http.Request, rec Record) (jwtx.Claims, error) {
	return f(r, rec)
}

type RefreshLookupFunc func(r *http.Request, claims jwtx.Claims) (Record, error)

func (f RefreshLookupFunc) RefreshLookup(r *http.Request, claims jwtx.Claims) (Record, error) {
	return f(r, claims)
}

type ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, next http.Handler, err error)

func (f ErrorHandlerFunc) HandleError(w http.ResponseWriter, r *http.Request, next http.Handler, err error) {
	f(w, r, next, err)
}

// defaultCreateToken signs the record itself.
var defaultCreateToken = CreateTokenFunc(func(_ *http.Request, rec Record) (jwtx.Claims, error) {
	return jwtx.ClaimsFrom(rec)
})

// Unauthorized is the default for all three error handlers: a bare 401 that
// does not say which stage failed.
var Unauthorized = ErrorHandlerFunc(func(w http.ResponseWriter, _ *http.Request, _ http.Handler, _ error) {
	w.WriteHeader(http.StatusUnauthorized)
})

// bearerUnauthorized is the gate's default, a 401 with the challenge header.
var bearerUnauthorized = ErrorHandlerFunc(func(w http.ResponseWriter, _ *http.Request, _ http.Handler, _ error) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
})

// refreshLookupVia builds the RefreshLookup used when none is given: pull
// the identification out of the claims and run the normal lookup.
func refreshLookupVia(field string, lookup Lookup) RefreshLookupFunc {
	return func(r *http.Request, claims jwtx.Claims) (Record, error) {
		ident, ok := claims.String(field)
		if !ok {
			return nil, ErrNoIdentification
		}
		return lookup.Lookup(r, ident)
	}
}
