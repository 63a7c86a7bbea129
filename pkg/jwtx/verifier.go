package jwtx

import (
	"errors"
	"fmt"
	"time"
)

// Verifier validates a JWT and gives you back the claims if it's legit.
type Verifier interface {
	Verify(token string, opts VerifyOptions) (Claims, error)
}

// VerifyOptions tweaks a single verification.
type VerifyOptions struct {
	// IgnoreExpiration accepts a token whose exp has passed. The signature is
	// still checked. Only the refresh flow should ever set this.
	IgnoreExpiration bool
}

var (
	ErrMalformed    = errors.New("jwtx: malformed token")
	ErrInvalidSig   = errors.New("jwtx: invalid signature")
	ErrAlgMismatch  = fmt.Errorf("%w: algorithm mismatch", ErrInvalidSig)
	ErrExpired      = errors.New("jwtx: token expired")
	ErrNotYetValid  = errors.New("jwtx: token not yet valid")
	ErrInvalidClaim = errors.New("jwtx: invalid claims")

	ErrEmptySecret    = errors.New("jwtx: empty secret")
	ErrUnsupportedAlg = errors.New("jwtx: unsupported algorithm")
)

// ExpiredError is returned when a token's exp has passed. It keeps the
// original expiry so callers can decide whether a grace period applies.
type ExpiredError struct {
	ExpiredAt time.Time
}

func (e *ExpiredError) Error() string {
	return "jwtx: token expired at " + e.ExpiredAt.UTC().Format(time.RFC3339)
}

// Is lets errors.Is(err, ErrExpired) match.
func (e *ExpiredError) Is(target error) bool {
	return target == ErrExpired
}
