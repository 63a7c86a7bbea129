package jwtx

import (
	"encoding/json"
	"fmt"
	"maps"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Registered claim names the codec manages itself.
const (
	ClaimIssuedAt  = "iat"
	ClaimExpiresAt = "exp"
	ClaimNotBefore = "nbf"
	ClaimID        = "jti"
	ClaimSubject   = "sub"
)

// DefaultTokenLife is how long a signed token stays valid when the caller
// does not pick a lifetime.
const DefaultTokenLife = 60 * time.Minute

// Claims is the payload carried by a token. It is an open map because the
// shape is decided by whoever builds it, we only care about exp/iat/nbf.
type Claims map[string]any

// ClaimsFrom turns an arbitrary record into Claims. Maps are copied, anything
// else goes through a JSON round trip and must encode to an object.
func ClaimsFrom(v any) (Claims, error) {
	switch c := v.(type) {
	case nil:
		return nil, fmt.Errorf("%w: nil payload", ErrInvalidClaim)
	case Claims:
		return c.Clone(), nil
	case map[string]any:
		return Claims(c).Clone(), nil
	case jwt.MapClaims:
		return Claims(c).Clone(), nil
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidClaim, err)
	}

	var out Claims
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: payload is not a JSON object", ErrInvalidClaim)
	}
	if out == nil {
		return nil, fmt.Errorf("%w: payload is not a JSON object", ErrInvalidClaim)
	}
	return out, nil
}

// Clone returns a shallow copy. A nil receiver yields an empty map so callers
// can always write into the result.
func (c Claims) Clone() Claims {
	out := make(Claims, len(c)+2)
	maps.Copy(out, c)
	return out
}

// String returns the claim as a string. Numbers are rendered the way they
// appeared in JSON so numeric identifiers still work as lookup keys.
func (c Claims) String(name string) (string, bool) {
	switch v := c[name].(type) {
	case string:
		return v, v != ""
	case json.Number:
		return v.String(), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	default:
		return "", false
	}
}

// ExpiresAt returns the exp claim, nil when absent.
func (c Claims) ExpiresAt() (*jwt.NumericDate, error) {
	return jwt.MapClaims(c).GetExpirationTime()
}

// IssuedAt returns the iat claim, nil when absent.
func (c Claims) IssuedAt() (*jwt.NumericDate, error) {
	return jwt.MapClaims(c).GetIssuedAt()
}

// WithoutTiming drops the claims the codec injects at signing time.
func (c Claims) WithoutTiming() Claims {
	out := c.Clone()
	delete(out, ClaimIssuedAt)
	delete(out, ClaimExpiresAt)
	return out
}
