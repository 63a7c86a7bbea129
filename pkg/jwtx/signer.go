package jwtx

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Signer is our interface for anything that can sign JWTs.
type Signer interface {
	Alg() string
	Sign(Claims) (string, error)
}

// Supported HMAC algorithms. The secret is shared, so there is no public
// half to publish and no key id to carry.
const (
	AlgHS256 = "HS256"
	AlgHS384 = "HS384"
	AlgHS512 = "HS512"

	DefaultAlgorithm = AlgHS256
)

var hmacMethods = map[string]*jwt.SigningMethodHMAC{
	AlgHS256: jwt.SigningMethodHS256,
	AlgHS384: jwt.SigningMethodHS384,
	AlgHS512: jwt.SigningMethodHS512,
}

// LookupAlgorithm maps an algorithm name (case-insensitive) to its method.
func LookupAlgorithm(alg string) (*jwt.SigningMethodHMAC, bool) {
	m, ok := hmacMethods[strings.ToUpper(strings.TrimSpace(alg))]
	return m, ok
}
