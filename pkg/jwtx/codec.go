package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Codec signs and verifies HMAC JWTs with a single shared secret. It is safe
// for concurrent use once built.
type Codec struct {
	secret []byte
	method *jwt.SigningMethodHMAC
	ttl    time.Duration
	now    func() time.Time
}

// CodecOption tweaks a Codec at construction.
type CodecOption func(*Codec)

// WithClock swaps the time source, handy for tests that need to sit right
// on an expiry boundary.
func WithClock(now func() time.Time) CodecOption {
	return func(c *Codec) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCodec builds a codec for the given secret and algorithm. Tokens it
// signs expire ttl after signing; a non-positive ttl means DefaultTokenLife.
func NewCodec(secret []byte, alg string, ttl time.Duration, opts ...CodecOption) (*Codec, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	if alg == "" {
		alg = DefaultAlgorithm
	}
	method, ok := LookupAlgorithm(alg)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnsupportedAlg, alg)
	}
	if ttl <= 0 {
		ttl = DefaultTokenLife
	}

	c := &Codec{
		secret: append([]byte(nil), secret...),
		method: method,
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Alg returns the JWS algorithm name the codec signs with.
func (c *Codec) Alg() string { return c.method.Alg() }

// TTL returns the lifetime stamped into exp by Sign.
func (c *Codec) TTL() time.Duration { return c.ttl }

// Sign copies the claims, stamps iat and exp, and returns the compact token.
// The input map is left untouched.
func (c *Codec) Sign(claims Claims) (string, error) {
	now := c.now()

	out := claims.Clone()
	out[ClaimIssuedAt] = jwt.NewNumericDate(now)
	out[ClaimExpiresAt] = jwt.NewNumericDate(now.Add(c.ttl))

	t := jwt.NewWithClaims(c.method, jwt.MapClaims(out))
	signed, err := t.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("jwtx: sign: %w", err)
	}
	return signed, nil
}

// Verify checks the signature (restricted to the codec's algorithm) and then
// the time based claims. An expired token yields *ExpiredError unless
// opts.IgnoreExpiration is set.
func (c *Codec) Verify(tokenStr string, opts VerifyOptions) (Claims, error) {
	// Time claims are checked below so we control the error kinds.
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	claims := jwt.MapClaims{}
	token, err := parser.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil {
		return nil, c.classify(token, err)
	}
	if !token.Valid {
		return nil, ErrInvalidSig
	}

	now := c.now()

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return nil, fmt.Errorf("%w: exp: %v", ErrInvalidClaim, err)
	}
	if exp != nil && !opts.IgnoreExpiration && !now.Before(exp.Time) {
		return nil, &ExpiredError{ExpiredAt: exp.Time}
	}

	nbf, err := claims.GetNotBefore()
	if err != nil {
		return nil, fmt.Errorf("%w: nbf: %v", ErrInvalidClaim, err)
	}
	if nbf != nil && now.Before(nbf.Time) {
		return nil, ErrNotYetValid
	}

	return Claims(claims), nil
}

// classify maps parser failures onto our own error kinds.
func (c *Codec) classify(token *jwt.Token, err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		// Unknown alg in the header, nothing we could verify with.
		return fmt.Errorf("%w: %v", ErrAlgMismatch, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		if token != nil && token.Method != nil && token.Method.Alg() != c.method.Alg() {
			return fmt.Errorf("%w: got %s", ErrAlgMismatch, token.Method.Alg())
		}
		return ErrInvalidSig
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}

var (
	_ Signer   = (*Codec)(nil)
	_ Verifier = (*Codec)(nil)
)
