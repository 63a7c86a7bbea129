package jwtauth

import (
	"strings"
	"time"

	"github.com/aussiebroadwan/tokengate/pkg/jwtx"
)

// Defaults applied by New for anything left out of Options.
const (
	DefaultIdentificationField     = "username"
	DefaultPasswordField           = "password"
	DefaultTokenPropertyName       = "token"
	DefaultAuthorizationHeaderName = "Authorization"
	DefaultAuthorizationPrefix     = "Bearer "
	DefaultIssuanceEndpoint        = "/api-token-auth"
	DefaultRefreshEndpoint         = "/api-token-refresh"
	DefaultMaxBodyBytes            = 100 << 10
)

// Options is what callers hand to New. Only Secret, Lookup and Verify are
// required. String fields treat "" as "not set" because none of them has a
// meaningful empty value; AuthorizationPrefix is the exception and is a
// pointer so an empty prefix can be asked for explicitly.
type Options struct {
	Secret    string        // Required: shared HMAC secret
	Algorithm string        // Optional: HS256, HS384 or HS512 (default: HS256)
	TokenLife time.Duration // Optional: lifetime of issued tokens (default: 60m)

	// RefreshLeeway is how long after expiry a token can still be refreshed.
	// Zero disables the grace period, which is also the default.
	RefreshLeeway time.Duration

	IdentificationField     string  // Optional: body field for the identification (default: username)
	PasswordField           string  // Optional: body field for the password (default: password)
	TokenPropertyName       string  // Optional: body/response field for the token (default: token)
	AuthorizationHeaderName string  // Optional: header carrying the token (default: Authorization)
	AuthorizationPrefix     *string // Optional: prefix before the token (default: "Bearer ")
	IssuanceEndpoint        string  // Optional: path for token issuance (default: /api-token-auth)
	RefreshEndpoint         string  // Optional: path for token refresh (default: /api-token-refresh)
	MaxBodyBytes            int64   // Optional: request body limit on the two endpoints (default: 100KiB)

	Lookup        Lookup        // Required
	Verify        Verifier      // Required
	CreateToken   TokenCreator  // Optional: defaults to signing the record as is
	RefreshLookup RefreshLookup // Optional: defaults to Lookup on the identification claim

	AuthError         ErrorHandler // Optional: default 401
	CreateTokenError  ErrorHandler // Optional: default 401
	RefreshTokenError ErrorHandler // Optional: default 401

	// Clock overrides time.Now, mostly for tests.
	Clock func() time.Time
}

// Prefix is a helper for filling Options.AuthorizationPrefix.
func Prefix(p string) *string { return &p }

// Config is the resolved configuration. It is built once by New and never
// changes afterwards.
type Config struct {
	Algorithm     string
	TokenLife     time.Duration
	RefreshLeeway time.Duration

	IdentificationField     string
	PasswordField           string
	TokenPropertyName       string
	AuthorizationHeaderName string
	AuthorizationPrefix     string
	IssuanceEndpoint        string
	RefreshEndpoint         string
	MaxBodyBytes            int64

	Lookup        Lookup
	Verify        Verifier
	CreateToken   TokenCreator
	RefreshLookup RefreshLookup

	AuthError         ErrorHandler
	CreateTokenError  ErrorHandler
	RefreshTokenError ErrorHandler

	secret []byte
	clock  func() time.Time
}

// resolve validates opts and fills in every default.
func resolve(opts *Options) (Config, error) {
	if opts == nil {
		return Config{}, ErrNoOptions
	}
	if opts.Secret == "" {
		return Config{}, ErrMissingSecret
	}

	cfg := Config{
		Algorithm:               orDefault(opts.Algorithm, jwtx.DefaultAlgorithm),
		TokenLife:               opts.TokenLife,
		RefreshLeeway:           opts.RefreshLeeway,
		IdentificationField:     orDefault(opts.IdentificationField, DefaultIdentificationField),
		PasswordField:           orDefault(opts.PasswordField, DefaultPasswordField),
		TokenPropertyName:       orDefault(opts.TokenPropertyName, DefaultTokenPropertyName),
		AuthorizationHeaderName: orDefault(opts.AuthorizationHeaderName, DefaultAuthorizationHeaderName),
		AuthorizationPrefix:     DefaultAuthorizationPrefix,
		IssuanceEndpoint:        orDefault(opts.IssuanceEndpoint, DefaultIssuanceEndpoint),
		RefreshEndpoint:         orDefault(opts.RefreshEndpoint, DefaultRefreshEndpoint),
		MaxBodyBytes:            opts.MaxBodyBytes,
		Lookup:                  opts.Lookup,
		Verify:                  opts.Verify,
		CreateToken:             opts.CreateToken,
		RefreshLookup:           opts.RefreshLookup,
		AuthError:               opts.AuthError,
		CreateTokenError:        opts.CreateTokenError,
		RefreshTokenError:       opts.RefreshTokenError,
		secret:                  []byte(opts.Secret),
		clock:                   opts.Clock,
	}

	if opts.AuthorizationPrefix != nil {
		cfg.AuthorizationPrefix = *opts.AuthorizationPrefix
	}

	switch {
	case cfg.TokenLife == 0:
		cfg.TokenLife = jwtx.DefaultTokenLife
	case cfg.TokenLife < 0:
		return Config{}, &ConfigError{Field: "TokenLife", Reason: "must be positive"}
	}
	if cfg.RefreshLeeway < 0 {
		return Config{}, &ConfigError{Field: "RefreshLeeway", Reason: "must not be negative"}
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.clock == nil {
		cfg.clock = time.Now
	}

	method, ok := jwtx.LookupAlgorithm(cfg.Algorithm)
	if !ok {
		return Config{}, &ConfigError{Field: "Algorithm", Reason: "is not supported: " + cfg.Algorithm}
	}
	cfg.Algorithm = method.Alg()

	if isNil(cfg.CreateToken) {
		cfg.CreateToken = defaultCreateToken
	}
	if isNil(cfg.RefreshLookup) && !isNil(cfg.Lookup) {
		cfg.RefreshLookup = refreshLookupVia(cfg.IdentificationField, cfg.Lookup)
	}

	for _, cb := range []struct {
		name string
		v    any
	}{
		{"Lookup", cfg.Lookup},
		{"Verify", cfg.Verify},
		{"CreateToken", cfg.CreateToken},
		{"RefreshLookup", cfg.RefreshLookup},
	} {
		if isNil(cb.v) {
			return Config{}, &ConfigError{Field: cb.name, Reason: "must be set"}
		}
	}

	if isNil(cfg.AuthError) {
		cfg.AuthError = bearerUnauthorized
	}
	if isNil(cfg.CreateTokenError) {
		cfg.CreateTokenError = Unauthorized
	}
	if isNil(cfg.RefreshTokenError) {
		cfg.RefreshTokenError = Unauthorized
	}

	// net/http canonicalises header keys on lookup, lower-casing keeps the
	// stored name stable for anyone reading Config.
	cfg.AuthorizationHeaderName = strings.ToLower(cfg.AuthorizationHeaderName)
	cfg.IssuanceEndpoint = addSlash(cfg.IssuanceEndpoint)
	cfg.RefreshEndpoint = addSlash(cfg.RefreshEndpoint)

	return cfg, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func addSlash(p string) string {
	if !strings.HasPrefix(p, "/") {
		return "/" + p
	}
	return p
}

// isNil catches a nil interface and one of the Func adapters wrapping a nil
// func, e.g. LookupFunc(nil).
func isNil(v any) bool {
	switch f := v.(type) {
	case nil:
		return true
	case LookupFunc:
		return f == nil
	case VerifyFunc:
		return f == nil
	case CreateTokenFunc:
		return f == nil
	case RefreshLookupFunc:
		return f == nil
	case ErrorHandlerFunc:
		return f == nil
	}
	return false
}
