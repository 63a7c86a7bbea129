package jwtauth

import (
	"errors"
	"fmt"
)

// ErrConfiguration is matched (errors.Is) by every error New can return.
var ErrConfiguration = errors.New("jwtauth: invalid configuration")

var (
	ErrNoOptions     = fmt.Errorf("%w: options are not optional", ErrConfiguration)
	ErrMissingSecret = fmt.Errorf("%w: must supply secret", ErrConfiguration)
)

// Per-request failures. These are what the configured error handlers see,
// next to whatever the callbacks themselves return.
var (
	ErrMissingFields      = errors.New("jwtauth: request body is missing some necessary fields")
	ErrInvalidBody        = errors.New("jwtauth: request body could not be decoded")
	ErrVerificationFailed = errors.New("jwtauth: verification failed")
	ErrNoToken            = errors.New("jwtauth: no token provided")
	ErrNoIdentification   = errors.New("jwtauth: no identification in token")
	ErrMalformedExpiry    = errors.New("jwtauth: expired token has no usable expiry")
)

// ConfigError names the option that made New fail.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("jwtauth: %s %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrConfiguration }
