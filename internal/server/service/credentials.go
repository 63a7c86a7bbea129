package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aussiebroadwan/tokengate/internal/server/domain"
	"github.com/aussiebroadwan/tokengate/internal/server/store"
	"github.com/aussiebroadwan/tokengate/pkg/cryptox"
	"github.com/aussiebroadwan/tokengate/pkg/idx"
	"github.com/aussiebroadwan/tokengate/pkg/jwtauth"
	"github.com/aussiebroadwan/tokengate/pkg/jwtx"
)

// Claim names put into every token issued by the service.
const (
	ClaimUsername      = "username"
	ClaimPreferredName = "preferred_name"
	ClaimRoles         = "roles"
)

var ErrUnexpectedRecord = errors.New("service: unexpected credential record")

// CredentialService backs the jwtauth callbacks with the user store.
type CredentialService struct {
	Store  store.Store
	Hasher *cryptox.Hasher

	// LookupTimeout bounds each store call made on behalf of a request.
	// Zero means no extra deadline.
	LookupTimeout time.Duration
}

var (
	_ jwtauth.Lookup        = (*CredentialService)(nil)
	_ jwtauth.Verifier      = (*CredentialService)(nil)
	_ jwtauth.TokenCreator  = (*CredentialService)(nil)
	_ jwtauth.RefreshLookup = (*CredentialService)(nil)
)

// Lookup resolves a username to its stored user.
func (s *CredentialService) Lookup(r *http.Request, username string) (jwtauth.Record, error) {
	ctx, cancel := s.ctx(r)
	defer cancel()

	u, err := s.Store.Users().GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("lookup %q: %w", username, err)
	}
	return u, nil
}

// Verify checks password against the user's argon2id hash. A wrong password
// is a plain false; a corrupt hash is an error.
func (s *CredentialService) Verify(_ *http.Request, password string, rec jwtauth.Record) (bool, error) {
	u, ok := rec.(domain.User)
	if !ok {
		return false, ErrUnexpectedRecord
	}

	switch err := s.Hasher.Verify(password, u.PasswordHash); {
	case err == nil:
		return true, nil
	case errors.Is(err, cryptox.ErrPasswordMismatch):
		return false, nil
	default:
		return false, fmt.Errorf("verify %s: %w", u.ID, err)
	}
}

// CreateToken builds the claims for a user. The password hash never leaves
// the service.
func (s *CredentialService) CreateToken(_ *http.Request, rec jwtauth.Record) (jwtx.Claims, error) {
	u, ok := rec.(domain.User)
	if !ok {
		return nil, ErrUnexpectedRecord
	}

	roles := u.Roles
	if roles == nil {
		roles = []string{}
	}

	return jwtx.Claims{
		jwtx.ClaimSubject:  u.ID,
		jwtx.ClaimID:       idx.New().String(),
		ClaimUsername:      u.Username,
		ClaimPreferredName: u.PreferredName,
		ClaimRoles:         roles,
	}, nil
}

// RefreshLookup reloads the user named by the token's subject, so a renamed
// user keeps refreshing. Tokens without a subject fall back to the username.
func (s *CredentialService) RefreshLookup(r *http.Request, claims jwtx.Claims) (jwtauth.Record, error) {
	ctx, cancel := s.ctx(r)
	defer cancel()

	if sub, ok := claims.String(jwtx.ClaimSubject); ok {
		u, err := s.Store.Users().GetUserByID(ctx, sub)
		if err != nil {
			return nil, fmt.Errorf("refresh lookup %s: %w", sub, err)
		}
		return u, nil
	}

	if name, ok := claims.String(ClaimUsername); ok {
		u, err := s.Store.Users().GetUserByUsername(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("refresh lookup %q: %w", name, err)
		}
		return u, nil
	}

	return nil, jwtauth.ErrNoIdentification
}

func (s *CredentialService) ctx(r *http.Request) (context.Context, context.CancelFunc) {
	if s.LookupTimeout <= 0 {
		return r.Context(), func() {}
	}
	return context.WithTimeout(r.Context(), s.LookupTimeout)
}
