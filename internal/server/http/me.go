package http

import (
	"net/http"

	"github.com/aussiebroadwan/tokengate/internal/server/service"
	"github.com/aussiebroadwan/tokengate/pkg/authsdk"
	"github.com/aussiebroadwan/tokengate/pkg/httpx"
	"github.com/aussiebroadwan/tokengate/pkg/jwtauth"
	"github.com/aussiebroadwan/tokengate/pkg/jwtx"
)

// MeHandler godoc
//
//	@Summary		Current token
//	@Description	Describes the verified token that made the request
//	@Tags			Users
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	authsdk.MeResponse
//	@Failure		401	"missing, invalid or expired token"
//	@Failure		429	{object}	httpx.ErrorBody	"rate limit exceeded"
//	@Router			/v1/me [get].
func MeHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := jwtauth.ClaimsFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	resp := authsdk.MeResponse{
		Roles:  rolesFromClaims(claims),
		Claims: claims.WithoutTiming(),
	}
	resp.Subject, _ = claims.String(jwtx.ClaimSubject)
	resp.Username, _ = claims.String(service.ClaimUsername)
	resp.PreferredName, _ = claims.String(service.ClaimPreferredName)

	if iat, err := claims.IssuedAt(); err == nil && iat != nil {
		t := iat.UTC()
		resp.IssuedAt = &t
	}
	if exp, err := claims.ExpiresAt(); err == nil && exp != nil {
		t := exp.UTC()
		resp.ExpiresAt = &t
	}

	httpx.WriteJSON(w, http.StatusOK, resp)
}

// rolesFromClaims reads the roles claim, which is a []any once a token has
// been through JSON.
func rolesFromClaims(c jwtx.Claims) []string {
	switch v := c[service.ClaimRoles].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, r := range v {
			if s, ok := r.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// requestRoles is the httpx.ValuesExtractor for the gated routes.
func requestRoles(r *http.Request) []string {
	claims, _ := jwtauth.ClaimsFromContext(r.Context())
	return rolesFromClaims(claims)
}

// requestSubject keys per-user rate limits. An empty key falls back to the
// client IP.
func requestSubject(r *http.Request) string {
	claims, _ := jwtauth.ClaimsFromContext(r.Context())
	sub, _ := claims.String(jwtx.ClaimSubject)
	return sub
}
