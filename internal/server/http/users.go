package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/tokengate/internal/server/service"
	"github.com/aussiebroadwan/tokengate/internal/server/store"
	"github.com/aussiebroadwan/tokengate/pkg/authsdk"
	"github.com/aussiebroadwan/tokengate/pkg/httpx"
	"github.com/aussiebroadwan/tokengate/pkg/slogx"
)

type UserHandler struct {
	UserService *service.UserService
}

// ServeHTTP godoc
//
//	@Summary		Get user
//	@Description	Looks up a stored user by username (case-insensitive). Requires the admin role.
//	@Tags			Users
//	@Produce		json
//	@Security		BearerAuth
//	@Param			username	path		string	true	"Username"
//	@Success		200			{object}	authsdk.UserResponse
//	@Failure		401			"missing, invalid or expired token"
//	@Failure		403			{object}	httpx.ErrorBody	"insufficient_scope"
//	@Failure		404			{object}	httpx.ErrorBody	"not_found"
//	@Router			/v1/users/{username} [get].
func (h *UserHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")

	u, err := h.UserService.GetUserByUsername(r.Context(), username)
	switch {
	case errors.Is(err, store.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, authsdk.ErrorCodeNotFound, "user not found")
		return
	case err != nil:
		slogx.FromContext(r.Context()).Error("get user failed", "username", username, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, authsdk.ErrorCodeServerError, "")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.UserResponse{
		ID:            u.ID,
		Username:      u.Username,
		PreferredName: u.PreferredName,
		Roles:         u.Roles,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	})
}
