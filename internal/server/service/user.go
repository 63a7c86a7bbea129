package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/tokengate/internal/server/domain"
	"github.com/aussiebroadwan/tokengate/internal/server/store"
	"github.com/aussiebroadwan/tokengate/pkg/cryptox"
	"github.com/aussiebroadwan/tokengate/pkg/idx"
)

type UserService struct {
	Store  store.Store
	Hasher *cryptox.Hasher
}

// GetUserByUsername fetches a user by username.
func (s *UserService) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	return s.Store.Users().GetUserByUsername(ctx, username)
}

// CreateUser hashes password and stores a new user.
func (s *UserService) CreateUser(ctx context.Context, username, password string, roles ...string) (domain.User, error) {
	return s.createUser(ctx, s.Store, username, password, roles)
}

// Bootstrap seeds an admin user when the store has no users at all. An empty
// password is replaced by a generated one, which is returned so the caller
// can show it once. created is false when users already existed.
func (s *UserService) Bootstrap(ctx context.Context, username, password string) (created bool, usedPassword string, err error) {
	if username == "" {
		return false, "", fmt.Errorf("bootstrap: username is required")
	}
	if password == "" {
		if password, err = cryptox.GeneratePassword(); err != nil {
			return false, "", err
		}
	}

	err = s.Store.WithTx(ctx, func(tx store.Store) error {
		empty, err := tx.Users().IsEmpty(ctx)
		if err != nil || !empty {
			return err
		}
		if _, err := s.createUser(ctx, tx, username, password, []string{domain.RoleAdmin}); err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return false, "", fmt.Errorf("bootstrap: %w", err)
	}
	if !created {
		return false, "", nil
	}
	return true, password, nil
}

func (s *UserService) createUser(ctx context.Context, st store.Store, username, password string, roles []string) (domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return domain.User{}, fmt.Errorf("create user: username is required")
	}

	hash, err := s.Hasher.Hash(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}

	now := time.Now().UTC()
	u := domain.User{
		ID:            idx.New().String(),
		Username:      username,
		PreferredName: username,
		PasswordHash:  hash,
		Roles:         roles,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := st.Users().CreateUser(ctx, u); err != nil {
		return domain.User{}, fmt.Errorf("create user %q: %w", username, err)
	}
	return u, nil
}
