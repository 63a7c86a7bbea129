package store

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/tokengate/internal/server/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface implemented by the drivers. Data
// is reached through sub-repositories so a transaction scoped Store looks
// exactly like the root one.
type Store interface {
	Users() Users

	ApplyMigrations() error

	// WithTx runs fn in a transaction, committing when fn returns nil and
	// rolling back otherwise. Nested transactions are not supported.
	WithTx(ctx context.Context, fn func(tx Store) error) error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error

	Close() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByUsername is used by token issuance. Usernames are matched
	// case-insensitively.
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)

	// CreateUser inserts a new user; the id is chosen by the caller.
	CreateUser(ctx context.Context, u domain.User) error

	// IsEmpty returns true if there are no users.
	IsEmpty(ctx context.Context) (bool, error)
}
