package sqlite

import (
	"context"

	"github.com/aussiebroadwan/tokengate/internal/server/domain"
)

type usersRepo struct {
	q querier
}

const userColumns = `id, username, preferred_name, password_hash, roles, created_at, updated_at`

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *usersRepo) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	return scanUser(row)
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.PreferredName, u.PasswordHash, joinFields(u.Roles),
		u.CreatedAt.UTC(), u.UpdatedAt.UTC(),
	)
	return mapConstraint(err)
}

func (r *usersRepo) IsEmpty(ctx context.Context) (bool, error) {
	var n int
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return false, err
	}
	return n == 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (domain.User, error) {
	var (
		u     domain.User
		roles string
	)
	err := row.Scan(&u.ID, &u.Username, &u.PreferredName, &u.PasswordHash, &roles, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	u.Roles = splitFields(roles)
	return u, nil
}
