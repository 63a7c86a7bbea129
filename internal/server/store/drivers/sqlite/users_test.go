package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/aussiebroadwan/tokengate/internal/server/domain"
	"github.com/aussiebroadwan/tokengate/internal/server/store"
	"github.com/aussiebroadwan/tokengate/internal/server/store/drivers/sqlite"
	"github.com/aussiebroadwan/tokengate/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	st, err := sqlite.NewStore(sqlite.DSN(filepath.Join(t.TempDir(), "test.db")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func newUser(username string, roles ...string) domain.User {
	now := time.Now().UTC().Truncate(time.Second)
	return domain.User{
		ID:            idx.New().String(),
		Username:      username,
		PreferredName: "The " + username,
		PasswordHash:  "$argon2id$fake",
		Roles:         roles,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.ApplyMigrations())
}

func TestUsersRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	empty, err := st.Users().IsEmpty(ctx)
	require.NoError(t, err)
	require.True(t, empty)

	u := newUser("alice", "admin", "user")
	require.NoError(t, st.Users().CreateUser(ctx, u))

	byID, err := st.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, u.Username, byID.Username)
	require.Equal(t, u.PreferredName, byID.PreferredName)
	require.Equal(t, u.PasswordHash, byID.PasswordHash)
	require.Equal(t, []string{"admin", "user"}, byID.Roles)
	require.WithinDuration(t, u.CreatedAt, byID.CreatedAt, time.Second)

	byName, err := st.Users().GetUserByUsername(ctx, "ALICE")
	require.NoError(t, err)
	require.Equal(t, u.ID, byName.ID)

	empty, err = st.Users().IsEmpty(ctx)
	require.NoError(t, err)
	require.False(t, empty)
}

func TestUsersErrors(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	_, err := st.Users().GetUserByID(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = st.Users().GetUserByUsername(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, st.Users().CreateUser(ctx, newUser("bob")))
	err = st.Users().CreateUser(ctx, newUser("Bob"))
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestWithTx(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	boom := errors.New("boom")

	err := st.WithTx(ctx, func(tx store.Store) error {
		require.NoError(t, tx.Users().CreateUser(ctx, newUser("carol")))
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = st.Users().GetUserByUsername(ctx, "carol")
	require.ErrorIs(t, err, store.ErrNotFound, "rolled back")

	err = st.WithTx(ctx, func(tx store.Store) error {
		require.Error(t, tx.WithTx(ctx, func(store.Store) error { return nil }))
		return tx.Users().CreateUser(ctx, newUser("carol"))
	})
	require.NoError(t, err)

	_, err = st.Users().GetUserByUsername(ctx, "carol")
	require.NoError(t, err)
}
