package auth

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamfusion/storage"
)

func newTestService(t *testing.T) (*Service, *storage.SQLiteStorage) {
	t.Helper()
	store := storage.NewSQLiteStorage(t.TempDir(), zerolog.Nop())
	require.NoError(t, store.Initialize())
	t.Cleanup(func() { store.Close() })
	return NewService(store, []byte("secret"), time.Hour, "Boss@Example.com", zerolog.Nop()), store
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	res, err := svc.Register(ctx, "ana@example.com", "Ana", "secreto")
	require.NoError(t, err)
	assert.Equal(t, storage.RoleUser, res.User.Role)
	assert.NotEmpty(t, res.Token)

	_, err = svc.Register(ctx, "ANA@example.com", "Ana", "secreto")
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = svc.Login(ctx, "ana@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, "nobody@example.com", "secreto")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	login, err := svc.Login(ctx, "ana@example.com", "secreto")
	require.NoError(t, err)
	claims, err := Parse([]byte("secret"), login.Token)
	require.NoError(t, err)
	assert.Equal(t, []string{storage.RoleUser}, claims.Roles)
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.Register(ctx, "not-an-email", "", "secreto")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Register(ctx, "a@example.com", "", "123")
	assert.ErrorIs(t, err, ErrWeakPassword)
}

func TestBootstrapAdminRole(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	res, err := svc.Register(ctx, "boss@example.com", "Boss", "secreto")
	require.NoError(t, err)
	assert.True(t, res.User.IsAdmin())

	claims, err := Parse([]byte("secret"), res.Token)
	require.NoError(t, err)
	assert.True(t, claims.HasRole(storage.RoleAdmin))
}

func TestBannedUsersCannotSignIn(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	res, err := svc.Register(ctx, "ana@example.com", "Ana", "secreto")
	require.NoError(t, err)
	require.NoError(t, store.SetUserBanned(ctx, res.User.ID, true))

	_, err = svc.Login(ctx, "ana@example.com", "secreto")
	assert.ErrorIs(t, err, ErrBanned)

	_, err = svc.Me(ctx, &Claims{UserID: res.User.ID})
	assert.ErrorIs(t, err, ErrBanned)
}
