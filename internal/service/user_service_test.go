package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wondrlab/crosssell-api/internal/auth"
	"github.com/wondrlab/crosssell-api/internal/domain"
	"github.com/wondrlab/crosssell-api/internal/service"
	"github.com/wondrlab/crosssell-api/internal/testutil"
)

func TestUserService_Create(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	dto, err := env.users.Create(ctx, &domain.CreateUserRequest{Username: "alice", Email: "alice@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleSales, dto.Role)

	var stored domain.User
	require.NoError(t, env.db.First(&stored, dto.ID).Error)
	assert.NotEqual(t, "password123", stored.PasswordHash)
	assert.True(t, auth.CheckPassword(stored.PasswordHash, "password123"))

	_, err = env.users.Create(ctx, &domain.CreateUserRequest{Username: "alice", Email: "other@example.com", Password: "password123"})
	assert.ErrorIs(t, err, service.ErrConflict)

	_, err = env.users.Create(ctx, &domain.CreateUserRequest{Username: "bob", Email: "alice@example.com", Password: "password123"})
	assert.ErrorIs(t, err, service.ErrConflict)
}

func TestUserService_Update(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := testutil.CreateTestUser(t, env.db, "alice", domain.RoleSales)

	dto, err := env.users.Update(ctx, user.ID, &domain.UpdateUserRequest{Email: "new@example.com", Role: domain.RoleBUHead, Password: "changed-password"})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", dto.Email)
	assert.Equal(t, domain.RoleBUHead, dto.Role)

	_, err = env.auth.Login(ctx, &domain.LoginRequest{Username: "alice", Password: "changed-password"})
	require.NoError(t, err)

	_, err = env.users.Update(ctx, user.ID+10, &domain.UpdateUserRequest{Email: "x@example.com", Role: domain.RoleSales})
	assert.ErrorIs(t, err, service.ErrUserNotFound)
}

func TestUserService_Delete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := testutil.CreateTestUser(t, env.db, "owner", domain.RoleSales)
	idle := testutil.CreateTestUser(t, env.db, "idle", domain.RoleSales)
	testutil.CreateTestClient(t, env.db, "Acme", &owner.ID)

	assert.ErrorIs(t, env.users.Delete(ctx, owner.ID), service.ErrUserInUse)
	require.NoError(t, env.users.Delete(ctx, idle.ID))
	assert.ErrorIs(t, env.users.Delete(ctx, idle.ID), service.ErrUserNotFound)
}

func TestUserService_List(t *testing.T) {
	env := newTestEnv(t)
	testutil.CreateTestUser(t, env.db, "alice", domain.RoleSales)
	testutil.CreateTestUser(t, env.db, "bob", domain.RoleAdmin)

	page, err := env.users.List(context.Background(), 1, 20, "ali")
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
}

func TestAuthService_Login(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.users.Create(ctx, &domain.CreateUserRequest{Username: "alice", Email: "alice@example.com", Password: "password123", Role: domain.RoleAdmin})
	require.NoError(t, err)

	resp, err := env.auth.Login(ctx, &domain.LoginRequest{Username: "alice", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, "alice", resp.User.Username)

	claims, err := auth.NewTokenManager(env.authCfg).ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
	assert.Equal(t, domain.RoleAdmin, claims.Role)

	_, err = env.auth.Login(ctx, &domain.LoginRequest{Username: "alice", Password: "wrong"})
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	assert.ErrorIs(t, err, service.ErrUnauthorized)

	_, err = env.auth.Login(ctx, &domain.LoginRequest{Username: "nobody", Password: "password123"})
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestAuthService_Register(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.auth.Register(ctx, &domain.RegisterRequest{Username: "carol", Email: "carol@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleSales, resp.User.Role)

	env.authCfg.AllowRegistration = false
	_, err = env.auth.Register(ctx, &domain.RegisterRequest{Username: "dave", Email: "dave@example.com", Password: "password123"})
	assert.ErrorIs(t, err, service.ErrRegistrationDisabled)
	assert.ErrorIs(t, err, service.ErrForbidden)
}

func TestAuthService_Me(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.CreateTestUser(t, env.db, "alice", domain.RoleSales)

	me, err := env.auth.Me(userContext(user))
	require.NoError(t, err)
	assert.Equal(t, user.ID, me.ID)

	system, err := env.auth.Me(systemContext())
	require.NoError(t, err)
	assert.Equal(t, "system", system.Username)
	assert.Equal(t, domain.RoleAdmin, system.Role)

	_, err = env.auth.Me(context.Background())
	assert.ErrorIs(t, err, service.ErrUnauthorized)
}
