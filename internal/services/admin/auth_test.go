package admin

import (
	"context"
	"testing"
	"time"

	"github.com/3Eeeecho/go-modelhub/internal/config"
	"github.com/3Eeeecho/go-modelhub/internal/models"
	"github.com/3Eeeecho/go-modelhub/internal/pkg/xerr"
	"github.com/3Eeeecho/go-modelhub/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newAuthService(t *testing.T) AuthService {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.User{}))

	cfg := &config.Config{
		JWT: config.JWTConfig{
			SecretKey: "test-secret",
			ExpiresIn: time.Hour,
			Issuer:    "go-modelhub",
		},
	}
	return NewAuthService(repositories.NewUserRepository(db), cfg)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice", "password123", "alice@example.com")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.NotEqual(t, "password123", user.PasswordHash)

	token, loggedIn, err := svc.Login(ctx, "alice", "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, user.ID, loggedIn.ID)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "password123", "alice@example.com")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "alice", "password456", "other@example.com")
	assert.ErrorIs(t, err, xerr.ErrUserAlreadyExists)

	_, err = svc.Register(ctx, "bob", "password456", "alice@example.com")
	assert.ErrorIs(t, err, xerr.ErrEmailAlreadyExists)
}

func TestLogin_BadCredentials(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "password123", "alice@example.com")
	require.NoError(t, err)

	// 密码错误和用户不存在返回同一个错误
	_, _, err = svc.Login(ctx, "alice", "wrongpass")
	assert.ErrorIs(t, err, xerr.ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "nobody", "password123")
	assert.ErrorIs(t, err, xerr.ErrInvalidCredentials)
}

func TestGetProfile(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice", "password123", "alice@example.com")
	require.NoError(t, err)

	got, err := svc.GetProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	_, err = svc.GetProfile(ctx, 999)
	assert.ErrorIs(t, err, xerr.ErrUserNotFound)
}
