package bootstrap

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/campiestivi/campi/config"
	"github.com/campiestivi/campi/internal/adapters/devauth"
	"github.com/campiestivi/campi/internal/data"
	"github.com/campiestivi/campi/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBuildAuthProvider(t *testing.T) {
	ctx := context.Background()

	t.Run("password mode has no external provider", func(t *testing.T) {
		prov, err := BuildAuthProvider(ctx, config.AuthConfig{Mode: config.AuthModePassword})
		require.NoError(t, err)
		assert.Nil(t, prov)
	})

	t.Run("mock mode uses the dev provider", func(t *testing.T) {
		prov, err := BuildAuthProvider(ctx, config.AuthConfig{
			Mode:       config.AuthModeMock,
			SessionTTL: time.Hour,
			DevAuth:    config.DevAuthConfig{UserID: "dev-1", Email: "dev@example.com"},
		})
		require.NoError(t, err)
		assert.IsType(t, &devauth.Provider{}, prov)
	})

	t.Run("mock mode needs an identity", func(t *testing.T) {
		_, err := BuildAuthProvider(ctx, config.AuthConfig{Mode: config.AuthModeMock})
		assert.ErrorContains(t, err, "dev auth")
	})

	t.Run("oauth mode needs client settings", func(t *testing.T) {
		_, err := BuildAuthProvider(ctx, config.AuthConfig{
			Mode:  config.AuthModeOAuth,
			OAuth: config.OAuthConfig{DiscoveryURL: "https://idp.example.org"},
		})
		assert.ErrorContains(t, err, "client id")
	})

	t.Run("unknown mode", func(t *testing.T) {
		_, err := BuildAuthProvider(ctx, config.AuthConfig{Mode: "ldap"})
		assert.ErrorContains(t, err, "unsupported mode")
	})
}

func TestBuildAuthService_FailsClosedWithoutDependencies(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = BuildAuthService(context.Background(), AuthConfig{
		Auth:  config.AuthConfig{Mode: config.AuthModePassword},
		Users: data.NewUserRepo(db),
	})
	assert.ErrorContains(t, err, "redis")

	client, _ := testutil.SetupTestRedis(t)
	_, err = BuildAuthService(context.Background(), AuthConfig{
		Auth:        config.AuthConfig{Mode: config.AuthModePassword},
		RedisClient: client,
	})
	assert.ErrorContains(t, err, "user repository")
}

func TestBuildAuthService(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	client, _ := testutil.SetupTestRedis(t)

	svc, err := BuildAuthService(context.Background(), AuthConfig{
		Auth:        config.AuthConfig{Mode: config.AuthModePassword, BcryptCost: 4},
		RedisClient: client,
		Users:       data.NewUserRepo(db),
		Logger:      discardLogger(),
	})

	require.NoError(t, err)
	require.NotNil(t, svc)
	_, err = svc.BeginLogin(context.Background(), "/")
	assert.Error(t, err, "password mode offers no external sign-in")
}
