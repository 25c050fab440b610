package service

import (
	"alcyxob/workout-tracker/internal/domain"
	"alcyxob/workout-tracker/internal/repository/sqlstore"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newTestAuthService(t *testing.T) *authService {
	t.Helper()
	env := newTestEnv(t)
	return NewAuthService(sqlstore.NewUserRepository(env.db), testSecret, 15*time.Minute, time.Hour).(*authService)
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	auth := newTestAuthService(t)

	pair, err := auth.Register(ctx, domain.RegisterInput{Email: "Alice@Example.com", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, "bearer", pair.TokenType)

	userID, err := auth.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Positive(t, userID)

	_, err = auth.Register(ctx, domain.RegisterInput{Email: "alice@example.com", Password: "another one"})
	assert.True(t, errors.Is(err, ErrUserAlreadyExists), "emails are case-insensitive")

	login, err := auth.Login(ctx, domain.LoginInput{Email: "ALICE@example.com", Password: "correct horse"})
	require.NoError(t, err)
	loginID, err := auth.ValidateAccessToken(login.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, userID, loginID)

	_, err = auth.Login(ctx, domain.LoginInput{Email: "alice@example.com", Password: "wrong password"})
	assert.True(t, errors.Is(err, ErrAuthenticationFailed))
	_, err = auth.Login(ctx, domain.LoginInput{Email: "nobody@example.com", Password: "correct horse"})
	assert.True(t, errors.Is(err, ErrAuthenticationFailed))
}

func TestRegisterValidation(t *testing.T) {
	auth := newTestAuthService(t)

	_, err := auth.Register(context.Background(), domain.RegisterInput{Email: "not-an-email", Password: "long enough"})
	assert.Equal(t, KindValidation, KindOf(err))
	_, err = auth.Register(context.Background(), domain.RegisterInput{Email: "a@example.com", Password: "short"})
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestRefreshToken(t *testing.T) {
	ctx := context.Background()
	auth := newTestAuthService(t)

	pair, err := auth.Register(ctx, domain.RegisterInput{Email: "alice@example.com", Password: "correct horse"})
	require.NoError(t, err)

	_, err = auth.ValidateAccessToken(pair.RefreshToken)
	assert.True(t, errors.Is(err, ErrInvalidToken), "refresh tokens do not authenticate requests")
	_, err = auth.Refresh(ctx, pair.AccessToken)
	assert.True(t, errors.Is(err, ErrInvalidToken), "access tokens cannot be refreshed")

	refreshed, err := auth.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	_, err = auth.ValidateAccessToken(refreshed.AccessToken)
	assert.NoError(t, err)
}

func TestValidateAccessTokenRejectsBadTokens(t *testing.T) {
	ctx := context.Background()
	auth := newTestAuthService(t)

	pair, err := auth.Register(ctx, domain.RegisterInput{Email: "alice@example.com", Password: "correct horse"})
	require.NoError(t, err)

	other := NewAuthService(auth.userRepo, "other-secret", 0, 0)
	_, err = other.ValidateAccessToken(pair.AccessToken)
	assert.True(t, errors.Is(err, ErrInvalidToken), "wrong signature")

	auth.now = func() time.Time { return time.Now().Add(-time.Hour) }
	stale, err := auth.issuePair(1)
	require.NoError(t, err)
	_, err = auth.ValidateAccessToken(stale.AccessToken)
	assert.True(t, errors.Is(err, ErrInvalidToken), "expired")

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &jwtClaims{Type: tokenTypeAccess, RegisteredClaims: jwt.RegisteredClaims{Subject: "1"}})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = auth.ValidateAccessToken(unsigned)
	assert.True(t, errors.Is(err, ErrInvalidToken), "alg none")

	_, err = auth.ValidateAccessToken("garbage")
	assert.Equal(t, KindUnauthorized, KindOf(err))
}

func TestNewAuthServiceRequiresSecret(t *testing.T) {
	assert.Panics(t, func() { NewAuthService(nil, "", 0, 0) })
}
