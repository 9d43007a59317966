package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"order-service/internal/model"
)

func TestTokenServiceRoundTrip(t *testing.T) {
	t.Parallel()

	svc, err := NewTokenService("test-secret", 15*time.Minute)
	require.NoError(t, err)

	user := model.User{ID: "6c1a5f1e-1f7d-4b1e-8d53-0b8e0f5c2a11", PhoneNumber: "+919800000001", Role: model.RoleUser}
	token, issued, err := svc.Issue(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.Verify(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, user.ID, claims.Subject)
	require.Equal(t, user.PhoneNumber, claims.PhoneNumber)
	require.Equal(t, issued.TokenID, claims.TokenID)
}

func TestTokenServiceRejects(t *testing.T) {
	t.Parallel()

	svc, err := NewTokenService("test-secret", time.Minute)
	require.NoError(t, err)
	user := model.User{ID: "u-1", PhoneNumber: "+1555"}

	t.Run("expired", func(t *testing.T) {
		past, err := NewTokenService("test-secret", time.Minute)
		require.NoError(t, err)
		past.now = func() time.Time { return time.Now().Add(-time.Hour) }
		token, _, err := past.Issue(user)
		require.NoError(t, err)

		_, err = svc.Verify(context.Background(), token)
		require.ErrorIs(t, err, model.ErrTokenExpired)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := NewTokenService("other-secret", time.Minute)
		require.NoError(t, err)
		token, _, err := other.Issue(user)
		require.NoError(t, err)

		_, err = svc.Verify(context.Background(), token)
		require.ErrorIs(t, err, model.ErrTokenInvalid)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := svc.Verify(context.Background(), "not.a.jwt")
		require.ErrorIs(t, err, model.ErrTokenInvalid)
	})

	t.Run("unsigned algorithm", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
			"sub": "u-1", "phone_number": "+1555", "typ": "access",
			"exp": time.Now().Add(time.Minute).Unix(),
		}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = svc.Verify(context.Background(), token)
		require.ErrorIs(t, err, model.ErrTokenInvalid)
	})

	t.Run("wrong token type", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "u-1", "phone_number": "+1555", "typ": "refresh",
			"exp": time.Now().Add(time.Minute).Unix(),
		}).SignedString([]byte("test-secret"))
		require.NoError(t, err)

		_, err = svc.Verify(context.Background(), token)
		require.ErrorIs(t, err, model.ErrTokenInvalid)
	})

	t.Run("missing expiry", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "u-1", "phone_number": "+1555", "typ": "access",
		}).SignedString([]byte("test-secret"))
		require.NoError(t, err)

		_, err = svc.Verify(context.Background(), token)
		require.ErrorIs(t, err, model.ErrTokenInvalid)
	})

	t.Run("missing phone number", func(t *testing.T) {
		token, _, err := svc.Issue(model.User{ID: "u-1"})
		require.NoError(t, err)

		_, err = svc.Verify(context.Background(), token)
		require.ErrorIs(t, err, model.ErrTokenInvalid)
	})
}

func TestNewTokenServiceValidation(t *testing.T) {
	t.Parallel()

	_, err := NewTokenService(" ", time.Minute)
	require.Error(t, err)

	_, err = NewTokenService("secret", 0)
	require.Error(t, err)
}
