package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mgtrako/internal/model"
)

func TestAccessToken_RoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret")
	userID := uuid.New()

	token, err := svc.GenerateAccessToken(userID, "wh@example.com", model.RoleWarehouse)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)

	id, err := claims.UserUUID()
	require.NoError(t, err)
	assert.Equal(t, userID, id)
	assert.Equal(t, "wh@example.com", claims.Email)
	assert.Equal(t, model.RoleWarehouse, claims.Role)
	assert.NotEmpty(t, claims.ID)
}

func TestAccessTokens_HaveDistinctIDs(t *testing.T) {
	svc := NewJWTService("test-secret")
	userID := uuid.New()

	a, err := svc.GenerateAccessToken(userID, "a@example.com", model.RoleAdmin)
	require.NoError(t, err)
	b, err := svc.GenerateAccessToken(userID, "a@example.com", model.RoleAdmin)
	require.NoError(t, err)

	ca, err := svc.ValidateToken(a)
	require.NoError(t, err)
	cb, err := svc.ValidateToken(b)
	require.NoError(t, err)
	assert.NotEqual(t, ca.ID, cb.ID)
}

func TestValidateToken_Rejects(t *testing.T) {
	svc := NewJWTService("test-secret")
	userID := uuid.New()

	t.Run("wrong secret", func(t *testing.T) {
		token, err := NewJWTService("other").GenerateAccessToken(userID, "x@example.com", model.RoleAdmin)
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		claims := &Claims{
			UserID: userID.String(),
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateToken("not-a-token")
		assert.Error(t, err)
	})
}

func TestExtractTokenID(t *testing.T) {
	svc := NewJWTService("test-secret")

	tokenID, token, err := svc.GenerateRefreshToken(uuid.New(), "cs@example.com")
	require.NoError(t, err)

	extracted, err := svc.ExtractTokenID(token)
	require.NoError(t, err)
	assert.Equal(t, tokenID, extracted)
}

func TestTokenStore_WithoutRedis(t *testing.T) {
	store := NewTokenStore(nil)
	ctx := context.Background()

	require.NoError(t, store.StoreRefreshToken(ctx, "jti", uuid.New(), "a@example.com", time.Minute))
	_, _, err := store.GetRefreshToken(ctx, "jti")
	assert.Error(t, err)

	blacklisted, err := store.IsAccessTokenBlacklisted(ctx, "jti")
	require.NoError(t, err)
	assert.False(t, blacklisted)
}
