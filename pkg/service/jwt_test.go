package service

import (
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"delivery-system/pkg/errors"
)

func TestJWTService_GenerateAndValidate(t *testing.T) {
	svc := NewJWTService("secret", time.Minute, time.Hour)

	access, refresh, err := svc.GenerateTokens(7, "bank")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(access)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), claims.UserID)
	assert.Equal(t, "bank", claims.Role)
	assert.False(t, claims.IsRefreshToken)
	assert.NotEmpty(t, claims.ID)

	refreshClaims, err := svc.ValidateToken(refresh)
	require.NoError(t, err)
	assert.True(t, refreshClaims.IsRefreshToken)
	assert.NotEqual(t, claims.ID, refreshClaims.ID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), refreshClaims.ExpiresAt.Time, 5*time.Second)
}

func TestJWTService_RejectsBadTokens(t *testing.T) {
	svc := NewJWTService("secret", time.Minute, time.Hour)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS512, &JwtCustomClaim{
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	signed, err := expired.SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = svc.ValidateToken(signed)
	assert.ErrorIs(t, err, errors.ErrTokenExpired)

	other := NewJWTService("other-secret", time.Minute, time.Hour)
	foreign, _, err := other.GenerateTokens(1, "admin")
	require.NoError(t, err)
	_, err = svc.ValidateToken(foreign)
	assert.ErrorIs(t, err, errors.ErrInvalidToken)

	_, err = svc.ValidateToken("not.a.token")
	assert.ErrorIs(t, err, errors.ErrInvalidToken)
}

func TestJWTService_ClaimNames(t *testing.T) {
	svc := NewJWTService("secret", time.Minute, time.Hour)
	_, refresh, err := svc.GenerateTokens(42, "courier")
	require.NoError(t, err)

	claims := jwt.MapClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(refresh, claims)
	require.NoError(t, err)

	assert.Equal(t, float64(42), claims["user_id"])
	assert.Equal(t, true, claims["is_refresh_token"])
	assert.NotContains(t, claims, "userId")
	assert.NotContains(t, claims, "isRefreshToken")
}
