package services

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"delivery-system/internal/dto"
	"delivery-system/internal/entities"
	"delivery-system/internal/repositories"
	"delivery-system/pkg/config"
	"delivery-system/pkg/constants"
	"delivery-system/pkg/contextkeys"
	apperrors "delivery-system/pkg/errors"
	"delivery-system/pkg/service"
	"delivery-system/pkg/utils"
)

const testPassword = "secret123"

type authFixture struct {
	users     *mockUserRepo
	cache     *memoryCache
	blacklist repositories.TokenBlacklistInterface
	jwt       service.JWTService
	service   AuthServiceInterface
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	f := &authFixture{
		users: new(mockUserRepo),
		cache: newMemoryCache(),
		jwt:   service.NewJWTService("test-secret", time.Hour, 24*time.Hour),
	}
	f.blacklist = repositories.NewTokenBlacklist(f.cache)
	f.service = NewAuthService(f.users, f.cache, f.blacklist, f.jwt, zap.NewNop(), &config.AuthConfig{
		MaxLoginAttempts: 3,
		LockoutDuration:  time.Minute,
		BankKeyTTL:       time.Hour,
	})
	return f
}

func hashed(t *testing.T, plain string) string {
	t.Helper()
	h, err := utils.HashPassword(plain)
	require.NoError(t, err)
	return h
}

func (f *authFixture) withUser(u *entities.User) {
	f.users.On("FindByEmail", mock.Anything, u.Email).Return(u, nil)
	f.users.On("FindUser", mock.Anything, u.ID).Return(u, nil)
}

func TestAuthService_Login(t *testing.T) {
	t.Run("успешный вход администратора", func(t *testing.T) {
		f := newAuthFixture(t)
		f.withUser(&entities.User{ID: 1, Email: "admin@test.tj", Password: hashed(t, testPassword), Role: constants.RoleAdmin, IsActive: true})

		res, err := f.service.Login(context.Background(), dto.LoginDTO{Email: "admin@test.tj", Password: testPassword})
		require.NoError(t, err)
		assert.NotEmpty(t, res.Token)
		assert.NotEmpty(t, res.RefreshToken)
		assert.Equal(t, constants.RoleAdmin, res.User.Role)

		claims, err := f.jwt.ValidateToken(res.Token)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), claims.UserID)
		assert.False(t, claims.IsRefreshToken)
	})

	t.Run("неизвестный email", func(t *testing.T) {
		f := newAuthFixture(t)
		f.users.On("FindByEmail", mock.Anything, "nobody@test.tj").Return(nil, apperrors.ErrNotFound)

		_, err := f.service.Login(context.Background(), dto.LoginDTO{Email: "nobody@test.tj", Password: testPassword})
		assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	})

	t.Run("курьер не входит в админку", func(t *testing.T) {
		f := newAuthFixture(t)
		f.withUser(&entities.User{ID: 2, Email: "courier@test.tj", Password: hashed(t, testPassword), Role: constants.RoleCourier, IsActive: true})

		_, err := f.service.Login(context.Background(), dto.LoginDTO{Email: "courier@test.tj", Password: testPassword})
		requireHTTPCode(t, err, http.StatusForbidden)
	})

	t.Run("деактивированный аккаунт", func(t *testing.T) {
		f := newAuthFixture(t)
		f.withUser(&entities.User{ID: 3, Email: "off@test.tj", Password: hashed(t, testPassword), Role: constants.RoleManager})

		_, err := f.service.Login(context.Background(), dto.LoginDTO{Email: "off@test.tj", Password: testPassword})
		requireHTTPCode(t, err, http.StatusForbidden)
	})
}

func TestAuthService_Login_BankAccessKey(t *testing.T) {
	const key = "bank-key-123"
	newBankUser := func(t *testing.T, expiresAt time.Time) *entities.User {
		return &entities.User{
			ID:                4,
			Email:             "bank@test.tj",
			Password:          hashed(t, testPassword),
			Role:              constants.RoleBank,
			BankID:            uptr(7),
			IsActive:          true,
			BankAccessKeyHash: utils.StringToPtr(hashed(t, key)),
			BankKeyExpiresAt:  &expiresAt,
		}
	}

	t.Run("без ключа", func(t *testing.T) {
		f := newAuthFixture(t)
		f.withUser(newBankUser(t, time.Now().Add(time.Hour)))

		_, err := f.service.Login(context.Background(), dto.LoginDTO{Email: "bank@test.tj", Password: testPassword})
		requireHTTPCode(t, err, http.StatusBadRequest)
	})

	t.Run("истёкший ключ", func(t *testing.T) {
		f := newAuthFixture(t)
		f.withUser(newBankUser(t, time.Now().Add(-time.Minute)))

		_, err := f.service.Login(context.Background(), dto.LoginDTO{Email: "bank@test.tj", Password: testPassword, BankAccessKey: utils.StringToPtr(key)})
		requireHTTPCode(t, err, http.StatusUnauthorized)
	})

	t.Run("неверный ключ", func(t *testing.T) {
		f := newAuthFixture(t)
		f.withUser(newBankUser(t, time.Now().Add(time.Hour)))

		_, err := f.service.Login(context.Background(), dto.LoginDTO{Email: "bank@test.tj", Password: testPassword, BankAccessKey: utils.StringToPtr("wrong")})
		requireHTTPCode(t, err, http.StatusUnauthorized)
	})

	t.Run("верный ключ", func(t *testing.T) {
		f := newAuthFixture(t)
		f.withUser(newBankUser(t, time.Now().Add(time.Hour)))

		res, err := f.service.Login(context.Background(), dto.LoginDTO{Email: "bank@test.tj", Password: testPassword, BankAccessKey: utils.StringToPtr(key)})
		require.NoError(t, err)
		assert.Equal(t, constants.RoleBank, res.User.Role)
	})
}

func TestAuthService_Login_LockoutAfterFailedAttempts(t *testing.T) {
	f := newAuthFixture(t)
	f.withUser(&entities.User{ID: 1, Email: "admin@test.tj", Password: hashed(t, testPassword), Role: constants.RoleAdmin, IsActive: true})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.service.Login(ctx, dto.LoginDTO{Email: "admin@test.tj", Password: "wrong"})
		assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	}

	// даже верный пароль не пускает, пока действует блокировка
	_, err := f.service.Login(ctx, dto.LoginDTO{Email: "admin@test.tj", Password: testPassword})
	assert.ErrorIs(t, err, apperrors.ErrAccountLocked)

	require.NoError(t, f.cache.Del(ctx, "lockout:1"))
	_, err = f.service.Login(ctx, dto.LoginDTO{Email: "admin@test.tj", Password: testPassword})
	assert.NoError(t, err)
}

func TestAuthService_MobileLogin_OnlyCouriers(t *testing.T) {
	f := newAuthFixture(t)
	f.withUser(&entities.User{ID: 1, Email: "admin@test.tj", Password: hashed(t, testPassword), Role: constants.RoleAdmin, IsActive: true})
	f.withUser(&entities.User{ID: 2, Email: "courier@test.tj", Password: hashed(t, testPassword), Role: constants.RoleCourier, IsActive: true})

	_, err := f.service.MobileLogin(context.Background(), dto.LoginDTO{Email: "admin@test.tj", Password: testPassword})
	requireHTTPCode(t, err, http.StatusForbidden)

	res, err := f.service.MobileLogin(context.Background(), dto.LoginDTO{Email: "courier@test.tj", Password: testPassword})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), res.User.ID)
}

func TestAuthService_Refresh_RotatesToken(t *testing.T) {
	f := newAuthFixture(t)
	f.withUser(&entities.User{ID: 1, Email: "admin@test.tj", Password: hashed(t, testPassword), Role: constants.RoleAdmin, IsActive: true})
	ctx := context.Background()

	login, err := f.service.Login(ctx, dto.LoginDTO{Email: "admin@test.tj", Password: testPassword})
	require.NoError(t, err)

	_, err = f.service.Refresh(ctx, login.Token)
	assert.ErrorIs(t, err, apperrors.ErrTokenIsNotRefresh)

	refreshed, err := f.service.Refresh(ctx, login.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// использованный refresh-токен повторно не принимается
	_, err = f.service.Refresh(ctx, login.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrTokenRevoked)

	_, err = f.service.Refresh(ctx, "garbage")
	requireHTTPCode(t, err, http.StatusUnauthorized)
}

func TestAuthService_Refresh_ConcurrentUseSucceedsOnce(t *testing.T) {
	f := newAuthFixture(t)
	f.users.On("FindUser", mock.Anything, courierUser.ID).Return(courierUser, nil)
	_, refresh, err := f.jwt.GenerateTokens(courierUser.ID, courierUser.Role)
	require.NoError(t, err)

	const callers = 8
	var (
		wg        sync.WaitGroup
		successes atomic.Int32
		revoked   atomic.Int32
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.service.Refresh(context.Background(), refresh)
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, apperrors.ErrTokenRevoked):
				revoked.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), successes.Load())
	assert.Equal(t, int32(callers-1), revoked.Load())
}

func TestAuthService_Refresh_LoggedOutTokenRejected(t *testing.T) {
	f := newAuthFixture(t)
	f.users.On("FindUser", mock.Anything, courierUser.ID).Return(courierUser, nil)
	_, refresh, err := f.jwt.GenerateTokens(courierUser.ID, courierUser.Role)
	require.NoError(t, err)
	claims, err := f.jwt.ValidateToken(refresh)
	require.NoError(t, err)

	require.NoError(t, f.blacklist.RevokeToken(context.Background(), claims.ID, time.Hour))

	_, err = f.service.Refresh(context.Background(), refresh)
	assert.ErrorIs(t, err, apperrors.ErrTokenRevoked)
	f.users.AssertNotCalled(t, "FindUser", mock.Anything, courierUser.ID)
}

func TestAuthService_Logout_RevokesAccessToken(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.WithValue(context.Background(), contextkeys.TokenIDKey, "jti-1")
	ctx = context.WithValue(ctx, contextkeys.TokenExpKey, time.Now().Add(time.Hour))

	require.NoError(t, f.service.Logout(ctx))

	revoked, err := f.blacklist.IsTokenRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	assert.ErrorIs(t, f.service.Logout(context.Background()), apperrors.ErrUnauthorized)
}

func TestAuthService_SavePushToken(t *testing.T) {
	f := newAuthFixture(t)
	f.users.On("SetPushToken", mock.Anything, courierUser.ID, "player-1").Return(nil).Once()

	err := f.service.SavePushToken(actorCtx(courierUser), dto.PushTokenDTO{OneSignalPlayerID: "player-1"})
	require.NoError(t, err)
	f.users.AssertExpectations(t)
}
