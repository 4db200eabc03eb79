package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"delivery-system/internal/dto"
	"delivery-system/internal/entities"
	"delivery-system/internal/repositories"
	"delivery-system/pkg/config"
	"delivery-system/pkg/constants"
	apperrors "delivery-system/pkg/errors"
	"delivery-system/pkg/service"
	"delivery-system/pkg/utils"
)

type AuthServiceInterface interface {
	Login(ctx context.Context, payload dto.LoginDTO) (*dto.AuthResponseDTO, error)
	MobileLogin(ctx context.Context, payload dto.LoginDTO) (*dto.AuthResponseDTO, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.AuthResponseDTO, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*dto.UserResponseDTO, error)
	SavePushToken(ctx context.Context, payload dto.PushTokenDTO) error
}

type AuthService struct {
	userRepo  repositories.UserRepositoryInterface
	cacheRepo repositories.CacheRepositoryInterface
	blacklist repositories.TokenBlacklistInterface
	jwtSvc    service.JWTService
	logger    *zap.Logger
	cfg       *config.AuthConfig
}

func NewAuthService(
	userRepo repositories.UserRepositoryInterface,
	cacheRepo repositories.CacheRepositoryInterface,
	blacklist repositories.TokenBlacklistInterface,
	jwtSvc service.JWTService,
	logger *zap.Logger,
	cfg *config.AuthConfig,
) AuthServiceInterface {
	return &AuthService{
		userRepo:  userRepo,
		cacheRepo: cacheRepo,
		blacklist: blacklist,
		jwtSvc:    jwtSvc,
		logger:    logger,
		cfg:       cfg,
	}
}

// Login - вход в веб-админку. Курьеров не пускаем, банку нужен ключ доступа.
func (s *AuthService) Login(ctx context.Context, payload dto.LoginDTO) (*dto.AuthResponseDTO, error) {
	user, err := s.authenticate(ctx, payload)
	if err != nil {
		return nil, err
	}

	if user.Role == constants.RoleCourier {
		return nil, apperrors.NewHttpError(http.StatusForbidden, "Курьер не может войти в веб-админку", apperrors.ErrForbidden, nil)
	}

	if user.Role == constants.RoleBank {
		if err := s.checkBankAccessKey(user, payload.BankAccessKey); err != nil {
			return nil, err
		}
	}

	s.resetLoginAttempts(ctx, user.ID)
	s.logger.Info("Пользователь вошёл в систему", zap.Uint64("userID", user.ID), zap.String("role", user.Role))
	return s.issueTokens(user)
}

// MobileLogin - вход из мобильного приложения, только для курьеров.
func (s *AuthService) MobileLogin(ctx context.Context, payload dto.LoginDTO) (*dto.AuthResponseDTO, error) {
	user, err := s.authenticate(ctx, payload)
	if err != nil {
		return nil, err
	}
	if user.Role != constants.RoleCourier {
		return nil, apperrors.NewHttpError(http.StatusForbidden, "Доступ разрешен только для курьеров", apperrors.ErrForbidden, nil)
	}

	s.resetLoginAttempts(ctx, user.ID)
	s.logger.Info("Курьер вошёл в мобильное приложение", zap.Uint64("userID", user.ID))
	return s.issueTokens(user)
}

// authenticate проверяет email, блокировку, пароль и активность аккаунта.
func (s *AuthService) authenticate(ctx context.Context, payload dto.LoginDTO) (*entities.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, payload.Email)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, apperrors.ErrInvalidCredentials
	}
	if err := s.checkLockout(ctx, user.ID); err != nil {
		return nil, err
	}
	if err := utils.ComparePasswords(user.Password, payload.Password); err != nil {
		s.handleFailedLoginAttempt(ctx, user.ID)
		return nil, apperrors.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, apperrors.NewHttpError(http.StatusForbidden, "Аккаунт деактивирован", apperrors.ErrForbidden, nil)
	}
	return user, nil
}

func (s *AuthService) checkBankAccessKey(user *entities.User, key *string) error {
	if key == nil || *key == "" {
		return apperrors.NewBadRequestError("Требуется ключ доступа для банковского пользователя")
	}
	invalid := apperrors.NewHttpError(http.StatusUnauthorized, "Неверный или истекший ключ доступа", apperrors.ErrUnauthorized, nil)
	if user.BankAccessKeyHash == nil || user.BankKeyExpiresAt == nil {
		return invalid
	}
	if time.Now().After(*user.BankKeyExpiresAt) {
		return invalid
	}
	if err := utils.ComparePasswords(*user.BankAccessKeyHash, *key); err != nil {
		return invalid
	}
	return nil
}

func (s *AuthService) issueTokens(user *entities.User) (*dto.AuthResponseDTO, error) {
	accessToken, refreshToken, err := s.jwtSvc.GenerateTokens(user.ID, user.Role)
	if err != nil {
		s.logger.Error("Не удалось сгенерировать токены", zap.Uint64("userID", user.ID), zap.Error(err))
		return nil, apperrors.ErrInternalServer
	}
	return &dto.AuthResponseDTO{
		Token:        accessToken,
		RefreshToken: refreshToken,
		User:         userToResponse(user),
	}, nil
}

// Refresh выдаёт новую пару токенов; старый refresh-токен отзывается.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*dto.AuthResponseDTO, error) {
	if refreshToken == "" {
		return nil, apperrors.NewUnauthorizedError("Неверный токен")
	}
	claims, err := s.jwtSvc.ValidateToken(refreshToken)
	if err != nil {
		if errors.Is(err, apperrors.ErrTokenExpired) {
			return nil, apperrors.NewHttpError(http.StatusUnauthorized, "Токен истек", err, nil)
		}
		return nil, apperrors.NewHttpError(http.StatusUnauthorized, "Неверный токен", err, nil)
	}
	if !claims.IsRefreshToken {
		return nil, apperrors.NewHttpError(
			http.StatusUnauthorized,
			"Для обновления должен использоваться Refresh токен",
			apperrors.ErrTokenIsNotRefresh,
			nil,
		)
	}

	ttl := s.jwtSvc.GetRefreshTokenTTL()
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	// refresh-токен одноразовый: из параллельных запросов проходит только первый
	fresh, err := s.blacklist.ConsumeToken(ctx, claims.ID, ttl)
	if err != nil {
		s.logger.Error("Не удалось отозвать refresh-токен", zap.String("jti", claims.ID), zap.Error(err))
		return nil, apperrors.ErrInternalServer
	}
	if !fresh {
		return nil, apperrors.NewHttpError(http.StatusUnauthorized, "Токен заблокирован", apperrors.ErrTokenRevoked, nil)
	}

	user, err := s.userRepo.FindUser(ctx, claims.UserID)
	if err != nil {
		return nil, apperrors.NewHttpError(http.StatusUnauthorized, "Неверный токен", err, nil)
	}
	if !user.IsActive {
		return nil, apperrors.NewHttpError(http.StatusForbidden, "Аккаунт деактивирован", apperrors.ErrForbidden, nil)
	}
	return s.issueTokens(user)
}

// Logout отзывает текущий access-токен до его истечения.
func (s *AuthService) Logout(ctx context.Context) error {
	jti, exp, err := utils.GetTokenFromCtx(ctx)
	if err != nil {
		return err
	}
	ttl := time.Until(exp)
	if exp.IsZero() {
		ttl = s.jwtSvc.GetAccessTokenTTL()
	}
	if ttl <= 0 {
		return nil
	}
	if err := s.blacklist.RevokeToken(ctx, jti, ttl); err != nil {
		s.logger.Error("Не удалось отозвать токен", zap.String("jti", jti), zap.Error(err))
		return apperrors.ErrInternalServer
	}
	return nil
}

func (s *AuthService) Me(ctx context.Context) (*dto.UserResponseDTO, error) {
	userID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return nil, apperrors.ErrUnauthorized
	}
	user, err := s.userRepo.FindUser(ctx, userID)
	if err != nil {
		s.logger.Warn("Me: не удалось найти пользователя", zap.Uint64("userID", userID), zap.Error(err))
		return nil, apperrors.ErrUserNotFound
	}
	res := userToResponse(user)
	return &res, nil
}

func (s *AuthService) SavePushToken(ctx context.Context, payload dto.PushTokenDTO) error {
	userID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return apperrors.ErrUnauthorized
	}
	if err := s.userRepo.SetPushToken(ctx, userID, payload.OneSignalPlayerID); err != nil {
		return err
	}
	s.logger.Info("Сохранён OneSignal player id", zap.Uint64("userID", userID))
	return nil
}

func (s *AuthService) checkLockout(ctx context.Context, userID uint64) error {
	lockoutKey := fmt.Sprintf(constants.CacheKeyLockout, userID)

	// Если ключ существует — аккаунт заблокирован
	if _, err := s.cacheRepo.Get(ctx, lockoutKey); err == nil {
		return apperrors.ErrAccountLocked
	}
	return nil
}

func (s *AuthService) handleFailedLoginAttempt(ctx context.Context, userID uint64) {
	attemptsKey := fmt.Sprintf(constants.CacheKeyLoginAttempts, userID)
	attempts, _ := s.cacheRepo.Incr(ctx, attemptsKey)
	if attempts == 1 {
		s.cacheRepo.Expire(ctx, attemptsKey, s.cfg.LockoutDuration)
	}
	if attempts >= int64(s.cfg.MaxLoginAttempts) {
		lockoutKey := fmt.Sprintf(constants.CacheKeyLockout, userID)
		s.cacheRepo.Set(ctx, lockoutKey, "locked", s.cfg.LockoutDuration)
		s.cacheRepo.Del(ctx, attemptsKey)
		s.logger.Warn("Аккаунт временно заблокирован", zap.Uint64("userID", userID))
	}
}

func (s *AuthService) resetLoginAttempts(ctx context.Context, userID uint64) {
	attemptsKey := fmt.Sprintf(constants.CacheKeyLoginAttempts, userID)
	lockoutKey := fmt.Sprintf(constants.CacheKeyLockout, userID)
	s.cacheRepo.Del(ctx, attemptsKey, lockoutKey)
}
