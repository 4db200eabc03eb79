package middleware

import (
	"context"
	"slices"
	"strings"

	"delivery-system/pkg/contextkeys"
	apperrors "delivery-system/pkg/errors"
	"delivery-system/pkg/service"
	"delivery-system/pkg/utils"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// TokenRevocationChecker - проверка jti по списку отозванных токенов.
type TokenRevocationChecker interface {
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
}

type AuthMiddleware struct {
	jwtService service.JWTService
	revoked    TokenRevocationChecker
	logger     *zap.Logger
}

func NewAuthMiddleware(jwtSvc service.JWTService, revoked TokenRevocationChecker, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtSvc,
		revoked:    revoked,
		logger:     logger,
	}
}

// Auth проверяет Bearer access-токен и кладёт пользователя в контекст запроса.
func (m *AuthMiddleware) Auth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			m.logger.Debug("AuthMiddleware: Пустой заголовок Authorization")
			return utils.ErrorResponse(c, apperrors.ErrEmptyAuthHeader, m.logger)
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			m.logger.Warn("AuthMiddleware: Неверный формат заголовка Authorization")
			return utils.ErrorResponse(c, apperrors.ErrInvalidAuthHeader, m.logger)
		}

		return m.authenticate(c, next, parts[1])
	}
}

// AuthQuery - то же самое, но токен берётся из ?token= (websocket).
func (m *AuthMiddleware) AuthQuery(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := c.QueryParam("token")
		if token == "" {
			return utils.ErrorResponse(c, apperrors.ErrUnauthorized, m.logger)
		}
		return m.authenticate(c, next, token)
	}
}

func (m *AuthMiddleware) authenticate(c echo.Context, next echo.HandlerFunc, tokenString string) error {
	claims, err := m.jwtService.ValidateToken(tokenString)
	if err != nil {
		m.logger.Warn("AuthMiddleware: Ошибка валидации токена", zap.Error(err))
		return utils.ErrorResponse(c, err, m.logger)
	}

	if claims.IsRefreshToken {
		m.logger.Warn("AuthMiddleware: Попытка доступа с refresh токеном")
		return utils.ErrorResponse(c, apperrors.ErrTokenIsNotAccess, m.logger)
	}

	ctx := c.Request().Context()
	if m.revoked != nil {
		revoked, err := m.revoked.IsTokenRevoked(ctx, claims.ID)
		if err != nil {
			// Redis недоступен - не блокируем работу
			m.logger.Error("AuthMiddleware: не удалось проверить отзыв токена", zap.Error(err))
		} else if revoked {
			return utils.ErrorResponse(c, apperrors.ErrTokenRevoked, m.logger)
		}
	}

	ctx = context.WithValue(ctx, contextkeys.UserIDKey, claims.UserID)
	ctx = context.WithValue(ctx, contextkeys.UserRoleKey, claims.Role)
	ctx = context.WithValue(ctx, contextkeys.TokenIDKey, claims.ID)
	if claims.ExpiresAt != nil {
		ctx = context.WithValue(ctx, contextkeys.TokenExpKey, claims.ExpiresAt.Time)
	}
	c.SetRequest(c.Request().WithContext(ctx))

	m.logger.Debug("AuthMiddleware: Пользователь аутентифицирован",
		zap.Uint64("userID", claims.UserID),
		zap.String("role", claims.Role),
	)

	return next(c)
}

// RequireRoles пропускает только перечисленные роли, остальным 403.
func (m *AuthMiddleware) RequireRoles(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, err := utils.GetUserRoleFromCtx(c.Request().Context())
			if err != nil {
				return utils.ErrorResponse(c, err, m.logger)
			}
			if !slices.Contains(roles, role) {
				return utils.ErrorResponse(c, apperrors.NewForbiddenError("Доступ запрещён"), m.logger)
			}
			return next(c)
		}
	}
}
