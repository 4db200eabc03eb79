package controllers

import (
	"net/http"
	"time"

	"delivery-system/internal/dto"
	"delivery-system/internal/services"
	apperrors "delivery-system/pkg/errors"
	"delivery-system/pkg/utils"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const refreshCookieName = "refreshToken"

type AuthController struct {
	authService     services.AuthServiceInterface
	refreshTokenTTL time.Duration
	logger          *zap.Logger
}

func NewAuthController(
	authService services.AuthServiceInterface,
	refreshTokenTTL time.Duration,
	logger *zap.Logger,
) *AuthController {
	return &AuthController{
		authService:     authService,
		refreshTokenTTL: refreshTokenTTL,
		logger:          logger,
	}
}

func (ctrl *AuthController) errorResponse(c echo.Context, err error) error {
	return utils.ErrorResponse(c, err, ctrl.logger)
}

func (ctrl *AuthController) bindLogin(c echo.Context) (dto.LoginDTO, error) {
	var payload dto.LoginDTO
	if err := c.Bind(&payload); err != nil {
		ctrl.logger.Error("Login: ошибка привязки данных", zap.Error(err))
		return payload, apperrors.NewBadRequestError("Неверный формат данных для входа")
	}
	if err := c.Validate(&payload); err != nil {
		return payload, err
	}
	return payload, nil
}

// Login - вход в веб-панель; refresh-токен дополнительно кладётся в HttpOnly cookie.
func (ctrl *AuthController) Login(c echo.Context) error {
	payload, err := ctrl.bindLogin(c)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}

	res, err := ctrl.authService.Login(c.Request().Context(), payload)
	if err != nil {
		ctrl.logger.Warn("Login: ошибка авторизации", zap.String("email", payload.Email), zap.Error(err))
		return ctrl.errorResponse(c, err)
	}

	ctrl.setRefreshCookie(c, res.RefreshToken, ctrl.refreshTokenTTL)
	return utils.SuccessResponse(c, res, "Авторизация прошла успешно", http.StatusOK)
}

func (ctrl *AuthController) MobileLogin(c echo.Context) error {
	payload, err := ctrl.bindLogin(c)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}

	res, err := ctrl.authService.MobileLogin(c.Request().Context(), payload)
	if err != nil {
		ctrl.logger.Warn("MobileLogin: ошибка авторизации", zap.String("email", payload.Email), zap.Error(err))
		return ctrl.errorResponse(c, err)
	}
	return utils.SuccessResponse(c, res, "Авторизация прошла успешно", http.StatusOK)
}

// RefreshToken берёт refresh-токен из cookie, а если её нет - из тела запроса.
func (ctrl *AuthController) RefreshToken(c echo.Context) error {
	var token string
	if cookie, err := c.Cookie(refreshCookieName); err == nil {
		token = cookie.Value
	}
	if token == "" {
		var payload dto.RefreshTokenDTO
		if err := c.Bind(&payload); err == nil {
			token = payload.RefreshToken
		}
	}
	if token == "" {
		return ctrl.errorResponse(c, apperrors.ErrUnauthorized)
	}

	res, err := ctrl.authService.Refresh(c.Request().Context(), token)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}

	ctrl.setRefreshCookie(c, res.RefreshToken, ctrl.refreshTokenTTL)
	return utils.SuccessResponse(c, res, "Токены успешно обновлены", http.StatusOK)
}

func (ctrl *AuthController) Logout(c echo.Context) error {
	if err := ctrl.authService.Logout(c.Request().Context()); err != nil {
		return ctrl.errorResponse(c, err)
	}
	ctrl.setRefreshCookie(c, "", -1)
	return utils.SuccessResponse(c, nil, "Вы успешно вышли из системы.", http.StatusOK)
}

func (ctrl *AuthController) Me(c echo.Context) error {
	user, err := ctrl.authService.Me(c.Request().Context())
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	return utils.SuccessResponse(c, user, "Профиль пользователя успешно получен", http.StatusOK)
}

func (ctrl *AuthController) SavePushToken(c echo.Context) error {
	var payload dto.PushTokenDTO
	if err := c.Bind(&payload); err != nil {
		return ctrl.errorResponse(c, apperrors.ErrBadRequest)
	}
	if err := c.Validate(&payload); err != nil {
		return ctrl.errorResponse(c, err)
	}
	if err := ctrl.authService.SavePushToken(c.Request().Context(), payload); err != nil {
		return ctrl.errorResponse(c, err)
	}
	return utils.SuccessResponse(c, nil, "Push-токен сохранён", http.StatusOK)
}

// setRefreshCookie с ttl < 0 удаляет cookie.
func (ctrl *AuthController) setRefreshCookie(c echo.Context, value string, ttl time.Duration) {
	cookie := &http.Cookie{
		Name:     refreshCookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	}
	if ttl < 0 {
		cookie.Expires = time.Unix(0, 0)
		cookie.MaxAge = -1
	} else {
		cookie.Expires = time.Now().Add(ttl)
		cookie.MaxAge = int(ttl.Seconds())
	}
	c.SetCookie(cookie)
}
