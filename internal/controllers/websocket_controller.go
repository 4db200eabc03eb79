package controllers

import (
	"net/http"
	"slices"

	"delivery-system/internal/services"
	"delivery-system/pkg/constants"
	apperrors "delivery-system/pkg/errors"
	"delivery-system/pkg/utils"
	appwebsocket "delivery-system/pkg/websocket"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// websocketRoles - кто получает живые обновления заказов.
var websocketRoles = []string{constants.RoleAdmin, constants.RoleManager, constants.RoleBank}

type WebSocketController struct {
	hub         *appwebsocket.Hub
	authService services.AuthServiceInterface
	logger      *zap.Logger
}

func NewWebSocketController(hub *appwebsocket.Hub, authService services.AuthServiceInterface, logger *zap.Logger) *WebSocketController {
	return &WebSocketController{
		hub:         hub,
		authService: authService,
		logger:      logger,
	}
}

// ServeWs - токен уже проверен AuthQuery, здесь только роль и апгрейд соединения.
func (c *WebSocketController) ServeWs(ctx echo.Context) error {
	user, err := c.authService.Me(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if !slices.Contains(websocketRoles, user.Role) {
		return utils.ErrorResponse(ctx, apperrors.NewForbiddenError("Доступ запрещён"), c.logger)
	}

	conn, err := upgrader.Upgrade(ctx.Response(), ctx.Request(), nil)
	if err != nil {
		c.logger.Error("WebSocket: не удалось улучшить соединение", zap.Error(err))
		return err
	}

	appwebsocket.NewClient(c.hub, conn, user.ID, user.Role, user.BankID).Start()

	c.logger.Info("WebSocket: клиент успешно подключен",
		zap.Uint64("userID", user.ID),
		zap.String("role", user.Role),
	)
	return nil
}
