package controllers

import (
	"net/http"

	"delivery-system/internal/dto"
	"delivery-system/internal/services"
	apperrors "delivery-system/pkg/errors"
	"delivery-system/pkg/utils"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type OrderCommentController struct {
	orderCommentService services.OrderCommentServiceInterface
	logger              *zap.Logger
}

func NewOrderCommentController(
	orderCommentService services.OrderCommentServiceInterface,
	logger *zap.Logger,
) *OrderCommentController {
	return &OrderCommentController{
		orderCommentService: orderCommentService,
		logger:              logger,
	}
}

func (c *OrderCommentController) GetOrderComments(ctx echo.Context) error {
	orderID, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.orderCommentService.GetComments(ctx.Request().Context(), orderID)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Комментарии получены", http.StatusOK)
}

func (c *OrderCommentController) CreateOrderComment(ctx echo.Context) error {
	orderID, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.CreateCommentDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, apperrors.NewBadRequestError("Неверный формат данных"), c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.orderCommentService.CreateComment(ctx.Request().Context(), orderID, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Комментарий добавлен", http.StatusCreated)
}

func (c *OrderCommentController) UpdateOrderComment(ctx echo.Context) error {
	orderID, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	commentID, err := utils.ParseIDParam(ctx, "comment")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.UpdateCommentDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, apperrors.NewBadRequestError("Неверный формат данных"), c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.orderCommentService.UpdateComment(ctx.Request().Context(), orderID, commentID, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Комментарий обновлён", http.StatusOK)
}

func (c *OrderCommentController) DeleteOrderComment(ctx echo.Context) error {
	orderID, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	commentID, err := utils.ParseIDParam(ctx, "comment")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if err := c.orderCommentService.DeleteComment(ctx.Request().Context(), orderID, commentID); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Комментарий удалён", http.StatusOK)
}

// GetCourierComments - все комментарии по заказам текущего курьера.
func (c *OrderCommentController) GetCourierComments(ctx echo.Context) error {
	res, err := c.orderCommentService.CourierComments(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Комментарии получены", http.StatusOK)
}
