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

type OrderController struct {
	orderService  services.OrderServiceInterface
	importService services.OrderImportServiceInterface
	logger        *zap.Logger
}

func NewOrderController(
	orderService services.OrderServiceInterface,
	importService services.OrderImportServiceInterface,
	logger *zap.Logger,
) *OrderController {
	return &OrderController{
		orderService:  orderService,
		importService: importService,
		logger:        logger,
	}
}

func (c *OrderController) GetOrders(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())
	orders, total, err := c.orderService.GetOrders(ctx.Request().Context(), filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, orders, "Список заказов успешно получен", http.StatusOK, total)
}

func (c *OrderController) FindOrder(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	order, err := c.orderService.FindOrder(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, order, "Заказ успешно найден", http.StatusOK)
}

func (c *OrderController) CreateOrder(ctx echo.Context) error {
	var payload dto.CreateOrderDTO
	if err := ctx.Bind(&payload); err != nil {
		c.logger.Error("CreateOrder: ошибка привязки данных", zap.Error(err))
		return utils.ErrorResponse(ctx, apperrors.NewBadRequestError("Неверный формат данных"), c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	order, err := c.orderService.CreateOrder(ctx.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, order, "Заказ успешно создан", http.StatusCreated)
}

func (c *OrderController) UpdateOrder(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.UpdateOrderDTO
	if err := ctx.Bind(&payload); err != nil {
		c.logger.Error("UpdateOrder: ошибка привязки данных", zap.Uint64("orderID", id), zap.Error(err))
		return utils.ErrorResponse(ctx, apperrors.NewBadRequestError("Неверный формат данных"), c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	order, err := c.orderService.UpdateOrder(ctx.Request().Context(), id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, order, "Заказ успешно обновлён", http.StatusOK)
}

func (c *OrderController) bindStatus(ctx echo.Context) (uint64, dto.ChangeOrderStatusDTO, error) {
	var payload dto.ChangeOrderStatusDTO
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return 0, payload, err
	}
	if err := ctx.Bind(&payload); err != nil {
		return 0, payload, apperrors.NewBadRequestError("Неверный формат данных")
	}
	if err := ctx.Validate(&payload); err != nil {
		return 0, payload, err
	}
	return id, payload, nil
}

func (c *OrderController) ChangeStatus(ctx echo.Context) error {
	id, payload, err := c.bindStatus(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	order, err := c.orderService.ChangeStatus(ctx.Request().Context(), id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, order, "Статус заказа обновлён", http.StatusOK)
}

func (c *OrderController) DeleteOrder(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if err := c.orderService.DeleteOrder(ctx.Request().Context(), id); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Заказ успешно удалён", http.StatusOK)
}

func (c *OrderController) BulkDelete(ctx echo.Context) error {
	var payload dto.IDsDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, apperrors.NewBadRequestError("Неверный формат данных"), c.logger)
	}
	deleted, err := c.orderService.BulkDelete(ctx.Request().Context(), payload.IDs)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, map[string]interface{}{"deleted_ids": deleted, "count": len(deleted)},
		"Заказы удалены", http.StatusOK)
}

func (c *OrderController) BulkUpdate(ctx echo.Context) error {
	var payload dto.BulkUpdateOrdersDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, apperrors.NewBadRequestError("Неверный формат данных"), c.logger)
	}
	updated, err := c.orderService.BulkUpdate(ctx.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, map[string]interface{}{"updated_ids": updated, "count": len(updated)},
		"Заказы обновлены", http.StatusOK)
}

func (c *OrderController) ImportExcel(ctx echo.Context) error {
	file, err := ctx.FormFile("file")
	if err != nil && err != http.ErrMissingFile {
		c.logger.Error("ImportExcel: ошибка при получении файла", zap.Error(err))
		return utils.ErrorResponse(ctx, apperrors.NewBadRequestError("Не удалось прочитать файл"), c.logger)
	}

	res, err := c.importService.Import(ctx.Request().Context(), file)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Заказы успешно импортированы", http.StatusOK)
}

func (c *OrderController) GetCourierOrders(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())
	orders, total, err := c.orderService.CourierOrders(ctx.Request().Context(), filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, orders, "Список заказов успешно получен", http.StatusOK, total)
}

func (c *OrderController) FindCourierOrder(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	order, err := c.orderService.CourierOrder(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, order, "Заказ успешно найден", http.StatusOK)
}

func (c *OrderController) CourierChangeStatus(ctx echo.Context) error {
	id, payload, err := c.bindStatus(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	order, err := c.orderService.CourierChangeStatus(ctx.Request().Context(), id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, order, "Статус заказа обновлён", http.StatusOK)
}

// SaveCourierNote обслуживает POST и PATCH: заметка перезаписывается целиком.
func (c *OrderController) SaveCourierNote(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.CourierNoteDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, apperrors.NewBadRequestError("Неверный формат данных"), c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	order, err := c.orderService.SetCourierNote(ctx.Request().Context(), id, &payload.CourierNote)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, order, "Заметка курьера сохранена", http.StatusOK)
}

func (c *OrderController) DeleteCourierNote(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	order, err := c.orderService.SetCourierNote(ctx.Request().Context(), id, nil)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, order, "Заметка курьера удалена", http.StatusOK)
}
