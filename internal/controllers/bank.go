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

type BankController struct {
	bankService services.BankServiceInterface
	logger      *zap.Logger
}

func NewBankController(bankService services.BankServiceInterface, logger *zap.Logger) *BankController {
	return &BankController{bankService: bankService, logger: logger}
}

func (c *BankController) GetBanks(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())
	banks, total, err := c.bankService.GetBanks(ctx.Request().Context(), filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, banks, "Список банков успешно получен", http.StatusOK, total)
}

func (c *BankController) FindBank(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	bank, err := c.bankService.FindBank(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, bank, "Банк успешно найден", http.StatusOK)
}

func (c *BankController) bind(ctx echo.Context) (dto.BankDTO, error) {
	var payload dto.BankDTO
	if err := ctx.Bind(&payload); err != nil {
		return payload, apperrors.NewBadRequestError("Неверный формат данных")
	}
	if err := ctx.Validate(&payload); err != nil {
		return payload, err
	}
	return payload, nil
}

func (c *BankController) CreateBank(ctx echo.Context) error {
	payload, err := c.bind(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	bank, err := c.bankService.CreateBank(ctx.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, bank, "Банк успешно создан", http.StatusCreated)
}

func (c *BankController) UpdateBank(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	payload, err := c.bind(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	bank, err := c.bankService.UpdateBank(ctx.Request().Context(), id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, bank, "Банк успешно обновлён", http.StatusOK)
}

func (c *BankController) DeleteBank(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if err := c.bankService.DeleteBank(ctx.Request().Context(), id); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Банк успешно удалён", http.StatusOK)
}
