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

type AgentReportController struct {
	reportService services.AgentReportServiceInterface
	logger        *zap.Logger
}

func NewAgentReportController(reportService services.AgentReportServiceInterface, logger *zap.Logger) *AgentReportController {
	return &AgentReportController{reportService: reportService, logger: logger}
}

// queryIDs читает "key[]=1&key[]=2" и "key=1,2".
func queryIDs(ctx echo.Context, key string) []uint64 {
	var ids []uint64
	for _, raw := range ctx.QueryParams()[key+"[]"] {
		ids = append(ids, utils.ParseUint64List(raw)...)
	}
	for _, raw := range ctx.QueryParams()[key] {
		ids = append(ids, utils.ParseUint64List(raw)...)
	}
	return ids
}

func (c *AgentReportController) GetReports(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())
	reports, total, err := c.reportService.GetReports(ctx.Request().Context(), filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, reports, "Список акт-отчетов получен", http.StatusOK, total)
}

func (c *AgentReportController) FindReport(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	report, err := c.reportService.FindReport(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, report, "Акт-отчет найден", http.StatusOK)
}

func (c *AgentReportController) CreateReport(ctx echo.Context) error {
	var payload dto.CreateAgentReportDTO
	if err := ctx.Bind(&payload); err != nil {
		c.logger.Error("CreateReport: ошибка привязки данных", zap.Error(err))
		return utils.ErrorResponse(ctx, apperrors.NewBadRequestError("Неверный формат данных"), c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	report, err := c.reportService.CreateReport(ctx.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, report, "Акт-отчет успешно создан", http.StatusCreated)
}

func (c *AgentReportController) UpdateReport(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.UpdateAgentReportDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, apperrors.NewBadRequestError("Неверный формат данных"), c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	report, err := c.reportService.UpdateReport(ctx.Request().Context(), id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, report, "Акт-отчет успешно обновлён", http.StatusOK)
}

func (c *AgentReportController) DeleteReport(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if err := c.reportService.DeleteReport(ctx.Request().Context(), id); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Акт-отчет удалён", http.StatusOK)
}

func (c *AgentReportController) Download(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	reader, meta, err := c.reportService.Download(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return sendDownload(ctx, reader, meta)
}

func (c *AgentReportController) OrdersForPeriod(ctx echo.Context) error {
	orders, err := c.reportService.OrdersForPeriod(
		ctx.Request().Context(),
		queryIDs(ctx, "bank_ids"),
		ctx.QueryParam("period_from"),
		ctx.QueryParam("period_to"),
	)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, orders, "Заказы за период получены", http.StatusOK)
}
