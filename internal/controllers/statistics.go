package controllers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"delivery-system/internal/dto"
	"delivery-system/internal/services"
	"delivery-system/pkg/utils"
)

type StatisticsController struct {
	statisticsService services.StatisticsServiceInterface
	logger            *zap.Logger
}

func NewStatisticsController(statisticsService services.StatisticsServiceInterface, logger *zap.Logger) *StatisticsController {
	return &StatisticsController{statisticsService: statisticsService, logger: logger}
}

// statisticsFilter - ?period=custom&from=2024-01-01&to=2024-01-31&courier_id=5&bank_id=2
func statisticsFilter(c echo.Context) dto.StatisticsFilterDTO {
	filter := dto.StatisticsFilterDTO{
		Period: c.QueryParam("period"),
		From:   c.QueryParam("from"),
		To:     c.QueryParam("to"),
	}
	if id, err := strconv.ParseUint(c.QueryParam("courier_id"), 10, 64); err == nil && id > 0 {
		filter.CourierID = &id
	}
	if id, err := strconv.ParseUint(c.QueryParam("bank_id"), 10, 64); err == nil && id > 0 {
		filter.BankID = &id
	}
	return filter
}

func (ctrl *StatisticsController) GetOrderStatistics(c echo.Context) error {
	res, err := ctrl.statisticsService.OrderStatistics(c.Request().Context(), statisticsFilter(c))
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, res, "Статистика заказов получена", http.StatusOK)
}

func (ctrl *StatisticsController) GetCourierStatistics(c echo.Context) error {
	res, err := ctrl.statisticsService.CourierStatistics(c.Request().Context(), statisticsFilter(c))
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, res, "Статистика курьеров получена", http.StatusOK)
}

func (ctrl *StatisticsController) GetDashboard(c echo.Context) error {
	res, err := ctrl.statisticsService.Dashboard(c.Request().Context(), statisticsFilter(c))
	if err != nil {
		ctrl.logger.Error("Ошибка при получении данных для дашборда", zap.Error(err))
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, res, "Данные для дашборда успешно получены", http.StatusOK)
}

func (ctrl *StatisticsController) GetBankDashboard(c echo.Context) error {
	res, err := ctrl.statisticsService.BankDashboard(c.Request().Context(), statisticsFilter(c))
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, res, "Данные для дашборда успешно получены", http.StatusOK)
}

func (ctrl *StatisticsController) GetCourierDashboard(c echo.Context) error {
	res, err := ctrl.statisticsService.CourierDashboard(c.Request().Context(), statisticsFilter(c))
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, res, "Данные для дашборда успешно получены", http.StatusOK)
}
