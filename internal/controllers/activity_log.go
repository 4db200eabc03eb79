package controllers

import (
	"net/http"

	"delivery-system/internal/services"
	apperrors "delivery-system/pkg/errors"
	"delivery-system/pkg/utils"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type ActivityLogController struct {
	activityLogService services.ActivityLogServiceInterface
	logger             *zap.Logger
}

func NewActivityLogController(activityLogService services.ActivityLogServiceInterface, logger *zap.Logger) *ActivityLogController {
	return &ActivityLogController{activityLogService: activityLogService, logger: logger}
}

// SubjectHistory возвращает обработчик истории для журнала logName: /{entity}/:id/activity-log
func (c *ActivityLogController) SubjectHistory(logName string) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		id, err := utils.ParseIDParam(ctx, "id")
		if err != nil {
			return utils.ErrorResponse(ctx, err, c.logger)
		}
		entries, err := c.activityLogService.GetSubjectHistory(ctx.Request().Context(), logName, id)
		if err != nil {
			return utils.ErrorResponse(ctx, err, c.logger)
		}
		return utils.SuccessResponse(ctx, entries, "История изменений получена", http.StatusOK)
	}
}

// GetBatch - /activity-logs/batch?log_name=order&ids[]=1&ids[]=2
func (c *ActivityLogController) GetBatch(ctx echo.Context) error {
	logName := ctx.QueryParam("log_name")
	if logName == "" {
		return utils.ErrorResponse(ctx, apperrors.NewValidationError("Ошибка валидации",
			map[string]interface{}{"errors": map[string][]string{"log_name": {"Поле log_name обязательно для заполнения"}}}),
			c.logger)
	}
	ids := queryIDs(ctx, "ids")
	if len(ids) == 0 {
		return utils.ErrorResponse(ctx, apperrors.NewValidationError("Ошибка валидации",
			map[string]interface{}{"errors": map[string][]string{"ids": {"Поле ids обязательно для заполнения"}}}),
			c.logger)
	}

	res, err := c.activityLogService.GetBatch(ctx.Request().Context(), logName, ids)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "История изменений получена", http.StatusOK)
}
