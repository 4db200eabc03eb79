package routes

import (
	"delivery-system/internal/controllers"
	"delivery-system/pkg/constants"
	"delivery-system/pkg/middleware"

	"github.com/labstack/echo/v4"
)

// runStatusRouter - читать статусы может любой авторизованный пользователь.
func runStatusRouter(secureGroup *echo.Group, statusCtrl *controllers.StatusController, activityCtrl *controllers.ActivityLogController, authMW *middleware.AuthMiddleware) {
	staffOnly := authMW.RequireRoles(constants.RoleAdmin, constants.RoleManager)

	secureGroup.GET("/order-statuses", statusCtrl.GetStatuses)
	secureGroup.GET("/order-statuses/:id", statusCtrl.FindStatus)
	secureGroup.POST("/order-statuses", statusCtrl.CreateStatus, staffOnly)
	secureGroup.PUT("/order-statuses/:id", statusCtrl.UpdateStatus, staffOnly)
	secureGroup.DELETE("/order-statuses/:id", statusCtrl.DeleteStatus, staffOnly)
	secureGroup.GET("/order-statuses/:id/activity-log", activityCtrl.SubjectHistory(constants.LogNameOrderStatus))
}
