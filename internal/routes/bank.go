package routes

import (
	"delivery-system/internal/controllers"
	"delivery-system/pkg/constants"
	"delivery-system/pkg/middleware"

	"github.com/labstack/echo/v4"
)

func runBankRouter(secureGroup *echo.Group, bankCtrl *controllers.BankController, activityCtrl *controllers.ActivityLogController, authMW *middleware.AuthMiddleware) {
	banks := secureGroup.Group("/banks", authMW.RequireRoles(constants.RoleAdmin, constants.RoleManager))
	{
		banks.GET("", bankCtrl.GetBanks)
		banks.POST("", bankCtrl.CreateBank)
		banks.GET("/:id", bankCtrl.FindBank)
		banks.PUT("/:id", bankCtrl.UpdateBank)
		banks.DELETE("/:id", bankCtrl.DeleteBank)
		banks.GET("/:id/activity-log", activityCtrl.SubjectHistory(constants.LogNameBank))
	}
}
