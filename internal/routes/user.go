package routes

import (
	"delivery-system/internal/controllers"
	"delivery-system/pkg/constants"
	"delivery-system/pkg/middleware"

	"github.com/labstack/echo/v4"
)

func runUserRouter(secureGroup *echo.Group, userCtrl *controllers.UserController, activityCtrl *controllers.ActivityLogController, authMW *middleware.AuthMiddleware) {
	users := secureGroup.Group("/users", authMW.RequireRoles(constants.RoleAdmin, constants.RoleManager))
	{
		users.GET("", userCtrl.GetUsers)
		users.POST("", userCtrl.CreateUser)
		users.GET("/:id", userCtrl.FindUser)
		users.PUT("/:id", userCtrl.UpdateUser)
		users.DELETE("/:id", userCtrl.DeleteUser)
		users.POST("/:id/regenerate-bank-key", userCtrl.RegenerateBankKey, authMW.RequireRoles(constants.RoleAdmin))
		users.GET("/:id/activity-log", activityCtrl.SubjectHistory(constants.LogNameUser))
	}
}
