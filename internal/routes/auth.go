package routes

import (
	"delivery-system/internal/controllers"
	"delivery-system/pkg/middleware"

	"github.com/labstack/echo/v4"
)

func runAuthRouter(api, secureGroup, mobileGroup *echo.Group, authCtrl *controllers.AuthController, authMW *middleware.AuthMiddleware) {
	api.POST("/login", authCtrl.Login)
	api.POST("/refresh", authCtrl.RefreshToken)
	secureGroup.POST("/logout", authCtrl.Logout)

	mobileGroup.POST("/login", authCtrl.MobileLogin)
	mobileGroup.POST("/refresh", authCtrl.RefreshToken)
	mobileGroup.POST("/logout", authCtrl.Logout, authMW.Auth)
	mobileGroup.GET("/me", authCtrl.Me, authMW.Auth)
	mobileGroup.POST("/push-token", authCtrl.SavePushToken, authMW.Auth)
}
