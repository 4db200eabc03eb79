package routes

import (
	"delivery-system/internal/controllers"
	"delivery-system/pkg/constants"
	"delivery-system/pkg/middleware"

	"github.com/labstack/echo/v4"
)

func runOrderCommentRouter(secureGroup *echo.Group, commentCtrl *controllers.OrderCommentController, authMW *middleware.AuthMiddleware) {
	secureGroup.GET("/orders/:id/comments", commentCtrl.GetOrderComments)
	secureGroup.POST("/orders/:id/comments", commentCtrl.CreateOrderComment)
	secureGroup.PATCH("/orders/:id/comments/:comment", commentCtrl.UpdateOrderComment)
	secureGroup.DELETE("/orders/:id/comments/:comment", commentCtrl.DeleteOrderComment)

	secureGroup.GET("/courier/comments", commentCtrl.GetCourierComments, authMW.RequireRoles(constants.RoleCourier))
}
