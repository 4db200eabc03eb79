package routes

import (
	"delivery-system/internal/controllers"
	"delivery-system/pkg/constants"
	"delivery-system/pkg/middleware"

	"github.com/labstack/echo/v4"
)

// runMobileRouter - API мобильного приложения курьера.
func runMobileRouter(
	mobileGroup *echo.Group,
	authMW *middleware.AuthMiddleware,
	orderCtrl *controllers.OrderController,
	attachmentCtrl *controllers.AttachmentController,
	statusCtrl *controllers.StatusController,
	userCtrl *controllers.UserController,
	statisticsCtrl *controllers.StatisticsController,
	notificationCtrl *controllers.NotificationController,
) {
	courier := mobileGroup.Group("", authMW.Auth, authMW.RequireRoles(constants.RoleCourier))
	{
		courier.GET("/profile", userCtrl.GetProfile)
		courier.PATCH("/profile", userCtrl.UpdateProfile)
		courier.GET("/dashboard", statisticsCtrl.GetCourierDashboard)
		courier.GET("/order-statuses", statusCtrl.GetStatuses)
		courier.GET("/notifications", notificationCtrl.GetMyNotifications)

		courier.GET("/orders", orderCtrl.GetCourierOrders)
		courier.GET("/orders/:id", orderCtrl.FindCourierOrder)
		courier.PATCH("/orders/:id/status", orderCtrl.CourierChangeStatus)
		courier.POST("/orders/:id/courier-note", orderCtrl.SaveCourierNote)
		courier.PATCH("/orders/:id/courier-note", orderCtrl.SaveCourierNote)
		courier.DELETE("/orders/:id/courier-note", orderCtrl.DeleteCourierNote)

		courier.GET("/orders/:id/files", attachmentCtrl.GetFiles)
		courier.GET("/orders/:id/files/:file", attachmentCtrl.FindFile)
		courier.GET("/orders/:id/files/:file/download", attachmentCtrl.DownloadFile)

		courier.GET("/orders/:id/photos", attachmentCtrl.GetPhotos)
		courier.POST("/orders/:id/photos", attachmentCtrl.UploadPhotos)
		courier.DELETE("/orders/:id/photos/:photo", attachmentCtrl.DeletePhoto)
	}
}
