package routes

import (
	"delivery-system/internal/controllers"
	"delivery-system/pkg/constants"

	"github.com/labstack/echo/v4"
)

// runOrderRouter - права по ролям и банку проверяет сервис заказов.
func runOrderRouter(secureGroup *echo.Group, orderCtrl *controllers.OrderController, activityCtrl *controllers.ActivityLogController) {
	{
		secureGroup.GET("/orders", orderCtrl.GetOrders)
		secureGroup.POST("/orders", orderCtrl.CreateOrder)
		secureGroup.DELETE("/orders/bulk", orderCtrl.BulkDelete)
		secureGroup.POST("/orders/bulk-update", orderCtrl.BulkUpdate)
		secureGroup.POST("/orders/import-excel", orderCtrl.ImportExcel)
		secureGroup.GET("/orders/:id", orderCtrl.FindOrder)
		secureGroup.PUT("/orders/:id", orderCtrl.UpdateOrder)
		secureGroup.PATCH("/orders/:id/status", orderCtrl.ChangeStatus)
		secureGroup.DELETE("/orders/:id", orderCtrl.DeleteOrder)
		secureGroup.GET("/orders/:id/activity-log", activityCtrl.SubjectHistory(constants.LogNameOrder))
	}
}
