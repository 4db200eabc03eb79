package routes

import (
	"delivery-system/internal/controllers"

	"github.com/labstack/echo/v4"
)

// runReportRouter - акт-отчёты доступны только админу, проверка в сервисе.
func runReportRouter(secureGroup *echo.Group, reportCtrl *controllers.AgentReportController) {
	reports := secureGroup.Group("/agent-reports")
	{
		reports.GET("", reportCtrl.GetReports)
		reports.POST("", reportCtrl.CreateReport)
		reports.GET("/orders-for-period", reportCtrl.OrdersForPeriod)
		reports.GET("/:id", reportCtrl.FindReport)
		reports.PUT("/:id", reportCtrl.UpdateReport)
		reports.PATCH("/:id", reportCtrl.UpdateReport)
		reports.DELETE("/:id", reportCtrl.DeleteReport)
		reports.GET("/:id/download", reportCtrl.Download)
	}
}
