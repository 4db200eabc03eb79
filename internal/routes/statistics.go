package routes

import (
	"delivery-system/internal/controllers"

	"github.com/labstack/echo/v4"
)

func runStatisticsRouter(secureGroup *echo.Group, statisticsCtrl *controllers.StatisticsController) {
	stats := secureGroup.Group("/statistics")
	{
		stats.GET("/orders", statisticsCtrl.GetOrderStatistics)
		stats.GET("/couriers", statisticsCtrl.GetCourierStatistics)
		stats.GET("/dashboard", statisticsCtrl.GetDashboard)
		stats.GET("/bank-dashboard", statisticsCtrl.GetBankDashboard)
	}
}
