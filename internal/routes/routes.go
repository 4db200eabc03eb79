package routes

import (
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"delivery-system/internal/authz"
	"delivery-system/internal/controllers"
	"delivery-system/internal/listeners"
	"delivery-system/internal/repositories"
	"delivery-system/internal/services"
	"delivery-system/pkg/config"
	"delivery-system/pkg/eventbus"
	"delivery-system/pkg/filestorage"
	"delivery-system/pkg/middleware"
	"delivery-system/pkg/onesignal"
	"delivery-system/pkg/service"
	"delivery-system/pkg/validation"
	"delivery-system/pkg/websocket"
)

type Loggers struct {
	Main  *zap.Logger
	Auth  *zap.Logger
	Order *zap.Logger
	User  *zap.Logger
}

// Dependencies - инфраструктура, созданная в main.
type Dependencies struct {
	DB          *pgxpool.Pool
	Redis       *redis.Client
	JWT         service.JWTService
	Hub         *websocket.Hub
	Bus         *eventbus.Bus
	FileStorage filestorage.FileStorageInterface
	Push        onesignal.ServiceInterface
	Loggers     *Loggers
	Config      *config.Config
}

func InitRouter(e *echo.Echo, deps Dependencies) {
	loggers := deps.Loggers
	loggers.Main.Info("InitRouter: Начало создания маршрутов")

	api := e.Group("/api")
	txManager := repositories.NewTxManager(deps.DB, loggers.Main)
	cacheRepo := repositories.NewRedisCacheRepository(deps.Redis)
	blacklist := repositories.NewTokenBlacklist(cacheRepo)
	authMW := middleware.NewAuthMiddleware(deps.JWT, blacklist, loggers.Auth)

	// --- 1. РЕПОЗИТОРИИ ---
	userRepo := repositories.NewUserRepository(deps.DB, loggers.User)
	bankRepo := repositories.NewBankRepository(deps.DB, loggers.Main)
	statusRepo := repositories.NewOrderStatusRepository(deps.DB, loggers.Main)
	orderRepo := repositories.NewOrderRepository(deps.DB, loggers.Order)
	commentRepo := repositories.NewOrderCommentRepository(deps.DB, loggers.Order)
	fileRepo := repositories.NewOrderFileRepository(deps.DB, loggers.Order)
	photoRepo := repositories.NewOrderPhotoRepository(deps.DB, loggers.Order)
	activityRepo := repositories.NewActivityLogRepository(deps.DB, loggers.Main)
	reportRepo := repositories.NewAgentReportRepository(deps.DB, loggers.Main)
	statisticsRepo := repositories.NewStatisticsRepository(deps.DB, loggers.Main)
	notificationRepo := repositories.NewNotificationRepository(deps.DB, loggers.Main)

	// --- 2. СЕРВИСЫ ---
	base := services.NewBaseService(userRepo, cacheRepo, authz.NewGatekeeper(), loggers.Main)
	activityLog := services.NewActivityLogService(base, activityRepo, statusRepo, bankRepo)
	numberer := services.NewOrderNumberer(orderRepo, bankRepo, txManager, loggers.Order)

	authService := services.NewAuthService(userRepo, cacheRepo, blacklist, deps.JWT, loggers.Auth, &deps.Config.Auth)
	userService := services.NewUserService(base, txManager, bankRepo, activityLog, deps.Config.Auth.BankKeyTTL)
	bankService := services.NewBankService(base, bankRepo, activityLog)
	statusService := services.NewOrderStatusService(base, statusRepo, activityLog)
	orderService := services.NewOrderService(base, txManager, orderRepo, bankRepo, statusRepo, numberer, activityLog, deps.Bus)
	importService := services.NewOrderImportService(base, txManager, orderRepo, bankRepo, numberer, activityLog, validation.New(), deps.Bus)
	commentService := services.NewOrderCommentService(base, orderRepo, commentRepo)
	attachmentService := services.NewAttachmentService(base, orderRepo, fileRepo, photoRepo, deps.FileStorage)
	reportService := services.NewAgentReportService(base, txManager, reportRepo, bankRepo, deps.FileStorage)
	statisticsService := services.NewStatisticsService(base, statisticsRepo)
	notificationService := services.NewNotificationService(base, notificationRepo, deps.Push)
	wsNotificationService := services.NewWebSocketNotificationService(deps.Hub, loggers.Main)

	// --- 3. СЛУШАТЕЛИ СОБЫТИЙ ---
	listeners.NewNotificationListener(notificationService, wsNotificationService, userRepo, statusRepo, loggers.Main).
		Register(deps.Bus)

	// --- 4. КОНТРОЛЛЕРЫ ---
	authCtrl := controllers.NewAuthController(authService, deps.Config.JWT.RefreshTokenTTL, loggers.Auth)
	userCtrl := controllers.NewUserController(userService, loggers.User)
	bankCtrl := controllers.NewBankController(bankService, loggers.Main)
	statusCtrl := controllers.NewStatusController(statusService, loggers.Main)
	orderCtrl := controllers.NewOrderController(orderService, importService, loggers.Order)
	commentCtrl := controllers.NewOrderCommentController(commentService, loggers.Order)
	attachmentCtrl := controllers.NewAttachmentController(attachmentService, loggers.Order)
	reportCtrl := controllers.NewAgentReportController(reportService, loggers.Main)
	statisticsCtrl := controllers.NewStatisticsController(statisticsService, loggers.Main)
	activityCtrl := controllers.NewActivityLogController(activityLog, loggers.Main)
	notificationCtrl := controllers.NewNotificationController(notificationService, loggers.Main)
	wsCtrl := controllers.NewWebSocketController(deps.Hub, authService, loggers.Main)

	// --- 5. РОУТЕРЫ ---
	secureGroup := api.Group("", authMW.Auth)
	mobileGroup := api.Group("/mobile")

	runAuthRouter(api, secureGroup, mobileGroup, authCtrl, authMW)
	runUserRouter(secureGroup, userCtrl, activityCtrl, authMW)
	runBankRouter(secureGroup, bankCtrl, activityCtrl, authMW)
	runStatusRouter(secureGroup, statusCtrl, activityCtrl, authMW)
	runOrderRouter(secureGroup, orderCtrl, activityCtrl)
	runOrderCommentRouter(secureGroup, commentCtrl, authMW)
	runAttachmentRouter(secureGroup, attachmentCtrl)
	runReportRouter(secureGroup, reportCtrl)
	runStatisticsRouter(secureGroup, statisticsCtrl)
	runMobileRouter(mobileGroup, authMW, orderCtrl, attachmentCtrl, statusCtrl, userCtrl, statisticsCtrl, notificationCtrl)
	secureGroup.GET("/activity-logs/batch", activityCtrl.GetBatch)
	api.GET("/ws", wsCtrl.ServeWs, authMW.AuthQuery)

	loggers.Main.Info("INIT_ROUTER: Создание маршрутов завершено")
}
