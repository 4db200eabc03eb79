package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"delivery-system/internal/jobs"
	"delivery-system/internal/repositories"
	"delivery-system/internal/routes"
	"delivery-system/internal/services"
	"delivery-system/pkg/config"
	"delivery-system/pkg/database/postgresql"
	apperrors "delivery-system/pkg/errors"
	"delivery-system/pkg/eventbus"
	"delivery-system/pkg/filestorage"
	applogger "delivery-system/pkg/logger"
	appmiddleware "delivery-system/pkg/middleware"
	"delivery-system/pkg/onesignal"
	"delivery-system/pkg/service"
	"delivery-system/pkg/utils"
	"delivery-system/pkg/validation"
	"delivery-system/pkg/websocket"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	cfg := config.New()
	logger := applogger.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		DisableStackAll: true,
		StackSize:       1 << 10,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			logger.Error("!!! ОБНАРУЖЕНА ПАНИКА (PANIC) !!!",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Error(err),
				zap.String("stack", string(stack)),
			)
			if !c.Response().Committed {
				httpErr := apperrors.NewHttpError(http.StatusInternalServerError, "Внутренняя ошибка сервера", err, nil)
				utils.ErrorResponse(c, httpErr, logger)
			}
			return err
		},
	}))
	e.Use(middleware.RequestID())
	e.Use(appmiddleware.RequestLogger(logger))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
		ExposeHeaders:    []string{echo.HeaderContentDisposition},
	}))

	absPath, err := filepath.Abs(cfg.Storage.UploadsDir)
	if err != nil {
		logger.Fatal("не удалось получить абсолютный путь к uploads", zap.Error(err))
	}
	e.Static("/uploads", absPath)

	e.Validator = validation.New()

	dbConn, err := postgresql.ConnectDB(ctx, cfg.Postgres.DSN, logger)
	if err != nil {
		logger.Fatal("не удалось подключиться к PostgreSQL", zap.Error(err))
	}
	defer dbConn.Close()

	if cfg.Postgres.AutoMigrate {
		if err := postgresql.Migrate(ctx, dbConn, "up"); err != nil {
			logger.Fatal("ошибка применения миграций", zap.Error(err))
		}
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if _, err := redisClient.Ping(ctx).Result(); err != nil {
		logger.Fatal("не удалось подключиться к Redis", zap.Error(err), zap.String("address", cfg.Redis.Address))
	}
	defer redisClient.Close()

	fileStorage, err := filestorage.NewLocalFileStorage(cfg.Storage.UploadsDir)
	if err != nil {
		logger.Fatal("не удалось создать файловое хранилище", zap.Error(err))
	}

	jwtSvc := service.NewJWTService(cfg.JWT.SecretKey, cfg.JWT.AccessTokenTTL, cfg.JWT.RefreshTokenTTL)

	hub := websocket.NewHub(logger.Named("ws"))
	go hub.Run(ctx)

	bus := eventbus.New(logger.Named("events"))
	push := onesignal.NewService(cfg.OneSignal.AppID, cfg.OneSignal.RestAPIKey, cfg.OneSignal.APIURL, logger.Named("onesignal"))
	if !push.Enabled() {
		logger.Warn("OneSignal не настроен, push-уведомления отключены")
	}

	routes.InitRouter(e, routes.Dependencies{
		DB:          dbConn,
		Redis:       redisClient,
		JWT:         jwtSvc,
		Hub:         hub,
		Bus:         bus,
		FileStorage: fileStorage,
		Push:        push,
		Loggers: &routes.Loggers{
			Main:  logger,
			Auth:  logger.Named("auth"),
			Order: logger.Named("order"),
			User:  logger.Named("user"),
		},
		Config: cfg,
	})

	orderRepo := repositories.NewOrderRepository(dbConn, logger)
	bankRepo := repositories.NewBankRepository(dbConn, logger)
	numberer := services.NewOrderNumberer(orderRepo, bankRepo, repositories.NewTxManager(dbConn, logger), logger)
	maintenance := services.NewMaintenanceService(repositories.NewActivityLogRepository(dbConn, logger), numberer, logger.Named("maintenance"))

	scheduler := jobs.NewScheduler(maintenance, logger.Named("cron"))
	if err := scheduler.RegisterActivityLogCleanup(cfg.Cron.ActivityLogCleanup); err != nil {
		logger.Fatal("неверное расписание cron", zap.Error(err))
	}
	scheduler.Start()

	go func() {
		logger.Info("Сервер запущен", zap.String("port", cfg.Server.Port))
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Ошибка запуска сервера", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Остановка сервера...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Ошибка при остановке сервера", zap.Error(err))
	}
	scheduler.Stop()
	bus.Wait()
}
