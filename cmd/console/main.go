// Консольные команды обслуживания:
//
//	console migrate up|down|status
//	console orders:generate-numbers
//	console activity-logs:cleanup-orphaned [-force]
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"delivery-system/internal/repositories"
	"delivery-system/internal/services"
	"delivery-system/pkg/config"
	"delivery-system/pkg/database/postgresql"
	applogger "delivery-system/pkg/logger"
	"delivery-system/pkg/utils"
)

func usage() {
	fmt.Fprintln(os.Stderr, "Использование:")
	fmt.Fprintln(os.Stderr, "  console migrate up|down|status")
	fmt.Fprintln(os.Stderr, "  console orders:generate-numbers")
	fmt.Fprintln(os.Stderr, "  console activity-logs:cleanup-orphaned [-force]")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg := config.New()
	logger := applogger.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	ctx := context.Background()
	dbConn, err := postgresql.ConnectDB(ctx, cfg.Postgres.DSN, logger)
	if err != nil {
		logger.Fatal("не удалось подключиться к PostgreSQL", zap.Error(err))
	}
	defer dbConn.Close()

	orderRepo := repositories.NewOrderRepository(dbConn, logger)
	bankRepo := repositories.NewBankRepository(dbConn, logger)
	numberer := services.NewOrderNumberer(orderRepo, bankRepo, repositories.NewTxManager(dbConn, logger), logger)
	maintenance := services.NewMaintenanceService(repositories.NewActivityLogRepository(dbConn, logger), numberer, logger)

	command, args := os.Args[1], os.Args[2:]
	switch command {
	case "migrate":
		if len(args) == 0 {
			usage()
			os.Exit(2)
		}
		if err := postgresql.Migrate(ctx, dbConn, args[0], args[1:]...); err != nil {
			logger.Fatal("ошибка миграции", zap.Error(err))
		}

	case "orders:generate-numbers":
		count, err := maintenance.GenerateOrderNumbers(ctx)
		if err != nil {
			logger.Fatal("ошибка генерации номеров", zap.Error(err))
		}
		fmt.Printf("Сгенерировано номеров: %d\n", count)

	case "activity-logs:cleanup-orphaned":
		fs := flag.NewFlagSet(command, flag.ExitOnError)
		force := fs.Bool("force", false, "Удалить без подтверждения")
		_ = fs.Parse(args)
		if err := cleanupOrphaned(ctx, maintenance, *force); err != nil {
			logger.Fatal("ошибка очистки журнала", zap.Error(err))
		}

	default:
		usage()
		os.Exit(2)
	}
}

func cleanupOrphaned(ctx context.Context, maintenance services.MaintenanceServiceInterface, force bool) error {
	fmt.Println("Поиск записей активности для несуществующих заказов...")
	logs, err := maintenance.FindOrphanedOrderLogs(ctx)
	if err != nil {
		return err
	}
	if len(logs) == 0 {
		fmt.Println("Осиротевших записей активности не найдено.")
		return nil
	}

	fmt.Printf("Найдено %d записей активности для несуществующих заказов:\n", len(logs))
	for _, l := range logs {
		fmt.Printf("- ID: %d, Subject ID: %d, Created: %s\n",
			l.ID, utils.SafeDeref(l.SubjectID), l.CreatedAt.Format(utils.DisplayDateTime))
	}

	if !force && !confirm("Удалить эти записи? [y/N]: ") {
		fmt.Println("Операция отменена.")
		return nil
	}
	deleted, err := maintenance.DeleteActivityLogs(ctx, logs)
	if err != nil {
		return err
	}
	fmt.Printf("Удалено %d записей активности.\n", deleted)
	return nil
}

func confirm(prompt string) bool {
	fmt.Print(prompt)
	answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes" || answer == "д" || answer == "да"
}
