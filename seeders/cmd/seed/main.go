package main

import (
	"context"
	"flag"
	"log"

	"go.uber.org/zap"

	"delivery-system/pkg/config"
	"delivery-system/pkg/database/postgresql"
	"delivery-system/seeders"
)

func main() {
	log.Println("======================================================")
	log.Println("       🌱 СИСТЕМА СИДЕРОВ (Наполнение БД)           ")
	log.Println("======================================================")

	runStatuses := flag.Bool("statuses", false, "Наполнить справочник статусов заказов")
	runUsers := flag.Bool("users", false, "Создать демо-банк и пользователей (admin, manager, courier, bank)")
	runAll := flag.Bool("all", false, "Запустить все сидеры")
	password := flag.String("password", "password", "Пароль демо-пользователей")

	flag.Parse()

	if !*runStatuses && !*runUsers && !*runAll {
		log.Println("❌ Не выбран ни один сидер для запуска.")
		log.Println("")
		log.Println("Доступные флаги:")
		flag.PrintDefaults()
		log.Println("")
		log.Println("Примеры использования:")
		log.Println("  go run ./seeders/cmd/seed -statuses")
		log.Println("  go run ./seeders/cmd/seed -all -password secret")
		log.Println("======================================================")
		return
	}

	cfg := config.New()
	dbPool, err := postgresql.ConnectDB(context.Background(), cfg.Postgres.DSN, zap.NewNop())
	if err != nil {
		log.Fatalf("❌ Не удалось подключиться к БД: %v", err)
	}
	defer dbPool.Close()

	log.Println("======================================================")

	if *runAll || *runStatuses {
		seeders.SeedStatuses(dbPool)
		log.Println("======================================================")
	}
	if *runAll || *runUsers {
		// пользователи банка ссылаются на банк, статусы им не нужны
		seeders.SeedDemoUsers(dbPool, cfg, *password)
		log.Println("======================================================")
	}

	log.Println("✅ Все указанные операции сидирования успешно завершены.")
	log.Println("======================================================")
}
