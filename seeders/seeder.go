package seeders

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"

	"delivery-system/pkg/config"
)

// SeedStatuses наполняет справочник статусов заказов.
func SeedStatuses(db *pgxpool.Pool) {
	ctx := context.Background()
	log.Println("▶️  Запуск наполнения статусов заказов...")

	if err := seedStatuses(ctx, db); err != nil {
		log.Fatalf("❌ Ошибка наполнения Статусов: %v", err)
	}
	log.Println("✅ Наполнение статусов завершено!")
}

// SeedDemoUsers создаёт демо-банк и пользователей всех ролей.
func SeedDemoUsers(db *pgxpool.Pool, cfg *config.Config, password string) {
	ctx := context.Background()
	log.Println("▶️  Запуск создания демо-пользователей...")

	bankID, err := seedDemoBank(ctx, db)
	if err != nil {
		log.Fatalf("❌ Ошибка создания демо-банка: %v", err)
	}
	if err := seedDemoUsers(ctx, db, bankID, password, cfg.Auth.BankKeyTTL); err != nil {
		log.Fatalf("❌ Ошибка создания пользователей: %v", err)
	}
	log.Println("✅ Демо-пользователи готовы!")
}
