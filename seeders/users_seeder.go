package seeders

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"delivery-system/pkg/utils"
)

func seedDemoBank(ctx context.Context, db *pgxpool.Pool) (uint64, error) {
	log.Println("  - Создание демо-банка...")

	var bankID uint64
	err := db.QueryRow(ctx, "SELECT id FROM banks WHERE name = $1", demoBank.Name).Scan(&bankID)
	if err == nil {
		log.Println("    - Демо-банк уже существует. Пропускаем.")
		return bankID, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("ошибка при проверке существования банка: %w", err)
	}

	err = db.QueryRow(ctx,
		"INSERT INTO banks (name, phone, email, order_prefix) VALUES ($1, $2, $3, $4) RETURNING id",
		demoBank.Name, demoBank.Phone, demoBank.Email, demoBank.OrderPrefix,
	).Scan(&bankID)
	if err != nil {
		return 0, fmt.Errorf("не удалось создать демо-банк: %w", err)
	}
	return bankID, nil
}

// seedDemoUsers создаёт по пользователю на каждую роль. Ключ доступа банка печатается один раз.
func seedDemoUsers(ctx context.Context, db *pgxpool.Pool, bankID uint64, password string, bankKeyTTL time.Duration) error {
	log.Println("  - Создание демо-пользователей...")

	hashed, err := utils.HashPassword(password)
	if err != nil {
		return err
	}

	for _, u := range demoUsers {
		var exists bool
		if err := db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)", u.Email).Scan(&exists); err != nil {
			return fmt.Errorf("ошибка при проверке пользователя %s: %w", u.Email, err)
		}
		if exists {
			log.Printf("    - Пользователь %s уже существует. Пропускаем.", u.Email)
			continue
		}

		var userBankID *uint64
		var keyHash *string
		var keyExpiresAt *time.Time
		plainKey := ""
		if u.Role == "bank" {
			userBankID = &bankID
			plainKey = utils.GenerateAccessKey()
			h, err := utils.HashPassword(plainKey)
			if err != nil {
				return err
			}
			keyHash = &h
			keyExpiresAt = utils.ToPtr(time.Now().Add(bankKeyTTL))
		}

		_, err := db.Exec(ctx, `INSERT INTO users
			(name, email, password, phone, role, bank_id, is_active, bank_access_key_hash, bank_key_expires_at)
			VALUES ($1, $2, $3, $4, $5, $6, TRUE, $7, $8)`,
			u.Name, u.Email, hashed, u.Phone, u.Role, userBankID, keyHash, keyExpiresAt,
		)
		if err != nil {
			return fmt.Errorf("не удалось создать пользователя %s: %w", u.Email, err)
		}
		log.Printf("    - Создан пользователь %s (%s)", u.Email, u.Role)
		if plainKey != "" {
			log.Printf("      Ключ доступа банка: %s", plainKey)
		}
	}
	return nil
}
