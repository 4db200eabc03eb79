package seeders

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

// КЛЮЧИК: true - обновить название/цвет, если статус с таким ID уже существует.
const updateIfExists_Statuses = false

func seedStatuses(ctx context.Context, db *pgxpool.Pool) error {
	log.Println("  - Наполнение таблицы 'order_statuses'...")

	var query string
	if updateIfExists_Statuses {
		query = `INSERT INTO order_statuses (id, title, color) VALUES ($1, $2, $3)
				 ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title, color = EXCLUDED.color, updated_at = NOW();`
		log.Println("    - Стратегия: Обновление существующих статусов (UPSERT)")
	} else {
		query = `INSERT INTO order_statuses (id, title, color) VALUES ($1, $2, $3)
				 ON CONFLICT (id) DO NOTHING;`
		log.Println("    - Стратегия: Пропуск существующих статусов (IGNORE)")
	}

	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, s := range statusesData {
		if _, err := tx.Exec(ctx, query, s.ID, s.Title, s.Color); err != nil {
			log.Printf("Ошибка при вставке/обновлении статуса '%s': %v", s.Title, err)
			return err
		}
	}
	// последовательность должна идти после защищённых id 1-6
	if _, err := tx.Exec(ctx, "SELECT setval('order_statuses_id_seq', GREATEST((SELECT MAX(id) FROM order_statuses), 6))"); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	log.Println("    - Статусы заказов готовы")
	return nil
}
