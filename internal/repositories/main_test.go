package repositories

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"delivery-system/pkg/database/postgresql"
)

var testPool *pgxpool.Pool

// TestMain поднимает PostgreSQL в контейнере и применяет миграции.
// Без Docker интеграционные тесты пропускаются.
func TestMain(m *testing.M) {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("delivery_test"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		log.Printf("PostgreSQL-контейнер не запущен, интеграционные тесты пропущены: %v", err)
		os.Exit(m.Run())
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		log.Fatalf("Не удалось получить строку подключения: %v", err)
	}
	testPool, err = postgresql.ConnectDB(ctx, dsn, zap.NewNop())
	if err != nil {
		log.Fatalf("Не удалось подключиться к тестовой БД: %v", err)
	}
	if err := postgresql.Migrate(ctx, testPool, "up"); err != nil {
		log.Fatalf("Не удалось применить миграции: %v", err)
	}

	code := m.Run()

	testPool.Close()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func requireDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testPool == nil {
		t.Skip("нет тестовой БД")
	}
	return testPool
}

// cleanupTables очищает таблицы; справочник статусов остаётся из миграции.
func cleanupTables(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	_, err := pool.Exec(context.Background(), `TRUNCATE TABLE notifications, activity_log, agent_report_orders,
		agent_report_bank, agent_reports, order_photos, order_files, order_comments, orders, users, banks
		RESTART IDENTITY CASCADE`)
	require.NoError(t, err, "Не удалось очистить таблицы")
}

type seeded struct {
	bankID    uint64
	otherBank uint64
	adminID   uint64
	courierID uint64
}

func seedData(t *testing.T, pool *pgxpool.Pool) seeded {
	t.Helper()
	ctx := context.Background()
	var s seeded

	require.NoError(t, pool.QueryRow(ctx, `INSERT INTO banks (name, order_prefix) VALUES ('Альфа Банк', 'AL') RETURNING id`).Scan(&s.bankID))
	require.NoError(t, pool.QueryRow(ctx, `INSERT INTO banks (name) VALUES ('Бета') RETURNING id`).Scan(&s.otherBank))
	require.NoError(t, pool.QueryRow(ctx,
		`INSERT INTO users (name, email, password, role) VALUES ('Админ', 'admin@test.ru', 'x', 'admin') RETURNING id`).Scan(&s.adminID))
	require.NoError(t, pool.QueryRow(ctx,
		`INSERT INTO users (name, email, password, role) VALUES ('Курьер', 'courier@test.ru', 'x', 'courier') RETURNING id`).Scan(&s.courierID))
	return s
}
