package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func countBanks(t *testing.T, pool *pgxpool.Pool, name string) int {
	t.Helper()
	var n int
	require.NoError(t, pool.QueryRow(context.Background(), `SELECT COUNT(*) FROM banks WHERE name = $1`, name).Scan(&n))
	return n
}

func insertBank(ctx context.Context, tx pgx.Tx, name string) error {
	_, err := tx.Exec(ctx, `INSERT INTO banks (name) VALUES ($1)`, name)
	return err
}

func TestTxManager_Integration(t *testing.T) {
	pool := requireDB(t)
	cleanupTables(t, pool)
	tm := NewTxManager(pool, zap.NewNop())
	ctx := context.Background()

	t.Run("коммит", func(t *testing.T) {
		err := tm.RunInTransaction(ctx, func(tx pgx.Tx) error { return insertBank(ctx, tx, "Коммит") })
		require.NoError(t, err)
		assert.Equal(t, 1, countBanks(t, pool, "Коммит"))
	})

	t.Run("ошибка откатывает", func(t *testing.T) {
		stop := errors.New("стоп")
		err := tm.RunInTransaction(ctx, func(tx pgx.Tx) error {
			require.NoError(t, insertBank(ctx, tx, "Откат"))
			return stop
		})
		assert.ErrorIs(t, err, stop)
		assert.Zero(t, countBanks(t, pool, "Откат"))
	})

	t.Run("паника откатывает", func(t *testing.T) {
		assert.Panics(t, func() {
			_ = tm.RunInTransaction(ctx, func(tx pgx.Tx) error {
				require.NoError(t, insertBank(ctx, tx, "Паника"))
				panic("сбой")
			})
		})
		assert.Zero(t, countBanks(t, pool, "Паника"))
	})

	t.Run("отменённый контекст", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		err := tm.RunInTransaction(cctx, func(tx pgx.Tx) error {
			require.NoError(t, insertBank(cctx, tx, "Отмена"))
			cancel()
			return cctx.Err()
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Zero(t, countBanks(t, pool, "Отмена"))
	})
}
