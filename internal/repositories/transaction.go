package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"equipment-registry/internal/observability/metrics"
)

// TxManagerInterface - граница транзакции для изменения, удаления и восстановления оборудования
// и для изменения и удаления типов.
type TxManagerInterface interface {
	RunInTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error
}

type TxManager struct {
	pool *pgxpool.Pool
}

func NewTxManager(pool *pgxpool.Pool) TxManagerInterface {
	return &TxManager{pool: pool}
}

// RunInTransaction выполняет fn в одной транзакции. Ошибка или паника в fn - откат.
// Строки, прочитанные через FindEquipment(tx) и FindEquipmentType(tx), заблокированы до конца fn.
func (m *TxManager) RunInTransaction(ctx context.Context, fn func(tx pgx.Tx) error) (err error) {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("не удалось начать транзакцию: %w", err)
	}

	defer func() {
		p := recover()
		if p == nil && err == nil {
			if err = tx.Commit(ctx); err == nil {
				metrics.IncTransaction("commit")
				return
			}
			err = fmt.Errorf("ошибка при коммите транзакции: %w", err)
		}
		_ = tx.Rollback(ctx)
		metrics.IncTransaction("rollback")
		if p != nil {
			panic(p)
		}
	}()

	return fn(tx)
}
