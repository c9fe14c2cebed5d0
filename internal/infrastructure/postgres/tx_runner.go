package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/invorya-stock/internal/domain/repository"
)

var (
	_ repository.TxRunner = (*TxRunner)(nil)
	_ repository.Tx       = (*txRepos)(nil)
)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL (READ COMMITTED).
// La serialización sobre stock_level la dan los SELECT ... FOR UPDATE y el UPDATE con guarda.
type TxRunner struct {
	pool        *pgxpool.Pool
	lockTimeout time.Duration
}

// NewTxRunner construye el runner con el pool. lockTimeout 0 = esperar indefinidamente los locks.
func NewTxRunner(pool *pgxpool.Pool, lockTimeout time.Duration) *TxRunner {
	return &TxRunner{pool: pool, lockTimeout: lockTimeout}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// Un panic dentro de fn se convierte en error después del rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(tx repository.Tx) error) (err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("transaction panic: %v", p)
		}
		if err != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
		}
	}()

	if r.lockTimeout > 0 {
		if _, err := tx.Exec(ctx, "SELECT set_config('lock_timeout', $1, true)",
			fmt.Sprintf("%dms", r.lockTimeout.Milliseconds())); err != nil {
			return fmt.Errorf("set lock_timeout: %w", err)
		}
	}

	if err := fn(newTxRepos(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", mapError(err))
	}
	return nil
}

type txRepos struct {
	items     *InventoryItemRepo
	movements *StockMovementRepo
	invoices  *InvoiceRepo
}

func newTxRepos(q Querier) *txRepos {
	return &txRepos{
		items:     NewInventoryItemRepository(q),
		movements: NewStockMovementRepository(q),
		invoices:  NewInvoiceRepository(q),
	}
}

func (t *txRepos) Items() repository.InventoryItemRepository     { return t.items }
func (t *txRepos) Movements() repository.StockMovementRepository { return t.movements }
func (t *txRepos) Invoices() repository.InvoiceRepository        { return t.invoices }
