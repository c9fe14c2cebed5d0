package postgres_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/sync/errgroup"

	appinv "github.com/jhoicas/invorya-stock/internal/application/inventory"
	"github.com/jhoicas/invorya-stock/internal/domain"
	"github.com/jhoicas/invorya-stock/internal/domain/entity"
	"github.com/jhoicas/invorya-stock/internal/domain/repository"
	"github.com/jhoicas/invorya-stock/internal/infrastructure/postgres"
	"github.com/jhoicas/invorya-stock/pkg/config"
)

const org = "org-pg"

var actor = entity.Actor{OrganizationID: org, UserID: "user-pg", Kind: entity.ActorKindUser, Role: "admin"}

// startPostgres levanta un contenedor PostgreSQL con las migraciones aplicadas.
func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("integración con PostgreSQL omitida en modo -short")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("stock_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	mg, err := postgres.NewMigrator(dsn, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, mg.Up())
	version, dirty, err := mg.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.False(t, dirty)
	require.NoError(t, mg.Close())

	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: dsn, MaxConns: 30})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func seed(t *testing.T, pool *pgxpool.Pool, id string, stock int64) *entity.InventoryItem {
	t.Helper()
	now := time.Now().UTC()
	it := &entity.InventoryItem{
		ID:             id,
		OrganizationID: org,
		Name:           "Producto " + id,
		SKU:            "SKU-" + id,
		StockLevel:     stock,
		ReorderLevel:   2,
		UnitOfMeasure:  "UND",
		UnitPrice:      decimal.NewFromInt(1000),
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	require.NoError(t, postgres.NewInventoryItemRepository(pool).Create(context.Background(), it))
	return it
}

func level(t *testing.T, pool *pgxpool.Pool, id string) int64 {
	t.Helper()
	it, err := postgres.NewInventoryItemRepository(pool).GetByID(context.Background(), org, id)
	require.NoError(t, err)
	require.NotNil(t, it)
	return it.StockLevel
}

func TestPostgres_Integracion(t *testing.T) {
	pool := startPostgres(t)
	ctx := context.Background()
	items := postgres.NewInventoryItemRepository(pool)
	movements := postgres.NewStockMovementRepository(pool)
	invoices := postgres.NewInvoiceRepository(pool)
	runner := postgres.NewTxRunner(pool, 5*time.Second)
	engine := appinv.NewStockEngine()

	// ──────────────────────────────────────────────────────────────
	// Ítems
	// ──────────────────────────────────────────────────────────────

	t.Run("Items_CRUD_y_SKU_duplicado", func(t *testing.T) {
		it := seed(t, pool, "crud-1", 5)
		cost := decimal.RequireFromString("12.5")
		require.NoError(t, items.UpdateCostPrice(ctx, org, it.ID, cost))

		got, err := items.GetByID(ctx, org, it.ID)
		require.NoError(t, err)
		require.NotNil(t, got.CostPrice)
		assert.True(t, got.CostPrice.Equal(cost))
		assert.True(t, got.UnitPrice.Equal(decimal.NewFromInt(1000)))

		dup := *it
		dup.ID = "crud-dup"
		assert.ErrorIs(t, items.Create(ctx, &dup), domain.ErrDuplicate)

		missing, err := items.GetByID(ctx, org, "no-existe")
		require.NoError(t, err)
		assert.Nil(t, missing)

		foreign, err := items.GetByID(ctx, "otra-org", it.ID)
		require.NoError(t, err)
		assert.Nil(t, foreign)

		bySKU, err := items.GetBySKU(ctx, org, "SKU-crud-1")
		require.NoError(t, err)
		require.NotNil(t, bySKU)
		assert.Equal(t, it.ID, bySKU.ID)

		got.Name = "Renombrado"
		got.UpdatedAt = time.Now().UTC()
		require.NoError(t, items.Update(ctx, got))
		list, err := items.List(ctx, org, repository.ItemFilter{Search: "renombr"})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "Renombrado", list[0].Name)

		require.NoError(t, items.SetActive(ctx, org, it.ID, false))
		active, err := items.List(ctx, org, repository.ItemFilter{ActiveOnly: true, Search: "renombr"})
		require.NoError(t, err)
		assert.Empty(t, active)
		assert.ErrorIs(t, items.SetActive(ctx, org, "no-existe", true), domain.ErrNotFound)
	})

	t.Run("Decrement_con_guarda_e_Increment", func(t *testing.T) {
		seed(t, pool, "guard-1", 3)
		lvl, err := items.Decrement(ctx, org, "guard-1", 2)
		require.NoError(t, err)
		assert.Equal(t, int64(1), lvl)

		_, err = items.Decrement(ctx, org, "guard-1", 2)
		assert.ErrorIs(t, err, domain.ErrStockConflict)
		assert.Equal(t, int64(1), level(t, pool, "guard-1"))

		lvl, err = items.Increment(ctx, org, "guard-1", 4)
		require.NoError(t, err)
		assert.Equal(t, int64(5), lvl)

		_, err = items.Increment(ctx, org, "no-existe", 1)
		assert.ErrorIs(t, err, domain.ErrItemNotFound)
	})

	// ──────────────────────────────────────────────────────────────
	// Libro de movimientos
	// ──────────────────────────────────────────────────────────────

	t.Run("Libro_append_only_y_check_de_niveles", func(t *testing.T) {
		seed(t, pool, "ledger-1", 10)
		ref := "INV-LEDGER"
		mov := &entity.StockMovement{
			ID: "mov-ledger-1", OrganizationID: org, InventoryItemID: "ledger-1",
			Type: entity.MovementTypeSale, Quantity: -2, PreviousLevel: 10, NewLevel: 8,
			ReferenceType: entity.ReferenceTypeInvoice, ReferenceID: &ref,
			ActorID: actor.UserID, ActorKind: entity.ActorKindUser, CreatedAt: time.Now().UTC(),
		}
		require.NoError(t, movements.Create(ctx, mov))

		_, err := pool.Exec(ctx, `UPDATE stock_movements SET quantity = 0 WHERE id = $1`, mov.ID)
		var pgErr *pgconn.PgError
		require.True(t, errors.As(err, &pgErr))
		assert.Equal(t, "23001", pgErr.Code)

		_, err = pool.Exec(ctx, `DELETE FROM stock_movements WHERE id = $1`, mov.ID)
		require.Error(t, err)

		broken := *mov
		broken.ID = "mov-ledger-broken"
		broken.NewLevel = 9
		assert.ErrorIs(t, movements.Create(ctx, &broken), domain.ErrInvalidInput)

		total, count, err := movements.SumByItem(ctx, org, "ledger-1")
		require.NoError(t, err)
		assert.Equal(t, int64(-2), total)
		assert.Equal(t, 1, count)

		byRef, err := movements.ListByReference(ctx, org, entity.ReferenceTypeInvoice, ref)
		require.NoError(t, err)
		require.Len(t, byRef, 1)
		require.NotNil(t, byRef[0].ReferenceID)
		assert.Equal(t, ref, *byRef[0].ReferenceID)
		assert.True(t, byRef[0].Consistent())
	})

	// ──────────────────────────────────────────────────────────────
	// Transacciones y motor de stock
	// ──────────────────────────────────────────────────────────────

	t.Run("Rollback_deshace_decremento_y_movimientos", func(t *testing.T) {
		seed(t, pool, "rb-1", 10)
		boom := errors.New("fallo simulado")
		err := runner.Run(ctx, func(tx repository.Tx) error {
			if _, err := engine.Deduct(ctx, tx, actor, []appinv.DeductionRequest{{ItemID: "rb-1", Quantity: 4}}, "INV-RB"); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, int64(10), level(t, pool, "rb-1"))
		movs, err := movements.ListByReference(ctx, org, entity.ReferenceTypeInvoice, "INV-RB")
		require.NoError(t, err)
		assert.Empty(t, movs)
	})

	t.Run("Panic_en_transaccion_hace_rollback", func(t *testing.T) {
		seed(t, pool, "panic-1", 3)
		err := runner.Run(ctx, func(tx repository.Tx) error {
			if _, err := tx.Items().Decrement(ctx, org, "panic-1", 1); err != nil {
				return err
			}
			panic("explota")
		})
		require.Error(t, err)
		assert.Equal(t, int64(3), level(t, pool, "panic-1"))
	})

	t.Run("Deducciones_concurrentes_nunca_sobrevenden", func(t *testing.T) {
		seed(t, pool, "conc-1", 10)
		const workers = 25
		var (
			mu        sync.Mutex
			succeeded int
			shortfall int
		)
		var g errgroup.Group
		for i := 0; i < workers; i++ {
			invoiceID := fmt.Sprintf("INV-CONC-%d", i)
			g.Go(func() error {
				err := runner.Run(ctx, func(tx repository.Tx) error {
					_, err := engine.Deduct(ctx, tx, actor, []appinv.DeductionRequest{{ItemID: "conc-1", Quantity: 1}}, invoiceID)
					return err
				})
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					succeeded++
				case errors.Is(err, domain.ErrInsufficientStock):
					shortfall++
				default:
					return err
				}
				return nil
			})
		}
		require.NoError(t, g.Wait())
		assert.Equal(t, 10, succeeded)
		assert.Equal(t, workers-10, shortfall)
		assert.Equal(t, int64(0), level(t, pool, "conc-1"))

		total, count, err := movements.SumByItem(ctx, org, "conc-1")
		require.NoError(t, err)
		assert.Equal(t, int64(-10), total)
		assert.Equal(t, 10, count)
	})

	t.Run("Deducir_y_restaurar_deja_el_stock_original", func(t *testing.T) {
		seed(t, pool, "rt-1", 8)
		seed(t, pool, "rt-2", 4)
		require.NoError(t, runner.Run(ctx, func(tx repository.Tx) error {
			_, err := engine.Deduct(ctx, tx, actor, []appinv.DeductionRequest{
				{ItemID: "rt-2", Quantity: 4},
				{ItemID: "rt-1", Quantity: 3},
			}, "INV-RT")
			return err
		}))
		assert.Equal(t, int64(5), level(t, pool, "rt-1"))
		assert.Equal(t, int64(0), level(t, pool, "rt-2"))

		var restored *appinv.RestorationResult
		require.NoError(t, runner.Run(ctx, func(tx repository.Tx) error {
			var err error
			restored, err = engine.Restore(ctx, tx, actor, "INV-RT", "anulación de prueba")
			return err
		}))
		assert.Equal(t, 2, restored.RestoredCount)
		assert.Equal(t, int64(8), level(t, pool, "rt-1"))
		assert.Equal(t, int64(4), level(t, pool, "rt-2"))

		require.NoError(t, runner.Run(ctx, func(tx repository.Tx) error {
			again, err := engine.Restore(ctx, tx, actor, "INV-RT", "")
			if err == nil {
				assert.Zero(t, again.RestoredCount)
			}
			return err
		}))

		movs, err := movements.ListByItem(ctx, org, "rt-1", nil, nil, 0, 0)
		require.NoError(t, err)
		require.Len(t, movs, 2)
		assert.Equal(t, entity.MovementTypeReturn, movs[0].Type)
		assert.Equal(t, entity.MovementTypeSale, movs[1].Type)
	})

	// ──────────────────────────────────────────────────────────────
	// Facturas
	// ──────────────────────────────────────────────────────────────

	t.Run("Facturas_lineas_y_estado", func(t *testing.T) {
		seed(t, pool, "inv-item-1", 5)
		now := time.Now().UTC()
		inv := &entity.Invoice{
			ID: "inv-pg-1", OrganizationID: org, CustomerName: "Cliente", Prefix: "FV", Number: "100",
			Status: entity.InvoiceStatusIssued, Date: now, NetTotal: decimal.NewFromInt(2000),
			GrandTotal: decimal.NewFromInt(2380), TaxTotal: decimal.NewFromInt(380),
			CreatedBy: actor.UserID, CreatedAt: now, UpdatedAt: now,
		}
		require.NoError(t, invoices.Create(ctx, inv))
		dup := *inv
		dup.ID = "inv-pg-dup"
		assert.ErrorIs(t, invoices.Create(ctx, &dup), domain.ErrDuplicate)

		itemID := "inv-item-1"
		for i, desc := range []string{"Primera", "Segunda"} {
			require.NoError(t, invoices.CreateItem(ctx, &entity.InvoiceItem{
				ID: fmt.Sprintf("line-%d", i), InvoiceID: inv.ID, Description: desc,
				Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(1000),
				TaxRate: decimal.RequireFromString("0.19"), Subtotal: decimal.NewFromInt(1000),
				InventoryItemID: &itemID, DeductFromStock: true,
			}))
		}
		assert.ErrorIs(t, invoices.CreateItem(ctx, &entity.InvoiceItem{
			ID: "line-bad", InvoiceID: inv.ID, Quantity: decimal.NewFromInt(1), DeductFromStock: true,
		}), domain.ErrInvalidInput)

		lines, err := invoices.GetItems(ctx, inv.ID)
		require.NoError(t, err)
		require.Len(t, lines, 2)
		assert.Equal(t, "Primera", lines[0].Description)
		assert.True(t, lines[0].TaxRate.Equal(decimal.RequireFromString("0.19")))
		assert.True(t, lines[1].TracksStock())

		require.NoError(t, runner.Run(ctx, func(tx repository.Tx) error {
			locked, err := tx.Invoices().GetForUpdate(ctx, org, inv.ID)
			require.NoError(t, err)
			require.NotNil(t, locked)
			return tx.Invoices().UpdateStatus(ctx, org, inv.ID, entity.InvoiceStatusCancelled, time.Now().UTC())
		}))
		assert.ErrorIs(t, invoices.UpdateStatus(ctx, org, "no-existe", entity.InvoiceStatusVoid, now), domain.ErrNotFound)

		cancelled, err := invoices.List(ctx, org, entity.InvoiceStatusCancelled, 10, 0)
		require.NoError(t, err)
		require.Len(t, cancelled, 1)
		assert.Equal(t, inv.ID, cancelled[0].ID)

		all, err := invoices.List(ctx, org, "", 0, 0)
		require.NoError(t, err)
		assert.Len(t, all, 1)

		missing, err := invoices.GetByID(ctx, org, "no-existe")
		require.NoError(t, err)
		assert.Nil(t, missing)
	})
}
