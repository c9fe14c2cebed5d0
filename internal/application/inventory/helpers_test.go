package inventory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jhoicas/invorya-stock/internal/domain/entity"
	"github.com/jhoicas/invorya-stock/internal/domain/repository"
	"github.com/jhoicas/invorya-stock/internal/infrastructure/memory"
)

const (
	testOrg      = "org-1"
	otherOrg     = "org-2"
	testUser     = "user-1"
	testInvoice  = "INV-1"
	testInvoice2 = "INV-2"
)

var testActor = entity.Actor{OrganizationID: testOrg, UserID: testUser, Kind: entity.ActorKindUser, Role: "admin"}

// seedItem inserta un ítem activo directamente en el almacén.
func seedItem(t *testing.T, store *memory.Store, id string, stock, reorder int64) *entity.InventoryItem {
	t.Helper()
	it := &entity.InventoryItem{
		ID:             id,
		OrganizationID: testOrg,
		Name:           "Item " + id,
		SKU:            "SKU-" + id,
		StockLevel:     stock,
		ReorderLevel:   reorder,
		UnitOfMeasure:  "UND",
		Active:         true,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	require.NoError(t, store.Items().Create(context.Background(), it))
	return it
}

func stockOf(t *testing.T, store *memory.Store, id string) int64 {
	t.Helper()
	it, err := store.Items().GetByID(context.Background(), testOrg, id)
	require.NoError(t, err)
	require.NotNil(t, it)
	return it.StockLevel
}

func movementsOf(t *testing.T, store *memory.Store, id string) []*entity.StockMovement {
	t.Helper()
	movs, err := store.Movements().ListByItem(context.Background(), testOrg, id, nil, nil, 0, 0)
	require.NoError(t, err)
	return movs
}

func invoiceMovements(t *testing.T, store *memory.Store, invoiceID string) []*entity.StockMovement {
	t.Helper()
	movs, err := store.Movements().ListByReference(context.Background(), testOrg, entity.ReferenceTypeInvoice, invoiceID)
	require.NoError(t, err)
	return movs
}

// inTx ejecuta fn en una transacción del almacén.
func inTx(store *memory.Store, fn func(tx repository.Tx) error) error {
	return store.Run(context.Background(), fn)
}
