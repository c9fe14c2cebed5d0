package inventory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/invorya-stock/internal/application/dto"
	appinv "github.com/jhoicas/invorya-stock/internal/application/inventory"
	"github.com/jhoicas/invorya-stock/internal/application/ports"
	"github.com/jhoicas/invorya-stock/internal/domain"
	"github.com/jhoicas/invorya-stock/internal/domain/entity"
	"github.com/jhoicas/invorya-stock/internal/domain/repository"
	"github.com/jhoicas/invorya-stock/internal/infrastructure/memory"
)

type mapCache struct {
	mu    sync.Mutex
	items map[string]*entity.InventoryItem
	hits  int
}

func newMapCache() *mapCache { return &mapCache{items: make(map[string]*entity.InventoryItem)} }

func (c *mapCache) Get(_ context.Context, orgID, id string) (*entity.InventoryItem, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	it, ok := c.items[orgID+"/"+id]
	if ok {
		c.hits++
	}
	return it, ok, nil
}

func (c *mapCache) Set(_ context.Context, item *entity.InventoryItem) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[item.OrganizationID+"/"+item.ID] = item
	return nil
}

func (c *mapCache) Invalidate(_ context.Context, orgID string, ids ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		delete(c.items, orgID+"/"+id)
	}
	return nil
}

type fakeRenderer struct {
	item      *entity.InventoryItem
	movements []*entity.StockMovement
}

func (r *fakeRenderer) RenderStockCard(_ context.Context, item *entity.InventoryItem, movs []*entity.StockMovement, _ time.Time) ([]byte, error) {
	r.item = item
	r.movements = movs
	return []byte("%PDF-1.4"), nil
}

func newItemUC(store *memory.Store, cache appinv.ItemCache, renderer appinv.StockCardRenderer, sink ports.EventSink) *appinv.ItemUseCase {
	return appinv.NewItemUseCase(store, store.Items(), store.Movements(), cache, renderer, sink, nil)
}

func TestItemCreate_RegistraMovimientoInicial(t *testing.T) {
	store := memory.NewStore()
	sink := &recordingSink{}
	uc := newItemUC(store, nil, nil, sink)

	resp, err := uc.Create(context.Background(), testActor, dto.CreateItemRequest{
		Name: "Tornillo", SKU: " tor 001 ", InitialStock: 40, ReorderLevel: 10, UnitPrice: decimal.NewFromInt(500),
	})
	require.NoError(t, err)
	assert.Equal(t, "TOR-001", resp.SKU)
	assert.Equal(t, "UND", resp.UnitOfMeasure)
	assert.Equal(t, int64(40), resp.StockLevel)
	assert.True(t, resp.Active)

	movs, err := store.Movements().ListByItem(context.Background(), testOrg, resp.ID, nil, nil, 0, 0)
	require.NoError(t, err)
	require.Len(t, movs, 1)
	assert.Equal(t, entity.MovementTypeInitial, movs[0].Type)
	assert.Equal(t, int64(0), movs[0].PreviousLevel)
	assert.Equal(t, int64(40), movs[0].NewLevel)
	assert.Equal(t, []string{ports.EventItemCreated}, sink.types())
}

func TestItemCreate_SinStockNoCreaMovimiento(t *testing.T) {
	store := memory.NewStore()
	uc := newItemUC(store, nil, nil, nil)

	resp, err := uc.Create(context.Background(), testActor, dto.CreateItemRequest{Name: "Servicio", SKU: "SRV"})
	require.NoError(t, err)
	movs, err := store.Movements().ListByItem(context.Background(), testOrg, resp.ID, nil, nil, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, movs)
}

func TestItemCreate_SKUDuplicadoEnLaOrganizacion(t *testing.T) {
	store := memory.NewStore()
	uc := newItemUC(store, nil, nil, nil)

	_, err := uc.Create(context.Background(), testActor, dto.CreateItemRequest{Name: "A", SKU: "abc", InitialStock: 1})
	require.NoError(t, err)
	_, err = uc.Create(context.Background(), testActor, dto.CreateItemRequest{Name: "B", SKU: "ABC", InitialStock: 1})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	foreign := testActor
	foreign.OrganizationID = otherOrg
	_, err = uc.Create(context.Background(), foreign, dto.CreateItemRequest{Name: "C", SKU: "ABC"})
	assert.NoError(t, err, "el SKU es único por organización")
}

func TestItemCreate_DatosInvalidos(t *testing.T) {
	uc := newItemUC(memory.NewStore(), nil, nil, nil)
	neg := decimal.NewFromInt(-1)
	for name, in := range map[string]dto.CreateItemRequest{
		"sin nombre":       {SKU: "A"},
		"sku vacío":        {Name: "A", SKU: "   "},
		"stock negativo":   {Name: "A", SKU: "A", InitialStock: -1},
		"costo negativo":   {Name: "A", SKU: "A", CostPrice: &neg},
		"precio negativo":  {Name: "A", SKU: "A", UnitPrice: neg},
		"reorden negativo": {Name: "A", SKU: "A", ReorderLevel: -2},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := uc.Create(context.Background(), testActor, in)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestItemGet_UsaCache(t *testing.T) {
	store := memory.NewStore()
	seedItem(t, store, "x", 5, 0)
	cache := newMapCache()
	uc := newItemUC(store, cache, nil, nil)

	_, err := uc.Get(context.Background(), testOrg, "x")
	require.NoError(t, err)
	resp, err := uc.Get(context.Background(), testOrg, "x")
	require.NoError(t, err)
	assert.Equal(t, int64(5), resp.StockLevel)
	assert.Equal(t, 1, cache.hits)

	_, err = uc.Get(context.Background(), otherOrg, "x")
	assert.ErrorIs(t, err, domain.ErrItemNotFound)
}

func TestItemUpdate_NoTocaElStock(t *testing.T) {
	store := memory.NewStore()
	seedItem(t, store, "x", 5, 0)
	uc := newItemUC(store, nil, nil, nil)
	name := "Nuevo nombre"
	reorder := int64(8)

	resp, err := uc.Update(context.Background(), testActor, "x", dto.UpdateItemRequest{Name: &name, ReorderLevel: &reorder})
	require.NoError(t, err)
	assert.Equal(t, name, resp.Name)
	assert.True(t, resp.LowStock)
	assert.Equal(t, int64(5), stockOf(t, store, "x"))
}

func TestItemDeactivate_BloqueaDeduccionYConservaHistorial(t *testing.T) {
	store := memory.NewStore()
	seedItem(t, store, "x", 5, 0)
	_, err := deduct(store, testInvoice, appinv.DeductionRequest{ItemID: "x", Quantity: 1})
	require.NoError(t, err)
	sink := &recordingSink{}
	uc := newItemUC(store, nil, nil, sink)

	require.NoError(t, uc.Deactivate(context.Background(), testActor, "x"))
	require.NoError(t, uc.Deactivate(context.Background(), testActor, "x"), "desactivar dos veces no falla")
	_, err = deduct(store, testInvoice2, appinv.DeductionRequest{ItemID: "x", Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrItemNotFound)
	assert.Len(t, movementsOf(t, store, "x"), 1)

	require.NoError(t, uc.Reactivate(context.Background(), testActor, "x"))
	_, err = deduct(store, testInvoice2, appinv.DeductionRequest{ItemID: "x", Quantity: 1})
	assert.NoError(t, err)
	assert.Equal(t, []string{ports.EventItemDeactivated, ports.EventItemReactivated}, sink.types())
}

func TestItemLowStock_SugerenciasDeReposicion(t *testing.T) {
	store := memory.NewStore()
	seedItem(t, store, "ok", 50, 10)
	seedItem(t, store, "low", 4, 10)
	seedItem(t, store, "out", 0, 3)
	cost := decimal.NewFromInt(2)
	require.NoError(t, store.Items().UpdateCostPrice(context.Background(), testOrg, "low", cost))
	uc := newItemUC(store, nil, nil, nil)

	got, err := uc.LowStock(context.Background(), testOrg)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "out", got[0].ItemID)
	assert.Equal(t, 1, got[0].Priority)
	assert.Equal(t, int64(5), got[0].SuggestedOrderQty)
	assert.Equal(t, "low", got[1].ItemID)
	assert.Equal(t, int64(11), got[1].SuggestedOrderQty)
	require.NotNil(t, got[1].EstimatedOrderCost)
	assert.True(t, got[1].EstimatedOrderCost.Equal(decimal.NewFromInt(22)))
}

func TestItemReconcile_LibroCuadraConElStock(t *testing.T) {
	store := memory.NewStore()
	uc := newItemUC(store, nil, nil, nil)
	resp, err := uc.Create(context.Background(), testActor, dto.CreateItemRequest{Name: "A", SKU: "A", InitialStock: 10})
	require.NoError(t, err)
	_, err = deduct(store, testInvoice, appinv.DeductionRequest{ItemID: resp.ID, Quantity: 4})
	require.NoError(t, err)
	_, err = restore(store, testInvoice)
	require.NoError(t, err)
	_, err = appinv.NewAdjustmentUseCase(store, nil, nil).Adjust(context.Background(), testActor, appinv.AdjustmentInput{
		ItemID: resp.ID, Quantity: -1, Type: entity.MovementTypeDamage, Reason: "rotura",
	})
	require.NoError(t, err)

	rec, err := uc.Reconcile(context.Background(), testOrg, resp.ID)
	require.NoError(t, err)
	assert.True(t, rec.Consistent)
	assert.Equal(t, int64(9), rec.StockLevel)
	assert.Equal(t, int64(9), rec.LedgerTotal)
	assert.Equal(t, 4, rec.MovementCount)
}

func TestItemReconcile_DetectaDescuadre(t *testing.T) {
	store := memory.NewStore()
	seedItem(t, store, "x", 5, 0) // sembrado sin movimiento INITIAL
	uc := newItemUC(store, nil, nil, nil)

	rec, err := uc.Reconcile(context.Background(), testOrg, "x")
	require.NoError(t, err)
	assert.False(t, rec.Consistent)
	assert.Equal(t, int64(0), rec.LedgerTotal)
}

func TestItemMovements_MasRecientePrimero(t *testing.T) {
	store := memory.NewStore()
	seedItem(t, store, "x", 10, 0)
	_, err := deduct(store, testInvoice, appinv.DeductionRequest{ItemID: "x", Quantity: 1})
	require.NoError(t, err)
	_, err = deduct(store, testInvoice2, appinv.DeductionRequest{ItemID: "x", Quantity: 2})
	require.NoError(t, err)
	uc := newItemUC(store, nil, nil, nil)

	resp, err := uc.Movements(context.Background(), testOrg, "x", nil, nil, dto.PageRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, int64(-2), resp.Items[0].Quantity)
	assert.Equal(t, 20, resp.Page.Limit)

	_, err = uc.Movements(context.Background(), otherOrg, "x", nil, nil, dto.PageRequest{})
	assert.ErrorIs(t, err, domain.ErrItemNotFound)
}

func TestItemStockCard_OrdenCronologico(t *testing.T) {
	store := memory.NewStore()
	seedItem(t, store, "x", 10, 0)
	_, err := deduct(store, testInvoice, appinv.DeductionRequest{ItemID: "x", Quantity: 1})
	require.NoError(t, err)
	_, err = deduct(store, testInvoice2, appinv.DeductionRequest{ItemID: "x", Quantity: 2})
	require.NoError(t, err)
	r := &fakeRenderer{}
	uc := newItemUC(store, nil, r, nil)

	pdf, err := uc.StockCardPDF(context.Background(), testOrg, "x")
	require.NoError(t, err)
	assert.NotEmpty(t, pdf)
	require.Len(t, r.movements, 2)
	assert.Equal(t, int64(-1), r.movements[0].Quantity)
	assert.Equal(t, "x", r.item.ID)
}

func TestItemList_FiltraPorBusqueda(t *testing.T) {
	store := memory.NewStore()
	seedItem(t, store, "a", 1, 0)
	seedItem(t, store, "b", 1, 0)
	uc := newItemUC(store, nil, nil, nil)

	resp, err := uc.List(context.Background(), testOrg, repository.ItemFilter{Search: "sku-b"})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "b", resp.Items[0].ID)
}
