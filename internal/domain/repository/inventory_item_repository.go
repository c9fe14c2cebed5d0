package repository

import (
	"context"

	"github.com/jhoicas/invorya-stock/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// ItemFilter filtros para listar ítems de inventario.
type ItemFilter struct {
	ActiveOnly   bool
	LowStockOnly bool // stock_level <= reorder_level
	Category     string
	Search       string // nombre o SKU (contiene)
	Limit        int
	Offset       int
}

// InventoryItemRepository define el puerto de persistencia para InventoryItem (DIP).
// Todas las consultas se filtran por organización.
type InventoryItemRepository interface {
	Create(ctx context.Context, item *entity.InventoryItem) error
	GetByID(ctx context.Context, orgID, id string) (*entity.InventoryItem, error)
	GetBySKU(ctx context.Context, orgID, sku string) (*entity.InventoryItem, error)
	// GetMany lectura en lote sin bloqueo (incluye inactivos; el caller decide).
	GetMany(ctx context.Context, orgID string, ids []string) ([]*entity.InventoryItem, error)
	// GetManyForUpdate igual que GetMany pero bloquea las filas (SELECT FOR UPDATE) en orden de id.
	GetManyForUpdate(ctx context.Context, orgID string, ids []string) ([]*entity.InventoryItem, error)
	// Decrement resta qty de forma atómica (stock_level = stock_level - qty) solo si stock_level >= qty.
	// Devuelve el nuevo nivel o domain.ErrStockConflict si la guarda no se cumple.
	Decrement(ctx context.Context, orgID, id string, qty int64) (int64, error)
	// Increment suma qty de forma atómica y devuelve el nuevo nivel.
	Increment(ctx context.Context, orgID, id string, qty int64) (int64, error)
	// Update actualiza campos descriptivos; nunca stock_level ni active.
	Update(ctx context.Context, item *entity.InventoryItem) error
	UpdateCostPrice(ctx context.Context, orgID, id string, cost decimal.Decimal) error
	SetActive(ctx context.Context, orgID, id string, active bool) error
	List(ctx context.Context, orgID string, filter ItemFilter) ([]*entity.InventoryItem, error)
}
