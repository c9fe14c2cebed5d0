package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// InventoryItem representa una unidad vendible/almacenable de una organización.
// StockLevel solo cambia a través de los motores de deducción, restauración y ajuste;
// nunca por asignación directa del campo.
type InventoryItem struct {
	ID             string
	OrganizationID string
	Name           string
	SKU            string // único por organización
	StockLevel     int64  // siempre >= 0
	ReorderLevel   int64  // umbral de stock bajo (solo informativo)
	UnitOfMeasure  string
	UnitPrice      decimal.Decimal
	CostPrice      *decimal.Decimal
	Category       string
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsLowStock indica si el ítem está en o por debajo del nivel de reorden.
func (i *InventoryItem) IsLowStock() bool {
	return i.StockLevel <= i.ReorderLevel
}

// CanSupply compara el stock entero contra una cantidad solicitada (posiblemente fraccionaria).
func (i *InventoryItem) CanSupply(requested decimal.Decimal) bool {
	return decimal.NewFromInt(i.StockLevel).GreaterThanOrEqual(requested)
}

// Margin devuelve precio - costo; cero si el costo no está definido.
func (i *InventoryItem) Margin() decimal.Decimal {
	if i.CostPrice == nil {
		return decimal.Zero
	}
	return i.UnitPrice.Sub(*i.CostPrice)
}
