package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateItemRequest body para POST /api/inventory/items.
type CreateItemRequest struct {
	Name          string           `json:"name" validate:"required,min=1,max=200"`
	SKU           string           `json:"sku" validate:"required,min=1,max=100"`
	InitialStock  int64            `json:"initial_stock" validate:"min=0"`
	ReorderLevel  int64            `json:"reorder_level" validate:"min=0"`
	UnitOfMeasure string           `json:"unit_of_measure" validate:"omitempty,max=20"`
	UnitPrice     decimal.Decimal  `json:"unit_price"`
	CostPrice     *decimal.Decimal `json:"cost_price,omitempty"`
	Category      string           `json:"category" validate:"omitempty,max=100"`
}

// UpdateItemRequest body para PUT /api/inventory/items/:id (sin stock ni estado).
type UpdateItemRequest struct {
	Name          *string          `json:"name" validate:"omitempty,min=1,max=200"`
	SKU           *string          `json:"sku" validate:"omitempty,min=1,max=100"`
	ReorderLevel  *int64           `json:"reorder_level" validate:"omitempty,min=0"`
	UnitOfMeasure *string          `json:"unit_of_measure" validate:"omitempty,max=20"`
	UnitPrice     *decimal.Decimal `json:"unit_price"`
	Category      *string          `json:"category" validate:"omitempty,max=100"`
}

// ItemResponse ítem de inventario en respuestas.
type ItemResponse struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	SKU           string           `json:"sku"`
	StockLevel    int64            `json:"stock_level"`
	ReorderLevel  int64            `json:"reorder_level"`
	LowStock      bool             `json:"low_stock"`
	UnitOfMeasure string           `json:"unit_of_measure"`
	UnitPrice     decimal.Decimal  `json:"unit_price"`
	CostPrice     *decimal.Decimal `json:"cost_price,omitempty"`
	Category      string           `json:"category,omitempty"`
	Active        bool             `json:"active"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// ItemListResponse lista paginada de ítems.
type ItemListResponse struct {
	Items []ItemResponse `json:"items"`
	Page  PageResponse   `json:"page"`
}

// AvailabilityRequest body para POST /api/inventory/availability.
type AvailabilityRequest struct {
	Items []AvailabilityLine `json:"items" validate:"required,min=1,dive"`
}

// AvailabilityLine par ítem/cantidad; la cantidad puede ser fraccionaria.
type AvailabilityLine struct {
	ItemID   string          `json:"item_id" validate:"required"`
	Quantity decimal.Decimal `json:"quantity"`
}

// AvailabilityResponse resultado del chequeo de disponibilidad.
type AvailabilityResponse struct {
	Valid      bool                  `json:"valid"`
	Items      []ItemAvailabilityDTO `json:"items"`
	Shortfalls []StockShortfallDTO   `json:"shortfalls"`
}

// ItemAvailabilityDTO disponibilidad por ítem.
type ItemAvailabilityDTO struct {
	ItemID     string          `json:"item_id"`
	Name       string          `json:"name,omitempty"`
	SKU        string          `json:"sku,omitempty"`
	Found      bool            `json:"found"`
	Available  int64           `json:"available"`
	Requested  decimal.Decimal `json:"requested"`
	Sufficient bool            `json:"sufficient"`
}

// StockShortfallDTO faltante de un ítem.
type StockShortfallDTO struct {
	ItemID    string          `json:"item_id"`
	Name      string          `json:"name,omitempty"`
	SKU       string          `json:"sku,omitempty"`
	Available int64           `json:"available"`
	Requested decimal.Decimal `json:"requested"`
	Missing   decimal.Decimal `json:"missing"`
}

// AdjustStockRequest body para POST /api/inventory/items/:id/adjustments.
type AdjustStockRequest struct {
	Type     string           `json:"type" validate:"required,oneof=RESTOCK ADJUSTMENT DAMAGE"`
	Quantity int64            `json:"quantity" validate:"required,ne=0"`
	Reason   string           `json:"reason" validate:"required,min=3,max=500"`
	Notes    *string          `json:"notes,omitempty" validate:"omitempty,max=2000"`
	UnitCost *decimal.Decimal `json:"unit_cost,omitempty"`
}

// AdjustStockResponse resultado de un ajuste manual.
type AdjustStockResponse struct {
	ItemID        string           `json:"item_id"`
	PreviousLevel int64            `json:"previous_level"`
	NewLevel      int64            `json:"new_level"`
	MovementID    string           `json:"movement_id"`
	CostPrice     *decimal.Decimal `json:"cost_price,omitempty"`
	LowStock      bool             `json:"low_stock"`
}

// MovementResponse fila del libro de stock.
type MovementResponse struct {
	ID            string    `json:"id"`
	ItemID        string    `json:"item_id"`
	Type          string    `json:"type"`
	Quantity      int64     `json:"quantity"`
	PreviousLevel int64     `json:"previous_level"`
	NewLevel      int64     `json:"new_level"`
	ReferenceType string    `json:"reference_type"`
	ReferenceID   *string   `json:"reference_id,omitempty"`
	Reason        *string   `json:"reason,omitempty"`
	Notes         *string   `json:"notes,omitempty"`
	ActorID       string    `json:"actor_id"`
	ActorKind     string    `json:"actor_kind"`
	CreatedAt     time.Time `json:"created_at"`
}

// MovementListResponse lista paginada de movimientos.
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// ReconcileResponse compara el nivel de stock con la suma del libro.
type ReconcileResponse struct {
	ItemID          string   `json:"item_id"`
	StockLevel      int64    `json:"stock_level"`
	LedgerTotal     int64    `json:"ledger_total"`
	MovementCount   int      `json:"movement_count"`
	Consistent      bool     `json:"consistent"`
	BrokenMovements []string `json:"broken_movements,omitempty"`
}

// ReplenishmentSuggestionDTO ítem en o por debajo de su nivel de reorden.
type ReplenishmentSuggestionDTO struct {
	ItemID             string           `json:"item_id"`
	SKU                string           `json:"sku"`
	Name               string           `json:"name"`
	StockLevel         int64            `json:"stock_level"`
	ReorderLevel       int64            `json:"reorder_level"`
	SuggestedOrderQty  int64            `json:"suggested_order_qty"` // 1.5 * reorder - stock
	EstimatedOrderCost *decimal.Decimal `json:"estimated_order_cost,omitempty"`
	Priority           int              `json:"priority"` // 1 = más urgente
}
