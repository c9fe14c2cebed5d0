package inventory

import (
	"context"
	"fmt"

	"github.com/jhoicas/invorya-stock/internal/domain"
	"github.com/jhoicas/invorya-stock/internal/domain/entity"
	"github.com/jhoicas/invorya-stock/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// AvailabilityRequest par (ítem, cantidad solicitada). La cantidad puede ser fraccionaria.
type AvailabilityRequest struct {
	ItemID   string
	Quantity decimal.Decimal
}

// ItemAvailability resultado por ítem.
type ItemAvailability struct {
	ItemID     string
	Name       string
	SKU        string
	Found      bool // existe en la organización y está activo
	Available  int64
	Requested  decimal.Decimal
	Sufficient bool
}

// AvailabilityResult resultado agregado: Valid solo si todos los ítems alcanzan.
type AvailabilityResult struct {
	Valid      bool
	Items      []ItemAvailability
	Shortfalls []domain.StockShortfall
}

// Err convierte un resultado inválido en *domain.InsufficientStockError (nil si es válido).
func (r *AvailabilityResult) Err() error {
	if r.Valid {
		return nil
	}
	return &domain.InsufficientStockError{Shortfalls: r.Shortfalls}
}

// AvailabilityChecker consulta suficiencia de stock sin mutar estado.
// Es un chequeo previo (advisory): la validación autoritativa se repite dentro de la
// transacción en StockEngine.Deduct.
type AvailabilityChecker struct {
	itemRepo repository.InventoryItemRepository
}

// NewAvailabilityChecker construye el verificador.
func NewAvailabilityChecker(itemRepo repository.InventoryItemRepository) *AvailabilityChecker {
	return &AvailabilityChecker{itemRepo: itemRepo}
}

// Check hace una sola lectura en lote y compara stock contra lo solicitado.
// Solicitudes repetidas para el mismo ítem se suman. Un faltante no es un error:
// solo los fallos de infraestructura retornan error.
func (c *AvailabilityChecker) Check(ctx context.Context, orgID string, requests []AvailabilityRequest) (*AvailabilityResult, error) {
	merged, order, err := mergeRequests(requests)
	if err != nil {
		return nil, err
	}
	items, err := c.itemRepo.GetMany(ctx, orgID, order)
	if err != nil {
		return nil, fmt.Errorf("check availability: %w", err)
	}
	return evaluate(items, merged, order), nil
}

func evaluate(items []*entity.InventoryItem, merged map[string]decimal.Decimal, order []string) *AvailabilityResult {
	byID := make(map[string]*entity.InventoryItem, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}
	res := &AvailabilityResult{Valid: true, Items: make([]ItemAvailability, 0, len(order))}
	for _, id := range order {
		requested := merged[id]
		av := ItemAvailability{ItemID: id, Requested: requested}
		if it, ok := byID[id]; ok && it.Active {
			av.Found = true
			av.Name = it.Name
			av.SKU = it.SKU
			av.Available = it.StockLevel
			av.Sufficient = it.CanSupply(requested)
		}
		if !av.Sufficient {
			res.Valid = false
			res.Shortfalls = append(res.Shortfalls, domain.StockShortfall{
				ItemID:    id,
				Name:      av.Name,
				SKU:       av.SKU,
				Available: av.Available,
				Requested: requested,
				Missing:   requested.Sub(decimal.NewFromInt(av.Available)),
			})
		}
		res.Items = append(res.Items, av)
	}
	return res
}

// mergeRequests suma cantidades por ítem preservando el orden de aparición.
func mergeRequests(requests []AvailabilityRequest) (map[string]decimal.Decimal, []string, error) {
	merged := make(map[string]decimal.Decimal, len(requests))
	order := make([]string, 0, len(requests))
	for _, r := range requests {
		if r.ItemID == "" || r.Quantity.IsNegative() {
			return nil, nil, domain.ErrInvalidInput
		}
		if _, ok := merged[r.ItemID]; !ok {
			order = append(order, r.ItemID)
			merged[r.ItemID] = decimal.Zero
		}
		merged[r.ItemID] = merged[r.ItemID].Add(r.Quantity)
	}
	return merged, order, nil
}
