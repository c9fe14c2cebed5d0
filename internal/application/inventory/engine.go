package inventory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/invorya-stock/internal/domain"
	"github.com/jhoicas/invorya-stock/internal/domain/entity"
	"github.com/jhoicas/invorya-stock/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// DeductionRequest cantidad entera a descontar de un ítem.
type DeductionRequest struct {
	ItemID   string
	Quantity int64
}

// MovementLine resumen de un movimiento aplicado por el motor.
type MovementLine struct {
	ItemID        string
	Name          string
	SKU           string
	Quantity      int64 // con signo, igual que en el libro
	PreviousLevel int64
	NewLevel      int64
	MovementID    string
	LowStock      bool
}

// DeductionResult ítems descontados, en el orden de la solicitud.
type DeductionResult struct {
	DeductedItems []MovementLine
}

// RestorationResult ítems reintegrados al anular una factura.
type RestorationResult struct {
	RestoredCount int
	RestoredItems []MovementLine
}

// StockEngine motor atómico de deducción y restauración. Sus métodos reciben el Tx del
// caller y nunca abren ni confirman transacciones: cualquier error retornado obliga al
// caller a hacer rollback completo.
type StockEngine struct {
	now func() time.Time
}

// NewStockEngine construye el motor.
func NewStockEngine() *StockEngine {
	return &StockEngine{now: time.Now}
}

// Deduct valida y descuenta stock para una factura, todo o nada.
//
//  1. Relee y bloquea (FOR UPDATE) todas las filas referenciadas dentro de la transacción,
//     aunque el orquestador ya haya consultado disponibilidad.
//  2. Si algún ítem no existe o está inactivo retorna *domain.ItemUnavailableError; si alguno
//     no alcanza retorna *domain.InsufficientStockError con todos los faltantes. En ambos casos
//     no se muta nada.
//  3. Solo entonces decrementa de forma atómica y agrega un movimiento SALE por ítem.
//
// No es idempotente: dos llamadas para la misma factura descuentan dos veces.
func (e *StockEngine) Deduct(ctx context.Context, tx repository.Tx, actor entity.Actor, requests []DeductionRequest, invoiceID string) (*DeductionResult, error) {
	if actor.OrganizationID == "" || invoiceID == "" {
		return nil, domain.ErrInvalidInput
	}
	qty := make(map[string]int64, len(requests))
	order := make([]string, 0, len(requests))
	for _, r := range requests {
		if r.ItemID == "" || r.Quantity < 0 {
			return nil, domain.ErrInvalidInput
		}
		if r.Quantity == 0 {
			continue
		}
		if _, ok := qty[r.ItemID]; !ok {
			order = append(order, r.ItemID)
		}
		qty[r.ItemID] += r.Quantity
	}
	res := &DeductionResult{DeductedItems: make([]MovementLine, 0, len(order))}
	if len(order) == 0 {
		return res, nil
	}

	items, err := e.lockItems(ctx, tx, actor.OrganizationID, order)
	if err != nil {
		return nil, err
	}

	var missing []string
	for _, id := range order {
		if it, ok := items[id]; !ok || !it.Active {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, &domain.ItemUnavailableError{ItemIDs: missing}
	}

	var shortfalls []domain.StockShortfall
	for _, id := range order {
		it := items[id]
		if it.StockLevel < qty[id] {
			shortfalls = append(shortfalls, shortfall(it, qty[id]))
		}
	}
	if len(shortfalls) > 0 {
		return nil, &domain.InsufficientStockError{Shortfalls: shortfalls}
	}

	now := e.now()
	ref := invoiceID
	for _, id := range order {
		it := items[id]
		q := qty[id]
		newLevel, err := tx.Items().Decrement(ctx, actor.OrganizationID, id, q)
		if err != nil {
			return nil, fmt.Errorf("deduct item %s: %w", id, err)
		}
		mov := &entity.StockMovement{
			ID:              uuid.New().String(),
			OrganizationID:  actor.OrganizationID,
			InventoryItemID: id,
			Type:            entity.MovementTypeSale,
			Quantity:        -q,
			PreviousLevel:   newLevel + q,
			NewLevel:        newLevel,
			ReferenceType:   entity.ReferenceTypeInvoice,
			ReferenceID:     &ref,
			ActorID:         actor.UserID,
			ActorKind:       actorKind(actor),
			CreatedAt:       now,
		}
		if err := tx.Movements().Create(ctx, mov); err != nil {
			return nil, fmt.Errorf("record sale movement: %w", err)
		}
		res.DeductedItems = append(res.DeductedItems, MovementLine{
			ItemID:        id,
			Name:          it.Name,
			SKU:           it.SKU,
			Quantity:      mov.Quantity,
			PreviousLevel: mov.PreviousLevel,
			NewLevel:      mov.NewLevel,
			MovementID:    mov.ID,
			LowStock:      newLevel <= it.ReorderLevel,
		})
	}
	return res, nil
}

// Restore reintegra el stock descontado por una factura (anulación o void).
// Solo acredita lo que el libro prueba que se descontó: por ítem, lo neto de los movimientos
// SALE y RETURN que referencian la factura. Una segunda llamada no acredita nada.
// Una factura sin ítems de inventario es un no-op exitoso.
func (e *StockEngine) Restore(ctx context.Context, tx repository.Tx, actor entity.Actor, invoiceID, reason string) (*RestorationResult, error) {
	if actor.OrganizationID == "" || invoiceID == "" {
		return nil, domain.ErrInvalidInput
	}
	movs, err := tx.Movements().ListByReference(ctx, actor.OrganizationID, entity.ReferenceTypeInvoice, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list invoice movements: %w", err)
	}
	outstanding := make(map[string]int64)
	order := make([]string, 0)
	for _, m := range movs {
		if m.Type != entity.MovementTypeSale && m.Type != entity.MovementTypeReturn {
			continue
		}
		if _, ok := outstanding[m.InventoryItemID]; !ok {
			order = append(order, m.InventoryItemID)
		}
		outstanding[m.InventoryItemID] -= m.Quantity
	}
	res := &RestorationResult{RestoredItems: make([]MovementLine, 0, len(order))}
	pending := order[:0:0]
	for _, id := range order {
		if outstanding[id] > 0 {
			pending = append(pending, id)
		}
	}
	if len(pending) == 0 {
		return res, nil
	}

	items, err := e.lockItems(ctx, tx, actor.OrganizationID, pending)
	if err != nil {
		return nil, err
	}

	now := e.now()
	ref := invoiceID
	var notes *string
	if reason != "" {
		notes = &reason
	}
	for _, id := range pending {
		it, ok := items[id]
		if !ok {
			// el libro referencia un ítem que ya no existe: inconsistencia, abortar
			return nil, fmt.Errorf("restore item %s: %w", id, domain.ErrItemNotFound)
		}
		q := outstanding[id]
		newLevel, err := tx.Items().Increment(ctx, actor.OrganizationID, id, q)
		if err != nil {
			return nil, fmt.Errorf("restore item %s: %w", id, err)
		}
		mov := &entity.StockMovement{
			ID:              uuid.New().String(),
			OrganizationID:  actor.OrganizationID,
			InventoryItemID: id,
			Type:            entity.MovementTypeReturn,
			Quantity:        q,
			PreviousLevel:   newLevel - q,
			NewLevel:        newLevel,
			ReferenceType:   entity.ReferenceTypeInvoice,
			ReferenceID:     &ref,
			Notes:           notes,
			ActorID:         actor.UserID,
			ActorKind:       actorKind(actor),
			CreatedAt:       now,
		}
		if err := tx.Movements().Create(ctx, mov); err != nil {
			return nil, fmt.Errorf("record return movement: %w", err)
		}
		res.RestoredItems = append(res.RestoredItems, MovementLine{
			ItemID:        id,
			Name:          it.Name,
			SKU:           it.SKU,
			Quantity:      q,
			PreviousLevel: mov.PreviousLevel,
			NewLevel:      newLevel,
			MovementID:    mov.ID,
			LowStock:      newLevel <= it.ReorderLevel,
		})
	}
	res.RestoredCount = len(res.RestoredItems)
	return res, nil
}

// lockItems bloquea las filas en orden de id para evitar deadlocks entre transacciones.
func (e *StockEngine) lockItems(ctx context.Context, tx repository.Tx, orgID string, ids []string) (map[string]*entity.InventoryItem, error) {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	rows, err := tx.Items().GetManyForUpdate(ctx, orgID, sorted)
	if err != nil {
		return nil, fmt.Errorf("lock inventory items: %w", err)
	}
	byID := make(map[string]*entity.InventoryItem, len(rows))
	for _, it := range rows {
		byID[it.ID] = it
	}
	return byID, nil
}

func shortfall(it *entity.InventoryItem, requested int64) domain.StockShortfall {
	return domain.StockShortfall{
		ItemID:    it.ID,
		Name:      it.Name,
		SKU:       it.SKU,
		Available: it.StockLevel,
		Requested: decimal.NewFromInt(requested),
		Missing:   decimal.NewFromInt(requested - it.StockLevel),
	}
}

func actorKind(a entity.Actor) entity.ActorKind {
	if a.Kind == "" {
		return entity.ActorKindUser
	}
	return a.Kind
}
