package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/invorya-stock/internal/application/ports"
	"github.com/jhoicas/invorya-stock/internal/domain"
	"github.com/jhoicas/invorya-stock/internal/domain/entity"
	"github.com/jhoicas/invorya-stock/internal/domain/inventory"
	"github.com/jhoicas/invorya-stock/internal/domain/repository"
	"github.com/jhoicas/invorya-stock/pkg/logger"
	"github.com/shopspring/decimal"
)

// AdjustmentInput entrada de un ajuste manual de un solo ítem.
// Quantity con signo: positivo suma, negativo resta.
// Reason es obligatorio, pero lo exige el caller (handler), no este caso de uso.
type AdjustmentInput struct {
	ItemID   string
	Quantity int64
	Type     entity.MovementType // RESTOCK, ADJUSTMENT o DAMAGE
	Reason   string
	Notes    *string
	UnitCost *decimal.Decimal // solo RESTOCK: recalcula costo promedio ponderado
}

// AdjustmentResult niveles antes y después del ajuste.
type AdjustmentResult struct {
	ItemID        string
	PreviousLevel int64
	NewLevel      int64
	MovementID    string
	CostPrice     *decimal.Decimal
	LowStock      bool
}

// AdjustmentUseCase motor de ajustes manuales (reposición, corrección, daño).
// A diferencia de StockEngine abre y confirma su propia transacción.
type AdjustmentUseCase struct {
	txRunner repository.TxRunner
	events   ports.EventSink
	log      *logger.Logger
	now      func() time.Time
}

// NewAdjustmentUseCase construye el caso de uso.
func NewAdjustmentUseCase(txRunner repository.TxRunner, events ports.EventSink, log *logger.Logger) *AdjustmentUseCase {
	if events == nil {
		events = ports.NopSink{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &AdjustmentUseCase{txRunner: txRunner, events: events, log: log, now: time.Now}
}

// Adjust bloquea la fila del ítem, valida que exista, pertenezca a la organización y esté
// activo, rechaza resultados negativos sin mutar nada y aplica el cambio con incremento o
// decremento atómico más un movimiento en el libro.
func (uc *AdjustmentUseCase) Adjust(ctx context.Context, actor entity.Actor, in AdjustmentInput) (*AdjustmentResult, error) {
	if err := validateAdjustment(actor, in); err != nil {
		return nil, err
	}

	var res *AdjustmentResult
	err := uc.txRunner.Run(ctx, func(tx repository.Tx) error {
		rows, err := tx.Items().GetManyForUpdate(ctx, actor.OrganizationID, []string{in.ItemID})
		if err != nil {
			return fmt.Errorf("lock inventory item: %w", err)
		}
		if len(rows) == 0 {
			return domain.ErrItemNotFound
		}
		item := rows[0]
		if !item.Active {
			return domain.ErrItemInactive
		}
		prev := item.StockLevel
		if prev+in.Quantity < 0 {
			return &domain.NegativeStockError{ItemID: item.ID, CurrentLevel: prev, Delta: in.Quantity}
		}

		var level int64
		if in.Quantity > 0 {
			level, err = tx.Items().Increment(ctx, actor.OrganizationID, item.ID, in.Quantity)
		} else {
			level, err = tx.Items().Decrement(ctx, actor.OrganizationID, item.ID, -in.Quantity)
		}
		if err != nil {
			return fmt.Errorf("apply adjustment: %w", err)
		}
		if level != prev+in.Quantity {
			// la fila estaba bloqueada: un nivel distinto indica que alguien escribió sin lock
			return domain.ErrStockConflict
		}

		reason := in.Reason
		mov := &entity.StockMovement{
			ID:              uuid.New().String(),
			OrganizationID:  actor.OrganizationID,
			InventoryItemID: item.ID,
			Type:            in.Type,
			Quantity:        in.Quantity,
			PreviousLevel:   prev,
			NewLevel:        level,
			ReferenceType:   entity.ReferenceTypeManual,
			Reason:          &reason,
			Notes:           in.Notes,
			ActorID:         actor.UserID,
			ActorKind:       actorKind(actor),
			CreatedAt:       uc.now(),
		}
		if err := tx.Movements().Create(ctx, mov); err != nil {
			return fmt.Errorf("record adjustment movement: %w", err)
		}

		cost := item.CostPrice
		if in.Type == entity.MovementTypeRestock && in.UnitCost != nil {
			current := decimal.Zero
			if item.CostPrice != nil {
				current = *item.CostPrice
			}
			newCost := inventory.WeightedAverageCost(prev, current, in.Quantity, *in.UnitCost)
			if err := tx.Items().UpdateCostPrice(ctx, actor.OrganizationID, item.ID, newCost); err != nil {
				return err
			}
			cost = &newCost
		}

		res = &AdjustmentResult{
			ItemID:        item.ID,
			PreviousLevel: prev,
			NewLevel:      level,
			MovementID:    mov.ID,
			CostPrice:     cost,
			LowStock:      level <= item.ReorderLevel,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.publish(ctx, ports.Event{
		Type:           ports.EventStockAdjusted,
		OrganizationID: actor.OrganizationID,
		ActorID:        actor.UserID,
		ActorKind:      string(actorKind(actor)),
		EntityType:     "inventory_item",
		EntityID:       res.ItemID,
		ItemIDs:        []string{res.ItemID},
		Data: map[string]any{
			"type":           string(in.Type),
			"quantity":       in.Quantity,
			"previous_level": res.PreviousLevel,
			"new_level":      res.NewLevel,
			"reason":         in.Reason,
			"low_stock":      res.LowStock,
		},
		OccurredAt: uc.now(),
	})
	return res, nil
}

func (uc *AdjustmentUseCase) publish(ctx context.Context, ev ports.Event) {
	if err := uc.events.Publish(ctx, ev); err != nil {
		uc.log.ForActor(ev.OrganizationID, ev.ActorID, ev.ActorKind).Warn().Err(err).Str("event", ev.Type).Str("entity_id", ev.EntityID).Msg("efecto post-commit falló")
	}
}

func validateAdjustment(actor entity.Actor, in AdjustmentInput) error {
	if actor.OrganizationID == "" || in.ItemID == "" || in.Quantity == 0 {
		return domain.ErrInvalidInput
	}
	if !in.Type.IsManual() {
		return domain.ErrInvalidInput
	}
	switch in.Type {
	case entity.MovementTypeRestock:
		if in.Quantity < 0 {
			return domain.ErrInvalidInput
		}
	case entity.MovementTypeDamage:
		if in.Quantity > 0 {
			return domain.ErrInvalidInput
		}
	}
	if in.UnitCost != nil && (in.Type != entity.MovementTypeRestock || in.UnitCost.IsNegative()) {
		return domain.ErrInvalidInput
	}
	return nil
}
