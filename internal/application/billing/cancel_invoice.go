package billing

import (
	"context"
	"strings"
	"time"

	"github.com/jhoicas/invorya-stock/internal/application/dto"
	"github.com/jhoicas/invorya-stock/internal/application/ports"
	"github.com/jhoicas/invorya-stock/internal/domain"
	"github.com/jhoicas/invorya-stock/internal/domain/entity"
	"github.com/jhoicas/invorya-stock/internal/domain/repository"
	"github.com/jhoicas/invorya-stock/pkg/logger"
)

// CancelInvoiceUseCase anula (CANCELLED) o invalida (VOID) una factura y reintegra su stock
// en la misma transacción que el cambio de estado.
type CancelInvoiceUseCase struct {
	txRunner repository.TxRunner
	engine   StockEngine
	events   ports.EventSink
	log      *logger.Logger
	now      func() time.Time
}

// NewCancelInvoiceUseCase construye el caso de uso.
func NewCancelInvoiceUseCase(txRunner repository.TxRunner, engine StockEngine, events ports.EventSink, log *logger.Logger) *CancelInvoiceUseCase {
	if events == nil {
		events = ports.NopSink{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &CancelInvoiceUseCase{txRunner: txRunner, engine: engine, events: events, log: log, now: time.Now}
}

// Cancel anula la factura.
func (uc *CancelInvoiceUseCase) Cancel(ctx context.Context, actor entity.Actor, invoiceID, reason string) (*dto.CancelInvoiceResponse, error) {
	return uc.transition(ctx, actor, invoiceID, reason, entity.InvoiceStatusCancelled)
}

// Void invalida la factura (emitida por error).
func (uc *CancelInvoiceUseCase) Void(ctx context.Context, actor entity.Actor, invoiceID, reason string) (*dto.CancelInvoiceResponse, error) {
	return uc.transition(ctx, actor, invoiceID, reason, entity.InvoiceStatusVoid)
}

func (uc *CancelInvoiceUseCase) transition(ctx context.Context, actor entity.Actor, invoiceID, reason, status string) (*dto.CancelInvoiceResponse, error) {
	reason = strings.TrimSpace(reason)
	if actor.OrganizationID == "" || invoiceID == "" || reason == "" {
		return nil, domain.ErrInvalidInput
	}

	now := uc.now()
	var inv *entity.Invoice
	var restored *restoreSummary
	err := uc.txRunner.Run(ctx, func(tx repository.Tx) error {
		var err error
		// el lock de la cabecera serializa anulaciones concurrentes de la misma factura
		inv, err = tx.Invoices().GetForUpdate(ctx, actor.OrganizationID, invoiceID)
		if err != nil {
			return err
		}
		if inv == nil {
			return domain.ErrNotFound
		}
		if !inv.Cancellable() {
			return domain.ErrInvoiceNotCancellable
		}
		if err := tx.Invoices().UpdateStatus(ctx, actor.OrganizationID, inv.ID, status, now); err != nil {
			return err
		}
		res, err := uc.engine.Restore(ctx, tx, actor, inv.ID, restoreNote(inv, status, reason))
		if err != nil {
			return err
		}
		restored = &restoreSummary{count: res.RestoredCount, lines: res.RestoredItems}
		return nil
	})
	if err != nil {
		return nil, err
	}
	inv.Status = status
	inv.UpdatedAt = now

	evType := ports.EventInvoiceCancelled
	if status == entity.InvoiceStatusVoid {
		evType = ports.EventInvoiceVoided
	}
	itemIDs := make([]string, 0, len(restored.lines))
	for _, l := range restored.lines {
		itemIDs = append(itemIDs, l.ItemID)
	}
	ev := ports.Event{
		Type:           evType,
		OrganizationID: actor.OrganizationID,
		ActorID:        actor.UserID,
		ActorKind:      string(actor.Kind),
		EntityType:     "invoice",
		EntityID:       inv.ID,
		ItemIDs:        itemIDs,
		Data:           map[string]any{"reason": reason, "restored_count": restored.count},
		OccurredAt:     now,
	}
	if err := uc.events.Publish(ctx, ev); err != nil {
		uc.log.ForActor(ev.OrganizationID, ev.ActorID, ev.ActorKind).Warn().Err(err).Str("invoice_id", inv.ID).Msg("efecto post-commit de anulación falló")
	}

	return &dto.CancelInvoiceResponse{
		ID:            inv.ID,
		Status:        inv.Status,
		RestoredCount: restored.count,
		Restored:      movementLinesToResponse(restored.lines, entity.MovementTypeReturn, inv.ID, actor, now),
	}, nil
}

func restoreNote(inv *entity.Invoice, status, reason string) string {
	label := "Anulación"
	if status == entity.InvoiceStatusVoid {
		label = "Invalidación"
	}
	return label + " de factura " + inv.Prefix + "-" + inv.Number + ": " + reason
}
