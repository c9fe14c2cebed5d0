package ports

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// Tipos de evento emitidos después del commit.
const (
	EventInvoiceCreated   = "invoice.created"
	EventInvoiceCancelled = "invoice.cancelled"
	EventInvoiceVoided    = "invoice.voided"
	EventStockAdjusted    = "inventory.adjusted"
	EventItemCreated      = "inventory.item_created"
	EventItemUpdated      = "inventory.item_updated"
	EventItemDeactivated  = "inventory.item_deactivated"
	EventItemReactivated  = "inventory.item_reactivated"
)

// Event efecto secundario post-commit (auditoría, invalidación de caché, notificaciones).
// No tiene incidencia en la corrección transaccional.
type Event struct {
	Type           string
	OrganizationID string
	ActorID        string
	ActorKind      string
	EntityType     string // "invoice" | "inventory_item"
	EntityID       string
	ItemIDs        []string // ítems de inventario cuyo stock o datos cambiaron
	Data           map[string]any
	OccurredAt     time.Time
}

// EventSink recibe eventos después del commit. Los errores se registran, nunca se propagan
// al caller de la operación de negocio.
type EventSink interface {
	Publish(ctx context.Context, event Event) error
}

// Fanout publica el evento en todos los sinks en paralelo.
type Fanout []EventSink

// Publish implementa EventSink; devuelve el primer error encontrado.
func (f Fanout) Publish(ctx context.Context, event Event) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, s := range f {
		if s == nil {
			continue
		}
		s := s
		g.Go(func() error { return s.Publish(gctx, event) })
	}
	return g.Wait()
}

// NopSink descarta todos los eventos.
type NopSink struct{}

// Publish implementa EventSink.
func (NopSink) Publish(context.Context, Event) error { return nil }
