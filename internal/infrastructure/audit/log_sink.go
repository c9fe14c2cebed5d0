package audit

import (
	"context"

	"github.com/jhoicas/invorya-stock/internal/application/ports"
	"github.com/jhoicas/invorya-stock/pkg/logger"
)

var _ ports.EventSink = (*LogSink)(nil)

// LogSink registra cada evento de negocio como una línea de auditoría estructurada.
type LogSink struct {
	log *logger.Logger
}

// NewLogSink construye el sink sobre el logger de la app.
func NewLogSink(log *logger.Logger) *LogSink {
	return &LogSink{log: log.Component("audit")}
}

// Publish implementa ports.EventSink. Nunca falla.
func (s *LogSink) Publish(_ context.Context, ev ports.Event) error {
	e := s.log.Info().
		Str("event", ev.Type).
		Str("organization_id", ev.OrganizationID).
		Str("actor_id", ev.ActorID).
		Str("actor_kind", ev.ActorKind).
		Str("entity_type", ev.EntityType).
		Str("entity_id", ev.EntityID).
		Time("occurred_at", ev.OccurredAt)
	if len(ev.ItemIDs) > 0 {
		e = e.Strs("item_ids", ev.ItemIDs)
	}
	if len(ev.Data) > 0 {
		e = e.Interface("data", ev.Data)
	}
	e.Msg("audit")
	return nil
}
