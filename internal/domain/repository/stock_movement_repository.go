package repository

import (
	"context"
	"time"

	"github.com/jhoicas/invorya-stock/internal/domain/entity"
)

// StockMovementRepository define el puerto del libro de movimientos.
// Es append-only: no existen métodos de actualización ni borrado.
type StockMovementRepository interface {
	Create(ctx context.Context, movement *entity.StockMovement) error
	ListByItem(ctx context.Context, orgID, itemID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error)
	// ListByReference devuelve los movimientos de una referencia (p.ej. factura) en orden cronológico.
	ListByReference(ctx context.Context, orgID string, refType entity.ReferenceType, refID string) ([]*entity.StockMovement, error)
	// SumByItem suma las cantidades con signo de todo el historial del ítem.
	SumByItem(ctx context.Context, orgID, itemID string) (total int64, count int, err error)
}
