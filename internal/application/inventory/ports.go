package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/invorya-stock/internal/domain/entity"
)

// ItemCache caché de lectura de ítems. Nunca participa en decisiones de stock:
// la deducción siempre relee la fila bloqueada dentro de la transacción.
type ItemCache interface {
	Get(ctx context.Context, orgID, id string) (*entity.InventoryItem, bool, error)
	Set(ctx context.Context, item *entity.InventoryItem) error
	Invalidate(ctx context.Context, orgID string, ids ...string) error
}

// StockCardRenderer genera el kardex (tarjeta de stock) de un ítem.
type StockCardRenderer interface {
	RenderStockCard(ctx context.Context, item *entity.InventoryItem, movements []*entity.StockMovement, generatedAt time.Time) ([]byte, error)
}
