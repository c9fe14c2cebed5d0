package cache

import (
	"context"

	appinv "github.com/jhoicas/invorya-stock/internal/application/inventory"
	"github.com/jhoicas/invorya-stock/internal/application/ports"
)

var _ ports.EventSink = (*Invalidator)(nil)

// Invalidator EventSink que purga de la caché los ítems cuyo stock o datos cambiaron.
type Invalidator struct {
	cache appinv.ItemCache
}

// NewInvalidator construye el sink.
func NewInvalidator(cache appinv.ItemCache) *Invalidator {
	return &Invalidator{cache: cache}
}

// Publish implementa ports.EventSink.
func (i *Invalidator) Publish(ctx context.Context, ev ports.Event) error {
	ids := ev.ItemIDs
	if len(ids) == 0 && ev.EntityType == "inventory_item" && ev.EntityID != "" {
		ids = []string{ev.EntityID}
	}
	if len(ids) == 0 {
		return nil
	}
	return i.cache.Invalidate(ctx, ev.OrganizationID, ids...)
}
