package repository

import (
	"context"
	"time"

	"github.com/jhoicas/invorya-stock/internal/domain/entity"
)

// InvoiceRepository define el puerto de persistencia para Invoice y sus líneas.
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *entity.Invoice) error
	CreateItem(ctx context.Context, item *entity.InvoiceItem) error
	GetByID(ctx context.Context, orgID, id string) (*entity.Invoice, error)
	// GetForUpdate bloquea la cabecera para serializar anulaciones concurrentes.
	GetForUpdate(ctx context.Context, orgID, id string) (*entity.Invoice, error)
	GetItems(ctx context.Context, invoiceID string) ([]*entity.InvoiceItem, error)
	UpdateStatus(ctx context.Context, orgID, id, status string, at time.Time) error
	List(ctx context.Context, orgID, status string, limit, offset int) ([]*entity.Invoice, error)
}
