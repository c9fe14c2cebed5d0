package billing

import (
	"context"

	appinv "github.com/jhoicas/invorya-stock/internal/application/inventory"
	"github.com/jhoicas/invorya-stock/internal/domain/entity"
	"github.com/jhoicas/invorya-stock/internal/domain/repository"
)

// StockEngine integra facturación con inventario. Ambos métodos usan el Tx del caller;
// si retornan error, el caller debe hacer rollback de toda la transacción.
type StockEngine interface {
	Deduct(ctx context.Context, tx repository.Tx, actor entity.Actor, requests []appinv.DeductionRequest, invoiceID string) (*appinv.DeductionResult, error)
	Restore(ctx context.Context, tx repository.Tx, actor entity.Actor, invoiceID, reason string) (*appinv.RestorationResult, error)
}

// AvailabilityChecker pre-chequeo de stock fuera de la transacción.
type AvailabilityChecker interface {
	Check(ctx context.Context, orgID string, requests []appinv.AvailabilityRequest) (*appinv.AvailabilityResult, error)
}

// InvoicePDFGenerator genera la representación gráfica de una factura.
type InvoicePDFGenerator interface {
	GenerateInvoicePDF(ctx context.Context, inv *entity.Invoice, items []*entity.InvoiceItem) ([]byte, error)
}
