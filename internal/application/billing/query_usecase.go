package billing

import (
	"context"

	"github.com/jhoicas/invorya-stock/internal/application/dto"
	appinv "github.com/jhoicas/invorya-stock/internal/application/inventory"
	"github.com/jhoicas/invorya-stock/internal/domain"
	"github.com/jhoicas/invorya-stock/internal/domain/entity"
	"github.com/jhoicas/invorya-stock/internal/domain/repository"
)

// QueryUseCase lecturas de facturas y de su efecto en el libro de stock.
type QueryUseCase struct {
	invoiceRepo  repository.InvoiceRepository
	movementRepo repository.StockMovementRepository
}

// NewQueryUseCase construye el caso de uso.
func NewQueryUseCase(invoiceRepo repository.InvoiceRepository, movementRepo repository.StockMovementRepository) *QueryUseCase {
	return &QueryUseCase{invoiceRepo: invoiceRepo, movementRepo: movementRepo}
}

// GetInvoice obtiene una factura por ID con su detalle y los movimientos que la referencian.
func (uc *QueryUseCase) GetInvoice(ctx context.Context, orgID, id string) (*dto.InvoiceResponse, error) {
	inv, err := uc.invoiceRepo.GetByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	items, err := uc.invoiceRepo.GetItems(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	movs, err := uc.movementRepo.ListByReference(ctx, orgID, entity.ReferenceTypeInvoice, inv.ID)
	if err != nil {
		return nil, err
	}
	resp := toInvoiceResponse(inv, items)
	resp.StockMovements = appinv.ToMovementResponses(movs)
	return resp, nil
}

// ListInvoices lista cabeceras (sin detalle), más reciente primero.
func (uc *QueryUseCase) ListInvoices(ctx context.Context, orgID, status string, page dto.PageRequest) (*dto.InvoiceListResponse, error) {
	page.DefaultPage()
	invs, err := uc.invoiceRepo.List(ctx, orgID, status, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]dto.InvoiceResponse, 0, len(invs))
	for _, inv := range invs {
		out = append(out, *toInvoiceResponse(inv, nil))
	}
	return &dto.InvoiceListResponse{Items: out, Page: dto.PageResponse{Limit: page.Limit, Offset: page.Offset}}, nil
}

// InvoiceMovements movimientos SALE/RETURN que referencian la factura, en orden cronológico.
func (uc *QueryUseCase) InvoiceMovements(ctx context.Context, orgID, id string) ([]dto.MovementResponse, error) {
	inv, err := uc.invoiceRepo.GetByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	movs, err := uc.movementRepo.ListByReference(ctx, orgID, entity.ReferenceTypeInvoice, inv.ID)
	if err != nil {
		return nil, err
	}
	return appinv.ToMovementResponses(movs), nil
}
