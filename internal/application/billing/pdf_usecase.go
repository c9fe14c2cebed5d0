package billing

import (
	"context"
	"fmt"

	"github.com/jhoicas/invorya-stock/internal/domain"
	"github.com/jhoicas/invorya-stock/internal/domain/entity"
	"github.com/jhoicas/invorya-stock/internal/domain/repository"
)

// PDFUseCase genera la representación gráfica (PDF) de una factura.
// No se genera para facturas en borrador.
type PDFUseCase struct {
	invoiceRepo repository.InvoiceRepository
	generator   InvoicePDFGenerator
}

// NewPDFUseCase construye el caso de uso inyectando sus dependencias.
func NewPDFUseCase(invoiceRepo repository.InvoiceRepository, generator InvoicePDFGenerator) *PDFUseCase {
	return &PDFUseCase{invoiceRepo: invoiceRepo, generator: generator}
}

// DownloadInvoicePDF recupera la factura y su detalle y genera el PDF.
//
// Retorna:
//   - (pdfBytes, filename, nil)  si todo sale bien.
//   - domain.ErrNotFound         si la factura no existe en la organización.
//   - domain.ErrInvalidInput     si la factura está en DRAFT.
func (uc *PDFUseCase) DownloadInvoicePDF(ctx context.Context, orgID, invoiceID string) (pdfBytes []byte, filename string, err error) {
	// ── 1. Cargar factura ─────────────────────────────────────────────────────
	inv, err := uc.invoiceRepo.GetByID(ctx, orgID, invoiceID)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: obtener factura: %w", err)
	}
	if inv == nil {
		return nil, "", domain.ErrNotFound
	}
	if inv.Status == entity.InvoiceStatusDraft {
		return nil, "", fmt.Errorf("%w: la factura está en estado %s", domain.ErrInvalidInput, inv.Status)
	}

	// ── 2. Cargar detalles ────────────────────────────────────────────────────
	items, err := uc.invoiceRepo.GetItems(ctx, inv.ID)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: obtener detalles: %w", err)
	}

	// ── 3. Generar PDF ────────────────────────────────────────────────────────
	pdfBytes, err = uc.generator.GenerateInvoicePDF(ctx, inv, items)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: generación fallida: %w", err)
	}
	filename = fmt.Sprintf("factura_%s-%s.pdf", inv.Prefix, inv.Number)
	return pdfBytes, filename, nil
}
