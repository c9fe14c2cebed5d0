package http

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/invorya-stock/internal/application/billing"
	"github.com/jhoicas/invorya-stock/internal/application/dto"
	"github.com/jhoicas/invorya-stock/internal/domain/entity"
)

// InvoiceHandler maneja las peticiones HTTP de facturación (protegido).
type InvoiceHandler struct {
	create   *billing.CreateInvoiceUseCase
	cancel   *billing.CancelInvoiceUseCase
	query    *billing.QueryUseCase
	pdf      *billing.PDFUseCase
	validate *validator.Validate
	errs     errorMapper
}

// NewInvoiceHandler construye el handler.
func NewInvoiceHandler(create *billing.CreateInvoiceUseCase, cancel *billing.CancelInvoiceUseCase, query *billing.QueryUseCase, pdf *billing.PDFUseCase, errs errorMapper) *InvoiceHandler {
	return &InvoiceHandler{create: create, cancel: cancel, query: query, pdf: pdf, validate: newValidator(), errs: errs}
}

// Create godoc
// @Summary      Crear factura y descontar inventario
// @Description  Todo o nada: si algún ítem vinculado no existe, está inactivo o no alcanza, no se crea la factura ni se toca el stock.
// @Tags         invoices
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateInvoiceRequest  true  "Cabecera y líneas"
// @Success      201   {object}  dto.InvoiceResponse
// @Failure      400   {object}  dto.ErrorResponse  "VALIDATION o INSUFFICIENT_STOCK (details = faltantes)"
// @Failure      404   {object}  dto.ErrorResponse  "ITEM_UNAVAILABLE"
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse  "FRACTIONAL_QUANTITY"
// @Router       /api/invoices [post]
func (h *InvoiceHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateInvoiceRequest
	if ok, err := bindJSON(c, h.validate, &in); !ok {
		return err
	}
	invoice, err := h.create.CreateInvoice(c.Context(), GetActor(c), in)
	if err != nil {
		return h.errs.respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(invoice)
}

// GetByID godoc
// @Summary      Obtener factura con detalle y movimientos de stock
// @Tags         invoices
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la factura"
// @Success      200  {object}  dto.InvoiceResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id} [get]
func (h *InvoiceHandler) GetByID(c *fiber.Ctx) error {
	invoice, err := h.query.GetInvoice(c.Context(), GetOrganizationID(c), c.Params("id"))
	if err != nil {
		return h.errs.respond(c, err)
	}
	return c.JSON(invoice)
}

// List godoc
// @Summary      Listar facturas
// @Tags         invoices
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "DRAFT | ISSUED | CANCELLED | VOID"
// @Param        limit   query  int     false  "Límite"  default(20)
// @Param        offset  query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.InvoiceListResponse
// @Router       /api/invoices [get]
func (h *InvoiceHandler) List(c *fiber.Ctx) error {
	page, ok, err := parsePage(c, h.validate)
	if !ok {
		return err
	}
	status := c.Query("status")
	switch status {
	case "", entity.InvoiceStatusDraft, entity.InvoiceStatusIssued, entity.InvoiceStatusCancelled, entity.InvoiceStatusVoid:
	default:
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "status desconocido"})
	}
	out, err := h.query.ListInvoices(c.Context(), GetOrganizationID(c), status, page)
	if err != nil {
		return h.errs.respond(c, err)
	}
	return c.JSON(out)
}

// Movements godoc
// @Summary      Movimientos de stock de la factura
// @Tags         invoices
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la factura"
// @Success      200  {array}   dto.MovementResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/movements [get]
func (h *InvoiceHandler) Movements(c *fiber.Ctx) error {
	movs, err := h.query.InvoiceMovements(c.Context(), GetOrganizationID(c), c.Params("id"))
	if err != nil {
		return h.errs.respond(c, err)
	}
	return c.JSON(movs)
}

// Cancel godoc
// @Summary      Anular factura y restaurar stock
// @Tags         invoices
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                    true  "ID de la factura"
// @Param        body  body  dto.CancelInvoiceRequest  true  "Motivo"
// @Success      200   {object}  dto.CancelInvoiceResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse  "INVOICE_NOT_CANCELLABLE"
// @Router       /api/invoices/{id}/cancel [post]
func (h *InvoiceHandler) Cancel(c *fiber.Ctx) error {
	return h.transition(c, h.cancel.Cancel)
}

// Void godoc
// @Summary      Invalidar factura y restaurar stock
// @Tags         invoices
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                    true  "ID de la factura"
// @Param        body  body  dto.CancelInvoiceRequest  true  "Motivo"
// @Success      200   {object}  dto.CancelInvoiceResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse  "INVOICE_NOT_CANCELLABLE"
// @Router       /api/invoices/{id}/void [post]
func (h *InvoiceHandler) Void(c *fiber.Ctx) error {
	return h.transition(c, h.cancel.Void)
}

type transitionFunc func(ctx context.Context, actor entity.Actor, invoiceID, reason string) (*dto.CancelInvoiceResponse, error)

func (h *InvoiceHandler) transition(c *fiber.Ctx, fn transitionFunc) error {
	var in dto.CancelInvoiceRequest
	if ok, err := bindJSON(c, h.validate, &in); !ok {
		return err
	}
	out, err := fn(c.Context(), GetActor(c), c.Params("id"), in.Reason)
	if err != nil {
		return h.errs.respond(c, err)
	}
	return c.JSON(out)
}

// DownloadPDF godoc
// @Summary      Descargar PDF de la factura
// @Tags         invoices
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID de la factura"
// @Success      200  {file}    binary
// @Failure      400  {object}  dto.ErrorResponse  "Factura en borrador"
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/pdf [get]
func (h *InvoiceHandler) DownloadPDF(c *fiber.Ctx) error {
	pdf, filename, err := h.pdf.DownloadInvoicePDF(c.Context(), GetOrganizationID(c), c.Params("id"))
	if err != nil {
		return h.errs.respond(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(pdf)
}
