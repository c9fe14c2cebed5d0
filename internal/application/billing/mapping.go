package billing

import (
	"time"

	"github.com/jhoicas/invorya-stock/internal/application/dto"
	appinv "github.com/jhoicas/invorya-stock/internal/application/inventory"
	"github.com/jhoicas/invorya-stock/internal/domain/entity"
)

type restoreSummary struct {
	count int
	lines []appinv.MovementLine
}

func toInvoiceResponse(inv *entity.Invoice, items []*entity.InvoiceItem) *dto.InvoiceResponse {
	resp := &dto.InvoiceResponse{
		ID:            inv.ID,
		CustomerName:  inv.CustomerName,
		CustomerTaxID: inv.CustomerTaxID,
		Prefix:        inv.Prefix,
		Number:        inv.Number,
		Status:        inv.Status,
		Date:          inv.Date.Format("2006-01-02"),
		NetTotal:      inv.NetTotal,
		DiscountTotal: inv.DiscountTotal,
		TaxTotal:      inv.TaxTotal,
		GrandTotal:    inv.GrandTotal,
		Notes:         inv.Notes,
		Items:         make([]dto.InvoiceItemResponse, 0, len(items)),
	}
	if inv.DueDate != nil {
		resp.DueDate = inv.DueDate.Format("2006-01-02")
	}
	for _, it := range items {
		resp.Items = append(resp.Items, dto.InvoiceItemResponse{
			ID:              it.ID,
			Description:     it.Description,
			Quantity:        it.Quantity,
			UnitPrice:       it.UnitPrice,
			TaxRate:         it.TaxRate,
			DiscountRate:    it.DiscountRate,
			Subtotal:        it.Subtotal,
			InventoryItemID: it.InventoryItemID,
			DeductFromStock: it.DeductFromStock,
		})
	}
	return resp
}

func movementLinesToResponse(lines []appinv.MovementLine, typ entity.MovementType, invoiceID string, actor entity.Actor, at time.Time) []dto.MovementResponse {
	out := make([]dto.MovementResponse, 0, len(lines))
	for _, l := range lines {
		ref := invoiceID
		kind := actor.Kind
		if kind == "" {
			kind = entity.ActorKindUser
		}
		out = append(out, dto.MovementResponse{
			ID:            l.MovementID,
			ItemID:        l.ItemID,
			Type:          string(typ),
			Quantity:      l.Quantity,
			PreviousLevel: l.PreviousLevel,
			NewLevel:      l.NewLevel,
			ReferenceType: string(entity.ReferenceTypeInvoice),
			ReferenceID:   &ref,
			ActorID:       actor.UserID,
			ActorKind:     string(kind),
			CreatedAt:     at,
		})
	}
	return out
}
