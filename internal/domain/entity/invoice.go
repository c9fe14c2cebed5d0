package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de la factura.
const (
	InvoiceStatusDraft     = "DRAFT"
	InvoiceStatusIssued    = "ISSUED"
	InvoiceStatusCancelled = "CANCELLED"
	InvoiceStatusVoid      = "VOID"
)

// Invoice representa la cabecera de una factura.
type Invoice struct {
	ID             string
	OrganizationID string
	CustomerName   string
	CustomerTaxID  string
	Prefix         string
	Number         string
	Status         string
	Date           time.Time
	DueDate        *time.Time
	NetTotal       decimal.Decimal
	DiscountTotal  decimal.Decimal
	TaxTotal       decimal.Decimal
	GrandTotal     decimal.Decimal
	Notes          string
	CreatedBy      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Cancellable indica si la factura puede anularse (y su stock restaurarse).
func (i *Invoice) Cancellable() bool {
	return i.Status == InvoiceStatusDraft || i.Status == InvoiceStatusIssued
}
