package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateInvoiceRequest body para POST /api/invoices.
type CreateInvoiceRequest struct {
	CustomerName  string               `json:"customer_name" validate:"required,max=200"`
	CustomerTaxID string               `json:"customer_tax_id" validate:"omitempty,max=50"`
	Prefix        string               `json:"prefix" validate:"required,max=10"`
	Number        string               `json:"number,omitempty" validate:"omitempty,max=30"` // opcional; si va vacío se genera
	Status        string               `json:"status,omitempty" validate:"omitempty,oneof=DRAFT ISSUED"`
	DueDate       *time.Time           `json:"due_date,omitempty"`
	Notes         string               `json:"notes,omitempty" validate:"omitempty,max=2000"`
	Items         []InvoiceItemRequest `json:"items" validate:"required,min=1,dive"`
}

// InvoiceItemRequest línea de factura. InventoryItemID + DeductFromStock vinculan la línea al stock.
type InvoiceItemRequest struct {
	Description     string          `json:"description" validate:"omitempty,max=500"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	TaxRate         decimal.Decimal `json:"tax_rate"`      // 19 o 0.19
	DiscountRate    decimal.Decimal `json:"discount_rate"` // 10 o 0.10
	InventoryItemID *string         `json:"inventory_item_id,omitempty"`
	DeductFromStock bool            `json:"deduct_from_stock"`
}

// CancelInvoiceRequest body para POST /api/invoices/:id/cancel y /void.
type CancelInvoiceRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=500"`
}

// InvoiceResponse factura con detalle.
type InvoiceResponse struct {
	ID             string                `json:"id"`
	CustomerName   string                `json:"customer_name"`
	CustomerTaxID  string                `json:"customer_tax_id,omitempty"`
	Prefix         string                `json:"prefix"`
	Number         string                `json:"number"`
	Status         string                `json:"status"`
	Date           string                `json:"date"`
	DueDate        string                `json:"due_date,omitempty"`
	NetTotal       decimal.Decimal       `json:"net_total"`
	DiscountTotal  decimal.Decimal       `json:"discount_total"`
	TaxTotal       decimal.Decimal       `json:"tax_total"`
	GrandTotal     decimal.Decimal       `json:"grand_total"`
	Notes          string                `json:"notes,omitempty"`
	Items          []InvoiceItemResponse `json:"items"`
	StockMovements []MovementResponse    `json:"stock_movements,omitempty"`
}

// InvoiceItemResponse línea de detalle en la respuesta.
type InvoiceItemResponse struct {
	ID              string          `json:"id"`
	Description     string          `json:"description"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	TaxRate         decimal.Decimal `json:"tax_rate"`
	DiscountRate    decimal.Decimal `json:"discount_rate"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	InventoryItemID *string         `json:"inventory_item_id,omitempty"`
	DeductFromStock bool            `json:"deduct_from_stock"`
}

// InvoiceListResponse lista paginada de facturas (sin detalle).
type InvoiceListResponse struct {
	Items []InvoiceResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// CancelInvoiceResponse resultado de anular una factura.
type CancelInvoiceResponse struct {
	ID            string             `json:"id"`
	Status        string             `json:"status"`
	RestoredCount int                `json:"restored_count"`
	Restored      []MovementResponse `json:"restored,omitempty"`
}
