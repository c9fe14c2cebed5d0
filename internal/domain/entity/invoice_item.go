package entity

import "github.com/shopspring/decimal"

// InvoiceItem representa una línea de detalle de una factura.
// Solo participa en el descuento de stock si está vinculada a un ítem de inventario
// y DeductFromStock es verdadero.
type InvoiceItem struct {
	ID              string
	InvoiceID       string
	Description     string
	Quantity        decimal.Decimal
	UnitPrice       decimal.Decimal
	TaxRate         decimal.Decimal // 0.19 = 19%
	DiscountRate    decimal.Decimal // 0.10 = 10%
	Subtotal        decimal.Decimal // cantidad * precio * (1 - descuento), sin impuestos
	InventoryItemID *string
	DeductFromStock bool
}

// TracksStock indica si la línea descuenta inventario.
func (it *InvoiceItem) TracksStock() bool {
	return it.InventoryItemID != nil && *it.InventoryItemID != "" && it.DeductFromStock
}
