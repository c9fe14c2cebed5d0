package repository

import "context"

// Tx agrupa los repositorios atados a una misma transacción de base de datos.
// Es el handle que reciben los motores de deducción y restauración: nunca abren
// su propia transacción.
type Tx interface {
	Items() InventoryItemRepository
	Movements() StockMovementRepository
	Invoices() InvoiceRepository
}

// TxRunner ejecuta fn dentro de una transacción: Commit si fn retorna nil,
// Rollback en cualquier otro caso (error o panic).
type TxRunner interface {
	Run(ctx context.Context, fn func(tx Tx) error) error
}
