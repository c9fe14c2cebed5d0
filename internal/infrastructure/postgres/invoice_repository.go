package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/invorya-stock/internal/domain"
	"github.com/jhoicas/invorya-stock/internal/domain/entity"
	"github.com/jhoicas/invorya-stock/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

const invoiceColumns = `id, organization_id, customer_name, customer_tax_id, prefix, number, status, date, due_date,
	net_total, discount_total, tax_total, grand_total, notes, created_by, created_at, updated_at`

// InvoiceRepo implementación del puerto InvoiceRepository sobre PostgreSQL.
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

// Create persiste la cabecera de la factura.
func (r *InvoiceRepo) Create(ctx context.Context, inv *entity.Invoice) error {
	query := `
		INSERT INTO invoices (` + invoiceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	_, err := r.q.Exec(ctx, query,
		inv.ID, inv.OrganizationID, inv.CustomerName, inv.CustomerTaxID, inv.Prefix, inv.Number, inv.Status,
		inv.Date, inv.DueDate, inv.NetTotal, inv.DiscountTotal, inv.TaxTotal, inv.GrandTotal, inv.Notes,
		inv.CreatedBy, inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert invoice: %w", mapError(err))
	}
	return nil
}

// CreateItem persiste una línea; line_no se asigna en orden de inserción.
func (r *InvoiceRepo) CreateItem(ctx context.Context, it *entity.InvoiceItem) error {
	query := `
		INSERT INTO invoice_items (id, invoice_id, line_no, description, quantity, unit_price, tax_rate,
			discount_rate, subtotal, inventory_item_id, deduct_from_stock)
		VALUES ($1, $2, (SELECT COALESCE(MAX(line_no), 0) + 1 FROM invoice_items WHERE invoice_id = $2),
			$3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		it.ID, it.InvoiceID, it.Description, it.Quantity, it.UnitPrice, it.TaxRate,
		it.DiscountRate, it.Subtotal, it.InventoryItemID, it.DeductFromStock,
	)
	if err != nil {
		return fmt.Errorf("insert invoice item: %w", mapError(err))
	}
	return nil
}

// GetByID obtiene la factura de la organización; nil si no existe.
func (r *InvoiceRepo) GetByID(ctx context.Context, orgID, id string) (*entity.Invoice, error) {
	return r.getOne(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE organization_id = $1 AND id = $2`, orgID, id)
}

// GetForUpdate igual que GetByID pero bloquea la fila hasta el fin de la transacción.
func (r *InvoiceRepo) GetForUpdate(ctx context.Context, orgID, id string) (*entity.Invoice, error) {
	inv, err := r.getOne(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE organization_id = $1 AND id = $2 FOR UPDATE`, orgID, id)
	if err != nil {
		return nil, mapError(err)
	}
	return inv, nil
}

func (r *InvoiceRepo) getOne(ctx context.Context, query string, args ...any) (*entity.Invoice, error) {
	inv, err := scanInvoice(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return inv, nil
}

// GetItems líneas de la factura en orden.
func (r *InvoiceRepo) GetItems(ctx context.Context, invoiceID string) ([]*entity.InvoiceItem, error) {
	query := `
		SELECT id, invoice_id, description, quantity, unit_price, tax_rate, discount_rate, subtotal,
			inventory_item_id, deduct_from_stock
		FROM invoice_items WHERE invoice_id = $1 ORDER BY line_no`
	rows, err := r.q.Query(ctx, query, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("get invoice items: %w", err)
	}
	defer rows.Close()
	var list []*entity.InvoiceItem
	for rows.Next() {
		var it entity.InvoiceItem
		if err := rows.Scan(&it.ID, &it.InvoiceID, &it.Description, &it.Quantity, &it.UnitPrice, &it.TaxRate,
			&it.DiscountRate, &it.Subtotal, &it.InventoryItemID, &it.DeductFromStock); err != nil {
			return nil, fmt.Errorf("scan invoice item: %w", err)
		}
		list = append(list, &it)
	}
	return list, rows.Err()
}

// UpdateStatus cambia el estado de la factura.
func (r *InvoiceRepo) UpdateStatus(ctx context.Context, orgID, id, status string, at time.Time) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE invoices SET status = $3, updated_at = $4 WHERE organization_id = $1 AND id = $2`,
		orgID, id, status, at)
	if err != nil {
		return fmt.Errorf("update invoice status: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List facturas de la organización, más recientes primero. status vacío = todos.
func (r *InvoiceRepo) List(ctx context.Context, orgID, status string, limit, offset int) ([]*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices
		WHERE organization_id = $1 AND ($2::text IS NULL OR status = $2)
		ORDER BY created_at DESC, id LIMIT $3 OFFSET $4`
	rows, err := r.q.Query(ctx, query, orgID, nullIfEmpty(status), limitArg(limit), offset)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()
	var list []*entity.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		list = append(list, inv)
	}
	return list, rows.Err()
}

func scanInvoice(row pgx.Row) (*entity.Invoice, error) {
	var inv entity.Invoice
	err := row.Scan(
		&inv.ID, &inv.OrganizationID, &inv.CustomerName, &inv.CustomerTaxID, &inv.Prefix, &inv.Number, &inv.Status,
		&inv.Date, &inv.DueDate, &inv.NetTotal, &inv.DiscountTotal, &inv.TaxTotal, &inv.GrandTotal, &inv.Notes,
		&inv.CreatedBy, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}
