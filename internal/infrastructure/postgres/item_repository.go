package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/invorya-stock/internal/domain"
	"github.com/jhoicas/invorya-stock/internal/domain/entity"
	"github.com/jhoicas/invorya-stock/internal/domain/repository"
)

var _ repository.InventoryItemRepository = (*InventoryItemRepo)(nil)

const itemColumns = `id, organization_id, name, sku, stock_level, reorder_level, unit_of_measure,
	unit_price, cost_price, category, active, created_at, updated_at`

// InventoryItemRepo implementación del puerto InventoryItemRepository sobre PostgreSQL (usable con pool o tx).
type InventoryItemRepo struct {
	q Querier
}

// NewInventoryItemRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryItemRepository(q Querier) *InventoryItemRepo {
	return &InventoryItemRepo{q: q}
}

// Create persiste un nuevo ítem.
func (r *InventoryItemRepo) Create(ctx context.Context, item *entity.InventoryItem) error {
	query := `
		INSERT INTO inventory_items (` + itemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		item.ID, item.OrganizationID, item.Name, item.SKU, item.StockLevel, item.ReorderLevel,
		item.UnitOfMeasure, item.UnitPrice, item.CostPrice, item.Category, item.Active,
		item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert inventory item: %w", mapError(err))
	}
	return nil
}

// GetByID obtiene un ítem de la organización; nil si no existe.
func (r *InventoryItemRepo) GetByID(ctx context.Context, orgID, id string) (*entity.InventoryItem, error) {
	query := `SELECT ` + itemColumns + ` FROM inventory_items WHERE organization_id = $1 AND id = $2`
	it, err := scanItem(r.q.QueryRow(ctx, query, orgID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get inventory item: %w", err)
	}
	return it, nil
}

// GetBySKU obtiene un ítem por SKU normalizado; nil si no existe.
func (r *InventoryItemRepo) GetBySKU(ctx context.Context, orgID, sku string) (*entity.InventoryItem, error) {
	query := `SELECT ` + itemColumns + ` FROM inventory_items WHERE organization_id = $1 AND sku = $2`
	it, err := scanItem(r.q.QueryRow(ctx, query, orgID, sku))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get inventory item by sku: %w", err)
	}
	return it, nil
}

// GetMany lectura en lote sin bloqueo, ordenada por id.
func (r *InventoryItemRepo) GetMany(ctx context.Context, orgID string, ids []string) ([]*entity.InventoryItem, error) {
	query := `SELECT ` + itemColumns + ` FROM inventory_items
		WHERE organization_id = $1 AND id = ANY($2) ORDER BY id`
	return r.queryItems(ctx, "get inventory items", query, orgID, ids)
}

// GetManyForUpdate bloquea las filas en orden de id (SELECT FOR UPDATE) para evitar deadlocks
// entre transacciones que tocan los mismos ítems.
func (r *InventoryItemRepo) GetManyForUpdate(ctx context.Context, orgID string, ids []string) ([]*entity.InventoryItem, error) {
	query := `SELECT ` + itemColumns + ` FROM inventory_items
		WHERE organization_id = $1 AND id = ANY($2) ORDER BY id FOR UPDATE`
	items, err := r.queryItems(ctx, "lock inventory items", query, orgID, ids)
	if err != nil {
		return nil, mapError(err)
	}
	return items, nil
}

// Decrement resta de forma atómica solo si hay stock suficiente y el ítem está activo.
func (r *InventoryItemRepo) Decrement(ctx context.Context, orgID, id string, qty int64) (int64, error) {
	query := `
		UPDATE inventory_items
		SET stock_level = stock_level - $3, updated_at = now()
		WHERE organization_id = $1 AND id = $2 AND active AND stock_level >= $3
		RETURNING stock_level`
	var level int64
	if err := r.q.QueryRow(ctx, query, orgID, id, qty).Scan(&level); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrStockConflict
		}
		return 0, fmt.Errorf("decrement stock: %w", mapError(err))
	}
	return level, nil
}

// Increment suma de forma atómica. No exige ítem activo: la restauración aplica a ítems desactivados.
func (r *InventoryItemRepo) Increment(ctx context.Context, orgID, id string, qty int64) (int64, error) {
	query := `
		UPDATE inventory_items
		SET stock_level = stock_level + $3, updated_at = now()
		WHERE organization_id = $1 AND id = $2
		RETURNING stock_level`
	var level int64
	if err := r.q.QueryRow(ctx, query, orgID, id, qty).Scan(&level); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrItemNotFound
		}
		return 0, fmt.Errorf("increment stock: %w", mapError(err))
	}
	return level, nil
}

// Update actualiza campos descriptivos; stock_level y active quedan fuera.
func (r *InventoryItemRepo) Update(ctx context.Context, item *entity.InventoryItem) error {
	query := `
		UPDATE inventory_items
		SET name = $3, sku = $4, reorder_level = $5, unit_of_measure = $6, unit_price = $7,
		    category = $8, updated_at = $9
		WHERE organization_id = $1 AND id = $2`
	tag, err := r.q.Exec(ctx, query,
		item.OrganizationID, item.ID, item.Name, item.SKU, item.ReorderLevel, item.UnitOfMeasure,
		item.UnitPrice, item.Category, item.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("update inventory item: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateCostPrice guarda el costo promedio ponderado.
func (r *InventoryItemRepo) UpdateCostPrice(ctx context.Context, orgID, id string, cost decimal.Decimal) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE inventory_items SET cost_price = $3, updated_at = now() WHERE organization_id = $1 AND id = $2`,
		orgID, id, cost)
	if err != nil {
		return fmt.Errorf("update cost price: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SetActive activa o desactiva el ítem (soft delete).
func (r *InventoryItemRepo) SetActive(ctx context.Context, orgID, id string, active bool) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE inventory_items SET active = $3, updated_at = now() WHERE organization_id = $1 AND id = $2`,
		orgID, id, active)
	if err != nil {
		return fmt.Errorf("set active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List lista ítems con filtros, ordenados por nombre.
func (r *InventoryItemRepo) List(ctx context.Context, orgID string, f repository.ItemFilter) ([]*entity.InventoryItem, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + itemColumns + ` FROM inventory_items WHERE organization_id = $1`)
	args := []any{orgID}
	pos := 2
	if f.ActiveOnly {
		sb.WriteString(" AND active")
	}
	if f.LowStockOnly {
		sb.WriteString(" AND stock_level <= reorder_level")
	}
	if f.Category != "" {
		fmt.Fprintf(&sb, " AND category = $%d", pos)
		args = append(args, f.Category)
		pos++
	}
	if f.Search != "" {
		fmt.Fprintf(&sb, " AND (name ILIKE $%d OR sku ILIKE $%d)", pos, pos)
		args = append(args, "%"+f.Search+"%")
		pos++
	}
	fmt.Fprintf(&sb, " ORDER BY name, id LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limitArg(f.Limit), f.Offset)
	return r.queryItems(ctx, "list inventory items", sb.String(), args...)
}

func (r *InventoryItemRepo) queryItems(ctx context.Context, op, query string, args ...any) ([]*entity.InventoryItem, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	var list []*entity.InventoryItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan inventory item: %w", err)
		}
		list = append(list, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

func scanItem(row pgx.Row) (*entity.InventoryItem, error) {
	var it entity.InventoryItem
	err := row.Scan(
		&it.ID, &it.OrganizationID, &it.Name, &it.SKU, &it.StockLevel, &it.ReorderLevel,
		&it.UnitOfMeasure, &it.UnitPrice, &it.CostPrice, &it.Category, &it.Active,
		&it.CreatedAt, &it.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &it, nil
}
