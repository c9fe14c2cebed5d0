package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/invorya-stock/internal/domain/entity"
	"github.com/jhoicas/invorya-stock/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

const movementColumns = `id, organization_id, inventory_item_id, type, quantity, previous_level, new_level,
	reference_type, reference_id, reason, notes, actor_id, actor_kind, created_at`

// StockMovementRepo implementación del libro de movimientos sobre PostgreSQL.
// Solo inserta y consulta; el trigger de la tabla rechaza UPDATE y DELETE.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador.
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

// Create registra un movimiento.
func (r *StockMovementRepo) Create(ctx context.Context, m *entity.StockMovement) error {
	query := `
		INSERT INTO stock_movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.OrganizationID, m.InventoryItemID, string(m.Type), m.Quantity, m.PreviousLevel, m.NewLevel,
		string(m.ReferenceType), m.ReferenceID, m.Reason, m.Notes, m.ActorID, string(m.ActorKind), m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert stock movement: %w", mapError(err))
	}
	return nil
}

// ListByItem movimientos de un ítem, más recientes primero, con rango de fechas opcional.
func (r *StockMovementRepo) ListByItem(ctx context.Context, orgID, itemID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + movementColumns + ` FROM stock_movements
		WHERE organization_id = $1 AND inventory_item_id = $2`)
	args := []any{orgID, itemID}
	pos := 3
	if from != nil {
		fmt.Fprintf(&sb, " AND created_at >= $%d", pos)
		args = append(args, *from)
		pos++
	}
	if to != nil {
		fmt.Fprintf(&sb, " AND created_at <= $%d", pos)
		args = append(args, *to)
		pos++
	}
	fmt.Fprintf(&sb, " ORDER BY created_at DESC, seq DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limitArg(limit), offset)
	return r.queryMovements(ctx, "list movements by item", sb.String(), args...)
}

// ListByReference movimientos de una referencia en orden de inserción.
func (r *StockMovementRepo) ListByReference(ctx context.Context, orgID string, refType entity.ReferenceType, refID string) ([]*entity.StockMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements
		WHERE organization_id = $1 AND reference_type = $2 AND reference_id = $3
		ORDER BY seq`
	return r.queryMovements(ctx, "list movements by reference", query, orgID, string(refType), refID)
}

// SumByItem suma con signo de todo el historial del ítem.
func (r *StockMovementRepo) SumByItem(ctx context.Context, orgID, itemID string) (int64, int, error) {
	query := `
		SELECT COALESCE(SUM(quantity), 0)::bigint, COUNT(*)
		FROM stock_movements
		WHERE organization_id = $1 AND inventory_item_id = $2`
	var total, count int64
	if err := r.q.QueryRow(ctx, query, orgID, itemID).Scan(&total, &count); err != nil {
		return 0, 0, fmt.Errorf("sum movements: %w", err)
	}
	return total, int(count), nil
}

func (r *StockMovementRepo) queryMovements(ctx context.Context, op, query string, args ...any) ([]*entity.StockMovement, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	var list []*entity.StockMovement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock movement: %w", err)
		}
		list = append(list, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

func scanMovement(row pgx.Row) (*entity.StockMovement, error) {
	var (
		m                       entity.StockMovement
		typ, refType, actorKind string
	)
	err := row.Scan(
		&m.ID, &m.OrganizationID, &m.InventoryItemID, &typ, &m.Quantity, &m.PreviousLevel, &m.NewLevel,
		&refType, &m.ReferenceID, &m.Reason, &m.Notes, &m.ActorID, &actorKind, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.Type = entity.MovementType(typ)
	m.ReferenceType = entity.ReferenceType(refType)
	m.ActorKind = entity.ActorKind(actorKind)
	return &m, nil
}
