package memory

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/invorya-stock/internal/domain"
	"github.com/jhoicas/invorya-stock/internal/domain/entity"
	"github.com/jhoicas/invorya-stock/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*movementRepo)(nil)

type movementRepo struct {
	v *view
}

func (r *movementRepo) Create(_ context.Context, m *entity.StockMovement) error {
	return r.v.do("movements.create", func(st *state) error {
		// mismas restricciones que el CHECK de PostgreSQL
		if !m.Consistent() || m.NewLevel < 0 || !m.Type.Valid() || !m.ReferenceType.Valid() {
			return domain.ErrInvalidInput
		}
		c := *m
		st.movements = append(st.movements, &c)
		return nil
	})
}

func (r *movementRepo) ListByItem(_ context.Context, orgID, itemID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	var out []*entity.StockMovement
	err := r.v.do("movements.list", func(st *state) error {
		for _, m := range st.movements {
			if m.OrganizationID != orgID || m.InventoryItemID != itemID {
				continue
			}
			if from != nil && m.CreatedAt.Before(*from) {
				continue
			}
			if to != nil && m.CreatedAt.After(*to) {
				continue
			}
			c := *m
			out = append(out, &c)
		}
		return nil
	})
	// más reciente primero; a igual timestamp, orden inverso de inserción
	reverse(out)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, limit, offset), err
}

func (r *movementRepo) ListByReference(_ context.Context, orgID string, refType entity.ReferenceType, refID string) ([]*entity.StockMovement, error) {
	var out []*entity.StockMovement
	err := r.v.do("movements.list", func(st *state) error {
		for _, m := range st.movements {
			if m.OrganizationID != orgID || m.ReferenceType != refType || m.ReferenceID == nil || *m.ReferenceID != refID {
				continue
			}
			c := *m
			out = append(out, &c)
		}
		return nil
	})
	return out, err
}

func (r *movementRepo) SumByItem(_ context.Context, orgID, itemID string) (int64, int, error) {
	var total int64
	var count int
	err := r.v.do("movements.sum", func(st *state) error {
		for _, m := range st.movements {
			if m.OrganizationID == orgID && m.InventoryItemID == itemID {
				total += m.Quantity
				count++
			}
		}
		return nil
	})
	return total, count, err
}

func reverse[T any](s []T) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
