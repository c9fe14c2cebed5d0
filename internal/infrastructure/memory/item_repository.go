package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/jhoicas/invorya-stock/internal/domain"
	"github.com/jhoicas/invorya-stock/internal/domain/entity"
	"github.com/jhoicas/invorya-stock/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.InventoryItemRepository = (*itemRepo)(nil)

type itemRepo struct {
	v *view
}

func (r *itemRepo) Create(_ context.Context, item *entity.InventoryItem) error {
	return r.v.do("items.create", func(st *state) error {
		if _, ok := st.items[item.ID]; ok {
			return domain.ErrDuplicate
		}
		for _, it := range st.items {
			if it.OrganizationID == item.OrganizationID && it.SKU == item.SKU {
				return domain.ErrDuplicate
			}
		}
		if item.StockLevel < 0 || item.ReorderLevel < 0 {
			return domain.ErrInvalidInput
		}
		st.items[item.ID] = copyItem(item)
		return nil
	})
}

func (r *itemRepo) GetByID(_ context.Context, orgID, id string) (*entity.InventoryItem, error) {
	var out *entity.InventoryItem
	err := r.v.do("items.get", func(st *state) error {
		if it, ok := st.items[id]; ok && it.OrganizationID == orgID {
			out = copyItem(it)
		}
		return nil
	})
	return out, err
}

func (r *itemRepo) GetBySKU(_ context.Context, orgID, sku string) (*entity.InventoryItem, error) {
	var out *entity.InventoryItem
	err := r.v.do("items.get", func(st *state) error {
		for _, it := range st.items {
			if it.OrganizationID == orgID && it.SKU == sku {
				out = copyItem(it)
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *itemRepo) GetMany(_ context.Context, orgID string, ids []string) ([]*entity.InventoryItem, error) {
	return r.getMany("items.get_many", orgID, ids)
}

// GetManyForUpdate en memoria el aislamiento lo da el mutex de Run.
func (r *itemRepo) GetManyForUpdate(_ context.Context, orgID string, ids []string) ([]*entity.InventoryItem, error) {
	return r.getMany("items.get_many_for_update", orgID, ids)
}

func (r *itemRepo) getMany(op, orgID string, ids []string) ([]*entity.InventoryItem, error) {
	var out []*entity.InventoryItem
	err := r.v.do(op, func(st *state) error {
		seen := make(map[string]bool, len(ids))
		for _, id := range ids {
			if seen[id] {
				continue
			}
			seen[id] = true
			if it, ok := st.items[id]; ok && it.OrganizationID == orgID {
				out = append(out, copyItem(it))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

func (r *itemRepo) Decrement(_ context.Context, orgID, id string, qty int64) (int64, error) {
	var level int64
	err := r.v.do("items.decrement", func(st *state) error {
		it, ok := st.items[id]
		if !ok || it.OrganizationID != orgID || !it.Active || it.StockLevel < qty {
			return domain.ErrStockConflict
		}
		it.StockLevel -= qty
		level = it.StockLevel
		return nil
	})
	return level, err
}

func (r *itemRepo) Increment(_ context.Context, orgID, id string, qty int64) (int64, error) {
	var level int64
	err := r.v.do("items.increment", func(st *state) error {
		it, ok := st.items[id]
		if !ok || it.OrganizationID != orgID {
			return domain.ErrItemNotFound
		}
		it.StockLevel += qty
		level = it.StockLevel
		return nil
	})
	return level, err
}

func (r *itemRepo) Update(_ context.Context, item *entity.InventoryItem) error {
	return r.v.do("items.update", func(st *state) error {
		it, ok := st.items[item.ID]
		if !ok || it.OrganizationID != item.OrganizationID {
			return domain.ErrNotFound
		}
		for _, other := range st.items {
			if other.ID != item.ID && other.OrganizationID == item.OrganizationID && other.SKU == item.SKU {
				return domain.ErrDuplicate
			}
		}
		it.Name = item.Name
		it.SKU = item.SKU
		it.ReorderLevel = item.ReorderLevel
		it.UnitOfMeasure = item.UnitOfMeasure
		it.UnitPrice = item.UnitPrice
		it.Category = item.Category
		it.UpdatedAt = item.UpdatedAt
		return nil
	})
}

func (r *itemRepo) UpdateCostPrice(_ context.Context, orgID, id string, cost decimal.Decimal) error {
	return r.v.do("items.update_cost", func(st *state) error {
		it, ok := st.items[id]
		if !ok || it.OrganizationID != orgID {
			return domain.ErrNotFound
		}
		c := cost
		it.CostPrice = &c
		return nil
	})
}

func (r *itemRepo) SetActive(_ context.Context, orgID, id string, active bool) error {
	return r.v.do("items.set_active", func(st *state) error {
		it, ok := st.items[id]
		if !ok || it.OrganizationID != orgID {
			return domain.ErrNotFound
		}
		it.Active = active
		return nil
	})
}

func (r *itemRepo) List(_ context.Context, orgID string, f repository.ItemFilter) ([]*entity.InventoryItem, error) {
	var out []*entity.InventoryItem
	err := r.v.do("items.list", func(st *state) error {
		search := strings.ToLower(f.Search)
		for _, it := range st.items {
			if it.OrganizationID != orgID {
				continue
			}
			if f.ActiveOnly && !it.Active {
				continue
			}
			if f.LowStockOnly && !it.IsLowStock() {
				continue
			}
			if f.Category != "" && it.Category != f.Category {
				continue
			}
			if search != "" && !strings.Contains(strings.ToLower(it.Name), search) &&
				!strings.Contains(strings.ToLower(it.SKU), search) {
				continue
			}
			out = append(out, copyItem(it))
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return paginate(out, f.Limit, f.Offset), err
}

func paginate[T any](list []T, limit, offset int) []T {
	if offset >= len(list) {
		return nil
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}
