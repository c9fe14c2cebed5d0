package memory

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/invorya-stock/internal/domain"
	"github.com/jhoicas/invorya-stock/internal/domain/entity"
	"github.com/jhoicas/invorya-stock/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*invoiceRepo)(nil)

type invoiceRepo struct {
	v *view
}

func (r *invoiceRepo) Create(_ context.Context, inv *entity.Invoice) error {
	return r.v.do("invoices.create", func(st *state) error {
		if _, ok := st.invoices[inv.ID]; ok {
			return domain.ErrDuplicate
		}
		for _, other := range st.invoices {
			if other.OrganizationID == inv.OrganizationID && other.Prefix == inv.Prefix && other.Number == inv.Number {
				return domain.ErrDuplicate
			}
		}
		c := *inv
		st.invoices[inv.ID] = &c
		return nil
	})
}

func (r *invoiceRepo) CreateItem(_ context.Context, item *entity.InvoiceItem) error {
	return r.v.do("invoices.create_item", func(st *state) error {
		if _, ok := st.invoices[item.InvoiceID]; !ok {
			return domain.ErrNotFound
		}
		c := *item
		st.invoiceItems[item.InvoiceID] = append(st.invoiceItems[item.InvoiceID], &c)
		return nil
	})
}

func (r *invoiceRepo) GetByID(_ context.Context, orgID, id string) (*entity.Invoice, error) {
	return r.get("invoices.get", orgID, id)
}

func (r *invoiceRepo) GetForUpdate(_ context.Context, orgID, id string) (*entity.Invoice, error) {
	return r.get("invoices.get_for_update", orgID, id)
}

func (r *invoiceRepo) get(op, orgID, id string) (*entity.Invoice, error) {
	var out *entity.Invoice
	err := r.v.do(op, func(st *state) error {
		if inv, ok := st.invoices[id]; ok && inv.OrganizationID == orgID {
			c := *inv
			out = &c
		}
		return nil
	})
	return out, err
}

func (r *invoiceRepo) GetItems(_ context.Context, invoiceID string) ([]*entity.InvoiceItem, error) {
	var out []*entity.InvoiceItem
	err := r.v.do("invoices.get_items", func(st *state) error {
		for _, it := range st.invoiceItems[invoiceID] {
			c := *it
			out = append(out, &c)
		}
		return nil
	})
	return out, err
}

func (r *invoiceRepo) UpdateStatus(_ context.Context, orgID, id, status string, at time.Time) error {
	return r.v.do("invoices.update_status", func(st *state) error {
		inv, ok := st.invoices[id]
		if !ok || inv.OrganizationID != orgID {
			return domain.ErrNotFound
		}
		inv.Status = status
		inv.UpdatedAt = at
		return nil
	})
}

func (r *invoiceRepo) List(_ context.Context, orgID, status string, limit, offset int) ([]*entity.Invoice, error) {
	var out []*entity.Invoice
	err := r.v.do("invoices.list", func(st *state) error {
		for _, inv := range st.invoices {
			if inv.OrganizationID != orgID || (status != "" && inv.Status != status) {
				continue
			}
			c := *inv
			out = append(out, &c)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, limit, offset), err
}
