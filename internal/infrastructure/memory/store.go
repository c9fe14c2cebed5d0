// Package memory implementa los puertos de persistencia en memoria con semántica
// transaccional: cada Run trabaja sobre una copia del estado y solo la publica en Commit.
// Las transacciones se serializan con un único mutex (equivalente a SERIALIZABLE).
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/jhoicas/invorya-stock/internal/domain/entity"
	"github.com/jhoicas/invorya-stock/internal/domain/repository"
)

var (
	_ repository.TxRunner = (*Store)(nil)
	_ repository.Tx       = (*txView)(nil)
)

type state struct {
	items        map[string]*entity.InventoryItem
	movements    []*entity.StockMovement
	invoices     map[string]*entity.Invoice
	invoiceItems map[string][]*entity.InvoiceItem
}

func newState() *state {
	return &state{
		items:        make(map[string]*entity.InventoryItem),
		invoices:     make(map[string]*entity.Invoice),
		invoiceItems: make(map[string][]*entity.InvoiceItem),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.items {
		c.items[k] = copyItem(v)
	}
	c.movements = make([]*entity.StockMovement, len(s.movements))
	copy(c.movements, s.movements) // filas inmutables: basta copiar punteros
	for k, v := range s.invoices {
		inv := *v
		c.invoices[k] = &inv
	}
	for k, v := range s.invoiceItems {
		list := make([]*entity.InvoiceItem, len(v))
		copy(list, v)
		c.invoiceItems[k] = list
	}
	return c
}

// Store almacén en memoria. El valor cero no es usable; usar NewStore.
type Store struct {
	mu     sync.Mutex
	st     *state
	faults map[string]error
}

// NewStore construye un almacén vacío.
func NewStore() *Store {
	return &Store{st: newState(), faults: make(map[string]error)}
}

// InjectFault hace que la operación indicada ("movements.create", "items.decrement",
// "invoices.create", ...) falle con err. Útil para probar rollback ante fallos de infraestructura.
func (s *Store) InjectFault(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.faults, op)
		return
	}
	s.faults[op] = err
}

// Run ejecuta fn sobre una copia del estado; si fn retorna nil la copia reemplaza al estado.
func (s *Store) Run(ctx context.Context, fn func(tx repository.Tx) error) (err error) {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	view := &txView{st: work, faults: s.faults}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("transaction panic: %v", r)
		}
	}()
	if err := fn(view); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	s.st = work
	return nil
}

// Items repositorio de ítems en modo autocommit (fuera de transacción).
func (s *Store) Items() repository.InventoryItemRepository {
	return &itemRepo{v: s.autocommit()}
}

// Movements repositorio del libro en modo autocommit.
func (s *Store) Movements() repository.StockMovementRepository {
	return &movementRepo{v: s.autocommit()}
}

// Invoices repositorio de facturas en modo autocommit.
func (s *Store) Invoices() repository.InvoiceRepository {
	return &invoiceRepo{v: s.autocommit()}
}

func (s *Store) autocommit() *view {
	return &view{store: s}
}

// view resuelve el estado a usar: el de la transacción o el publicado (con lock).
type view struct {
	store *Store
	tx    *txView
}

func (v *view) do(op string, fn func(st *state) error) error {
	if v.tx != nil {
		if err := v.tx.faults[op]; err != nil {
			return err
		}
		return fn(v.tx.st)
	}
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	if err := v.store.faults[op]; err != nil {
		return err
	}
	// autocommit: muta una copia y la publica solo si no hubo error
	work := v.store.st.clone()
	if err := fn(work); err != nil {
		return err
	}
	v.store.st = work
	return nil
}

type txView struct {
	st     *state
	faults map[string]error
}

func (t *txView) Items() repository.InventoryItemRepository {
	return &itemRepo{v: &view{tx: t}}
}

func (t *txView) Movements() repository.StockMovementRepository {
	return &movementRepo{v: &view{tx: t}}
}

func (t *txView) Invoices() repository.InvoiceRepository {
	return &invoiceRepo{v: &view{tx: t}}
}

func copyItem(i *entity.InventoryItem) *entity.InventoryItem {
	c := *i
	if i.CostPrice != nil {
		cp := *i.CostPrice
		c.CostPrice = &cp
	}
	return &c
}
