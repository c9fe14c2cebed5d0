package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/invorya-stock/internal/application/dto"
	appinv "github.com/jhoicas/invorya-stock/internal/application/inventory"
	"github.com/jhoicas/invorya-stock/internal/application/ports"
	"github.com/jhoicas/invorya-stock/internal/domain"
	"github.com/jhoicas/invorya-stock/internal/domain/entity"
	"github.com/jhoicas/invorya-stock/internal/domain/inventory"
	"github.com/jhoicas/invorya-stock/internal/domain/repository"
	"github.com/jhoicas/invorya-stock/pkg/logger"
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// CreateInvoiceUseCase crea una factura y descuenta el inventario en una sola transacción.
type CreateInvoiceUseCase struct {
	txRunner repository.TxRunner
	engine   StockEngine
	checker  AvailabilityChecker
	events   ports.EventSink
	log      *logger.Logger
	policy   inventory.FractionalPolicy
	now      func() time.Time
}

// NewCreateInvoiceUseCase construye el caso de uso.
func NewCreateInvoiceUseCase(
	txRunner repository.TxRunner,
	engine StockEngine,
	checker AvailabilityChecker,
	events ports.EventSink,
	log *logger.Logger,
	policy inventory.FractionalPolicy,
) *CreateInvoiceUseCase {
	if events == nil {
		events = ports.NopSink{}
	}
	if log == nil {
		log = logger.Nop()
	}
	if policy == "" {
		policy = inventory.FractionalFloor
	}
	return &CreateInvoiceUseCase{
		txRunner: txRunner,
		engine:   engine,
		checker:  checker,
		events:   events,
		log:      log,
		policy:   policy,
		now:      time.Now,
	}
}

// CreateInvoice valida las líneas, calcula totales, pre-chequea disponibilidad y, en una
// transacción, guarda cabecera y detalles y descuenta el stock. La factura nunca existe sin
// sus movimientos de stock ni viceversa.
func (uc *CreateInvoiceUseCase) CreateInvoice(ctx context.Context, actor entity.Actor, in dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error) {
	if actor.OrganizationID == "" || strings.TrimSpace(in.CustomerName) == "" || strings.TrimSpace(in.Prefix) == "" || len(in.Items) == 0 {
		return nil, domain.ErrInvalidInput
	}
	status := in.Status
	if status == "" {
		status = entity.InvoiceStatusIssued
	}
	if status != entity.InvoiceStatusIssued && status != entity.InvoiceStatusDraft {
		return nil, domain.ErrInvalidInput
	}

	now := uc.now()
	invoiceID := uuid.New().String()
	items := make([]*entity.InvoiceItem, 0, len(in.Items))
	var deductions []appinv.DeductionRequest
	var netTotal, discountTotal, taxTotal decimal.Decimal

	// 1) Líneas, totales y cantidades a descontar
	for _, line := range in.Items {
		if !line.Quantity.GreaterThan(decimal.Zero) || line.UnitPrice.IsNegative() {
			return nil, domain.ErrInvalidInput
		}
		taxRate, err := normalizeRate(line.TaxRate)
		if err != nil {
			return nil, err
		}
		discountRate, err := normalizeRate(line.DiscountRate)
		if err != nil {
			return nil, err
		}
		if line.DeductFromStock && (line.InventoryItemID == nil || *line.InventoryItemID == "") {
			return nil, domain.ErrInvalidInput
		}

		gross := line.Quantity.Mul(line.UnitPrice)
		discount := gross.Mul(discountRate).Round(2)
		subtotal := gross.Sub(discount).Round(2)
		tax := subtotal.Mul(taxRate).Round(2)
		netTotal = netTotal.Add(subtotal)
		discountTotal = discountTotal.Add(discount)
		taxTotal = taxTotal.Add(tax)

		item := &entity.InvoiceItem{
			ID:              uuid.New().String(),
			InvoiceID:       invoiceID,
			Description:     line.Description,
			Quantity:        line.Quantity,
			UnitPrice:       line.UnitPrice,
			TaxRate:         taxRate,
			DiscountRate:    discountRate,
			Subtotal:        subtotal,
			InventoryItemID: line.InventoryItemID,
			DeductFromStock: line.DeductFromStock,
		}
		items = append(items, item)

		if !item.TracksStock() {
			continue
		}
		units, err := inventory.StockUnits(line.Quantity, uc.policy)
		if err != nil {
			return nil, err
		}
		if units > 0 {
			deductions = append(deductions, appinv.DeductionRequest{ItemID: *item.InventoryItemID, Quantity: units})
		}
	}

	// 2) Pre-chequeo (advisory): falla rápido sin tocar la base de datos
	if len(deductions) > 0 {
		if err := uc.precheck(ctx, actor.OrganizationID, deductions); err != nil {
			return nil, err
		}
	}

	number := strings.TrimSpace(in.Number)
	if number == "" {
		number = fmt.Sprintf("%s-%s", now.Format("20060102"), strings.ToUpper(invoiceID[:8]))
	}
	inv := &entity.Invoice{
		ID:             invoiceID,
		OrganizationID: actor.OrganizationID,
		CustomerName:   strings.TrimSpace(in.CustomerName),
		CustomerTaxID:  in.CustomerTaxID,
		Prefix:         strings.TrimSpace(in.Prefix),
		Number:         number,
		Status:         status,
		Date:           now,
		DueDate:        in.DueDate,
		NetTotal:       netTotal,
		DiscountTotal:  discountTotal,
		TaxTotal:       taxTotal,
		GrandTotal:     netTotal.Add(taxTotal),
		Notes:          in.Notes,
		CreatedBy:      actor.UserID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	// 3) Transacción: cabecera + detalles + deducción. Cualquier error revierte todo.
	var deducted *appinv.DeductionResult
	err := uc.txRunner.Run(ctx, func(tx repository.Tx) error {
		if err := tx.Invoices().Create(ctx, inv); err != nil {
			return err
		}
		for _, item := range items {
			if err := tx.Invoices().CreateItem(ctx, item); err != nil {
				return err
			}
		}
		var err error
		deducted, err = uc.engine.Deduct(ctx, tx, actor, deductions, inv.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	// 4) Efectos post-commit
	uc.publishCreated(ctx, actor, inv, deducted)

	resp := toInvoiceResponse(inv, items)
	resp.StockMovements = movementLinesToResponse(deducted.DeductedItems, entity.MovementTypeSale, inv.ID, actor, now)
	return resp, nil
}

// precheck consulta disponibilidad de lo que efectivamente se descontará.
// Ítems inexistentes o inactivos se reportan con el error propio, no como faltante.
func (uc *CreateInvoiceUseCase) precheck(ctx context.Context, orgID string, deductions []appinv.DeductionRequest) error {
	reqs := make([]appinv.AvailabilityRequest, 0, len(deductions))
	for _, d := range deductions {
		reqs = append(reqs, appinv.AvailabilityRequest{ItemID: d.ItemID, Quantity: decimal.NewFromInt(d.Quantity)})
	}
	res, err := uc.checker.Check(ctx, orgID, reqs)
	if err != nil {
		return err
	}
	var missing []string
	for _, it := range res.Items {
		if !it.Found {
			missing = append(missing, it.ItemID)
		}
	}
	if len(missing) > 0 {
		return &domain.ItemUnavailableError{ItemIDs: missing}
	}
	return res.Err()
}

func (uc *CreateInvoiceUseCase) publishCreated(ctx context.Context, actor entity.Actor, inv *entity.Invoice, deducted *appinv.DeductionResult) {
	itemIDs := make([]string, 0, len(deducted.DeductedItems))
	var lowStock []string
	for _, l := range deducted.DeductedItems {
		itemIDs = append(itemIDs, l.ItemID)
		if l.LowStock {
			lowStock = append(lowStock, l.ItemID)
		}
	}
	ev := ports.Event{
		Type:           ports.EventInvoiceCreated,
		OrganizationID: actor.OrganizationID,
		ActorID:        actor.UserID,
		ActorKind:      string(actor.Kind),
		EntityType:     "invoice",
		EntityID:       inv.ID,
		ItemIDs:        itemIDs,
		Data: map[string]any{
			"number":          inv.Prefix + "-" + inv.Number,
			"grand_total":     inv.GrandTotal.String(),
			"deducted_items":  len(itemIDs),
			"low_stock_items": lowStock,
		},
		OccurredAt: uc.now(),
	}
	if err := uc.events.Publish(ctx, ev); err != nil {
		uc.log.ForActor(ev.OrganizationID, ev.ActorID, ev.ActorKind).Warn().Err(err).Str("invoice_id", inv.ID).Msg("efecto post-commit de factura falló")
	}
}

// normalizeRate acepta 19 o 0.19 y devuelve la fracción; fuera de [0, 1] es inválido.
func normalizeRate(rate decimal.Decimal) (decimal.Decimal, error) {
	if rate.IsNegative() {
		return decimal.Zero, domain.ErrInvalidInput
	}
	if rate.GreaterThan(one) {
		rate = rate.Div(hundred)
	}
	if rate.GreaterThan(one) {
		return decimal.Zero, domain.ErrInvalidInput
	}
	return rate, nil
}
