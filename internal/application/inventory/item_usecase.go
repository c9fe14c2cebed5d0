package inventory

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/invorya-stock/internal/application/dto"
	"github.com/jhoicas/invorya-stock/internal/application/ports"
	"github.com/jhoicas/invorya-stock/internal/domain"
	"github.com/jhoicas/invorya-stock/internal/domain/entity"
	"github.com/jhoicas/invorya-stock/internal/domain/inventory"
	"github.com/jhoicas/invorya-stock/internal/domain/repository"
	"github.com/jhoicas/invorya-stock/pkg/logger"
	"github.com/shopspring/decimal"
)

// stockCardLimit máximo de movimientos incluidos en el kardex PDF.
const stockCardLimit = 500

// ItemUseCase ciclo de vida de ítems de inventario y consultas del libro.
type ItemUseCase struct {
	txRunner     repository.TxRunner
	itemRepo     repository.InventoryItemRepository
	movementRepo repository.StockMovementRepository
	cache        ItemCache
	renderer     StockCardRenderer
	events       ports.EventSink
	log          *logger.Logger
	now          func() time.Time
}

// NewItemUseCase construye el caso de uso. cache y renderer pueden ser nil.
func NewItemUseCase(
	txRunner repository.TxRunner,
	itemRepo repository.InventoryItemRepository,
	movementRepo repository.StockMovementRepository,
	cache ItemCache,
	renderer StockCardRenderer,
	events ports.EventSink,
	log *logger.Logger,
) *ItemUseCase {
	if events == nil {
		events = ports.NopSink{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &ItemUseCase{
		txRunner:     txRunner,
		itemRepo:     itemRepo,
		movementRepo: movementRepo,
		cache:        cache,
		renderer:     renderer,
		events:       events,
		log:          log,
		now:          time.Now,
	}
}

// Create registra el ítem y, si trae stock inicial, un movimiento INITIAL en la misma transacción.
func (uc *ItemUseCase) Create(ctx context.Context, actor entity.Actor, in dto.CreateItemRequest) (*dto.ItemResponse, error) {
	if actor.OrganizationID == "" || in.Name == "" || in.InitialStock < 0 || in.ReorderLevel < 0 || in.UnitPrice.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	if in.CostPrice != nil && in.CostPrice.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	sku := inventory.NormalizeSKU(in.SKU)
	if sku == "" {
		return nil, domain.ErrInvalidInput
	}
	uom := in.UnitOfMeasure
	if uom == "" {
		uom = "UND"
	}
	now := uc.now()
	item := &entity.InventoryItem{
		ID:             uuid.New().String(),
		OrganizationID: actor.OrganizationID,
		Name:           in.Name,
		SKU:            sku,
		StockLevel:     in.InitialStock,
		ReorderLevel:   in.ReorderLevel,
		UnitOfMeasure:  uom,
		UnitPrice:      in.UnitPrice,
		CostPrice:      in.CostPrice,
		Category:       in.Category,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	err := uc.txRunner.Run(ctx, func(tx repository.Tx) error {
		if err := tx.Items().Create(ctx, item); err != nil {
			return err
		}
		if item.StockLevel == 0 {
			return nil
		}
		reason := "stock inicial"
		return tx.Movements().Create(ctx, &entity.StockMovement{
			ID:              uuid.New().String(),
			OrganizationID:  actor.OrganizationID,
			InventoryItemID: item.ID,
			Type:            entity.MovementTypeInitial,
			Quantity:        item.StockLevel,
			PreviousLevel:   0,
			NewLevel:        item.StockLevel,
			ReferenceType:   entity.ReferenceTypeManual,
			Reason:          &reason,
			ActorID:         actor.UserID,
			ActorKind:       actorKind(actor),
			CreatedAt:       now,
		})
	})
	if err != nil {
		return nil, err
	}
	uc.publish(ctx, actor, ports.EventItemCreated, item, map[string]any{"sku": item.SKU, "initial_stock": item.StockLevel})
	return toItemResponse(item), nil
}

// Get devuelve el ítem, leyendo primero de la caché si está configurada.
func (uc *ItemUseCase) Get(ctx context.Context, orgID, id string) (*dto.ItemResponse, error) {
	item, err := uc.load(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	return toItemResponse(item), nil
}

func (uc *ItemUseCase) load(ctx context.Context, orgID, id string) (*entity.InventoryItem, error) {
	if uc.cache != nil {
		cached, ok, err := uc.cache.Get(ctx, orgID, id)
		if err != nil {
			uc.log.Warn().Err(err).Str("item_id", id).Msg("lectura de caché falló")
		} else if ok {
			return cached, nil
		}
	}
	item, err := uc.itemRepo.GetByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrItemNotFound
	}
	if uc.cache != nil {
		if err := uc.cache.Set(ctx, item); err != nil {
			uc.log.Warn().Err(err).Str("item_id", id).Msg("escritura de caché falló")
		}
	}
	return item, nil
}

// List lista ítems con filtros y paginación.
func (uc *ItemUseCase) List(ctx context.Context, orgID string, filter repository.ItemFilter) (*dto.ItemListResponse, error) {
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	items, err := uc.itemRepo.List(ctx, orgID, filter)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, *toItemResponse(it))
	}
	return &dto.ItemListResponse{Items: out, Page: dto.PageResponse{Limit: filter.Limit, Offset: filter.Offset}}, nil
}

// Update modifica campos descriptivos. El stock solo cambia por los motores.
func (uc *ItemUseCase) Update(ctx context.Context, actor entity.Actor, id string, in dto.UpdateItemRequest) (*dto.ItemResponse, error) {
	item, err := uc.itemRepo.GetByID(ctx, actor.OrganizationID, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrItemNotFound
	}
	if in.Name != nil {
		if *in.Name == "" {
			return nil, domain.ErrInvalidInput
		}
		item.Name = *in.Name
	}
	if in.SKU != nil {
		sku := inventory.NormalizeSKU(*in.SKU)
		if sku == "" {
			return nil, domain.ErrInvalidInput
		}
		item.SKU = sku
	}
	if in.ReorderLevel != nil {
		if *in.ReorderLevel < 0 {
			return nil, domain.ErrInvalidInput
		}
		item.ReorderLevel = *in.ReorderLevel
	}
	if in.UnitOfMeasure != nil {
		item.UnitOfMeasure = *in.UnitOfMeasure
	}
	if in.UnitPrice != nil {
		if in.UnitPrice.IsNegative() {
			return nil, domain.ErrInvalidInput
		}
		item.UnitPrice = *in.UnitPrice
	}
	if in.Category != nil {
		item.Category = *in.Category
	}
	item.UpdatedAt = uc.now()
	if err := uc.itemRepo.Update(ctx, item); err != nil {
		return nil, err
	}
	uc.publish(ctx, actor, ports.EventItemUpdated, item, nil)
	return toItemResponse(item), nil
}

// Deactivate desactiva el ítem; deja de aceptar deducciones y ajustes. El historial se conserva.
func (uc *ItemUseCase) Deactivate(ctx context.Context, actor entity.Actor, id string) error {
	return uc.setActive(ctx, actor, id, false)
}

// Reactivate vuelve a activar un ítem desactivado.
func (uc *ItemUseCase) Reactivate(ctx context.Context, actor entity.Actor, id string) error {
	return uc.setActive(ctx, actor, id, true)
}

func (uc *ItemUseCase) setActive(ctx context.Context, actor entity.Actor, id string, active bool) error {
	item, err := uc.itemRepo.GetByID(ctx, actor.OrganizationID, id)
	if err != nil {
		return err
	}
	if item == nil {
		return domain.ErrItemNotFound
	}
	if item.Active == active {
		return nil
	}
	if err := uc.itemRepo.SetActive(ctx, actor.OrganizationID, id, active); err != nil {
		return err
	}
	item.Active = active
	evType := ports.EventItemDeactivated
	if active {
		evType = ports.EventItemReactivated
	}
	uc.publish(ctx, actor, evType, item, nil)
	return nil
}

// LowStock ítems activos en o por debajo de su nivel de reorden, con cantidad sugerida de pedido.
// Prioridad 1 para ítems agotados, 2 para el resto.
func (uc *ItemUseCase) LowStock(ctx context.Context, orgID string) ([]dto.ReplenishmentSuggestionDTO, error) {
	items, err := uc.itemRepo.List(ctx, orgID, repository.ItemFilter{ActiveOnly: true, LowStockOnly: true, Limit: 1000})
	if err != nil {
		return nil, err
	}
	out := make([]dto.ReplenishmentSuggestionDTO, 0, len(items))
	for _, it := range items {
		qty := inventory.SuggestedReorder(it.StockLevel, it.ReorderLevel)
		s := dto.ReplenishmentSuggestionDTO{
			ItemID:            it.ID,
			SKU:               it.SKU,
			Name:              it.Name,
			StockLevel:        it.StockLevel,
			ReorderLevel:      it.ReorderLevel,
			SuggestedOrderQty: qty,
			Priority:          2,
		}
		if it.StockLevel == 0 {
			s.Priority = 1
		}
		if it.CostPrice != nil {
			cost := it.CostPrice.Mul(decimal.NewFromInt(qty))
			s.EstimatedOrderCost = &cost
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out, nil
}

// Movements historial del ítem, más reciente primero.
func (uc *ItemUseCase) Movements(ctx context.Context, orgID, itemID string, from, to *time.Time, page dto.PageRequest) (*dto.MovementListResponse, error) {
	page.DefaultPage()
	item, err := uc.itemRepo.GetByID(ctx, orgID, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrItemNotFound
	}
	movs, err := uc.movementRepo.ListByItem(ctx, orgID, itemID, from, to, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	return &dto.MovementListResponse{Items: ToMovementResponses(movs), Page: dto.PageResponse{Limit: page.Limit, Offset: page.Offset}}, nil
}

// Reconcile compara el nivel de stock con la suma del libro y revisa cada fila.
func (uc *ItemUseCase) Reconcile(ctx context.Context, orgID, itemID string) (*dto.ReconcileResponse, error) {
	item, err := uc.itemRepo.GetByID(ctx, orgID, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrItemNotFound
	}
	total, count, err := uc.movementRepo.SumByItem(ctx, orgID, itemID)
	if err != nil {
		return nil, err
	}
	res := &dto.ReconcileResponse{
		ItemID:        itemID,
		StockLevel:    item.StockLevel,
		LedgerTotal:   total,
		MovementCount: count,
	}
	movs, err := uc.movementRepo.ListByItem(ctx, orgID, itemID, nil, nil, count, 0)
	if err != nil {
		return nil, err
	}
	for _, m := range movs {
		if !m.Consistent() {
			res.BrokenMovements = append(res.BrokenMovements, m.ID)
		}
	}
	res.Consistent = total == item.StockLevel && len(res.BrokenMovements) == 0
	if !res.Consistent {
		uc.log.Error().Str("item_id", itemID).Int64("stock_level", item.StockLevel).
			Int64("ledger_total", total).Int("broken", len(res.BrokenMovements)).Msg("libro de stock inconsistente")
	}
	return res, nil
}

// StockCardPDF genera el kardex del ítem con sus últimos movimientos.
func (uc *ItemUseCase) StockCardPDF(ctx context.Context, orgID, itemID string) ([]byte, error) {
	if uc.renderer == nil {
		return nil, errors.New("generador de kardex no configurado")
	}
	item, err := uc.itemRepo.GetByID(ctx, orgID, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrItemNotFound
	}
	movs, err := uc.movementRepo.ListByItem(ctx, orgID, itemID, nil, nil, stockCardLimit, 0)
	if err != nil {
		return nil, err
	}
	// el kardex se lee en orden cronológico
	slices.Reverse(movs)
	pdf, err := uc.renderer.RenderStockCard(ctx, item, movs, uc.now())
	if err != nil {
		return nil, fmt.Errorf("render stock card: %w", err)
	}
	return pdf, nil
}

func (uc *ItemUseCase) publish(ctx context.Context, actor entity.Actor, evType string, item *entity.InventoryItem, data map[string]any) {
	ev := ports.Event{
		Type:           evType,
		OrganizationID: actor.OrganizationID,
		ActorID:        actor.UserID,
		ActorKind:      string(actorKind(actor)),
		EntityType:     "inventory_item",
		EntityID:       item.ID,
		ItemIDs:        []string{item.ID},
		Data:           data,
		OccurredAt:     uc.now(),
	}
	if err := uc.events.Publish(ctx, ev); err != nil {
		uc.log.Warn().Err(err).Str("event", evType).Str("entity_id", item.ID).Msg("efecto post-commit falló")
	}
}

func toItemResponse(it *entity.InventoryItem) *dto.ItemResponse {
	return &dto.ItemResponse{
		ID:            it.ID,
		Name:          it.Name,
		SKU:           it.SKU,
		StockLevel:    it.StockLevel,
		ReorderLevel:  it.ReorderLevel,
		LowStock:      it.IsLowStock(),
		UnitOfMeasure: it.UnitOfMeasure,
		UnitPrice:     it.UnitPrice,
		CostPrice:     it.CostPrice,
		Category:      it.Category,
		Active:        it.Active,
		CreatedAt:     it.CreatedAt,
		UpdatedAt:     it.UpdatedAt,
	}
}

// ToMovementResponses mapea filas del libro a DTOs.
func ToMovementResponses(movs []*entity.StockMovement) []dto.MovementResponse {
	out := make([]dto.MovementResponse, 0, len(movs))
	for _, m := range movs {
		out = append(out, dto.MovementResponse{
			ID:            m.ID,
			ItemID:        m.InventoryItemID,
			Type:          string(m.Type),
			Quantity:      m.Quantity,
			PreviousLevel: m.PreviousLevel,
			NewLevel:      m.NewLevel,
			ReferenceType: string(m.ReferenceType),
			ReferenceID:   m.ReferenceID,
			Reason:        m.Reason,
			Notes:         m.Notes,
			ActorID:       m.ActorID,
			ActorKind:     string(m.ActorKind),
			CreatedAt:     m.CreatedAt,
		})
	}
	return out
}

// ToAvailabilityResponse mapea el resultado del verificador.
func ToAvailabilityResponse(r *AvailabilityResult) *dto.AvailabilityResponse {
	out := &dto.AvailabilityResponse{
		Valid:      r.Valid,
		Items:      make([]dto.ItemAvailabilityDTO, 0, len(r.Items)),
		Shortfalls: ToShortfallDTOs(r.Shortfalls),
	}
	for _, it := range r.Items {
		out.Items = append(out.Items, dto.ItemAvailabilityDTO{
			ItemID:     it.ItemID,
			Name:       it.Name,
			SKU:        it.SKU,
			Found:      it.Found,
			Available:  it.Available,
			Requested:  it.Requested,
			Sufficient: it.Sufficient,
		})
	}
	return out
}

// ToShortfallDTOs mapea faltantes de dominio a DTOs.
func ToShortfallDTOs(in []domain.StockShortfall) []dto.StockShortfallDTO {
	out := make([]dto.StockShortfallDTO, 0, len(in))
	for _, s := range in {
		out = append(out, dto.StockShortfallDTO{
			ItemID:    s.ItemID,
			Name:      s.Name,
			SKU:       s.SKU,
			Available: s.Available,
			Requested: s.Requested,
			Missing:   s.Missing,
		})
	}
	return out
}
