package http

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/invorya-stock/internal/application/dto"
	"github.com/jhoicas/invorya-stock/internal/application/inventory"
	"github.com/jhoicas/invorya-stock/internal/domain/entity"
	"github.com/jhoicas/invorya-stock/internal/domain/repository"
)

// InventoryHandler maneja las peticiones HTTP de ítems, ajustes y libro de stock (protegido).
type InventoryHandler struct {
	items    *inventory.ItemUseCase
	adjust   *inventory.AdjustmentUseCase
	checker  *inventory.AvailabilityChecker
	validate *validator.Validate
	errs     errorMapper
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(items *inventory.ItemUseCase, adjust *inventory.AdjustmentUseCase, checker *inventory.AvailabilityChecker, errs errorMapper) *InventoryHandler {
	return &InventoryHandler{items: items, adjust: adjust, checker: checker, validate: newValidator(), errs: errs}
}

// CreateItem godoc
// @Summary      Crear ítem de inventario
// @Description  Si initial_stock > 0 registra un movimiento INITIAL en el libro.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateItemRequest  true  "Datos del ítem"
// @Success      201   {object}  dto.ItemResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/items [post]
func (h *InventoryHandler) CreateItem(c *fiber.Ctx) error {
	var in dto.CreateItemRequest
	if ok, err := bindJSON(c, h.validate, &in); !ok {
		return err
	}
	out, err := h.items.Create(c.Context(), GetActor(c), in)
	if err != nil {
		return h.errs.respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ListItems godoc
// @Summary      Listar ítems
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        search       query  string  false  "Nombre o SKU (contiene)"
// @Param        category     query  string  false  "Categoría"
// @Param        active_only  query  bool    false  "Solo activos"
// @Param        low_stock    query  bool    false  "Solo en o bajo el nivel de reorden"
// @Param        limit        query  int     false  "Límite"  default(20)
// @Param        offset       query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.ItemListResponse
// @Router       /api/inventory/items [get]
func (h *InventoryHandler) ListItems(c *fiber.Ctx) error {
	page, ok, err := h.page(c)
	if !ok {
		return err
	}
	out, err := h.items.List(c.Context(), GetOrganizationID(c), repository.ItemFilter{
		ActiveOnly:   c.QueryBool("active_only", false),
		LowStockOnly: c.QueryBool("low_stock", false),
		Category:     c.Query("category"),
		Search:       c.Query("search"),
		Limit:        page.Limit,
		Offset:       page.Offset,
	})
	if err != nil {
		return h.errs.respond(c, err)
	}
	return c.JSON(out)
}

// GetItem godoc
// @Summary      Obtener ítem por ID
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del ítem"
// @Success      200  {object}  dto.ItemResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/items/{id} [get]
func (h *InventoryHandler) GetItem(c *fiber.Ctx) error {
	out, err := h.items.Get(c.Context(), GetOrganizationID(c), c.Params("id"))
	if err != nil {
		return h.errs.respond(c, err)
	}
	return c.JSON(out)
}

// UpdateItem godoc
// @Summary      Actualizar datos descriptivos del ítem
// @Description  El stock no se modifica por esta vía; use ajustes.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "ID del ítem"
// @Param        body  body  dto.UpdateItemRequest  true  "Campos a actualizar"
// @Success      200   {object}  dto.ItemResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/items/{id} [put]
func (h *InventoryHandler) UpdateItem(c *fiber.Ctx) error {
	var in dto.UpdateItemRequest
	if ok, err := bindJSON(c, h.validate, &in); !ok {
		return err
	}
	out, err := h.items.Update(c.Context(), GetActor(c), c.Params("id"), in)
	if err != nil {
		return h.errs.respond(c, err)
	}
	return c.JSON(out)
}

// DeactivateItem godoc
// @Summary      Desactivar ítem (soft delete)
// @Tags         inventory
// @Security     Bearer
// @Param        id   path  string  true  "ID del ítem"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/items/{id}/deactivate [post]
func (h *InventoryHandler) DeactivateItem(c *fiber.Ctx) error {
	if err := h.items.Deactivate(c.Context(), GetActor(c), c.Params("id")); err != nil {
		return h.errs.respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ReactivateItem godoc
// @Summary      Reactivar ítem
// @Tags         inventory
// @Security     Bearer
// @Param        id   path  string  true  "ID del ítem"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/items/{id}/reactivate [post]
func (h *InventoryHandler) ReactivateItem(c *fiber.Ctx) error {
	if err := h.items.Reactivate(c.Context(), GetActor(c), c.Params("id")); err != nil {
		return h.errs.respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// CheckAvailability godoc
// @Summary      Consultar disponibilidad de stock
// @Description  No muta estado. Un faltante no es error: valid=false con la lista de faltantes.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AvailabilityRequest  true  "Ítems y cantidades"
// @Success      200   {object}  dto.AvailabilityResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/inventory/availability [post]
func (h *InventoryHandler) CheckAvailability(c *fiber.Ctx) error {
	var in dto.AvailabilityRequest
	if ok, err := bindJSON(c, h.validate, &in); !ok {
		return err
	}
	reqs := make([]inventory.AvailabilityRequest, 0, len(in.Items))
	for _, l := range in.Items {
		reqs = append(reqs, inventory.AvailabilityRequest{ItemID: l.ItemID, Quantity: l.Quantity})
	}
	res, err := h.checker.Check(c.Context(), GetOrganizationID(c), reqs)
	if err != nil {
		return h.errs.respond(c, err)
	}
	return c.JSON(inventory.ToAvailabilityResponse(res))
}

// AdjustStock godoc
// @Summary      Ajuste manual de stock
// @Description  RESTOCK (cantidad positiva, unit_cost opcional recalcula costo promedio), ADJUSTMENT (con signo) o DAMAGE (negativa).
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true  "ID del ítem"
// @Param        body  body  dto.AdjustStockRequest  true  "Tipo, cantidad y motivo"
// @Success      201   {object}  dto.AdjustStockResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/inventory/items/{id}/adjustments [post]
func (h *InventoryHandler) AdjustStock(c *fiber.Ctx) error {
	var in dto.AdjustStockRequest
	if ok, err := bindJSON(c, h.validate, &in); !ok {
		return err
	}
	res, err := h.adjust.Adjust(c.Context(), GetActor(c), inventory.AdjustmentInput{
		ItemID:   c.Params("id"),
		Quantity: in.Quantity,
		Type:     entity.MovementType(in.Type),
		Reason:   in.Reason,
		Notes:    in.Notes,
		UnitCost: in.UnitCost,
	})
	if err != nil {
		return h.errs.respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.AdjustStockResponse{
		ItemID:        res.ItemID,
		PreviousLevel: res.PreviousLevel,
		NewLevel:      res.NewLevel,
		MovementID:    res.MovementID,
		CostPrice:     res.CostPrice,
		LowStock:      res.LowStock,
	})
}

// ListMovements godoc
// @Summary      Libro de movimientos del ítem
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id      path   string  true   "ID del ítem"
// @Param        from    query  string  false  "Desde (RFC3339)"
// @Param        to      query  string  false  "Hasta (RFC3339)"
// @Param        limit   query  int     false  "Límite"  default(20)
// @Param        offset  query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.MovementListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/items/{id}/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	page, ok, err := h.page(c)
	if !ok {
		return err
	}
	from, err := parseTimeQuery(c, "from")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "from debe ser RFC3339"})
	}
	to, err := parseTimeQuery(c, "to")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "to debe ser RFC3339"})
	}
	out, err := h.items.Movements(c.Context(), GetOrganizationID(c), c.Params("id"), from, to, page)
	if err != nil {
		return h.errs.respond(c, err)
	}
	return c.JSON(out)
}

// Reconcile godoc
// @Summary      Conciliar stock contra el libro
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del ítem"
// @Success      200  {object}  dto.ReconcileResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/items/{id}/reconcile [get]
func (h *InventoryHandler) Reconcile(c *fiber.Ctx) error {
	out, err := h.items.Reconcile(c.Context(), GetOrganizationID(c), c.Params("id"))
	if err != nil {
		return h.errs.respond(c, err)
	}
	return c.JSON(out)
}

// StockCard godoc
// @Summary      Kardex del ítem en PDF
// @Tags         inventory
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID del ítem"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/items/{id}/stock-card [get]
func (h *InventoryHandler) StockCard(c *fiber.Ctx) error {
	id := c.Params("id")
	pdf, err := h.items.StockCardPDF(c.Context(), GetOrganizationID(c), id)
	if err != nil {
		return h.errs.respond(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="kardex_`+id+`.pdf"`)
	return c.Send(pdf)
}

// LowStock godoc
// @Summary      Lista de reposición
// @Description  Ítems activos en o bajo su nivel de reorden con la cantidad sugerida de pedido.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {array}   dto.ReplenishmentSuggestionDTO
// @Router       /api/inventory/low-stock [get]
func (h *InventoryHandler) LowStock(c *fiber.Ctx) error {
	list, err := h.items.LowStock(c.Context(), GetOrganizationID(c))
	if err != nil {
		return h.errs.respond(c, err)
	}
	return c.JSON(fiber.Map{
		"total":          len(list),
		"replenishments": list,
	})
}

// page lee limit/offset del query string y los valida.
func (h *InventoryHandler) page(c *fiber.Ctx) (dto.PageRequest, bool, error) {
	return parsePage(c, h.validate)
}

func parsePage(c *fiber.Ctx, v *validator.Validate) (dto.PageRequest, bool, error) {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return page, false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	if ok, err := validateStruct(c, v, &page); !ok {
		return page, false, err
	}
	page.DefaultPage()
	return page, true, nil
}

func parseTimeQuery(c *fiber.Ctx, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
