package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	appinv "github.com/jhoicas/invorya-stock/internal/application/inventory"
	"github.com/jhoicas/invorya-stock/internal/application/dto"
	"github.com/jhoicas/invorya-stock/internal/domain"
	"github.com/jhoicas/invorya-stock/pkg/logger"
)

// errorMapper traduce errores de dominio a respuestas HTTP. Los errores no reconocidos
// se registran y se devuelven como 500 sin exponer el detalle.
type errorMapper struct {
	log *logger.Logger
}

func (m errorMapper) respond(c *fiber.Ctx, err error) error {
	status, body := mapDomainError(err)
	if status == fiber.StatusInternalServerError && m.log != nil {
		m.log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("error interno")
	}
	return c.Status(status).JSON(body)
}

func mapDomainError(err error) (int, dto.ErrorResponse) {
	var (
		insufficient *domain.InsufficientStockError
		unavailable  *domain.ItemUnavailableError
		negative     *domain.NegativeStockError
	)
	switch {
	case errors.As(err, &insufficient):
		// el faltante es un resultado de negocio reportable, no un conflicto de concurrencia
		return fiber.StatusBadRequest, dto.ErrorResponse{
			Code:    "INSUFFICIENT_STOCK",
			Message: insufficient.Error(),
			Details: appinv.ToShortfallDTOs(insufficient.Shortfalls),
		}
	case errors.As(err, &unavailable):
		return fiber.StatusNotFound, dto.ErrorResponse{
			Code:    "ITEM_UNAVAILABLE",
			Message: unavailable.Error(),
			Details: fiber.Map{"item_ids": unavailable.ItemIDs},
		}
	case errors.As(err, &negative):
		return fiber.StatusUnprocessableEntity, dto.ErrorResponse{
			Code:    "NEGATIVE_STOCK",
			Message: negative.Error(),
			Details: fiber.Map{
				"item_id":       negative.ItemID,
				"current_level": negative.CurrentLevel,
				"delta":         negative.Delta,
				"new_level":     negative.CurrentLevel + negative.Delta,
			},
		}
	case errors.Is(err, domain.ErrFractionalQuantity):
		return fiber.StatusUnprocessableEntity, dto.ErrorResponse{Code: "FRACTIONAL_QUANTITY", Message: err.Error()}
	case errors.Is(err, domain.ErrItemNotFound):
		return fiber.StatusNotFound, dto.ErrorResponse{Code: "ITEM_NOT_FOUND", Message: "ítem de inventario no encontrado"}
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, dto.ErrorResponse{Code: "NOT_FOUND", Message: "recurso no encontrado"}
	case errors.Is(err, domain.ErrItemInactive):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "ITEM_INACTIVE", Message: err.Error()}
	case errors.Is(err, domain.ErrInvoiceNotCancellable):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "INVOICE_NOT_CANCELLABLE", Message: err.Error()}
	case errors.Is(err, domain.ErrDuplicate):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "DUPLICATE", Message: "el recurso ya existe"}
	case errors.Is(err, domain.ErrStockConflict), errors.Is(err, domain.ErrConflict):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "CONFLICT", Message: "conflicto concurrente, reintente la operación"}
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest, dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()}
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized, dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "no autorizado"}
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden, dto.ErrorResponse{Code: "FORBIDDEN", Message: "acceso denegado al recurso"}
	}
	return fiber.StatusInternalServerError, dto.ErrorResponse{Code: "INTERNAL", Message: "error interno del servidor"}
}
