package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound              = errors.New("recurso no encontrado")
	ErrInvalidInput          = errors.New("entrada inválida")
	ErrDuplicate             = errors.New("recurso duplicado")
	ErrUnauthorized          = errors.New("no autorizado")
	ErrForbidden             = errors.New("acceso denegado")
	ErrConflict              = errors.New("conflicto con el estado actual")
	ErrItemNotFound          = errors.New("ítem de inventario no encontrado")
	ErrItemInactive          = errors.New("ítem de inventario inactivo")
	ErrInsufficientStock     = errors.New("stock insuficiente")
	ErrNegativeStock         = errors.New("el ajuste dejaría el stock en negativo")
	ErrFractionalQuantity    = errors.New("cantidad fraccionaria no permitida para ítems con stock")
	ErrInvoiceNotCancellable = errors.New("la factura no admite anulación en su estado actual")
	// ErrStockConflict: la guarda atómica del UPDATE no encontró stock suficiente aunque la fila
	// estaba bloqueada. Es un fallo de infraestructura y obliga a abortar la transacción.
	ErrStockConflict = errors.New("conflicto concurrente sobre el nivel de stock")
)

// StockShortfall describe un faltante para un ítem concreto.
type StockShortfall struct {
	ItemID    string          `json:"item_id"`
	Name      string          `json:"name"`
	SKU       string          `json:"sku"`
	Available int64           `json:"available"`
	Requested decimal.Decimal `json:"requested"`
	Missing   decimal.Decimal `json:"missing"`
}

// InsufficientStockError agrupa todos los faltantes de una misma operación
// para que el caller muestre un único mensaje.
type InsufficientStockError struct {
	Shortfalls []StockShortfall
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Shortfalls))
	for _, s := range e.Shortfalls {
		label := s.Name
		if s.SKU != "" {
			label = fmt.Sprintf("%s (%s)", s.Name, s.SKU)
		}
		parts = append(parts, fmt.Sprintf("%s: disponible %d, solicitado %s", label, s.Available, s.Requested.String()))
	}
	return ErrInsufficientStock.Error() + ": " + strings.Join(parts, "; ")
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// ItemUnavailableError lista los ítems referenciados que no existen en la organización
// o están desactivados. Se distingue de InsufficientStockError.
type ItemUnavailableError struct {
	ItemIDs []string
}

func (e *ItemUnavailableError) Error() string {
	return fmt.Sprintf("%s o inactivo: %s", ErrItemNotFound.Error(), strings.Join(e.ItemIDs, ", "))
}

func (e *ItemUnavailableError) Unwrap() error { return ErrItemNotFound }

// NegativeStockError rechazo de un ajuste manual que dejaría el stock bajo cero.
type NegativeStockError struct {
	ItemID       string
	CurrentLevel int64
	Delta        int64
}

func (e *NegativeStockError) Error() string {
	return fmt.Sprintf("%s: nivel actual %d, ajuste %d, resultado %d",
		ErrNegativeStock.Error(), e.CurrentLevel, e.Delta, e.CurrentLevel+e.Delta)
}

func (e *NegativeStockError) Unwrap() error { return ErrNegativeStock }
