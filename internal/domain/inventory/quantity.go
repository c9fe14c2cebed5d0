package inventory

import (
	"fmt"

	"github.com/jhoicas/invorya-stock/internal/domain"
	"github.com/shopspring/decimal"
)

// FractionalPolicy decide qué hacer con cantidades fraccionarias de factura
// contra stock entero.
type FractionalPolicy string

const (
	// FractionalFloor descuenta el piso de la cantidad (0.5 kg -> 0 unidades).
	FractionalFloor FractionalPolicy = "floor"
	// FractionalReject rechaza cantidades con parte decimal en líneas con stock.
	FractionalReject FractionalPolicy = "reject"
)

// ParseFractionalPolicy interpreta el valor de configuración; vacío = floor.
func ParseFractionalPolicy(s string) (FractionalPolicy, error) {
	switch FractionalPolicy(s) {
	case "", FractionalFloor:
		return FractionalFloor, nil
	case FractionalReject:
		return FractionalReject, nil
	}
	return "", fmt.Errorf("política de cantidades fraccionarias desconocida: %q", s)
}

// StockUnits convierte una cantidad de línea de factura a unidades enteras de stock.
func StockUnits(q decimal.Decimal, policy FractionalPolicy) (int64, error) {
	if q.IsNegative() {
		return 0, domain.ErrInvalidInput
	}
	floor := q.Floor()
	if policy == FractionalReject && !floor.Equal(q) {
		return 0, domain.ErrFractionalQuantity
	}
	return floor.IntPart(), nil
}

// SuggestedReorder cantidad sugerida de pedido para llevar el ítem a 1.5x su nivel de reorden.
func SuggestedReorder(stockLevel, reorderLevel int64) int64 {
	ideal := decimal.NewFromInt(reorderLevel).Mul(decimal.NewFromFloat(1.5)).Ceil().IntPart()
	if ideal <= stockLevel {
		return 0
	}
	return ideal - stockLevel
}
