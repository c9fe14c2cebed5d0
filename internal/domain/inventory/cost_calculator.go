package inventory

import "github.com/shopspring/decimal"

// WeightedAverageCost recalcula el costo unitario tras una reposición:
// (enStock * costoActual + recibido * costoRecibido) / (enStock + recibido), a 4 decimales.
// Sin costo previo (o sin existencias) el resultado es el costo recibido.
func WeightedAverageCost(onHand int64, currentCost decimal.Decimal, received int64, receivedCost decimal.Decimal) decimal.Decimal {
	if received <= 0 {
		return currentCost
	}
	if onHand <= 0 || currentCost.IsZero() {
		return receivedCost.Round(4)
	}
	total := decimal.NewFromInt(onHand + received)
	value := decimal.NewFromInt(onHand).Mul(currentCost).Add(decimal.NewFromInt(received).Mul(receivedCost))
	return value.Div(total).Round(4)
}
