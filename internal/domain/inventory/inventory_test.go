package inventory_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/invorya-stock/internal/domain"
	"github.com/jhoicas/invorya-stock/internal/domain/inventory"
)

func TestWeightedAverageCost(t *testing.T) {
	cases := []struct {
		name     string
		onHand   int64
		current  string
		received int64
		unit     string
		want     string
	}{
		// 10 u a 100 + 30 u a 200 = 7000 / 40 = 175
		{"promedio ponderado", 10, "100", 30, "200", "175"},
		{"sin existencias toma el costo recibido", 0, "80", 5, "50", "50"},
		{"sin costo previo toma el costo recibido", 12, "0", 3, "42.5", "42.5"},
		{"sin entrada conserva el costo", 7, "90", 0, "10", "90"},
		{"redondeo a cuatro decimales", 1, "1", 2, "0", "0.3333"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := inventory.WeightedAverageCost(tc.onHand, decimal.RequireFromString(tc.current), tc.received, decimal.RequireFromString(tc.unit))
			assert.True(t, got.Equal(decimal.RequireFromString(tc.want)), "got %s", got)
		})
	}
}

func TestStockUnits(t *testing.T) {
	cases := []struct {
		name    string
		q       string
		policy  inventory.FractionalPolicy
		want    int64
		wantErr error
	}{
		{"entero floor", "3", inventory.FractionalFloor, 3, nil},
		{"fraccion floor", "2.75", inventory.FractionalFloor, 2, nil},
		{"menor a uno floor", "0.5", inventory.FractionalFloor, 0, nil},
		{"entero reject", "4.00", inventory.FractionalReject, 4, nil},
		{"fraccion reject", "1.5", inventory.FractionalReject, 0, domain.ErrFractionalQuantity},
		{"negativa", "-1", inventory.FractionalFloor, 0, domain.ErrInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := inventory.StockUnits(decimal.RequireFromString(tc.q), tc.policy)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseFractionalPolicy(t *testing.T) {
	p, err := inventory.ParseFractionalPolicy("")
	require.NoError(t, err)
	assert.Equal(t, inventory.FractionalFloor, p)

	p, err = inventory.ParseFractionalPolicy("reject")
	require.NoError(t, err)
	assert.Equal(t, inventory.FractionalReject, p)

	_, err = inventory.ParseFractionalPolicy("round")
	assert.Error(t, err)
}

func TestSuggestedReorder(t *testing.T) {
	assert.Equal(t, int64(13), inventory.SuggestedReorder(2, 10)) // ideal 15
	assert.Equal(t, int64(0), inventory.SuggestedReorder(20, 10))
	assert.Equal(t, int64(2), inventory.SuggestedReorder(1, 2)) // ideal 3
}

func TestNormalizeSKU(t *testing.T) {
	assert.Equal(t, "AB-12-Ñ", inventory.NormalizeSKU("  ab 12 ñ "))
	assert.Equal(t, "SKU-001", inventory.NormalizeSKU("sku-001"))
	// NFKC: ancho completo -> ASCII
	assert.Equal(t, "ABC1", inventory.NormalizeSKU("ａｂｃ１"))
}
