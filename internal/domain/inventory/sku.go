package inventory

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var skuUpper = cases.Upper(language.Und)

// NormalizeSKU normaliza un SKU antes de persistirlo o buscarlo: NFKC, sin espacios
// en los extremos, espacios internos colapsados a guion y mayúsculas.
// "  ab-12 ñ " -> "AB-12-Ñ"
func NormalizeSKU(sku string) string {
	s := norm.NFKC.String(strings.TrimSpace(sku))
	s = strings.Join(strings.Fields(s), "-")
	return skuUpper.String(s)
}
