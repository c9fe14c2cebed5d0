// Package pdf genera los documentos imprimibles del servicio: la representación
// gráfica de una factura y el kardex (tarjeta de stock) de un ítem.
//
// Layout de la factura (A4):
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Título + estado     │  N° Factura + Fecha          │
//	│  CLIENTE: Nombre + NIT/CC                                    │
//	│  TABLA: Cant | Descripción | P.Unit | IVA | Subtotal         │
//	│  TOTALES: Subtotal neto / Descuentos / Impuestos / TOTAL     │
//	│  FOOTER: QR de referencia + leyenda                          │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	appbilling "github.com/jhoicas/invorya-stock/internal/application/billing"
	"github.com/jhoicas/invorya-stock/internal/domain/entity"
)

var _ appbilling.InvoicePDFGenerator = (*MarotoPDFGenerator)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorRed     = &props.Color{Red: 170, Green: 30, Blue: 30}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoPDFGenerator implementa billing.InvoicePDFGenerator e inventory.StockCardRenderer usando Maroto v2.
type MarotoPDFGenerator struct {
	issuer string
}

// NewMarotoPDFGenerator construye el generador. issuer aparece como autor del documento.
func NewMarotoPDFGenerator(issuer string) *MarotoPDFGenerator {
	return &MarotoPDFGenerator{issuer: nonEmpty(issuer, "invorya-stock")}
}

func (g *MarotoPDFGenerator) newDocument(title string) core.Maroto {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle(title, true).
		WithAuthor(g.issuer, true).
		Build()
	return maroto.New(cfg)
}

// GenerateInvoicePDF genera el PDF de la factura y devuelve sus bytes.
func (g *MarotoPDFGenerator) GenerateInvoicePDF(_ context.Context, inv *entity.Invoice, items []*entity.InvoiceItem) ([]byte, error) {
	m := g.newDocument("Factura de venta " + invoiceNumber(inv))

	m.AddRows(headerRow(inv))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(customerRow(inv))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	m.AddRows(tableDetailRows(items)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(inv))

	m.AddRows(line.NewRow(3))
	m.AddRows(footerRows(inv)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: título y estado (izq), N° factura y fecha (der).
func headerRow(inv *entity.Invoice) core.Row {
	status := text.New("Estado: "+inv.Status, props.Text{Size: 9, Top: 9, Color: colorGray})
	if inv.Status == entity.InvoiceStatusCancelled || inv.Status == entity.InvoiceStatusVoid {
		status = text.New("ANULADA ("+inv.Status+")", props.Text{Style: fontstyle.Bold, Size: 10, Top: 9, Color: colorRed})
	}
	fecha := inv.Date.Format("02/01/2006")
	due := ""
	if inv.DueDate != nil {
		due = "Vence: " + inv.DueDate.Format("02/01/2006")
	}
	return row.New(20).Add(
		col.New(7).Add(
			text.New("FACTURA DE VENTA", props.Text{Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1}),
			status,
		),
		col.New(5).Add(
			text.New(invoiceNumber(inv), props.Text{Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 1}),
			text.New("Fecha: "+fecha, props.Text{Size: 8, Align: align.Right, Top: 8, Color: colorGray}),
			text.New(due, props.Text{Size: 8, Align: align.Right, Top: 13, Color: colorGray}),
		),
	)
}

// customerRow: datos del comprador.
func customerRow(inv *entity.Invoice) core.Row {
	return row.New(14).Add(
		col.New(12).Add(
			text.New("CLIENTE", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
			text.New(inv.CustomerName, props.Text{Style: fontstyle.Bold, Size: 10, Top: 6}),
			text.New("NIT/CC: "+nonEmpty(inv.CustomerTaxID, "-"), props.Text{Size: 8, Top: 12, Color: colorGray}),
		),
	)
}

// tableHeaderRow: cabecera de la tabla de detalles.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Cant.", 1, align.Center),
		h("Descripción", 5, align.Left),
		h("Precio Unit.", 2, align.Right),
		h("IVA%", 1, align.Center),
		h("Subtotal", 3, align.Right),
	)
}

// tableDetailRows: una fila por línea de detalle.
func tableDetailRows(items []*entity.InvoiceItem) []core.Row {
	result := make([]core.Row, 0, len(items))
	for _, it := range items {
		result = append(result, row.New(7).Add(
			col.New(1).Add(text.New(formatQuantity(it.Quantity), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(5).Add(text.New(it.Description, props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1})),
			col.New(2).Add(text.New(money(it.UnitPrice), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(1).Add(text.New(it.TaxRate.Shift(2).StringFixed(0)+"%", props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(3).Add(text.New(money(it.Subtotal), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return result
}

// totalsRow: bloque de totales alineado a la derecha.
func totalsRow(inv *entity.Invoice) core.Row {
	label := func(s string, top float64) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2, Top: top})
	}
	value := func(s string, top float64) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1, Top: top})
	}
	grand := props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Top: 18}

	return row.New(26).Add(
		col.New(3),
		col.New(3).Add(
			label("Subtotal neto:", 0),
			label("Descuentos:", 6),
			label("Impuestos:", 12),
			text.New("TOTAL A PAGAR:", grand),
		),
		col.New(3).Add(
			value(money(inv.NetTotal), 0),
			value(money(inv.DiscountTotal), 6),
			value(money(inv.TaxTotal), 12),
			text.New(money(inv.GrandTotal), grand),
		),
		col.New(3),
	)
}

// footerRows: QR con la referencia de la factura y notas.
func footerRows(inv *entity.Invoice) []core.Row {
	rows := []core.Row{
		row.New(1).Add(col.New(12).Add(line.New(props.Line{Color: colorGray, Thickness: 0.3}))),
		row.New(40).Add(
			col.New(3).Add(code.NewQr(qrPayload(inv), props.Rect{Percent: 95, Center: true})),
			col.New(9).Add(
				text.New("Referencia interna: "+inv.ID, props.Text{Size: 7, Top: 4, Left: 3, Color: colorGray}),
				text.New(inv.Notes, props.Text{Size: 8, Top: 12, Left: 3}),
			),
		),
	}
	return rows
}

// ── helpers ───────────────────────────────────────────────────────────────────

func invoiceNumber(inv *entity.Invoice) string {
	if inv.Prefix == "" {
		return inv.Number
	}
	return inv.Prefix + "-" + inv.Number
}

func qrPayload(inv *entity.Invoice) string {
	return strings.Join([]string{invoiceNumber(inv), inv.Date.Format("2006-01-02"), inv.GrandTotal.StringFixed(2), inv.ID}, "|")
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

func money(d decimal.Decimal) string {
	return "$" + formatMoney(d.Round(0).StringFixed(0))
}

// formatQuantity muestra enteros sin decimales y fracciones con hasta 4.
func formatQuantity(d decimal.Decimal) string {
	if d.IsInteger() {
		return d.StringFixed(0)
	}
	return d.Round(4).String()
}

// formatMoney inserta puntos de miles en un string numérico sin decimales.
// Ej: "25000" → "25.000", "-1000000" → "-1.000.000"
func formatMoney(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	n := len(s)
	if n <= 3 {
		return sign + s
	}
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(s) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return sign + string(buf)
}
