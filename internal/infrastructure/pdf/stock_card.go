package pdf

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	appinv "github.com/jhoicas/invorya-stock/internal/application/inventory"
	"github.com/jhoicas/invorya-stock/internal/domain/entity"
)

var _ appinv.StockCardRenderer = (*MarotoPDFGenerator)(nil)

// RenderStockCard genera el kardex del ítem: un renglón por movimiento en orden cronológico.
func (g *MarotoPDFGenerator) RenderStockCard(_ context.Context, item *entity.InventoryItem, movements []*entity.StockMovement, generatedAt time.Time) ([]byte, error) {
	m := g.newDocument("Kardex " + item.SKU)

	m.AddRows(row.New(20).Add(
		col.New(8).Add(
			text.New("KARDEX DE INVENTARIO", props.Text{Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1}),
			text.New(fmt.Sprintf("%s (%s)", item.Name, item.SKU), props.Text{Style: fontstyle.Bold, Size: 10, Top: 9}),
		),
		col.New(4).Add(
			text.New("Stock actual: "+strconv.FormatInt(item.StockLevel, 10)+" "+item.UnitOfMeasure,
				props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right, Top: 1}),
			text.New("Generado: "+generatedAt.Format("02/01/2006 15:04"),
				props.Text{Size: 8, Align: align.Right, Top: 9, Color: colorGray}),
		),
	))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(stockCardHeader())
	m.AddRows(stockCardRows(movements)...)
	if len(movements) == 0 {
		m.AddRows(row.New(8).Add(col.New(12).Add(
			text.New("Sin movimientos registrados", props.Text{Size: 9, Align: align.Center, Top: 2, Color: colorGray}),
		)))
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar kardex: %w", err)
	}
	return doc.GetBytes(), nil
}

func stockCardHeader() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Fecha", 2, align.Left),
		h("Tipo", 2, align.Left),
		h("Cantidad", 1, align.Right),
		h("Anterior", 1, align.Right),
		h("Nuevo", 1, align.Right),
		h("Referencia", 2, align.Left),
		h("Motivo", 3, align.Left),
	)
}

func stockCardRows(movements []*entity.StockMovement) []core.Row {
	rows := make([]core.Row, 0, len(movements))
	for _, mv := range movements {
		qtyProps := props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1}
		if mv.Quantity < 0 {
			qtyProps.Color = colorRed
		}
		ref := string(mv.ReferenceType)
		if mv.ReferenceID != nil {
			ref += " " + *mv.ReferenceID
		}
		reason := ""
		if mv.Reason != nil {
			reason = *mv.Reason
		} else if mv.Notes != nil {
			reason = *mv.Notes
		}
		cell := props.Text{Size: 8, Top: 1, Left: 1}
		num := props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1}
		rows = append(rows, row.New(6).Add(
			col.New(2).Add(text.New(mv.CreatedAt.Format("02/01/2006 15:04"), cell)),
			col.New(2).Add(text.New(string(mv.Type), cell)),
			col.New(1).Add(text.New(strconv.FormatInt(mv.Quantity, 10), qtyProps)),
			col.New(1).Add(text.New(strconv.FormatInt(mv.PreviousLevel, 10), num)),
			col.New(1).Add(text.New(strconv.FormatInt(mv.NewLevel, 10), num)),
			col.New(2).Add(text.New(ref, cell)),
			col.New(3).Add(text.New(reason, cell)),
		))
	}
	return rows
}
