// Package pdf genera el documento paginado de la factura mensual sobre Maroto v2.
//
// Página 1 (resumen):
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  御請求書                       │  番号 / 対象期間 / 発行日     │
//	│  ─────────────────────────────────────────────────────────  │
//	│  DESTINATARIO                   │  EMISOR                     │
//	│  ご請求金額 (total)                          お支払期限      │
//	│  REJILLA 3×3: saldo / cuotas / impuestos                    │
//	│  お振込先 (banco)                                           │
//	└─────────────────────────────────────────────────────────────┘
//
// Página 2 (detalle): saldo arrastrado, socios, material, otros y resumen final.
// Ambas páginas llevan cabecera y pie.
package pdf

import (
	"context"
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/page"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/core/entity"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/johnfercher/maroto/v2/pkg/repository"

	"github.com/jhoicas/seikyu-api/internal/application/billing"
	"github.com/jhoicas/seikyu-api/internal/infrastructure/document"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 30, Green: 50, Blue: 90}
	colorGray    = &props.Color{Red: 110, Green: 110, Blue: 110}
	colorMuted   = &props.Color{Red: 160, Green: 160, Blue: 160}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
	colorHeadBg  = &props.Color{Red: 30, Green: 50, Blue: 90}
	colorTotalBg = &props.Color{Red: 235, Green: 238, Blue: 244}
)

// FontConfig fuentes TTF con glifos japoneses. Sin Path se usa la fuente base de Maroto.
type FontConfig struct {
	Family   string
	Path     string
	BoldPath string
}

// ── Renderer ──────────────────────────────────────────────────────────────────

// MarotoRenderer convierte el modelo de maquetación en PDF. Las fuentes se cargan una vez
// al construirlo; cada documento crea su propia instancia de Maroto.
type MarotoRenderer struct {
	builder *document.Builder
	fonts   []*entity.CustomFont
	family  string
	title   string
}

// MarotoFactory fábrica para el pool: cada renderer carga sus propias fuentes.
func MarotoFactory(builder *document.Builder, fonts FontConfig, title string) RendererFactory {
	return func() (Renderer, error) {
		r, err := NewMarotoRenderer(builder, fonts, title)
		if err != nil {
			return nil, err
		}
		return r, nil
	}
}

// NewMarotoRenderer carga las fuentes configuradas.
func NewMarotoRenderer(builder *document.Builder, fonts FontConfig, title string) (*MarotoRenderer, error) {
	r := &MarotoRenderer{builder: builder, family: "helvetica", title: title}
	if fonts.Path == "" {
		return r, nil
	}
	bold := fonts.BoldPath
	if bold == "" {
		bold = fonts.Path
	}
	loaded, err := repository.New().
		AddUTF8Font(fonts.Family, fontstyle.Normal, fonts.Path).
		AddUTF8Font(fonts.Family, fontstyle.Bold, bold).
		Load()
	if err != nil {
		return nil, fmt.Errorf("pdf: cargar fuentes %s: %w", fonts.Family, err)
	}
	r.fonts = loaded
	r.family = fonts.Family
	return r, nil
}

// Render genera el PDF y devuelve sus bytes.
func (r *MarotoRenderer) Render(ctx context.Context, doc *billing.InvoiceDocument, opts billing.RenderOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d := r.builder.Build(doc, opts)

	b := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(12).WithRightMargin(12).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: r.family, Size: 9}).
		WithPageNumber(props.PageNumber{Pattern: "{current} / {total}", Place: props.RightBottom, Size: 7, Color: colorGray}).
		WithTitle(r.title+" "+d.Number, true).
		WithAuthor(doc.Issuer.Name, true)
	if len(r.fonts) > 0 {
		b = b.WithCustomFonts(r.fonts)
	}

	m := maroto.New(b.Build())
	if err := m.RegisterHeader(headerRows(d)...); err != nil {
		return nil, fmt.Errorf("pdf: cabecera: %w", err)
	}
	if err := m.RegisterFooter(footerRow(d)); err != nil {
		return nil, fmt.Errorf("pdf: pie: %w", err)
	}

	m.AddPages(
		page.New().Add(summaryRows(d)...),
		page.New().Add(detailRows(d)...),
	)

	out, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return out.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRows(d *document.Document) []core.Row {
	return []core.Row{
		row.New(14).Add(
			col.New(6).Add(
				text.New(d.Title, props.Text{Style: fontstyle.Bold, Size: 16, Color: colorPrimary, Top: 2}),
			),
			col.New(6).Add(
				text.New("請求書番号 "+d.Number, props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right, Top: 1}),
				text.New(d.PeriodLabel, props.Text{Size: 9, Align: align.Right, Top: 6}),
				text.New("発行日 "+d.IssueDate, props.Text{Size: 8, Align: align.Right, Top: 10, Color: colorGray}),
			),
		),
		line.NewRow(2, props.Line{Color: colorPrimary, Thickness: 0.5}),
	}
}

func footerRow(d *document.Document) core.Row {
	return row.New(6).Add(
		col.New(10).Add(text.New(d.Footer, props.Text{Size: 7, Color: colorGray, Top: 1})),
		col.New(2),
	)
}

func summaryRows(d *document.Document) []core.Row {
	rows := []core.Row{row.New(4)}
	rows = append(rows, partiesRow(d))
	rows = append(rows, row.New(4))
	rows = append(rows, headlineRow(d))
	rows = append(rows, row.New(4))
	for _, gridRow := range d.Grid {
		cols := make([]core.Col, 0, 6)
		for _, f := range gridRow {
			cols = append(cols,
				col.New(2).Add(text.New(f.Label, props.Text{Size: 8, Top: 2, Left: 1, Color: colorGray})),
				col.New(2).Add(text.New(f.Value, props.Text{Size: 9, Top: 2, Align: align.Right, Right: 2})),
			)
		}
		rows = append(rows, row.New(8).Add(cols...), line.NewRow(1, props.Line{Color: colorMuted, Thickness: 0.2}))
	}
	rows = append(rows, row.New(6))
	rows = append(rows, row.New(7).Add(col.New(12).Add(
		text.New("お振込先", props.Text{Style: fontstyle.Bold, Size: 10, Color: colorPrimary, Top: 1}),
	)))
	for _, f := range d.Bank {
		rows = append(rows, row.New(5).Add(
			col.New(3).Add(text.New(f.Label, props.Text{Size: 8, Color: colorGray, Left: 2})),
			col.New(9).Add(text.New(f.Value, props.Text{Size: 9})),
		))
	}
	rows = append(rows, row.New(8).Add(col.New(12).Add(
		text.New(d.Notice, props.Text{Size: 8, Top: 3, Color: colorGray}),
	)))
	return rows
}

func partiesRow(d *document.Document) core.Row {
	left := col.New(7).Add(text.New(d.Recipient.Name, props.Text{Style: fontstyle.Bold, Size: 12}))
	for i, l := range d.Recipient.Lines {
		left.Add(text.New(l, props.Text{Size: 8, Top: 7 + float64(i)*4}))
	}
	right := col.New(5).Add(text.New(d.Issuer.Name, props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right}))
	for i, l := range d.Issuer.Lines {
		right.Add(text.New(l, props.Text{Size: 8, Align: align.Right, Top: 6 + float64(i)*4, Color: colorGray}))
	}
	height := 8 + 4*float64(max(len(d.Recipient.Lines), len(d.Issuer.Lines)))
	return row.New(height).Add(left, right)
}

func headlineRow(d *document.Document) core.Row {
	return row.New(14).WithStyle(&props.Cell{BackgroundColor: colorTotalBg}).Add(
		col.New(4).Add(text.New(d.Headline.Label, props.Text{Style: fontstyle.Bold, Size: 10, Top: 4, Left: 3})),
		col.New(4).Add(text.New(d.Headline.Value, props.Text{Style: fontstyle.Bold, Size: 16, Top: 3, Align: align.Right, Color: colorPrimary})),
		col.New(4).Add(text.New("お支払期限 "+d.DueDate, props.Text{Size: 8, Top: 5, Align: align.Right, Right: 3})),
	)
}

// Filas de detalle hasta las que se mantiene la altura normal; por encima se compacta
// para que la página 2 aguante listas largas. Lo que aún no cabe sigue en páginas de
// continuación con la misma cabecera y pie.
const compactAfterRows = 20

type rowMetrics struct {
	Height   float64
	FontSize float64
}

func detailMetrics(d *document.Document) rowMetrics {
	n := 0
	for _, t := range d.Details {
		n += len(t.Rows)
	}
	if n > compactAfterRows {
		return rowMetrics{Height: 4.2, FontSize: 7}
	}
	return rowMetrics{Height: 5.5, FontSize: 8}
}

func detailRows(d *document.Document) []core.Row {
	m := detailMetrics(d)
	var rows []core.Row
	for _, t := range d.Details {
		rows = append(rows, tableRows(t, m)...)
		rows = append(rows, row.New(4))
	}
	return rows
}

func tableRows(t document.Table, m rowMetrics) []core.Row {
	rows := []core.Row{
		row.New(7).Add(col.New(12).Add(
			text.New(t.Title, props.Text{Style: fontstyle.Bold, Size: 10, Color: colorPrimary, Top: 1}),
		)),
	}

	head := make([]core.Col, len(t.Columns))
	for i, c := range t.Columns {
		head[i] = col.New(c.Span).Add(text.New(c.Label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: alignOf(c.Align), Color: colorWhite, Top: 1.5, Left: 1, Right: 1,
		}))
	}
	rows = append(rows, row.New(6).WithStyle(&props.Cell{BackgroundColor: colorHeadBg}).Add(head...))

	if len(t.Rows) == 0 {
		rows = append(rows, row.New(6).Add(col.New(12).Add(
			text.New(t.Empty, props.Text{Size: 8, Align: align.Center, Top: 1, Color: colorGray}),
		)))
	}
	for _, r := range t.Rows {
		color := (*props.Color)(nil)
		if r.Muted {
			color = colorMuted
		}
		rows = append(rows, row.New(m.Height).Add(cells(t.Columns, r.Cells, fontstyle.Normal, color, m.FontSize)...))
	}
	if t.Total != nil {
		rows = append(rows, row.New(6).WithStyle(&props.Cell{BackgroundColor: colorTotalBg}).
			Add(cells(t.Columns, t.Total.Cells, fontstyle.Bold, nil, 8)...))
	}
	if t.Note != "" {
		rows = append(rows, row.New(5).Add(col.New(12).Add(
			text.New(t.Note, props.Text{Size: 7, Top: 1, Color: colorGray}),
		)))
	}
	return rows
}

func cells(columns []document.Column, values []string, style fontstyle.Type, color *props.Color, size float64) []core.Col {
	out := make([]core.Col, len(columns))
	for i, c := range columns {
		v := ""
		if i < len(values) {
			v = values[i]
		}
		out[i] = col.New(c.Span).Add(text.New(v, props.Text{
			Style: style, Size: size, Align: alignOf(c.Align), Color: color, Top: 1, Left: 1, Right: 1,
		}))
	}
	return out
}

func alignOf(a document.Align) align.Type {
	switch a {
	case document.AlignRight:
		return align.Right
	case document.AlignCenter:
		return align.Center
	default:
		return align.Left
	}
}
