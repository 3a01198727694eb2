// Package document contiene el modelo de maquetación compartido por la vista previa HTML
// y el documento paginado. Ambos renderers recorren el mismo Document; ninguno recalcula importes.
package document

import (
	"fmt"

	"github.com/jhoicas/seikyu-api/internal/application/billing"
	"github.com/jhoicas/seikyu-api/internal/domain/entity"
	"github.com/jhoicas/seikyu-api/internal/domain/invoicing"
)

// Align alineación horizontal de una columna.
type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// Column cabecera de tabla. Span es el ancho sobre una rejilla de 12.
type Column struct {
	Label string
	Align Align
	Span  int
}

// Row fila de tabla. Muted marca filas informativas que no suman al total.
type Row struct {
	Cells []string
	Muted bool
}

// Table bloque tabular del detalle.
type Table struct {
	Title   string
	Columns []Column
	Rows    []Row
	Total   *Row // fila de total opcional, con el mismo número de celdas
	Empty   string
	Note    string // aclaración bajo la tabla
}

// Field par etiqueta / valor.
type Field struct {
	Label string
	Value string
}

// Party bloque de destinatario o remitente.
type Party struct {
	Name  string
	Lines []string
}

// Document modelo de maquetación de una factura.
type Document struct {
	InvoiceID   string
	Title       string
	Number      string
	PeriodLabel string
	IssueDate   string
	DueDate     string
	ShowZero    bool

	// Página 1
	Recipient Party
	Issuer    Party
	Headline  Field
	Grid      [3][3]Field
	Bank      []Field
	Notice    string

	// Página 2
	Details []Table

	Footer string
}

// Builder arma Documents con un formateador fijo.
type Builder struct {
	f *Formatter
}

// NewBuilder crea el constructor de maquetación.
func NewBuilder(f *Formatter) *Builder {
	return &Builder{f: f}
}

// Formatter formateador en uso.
func (b *Builder) Formatter() *Formatter { return b.f }

// Build convierte el documento de facturación en el modelo de maquetación.
func (b *Builder) Build(doc *billing.InvoiceDocument, opts billing.RenderOptions) *Document {
	f := b.f
	a := doc.Computed.Amounts

	d := &Document{
		InvoiceID:   doc.InvoiceID,
		Title:       "御請求書",
		Number:      doc.Number,
		PeriodLabel: doc.Period.Label(),
		IssueDate:   f.LongDate(doc.IssueDate),
		DueDate:     f.LongDate(doc.DueDate),
		ShowZero:    opts.ShowZero,
		Recipient:   recipient(doc.Recipient),
		Issuer:      issuer(doc.Issuer),
		Headline:    Field{Label: "ご請求金額（税込）", Value: f.Money(a.TotalAmount)},
		Grid: [3][3]Field{
			{
				{Label: "前回ご請求額", Value: f.Money(a.PreviousBalance)},
				{Label: "ご入金額", Value: f.Money(a.Payment)},
				{Label: "繰越額", Value: f.Money(a.RemainingBalance)},
			},
			{
				{Label: "会費", Value: f.Money(a.MembershipFee)},
				{Label: "教材費", Value: f.Money(a.MaterialDelivery)},
				{Label: "その他", Value: f.Money(a.Other)},
			},
			{
				{Label: "非課税", Value: f.Money(a.NonTaxable)},
				{Label: "調整額", Value: f.Money(a.Adjustment.Neg())},
				{Label: fmt.Sprintf("消費税（%s）", f.Percent(a.TaxRate)), Value: f.Money(a.TaxAmount)},
			},
		},
		Bank: []Field{
			{Label: "振込先", Value: joinNonEmpty(" ", doc.Bank.Name, doc.Bank.Branch)},
			{Label: "口座", Value: joinNonEmpty(" ", doc.Bank.AccountType, doc.Bank.AccountNumber)},
			{Label: "口座名義", Value: doc.Bank.AccountHolder},
		},
		Notice: fmt.Sprintf("%sまでに上記口座へお振込みください。振込手数料はご負担願います。", f.LongDate(doc.DueDate)),
		Footer: joinNonEmpty("　", doc.Issuer.Name, "請求書番号 "+doc.Number, doc.Period.Label()),
	}

	d.Details = []Table{
		b.balanceTable(a),
		b.membershipTable(doc.Computed, doc.DroppedBankTransfer, opts.ShowZero),
		b.materialTable(doc.Computed),
		b.otherTable(doc.Computed),
		b.summaryTable(a),
	}
	return d
}

func (b *Builder) balanceTable(a invoicing.Amounts) Table {
	return Table{
		Title: "繰越残高",
		Columns: []Column{
			{Label: "前回ご請求額", Align: AlignRight, Span: 4},
			{Label: "ご入金額", Align: AlignRight, Span: 4},
			{Label: "繰越額", Align: AlignRight, Span: 4},
		},
		Rows: []Row{{Cells: []string{b.f.Money(a.PreviousBalance), b.f.Money(a.Payment), b.f.Money(a.RemainingBalance)}}},
	}
}

func (b *Builder) membershipTable(c invoicing.ComputedInvoice, dropped []entity.MembershipLine, showZero bool) Table {
	t := Table{
		Title: "会費明細",
		Columns: []Column{
			{Label: "教室コード", Align: AlignLeft, Span: 2},
			{Label: "教室名", Align: AlignLeft, Span: 3},
			{Label: "人数", Align: AlignRight, Span: 1},
			{Label: "単価", Align: AlignRight, Span: 2},
			{Label: "金額", Align: AlignRight, Span: 2},
			{Label: "区分", Align: AlignCenter, Span: 2},
		},
		Empty: "該当なし",
	}
	for _, r := range c.MembershipRows(showZero) {
		channel := ""
		if r.IsBankTransfer() {
			channel = "口座振替"
		}
		t.Rows = append(t.Rows, Row{
			Cells: []string{r.ClassroomCode, r.ClassroomName, b.f.Number(r.Count), b.f.Money(r.UnitPrice), b.f.Money(r.BilledAmount), channel},
			Muted: r.Count == 0,
		})
	}
	// Domiciliadas descartadas: visibles pero fuera del total.
	for _, r := range dropped {
		t.Rows = append(t.Rows, Row{
			Cells: []string{r.ClassroomCode, r.ClassroomName, b.f.Number(r.Count), b.f.Money(r.UnitPrice), "—", "口座振替（重複）"},
			Muted: true,
		})
	}
	if len(dropped) > 0 {
		t.Note = fmt.Sprintf("※ 口座振替の%d件は教室コードが会費明細と重複しているため請求額に含めていません。", len(dropped))
	}
	t.Total = &Row{Cells: []string{"合計", "", b.f.Number(c.MembershipCount(showZero)), "", b.f.Money(c.Amounts.MembershipFee), ""}}
	return t
}

func (b *Builder) materialTable(c invoicing.ComputedInvoice) Table {
	t := Table{
		Title: "教材明細",
		Columns: []Column{
			{Label: "注文日", Align: AlignCenter, Span: 1},
			{Label: "商品名", Align: AlignLeft, Span: 4},
			{Label: "数量", Align: AlignRight, Span: 1},
			{Label: "単価", Align: AlignRight, Span: 2},
			{Label: "金額", Align: AlignRight, Span: 2},
			{Label: "納品先", Align: AlignCenter, Span: 2},
		},
		Empty: "該当なし",
	}
	for _, l := range c.Material {
		target := l.DeliveryTarget
		if !l.CountsTowardInvoice {
			target += "（参考）"
		}
		t.Rows = append(t.Rows, Row{
			Cells: []string{b.f.ShortDate(l.OrderDate), l.ProductName, b.f.Number(l.Quantity), b.f.Money(l.UnitPrice), b.f.Money(l.Amount()), target},
			Muted: !l.CountsTowardInvoice,
		})
	}
	t.Total = &Row{Cells: []string{"合計", "", "", "", b.f.Money(c.Amounts.MaterialDelivery), ""}}
	return t
}

func (b *Builder) otherTable(c invoicing.ComputedInvoice) Table {
	t := Table{
		Title: "その他明細",
		Columns: []Column{
			{Label: "区分", Align: AlignCenter, Span: 2},
			{Label: "内容", Align: AlignLeft, Span: 7},
			{Label: "金額", Align: AlignRight, Span: 3},
		},
		Empty: "該当なし",
	}
	add := func(kind string, lines []entity.ExpenseLine, negate bool) {
		for _, l := range lines {
			amount := l.Amount
			if negate {
				amount = amount.Neg()
			}
			t.Rows = append(t.Rows, Row{Cells: []string{kind, l.Description, b.f.Money(amount)}})
		}
	}
	add("課税", c.Taxable, false)
	add("口座振替", c.Offsets, false)
	add("非課税", c.NonTaxable, false)
	add("調整", c.Adjustment, true)
	return t
}

func (b *Builder) summaryTable(a invoicing.Amounts) Table {
	row := func(label string, v string) Row { return Row{Cells: []string{label, v}} }
	cols := []Column{
		{Label: "項目", Align: AlignLeft, Span: 8},
		{Label: "金額", Align: AlignRight, Span: 4},
	}
	return Table{
		Title:   "ご請求金額内訳",
		Columns: cols,
		Rows: []Row{
			row("繰越額", b.f.Money(a.RemainingBalance)),
			row("会費", b.f.Money(a.MembershipFee)),
			row("教材費", b.f.Money(a.MaterialDelivery)),
			row("その他", b.f.Money(a.Other)),
			row("非課税", b.f.Money(a.NonTaxable)),
			row("教材返品", b.f.Money(a.MaterialReturn.Neg())),
			row("調整額", b.f.Money(a.Adjustment.Neg())),
			row("小計", b.f.Money(a.Subtotal)),
			row("課税対象額", b.f.Money(a.TaxableBase)),
			row(fmt.Sprintf("消費税（%s）", b.f.Percent(a.TaxRate)), b.f.Money(a.TaxAmount)),
		},
		Total: &Row{Cells: []string{"ご請求金額", b.f.Money(a.TotalAmount)}},
	}
}

func recipient(d entity.Department) Party {
	p := Party{Name: d.Name + " 御中"}
	if d.PostalCode != "" {
		p.Lines = append(p.Lines, "〒"+d.PostalCode)
	}
	if d.Address != "" {
		p.Lines = append(p.Lines, d.Address)
	}
	if d.Representative != "" {
		p.Lines = append(p.Lines, d.Representative+" 様")
	}
	p.Lines = append(p.Lines, "店舗コード "+d.StoreCode)
	return p
}

func issuer(i billing.IssuerInfo) Party {
	p := Party{Name: i.Name}
	if i.PostalCode != "" {
		p.Lines = append(p.Lines, "〒"+i.PostalCode)
	}
	if i.Address != "" {
		p.Lines = append(p.Lines, i.Address)
	}
	if i.Phone != "" {
		p.Lines = append(p.Lines, "TEL "+i.Phone)
	}
	if i.RegistrationNo != "" {
		p.Lines = append(p.Lines, "登録番号 "+i.RegistrationNo)
	}
	return p
}

func joinNonEmpty(sep string, parts ...string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += sep
		}
		out += p
	}
	return out
}
