package invoicing

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/seikyu-api/internal/domain/entity"
)

// Amounts importes derivados de una factura. Es el único objeto del que leen
// tanto la vista previa como el documento paginado.
type Amounts struct {
	PreviousBalance  decimal.Decimal // saldo de la factura vigente del mes anterior
	Payment          decimal.Decimal
	RemainingBalance decimal.Decimal // PreviousBalance - Payment
	MembershipFee    decimal.Decimal
	MaterialDelivery decimal.Decimal
	Other            decimal.Decimal // gravados + líneas de ajuste por domiciliación
	NonTaxable       decimal.Decimal
	Adjustment       decimal.Decimal
	MaterialReturn   decimal.Decimal // reservado, siempre cero
	Subtotal         decimal.Decimal
	TaxableBase      decimal.Decimal
	TaxRate          decimal.Decimal
	TaxAmount        decimal.Decimal
	TotalAmount      decimal.Decimal // Subtotal + TaxAmount
}

// MembershipRow fila de la lista de socios tal como se muestra.
// UnitPrice conserva el precio registrado; BilledAmount es el importe que entra en la cuota.
type MembershipRow struct {
	entity.MembershipLine
	BilledUnitPrice decimal.Decimal
	BilledAmount    decimal.Decimal
}

// MembershipDetail las dos vistas paralelas de la lista de socios. Ambas salen de los
// mismos totales; el renderer elige una sin recalcular importes.
type MembershipDetail struct {
	All     []MembershipRow
	NonZero []MembershipRow
}

// ComputedInvoice resultado inmutable del cálculo de una factura.
type ComputedInvoice struct {
	Period     entity.BillingPeriod
	Amounts    Amounts
	Membership MembershipDetail
	Material   []entity.MaterialOrderLine
	Taxable    []entity.ExpenseLine
	NonTaxable []entity.ExpenseLine
	Adjustment []entity.ExpenseLine
	Offsets    []entity.ExpenseLine // líneas generadas por domiciliación (importe negativo)
}

// MembershipRows devuelve la vista de socios según el toggle de aulas sin socios.
func (c ComputedInvoice) MembershipRows(showZero bool) []MembershipRow {
	if showZero {
		return c.Membership.All
	}
	return c.Membership.NonZero
}

// MembershipCount suma de socios de la vista elegida.
func (c ComputedInvoice) MembershipCount(showZero bool) int {
	n := 0
	for _, r := range c.MembershipRows(showZero) {
		n += r.Count
	}
	return n
}

// OtherLines líneas que componen el concepto "otros": gravadas y después las de ajuste.
func (c ComputedInvoice) OtherLines() []entity.ExpenseLine {
	out := make([]entity.ExpenseLine, 0, len(c.Taxable)+len(c.Offsets))
	out = append(out, c.Taxable...)
	return append(out, c.Offsets...)
}

// InvoicedMaterial líneas de material que cuentan para la factura.
func (c ComputedInvoice) InvoicedMaterial() []entity.MaterialOrderLine {
	var out []entity.MaterialOrderLine
	for _, l := range c.Material {
		if l.CountsTowardInvoice {
			out = append(out, l)
		}
	}
	return out
}
