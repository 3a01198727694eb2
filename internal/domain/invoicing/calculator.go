package invoicing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/seikyu-api/internal/domain/entity"
)

// Rates parámetros fijos del cálculo.
type Rates struct {
	TaxRate               decimal.Decimal // 0.10
	BankTransferUnitPrice decimal.Decimal // precio forzado para socios domiciliados (600)
}

// Input líneas agregadas de un departamento y periodo.
type Input struct {
	Period          entity.BillingPeriod
	PreviousBalance decimal.Decimal
	Payment         decimal.Decimal
	Membership      []entity.MembershipLine
	Material        []entity.MaterialOrderLine
	Expenses        ExpenseBuckets
}

// Calculator servicio de dominio sin I/O que convierte las líneas agregadas en una ComputedInvoice.
type Calculator struct {
	rates Rates
}

// NewCalculator construye el calculador.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// Rates devuelve los parámetros configurados.
func (c *Calculator) Rates() Rates { return c.rates }

// Compute aplica las fórmulas en este orden:
//
//	remaining  = previous - payment
//	subtotal   = remaining + membership + material + other + nonTaxable - materialReturn - adjustment
//	tax        = floor((membership + material + other - materialReturn) * taxRate)
//	total      = subtotal + tax
func (c *Calculator) Compute(in Input) ComputedInvoice {
	offsets := BankTransferOffsets(in.Period, in.Membership, c.rates.BankTransferUnitPrice)
	rows := c.membershipRows(in.Membership)

	membershipFee := decimal.Zero
	for _, r := range rows {
		membershipFee = membershipFee.Add(r.BilledAmount)
	}

	materialDelivery := decimal.Zero
	for _, l := range in.Material {
		if l.CountsTowardInvoice {
			materialDelivery = materialDelivery.Add(l.Amount())
		}
	}

	other := sumExpenses(in.Expenses.Taxable).Add(sumExpenses(offsets))
	nonTaxable := sumExpenses(in.Expenses.NonTaxable)
	adjustment := sumExpenses(in.Expenses.Adjustment)
	materialReturn := decimal.Zero

	remaining := in.PreviousBalance.Sub(in.Payment)
	subtotal := remaining.
		Add(membershipFee).
		Add(materialDelivery).
		Add(other).
		Add(nonTaxable).
		Sub(materialReturn).
		Sub(adjustment)
	taxableBase := membershipFee.Add(materialDelivery).Add(other).Sub(materialReturn)
	tax := taxableBase.Mul(c.rates.TaxRate).Floor()

	nonZero := make([]MembershipRow, 0, len(rows))
	for _, r := range rows {
		if r.Count != 0 {
			nonZero = append(nonZero, r)
		}
	}

	return ComputedInvoice{
		Period: in.Period,
		Amounts: Amounts{
			PreviousBalance:  in.PreviousBalance,
			Payment:          in.Payment,
			RemainingBalance: remaining,
			MembershipFee:    membershipFee,
			MaterialDelivery: materialDelivery,
			Other:            other,
			NonTaxable:       nonTaxable,
			Adjustment:       adjustment,
			MaterialReturn:   materialReturn,
			Subtotal:         subtotal,
			TaxableBase:      taxableBase,
			TaxRate:          c.rates.TaxRate,
			TaxAmount:        tax,
			TotalAmount:      subtotal.Add(tax),
		},
		Membership: MembershipDetail{All: rows, NonZero: nonZero},
		Material:   in.Material,
		Taxable:    in.Expenses.Taxable,
		NonTaxable: in.Expenses.NonTaxable,
		Adjustment: in.Expenses.Adjustment,
		Offsets:    offsets,
	}
}

func (c *Calculator) membershipRows(lines []entity.MembershipLine) []MembershipRow {
	rows := make([]MembershipRow, 0, len(lines))
	for _, l := range lines {
		price := l.UnitPrice
		if l.IsBankTransfer() {
			price = c.rates.BankTransferUnitPrice
		}
		rows = append(rows, MembershipRow{
			MembershipLine:  l,
			BilledUnitPrice: price,
			BilledAmount:    price.Mul(decimal.NewFromInt(int64(l.Count))),
		})
	}
	return rows
}

// BankTransferOffsets sintetiza una línea "otros" negativa por cada aula domiciliada:
// importe = -(count × precio forzado). Representa lo ya cobrado por domiciliación.
func BankTransferOffsets(period entity.BillingPeriod, lines []entity.MembershipLine, unitPrice decimal.Decimal) []entity.ExpenseLine {
	var out []entity.ExpenseLine
	for _, l := range lines {
		if !l.IsBankTransfer() || l.Count <= 0 {
			continue
		}
		out = append(out, entity.ExpenseLine{
			ID:             OffsetLineID(period, l.ClassroomCode),
			ClassroomCode:  l.ClassroomCode,
			BillingPeriod:  period,
			Description:    fmt.Sprintf("%d月分 口座振替会費 (%s)", int(period.Month), entity.StoreCodeSuffix(l.ClassroomCode)),
			Amount:         unitPrice.Mul(decimal.NewFromInt(int64(l.Count))).Neg(),
			Category:       entity.ExpenseCategoryTaxable,
			ApprovalStatus: entity.ApprovalStatusApproved,
			Source:         entity.ExpenseSourceGenerated,
		})
	}
	return out
}

// GeneratedIDPrefix prefijo de los ids de líneas sintetizadas; nunca corresponden a una fila almacenada.
const GeneratedIDPrefix = "generated-"

// OffsetLineID identificador estable de la línea generada de un aula en un periodo.
func OffsetLineID(period entity.BillingPeriod, classroomCode string) string {
	return GeneratedIDPrefix + period.Compact() + "-" + classroomCode
}
