package invoicing_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/seikyu-api/internal/domain/entity"
	"github.com/jhoicas/seikyu-api/internal/domain/invoicing"
)

var period = entity.BillingPeriod{Year: 2024, Month: time.October}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func newCalculator() *invoicing.Calculator {
	return invoicing.NewCalculator(invoicing.Rates{
		TaxRate:               decimal.RequireFromString("0.1"),
		BankTransferUnitPrice: dec(600),
	})
}

func classroom(code string, count int, price int64) entity.MembershipLine {
	return entity.MembershipLine{
		ClassroomCode: code, Count: count, UnitPrice: dec(price), Channel: entity.ChannelBranchRecorded,
	}
}

func bankTransfer(code string, count int, price int64) entity.MembershipLine {
	return entity.MembershipLine{
		ClassroomCode: code, Count: count, UnitPrice: dec(price), Channel: entity.ChannelBankTransfer,
	}
}

func expense(amount int64, category string) entity.ExpenseLine {
	return entity.ExpenseLine{
		Amount: dec(amount), Category: category,
		ApprovalStatus: entity.ApprovalStatusApproved, Source: entity.ExpenseSourceImported,
	}
}

// Escenario base: saldo anterior pagado por completo + 100 socios × 480.
func TestCompute_SaldoPagadoYCuotaDeSocios(t *testing.T) {
	ci := newCalculator().Compute(invoicing.Input{
		Period:          period,
		PreviousBalance: dec(20000),
		Payment:         dec(20000),
		Membership:      []entity.MembershipLine{classroom("S0013001", 100, 480)},
	})

	a := ci.Amounts
	assert.True(t, a.RemainingBalance.IsZero())
	assert.True(t, a.MembershipFee.Equal(dec(48000)))
	assert.True(t, a.Subtotal.Equal(dec(48000)), "subtotal = %s", a.Subtotal)
	assert.True(t, a.TaxAmount.Equal(dec(4800)), "tax = %s", a.TaxAmount)
	assert.True(t, a.TotalAmount.Equal(dec(52800)), "total = %s", a.TotalAmount)
}

// El impuesto se trunca (floor), nunca se redondea.
func TestCompute_ImpuestoConFloor(t *testing.T) {
	ci := newCalculator().Compute(invoicing.Input{
		Period:     period,
		Membership: []entity.MembershipLine{classroom("S0013001", 200, 500)},
		Material: []entity.MaterialOrderLine{
			{OrderID: "o-1", Quantity: 50, UnitPrice: dec(1000), CountsTowardInvoice: true},
		},
		Expenses: invoicing.ExpenseBuckets{
			Taxable: []entity.ExpenseLine{expense(-6000, entity.ExpenseCategoryTaxable)},
		},
	})

	assert.True(t, ci.Amounts.MembershipFee.Equal(dec(100000)))
	assert.True(t, ci.Amounts.MaterialDelivery.Equal(dec(50000)))
	assert.True(t, ci.Amounts.Other.Equal(dec(-6000)))
	assert.True(t, ci.Amounts.TaxAmount.Equal(dec(14400)), "tax = %s", ci.Amounts.TaxAmount)

	fractional := newCalculator().Compute(invoicing.Input{
		Period:     period,
		Membership: []entity.MembershipLine{classroom("S0013001", 1, 999)},
	})
	// 999 × 0.1 = 99.9 → 99
	assert.True(t, fractional.Amounts.TaxAmount.Equal(dec(99)), "tax = %s", fractional.Amounts.TaxAmount)
}

func TestCompute_TotalEsSubtotalMasImpuesto(t *testing.T) {
	inputs := []invoicing.Input{
		{Period: period},
		{Period: period, PreviousBalance: dec(15000), Payment: dec(3000)},
		{
			Period:     period,
			Membership: []entity.MembershipLine{classroom("A", 3, 480), bankTransfer("B", 7, 480)},
			Expenses: invoicing.ExpenseBuckets{
				Taxable:    []entity.ExpenseLine{expense(1234, entity.ExpenseCategoryTaxable)},
				NonTaxable: []entity.ExpenseLine{expense(777, entity.ExpenseCategoryNonTaxable)},
				Adjustment: []entity.ExpenseLine{expense(-500, entity.ExpenseCategoryAdjustment)},
			},
		},
		{Period: period, PreviousBalance: dec(-8000), Payment: dec(0)},
	}
	for i, in := range inputs {
		a := newCalculator().Compute(in).Amounts
		assert.True(t, a.TotalAmount.Equal(a.Subtotal.Add(a.TaxAmount)), "caso %d", i)
	}
}

// Los socios domiciliados entran en la cuota al precio forzado y se compensan con una
// línea negativa en "otros".
func TestCompute_DomiciliacionGeneraLineaNegativa(t *testing.T) {
	ci := newCalculator().Compute(invoicing.Input{
		Period:     period,
		Membership: []entity.MembershipLine{bankTransfer("S0013005", 5, 480)},
	})

	require.Len(t, ci.Offsets, 1)
	off := ci.Offsets[0]
	assert.True(t, off.Amount.Equal(dec(-3000)), "amount = %s", off.Amount)
	assert.Equal(t, entity.ExpenseSourceGenerated, off.Source)
	assert.Equal(t, "S0013005", off.ClassroomCode)
	assert.Contains(t, off.Description, "10月分")
	assert.Contains(t, off.Description, "005")

	assert.True(t, ci.Amounts.MembershipFee.Equal(dec(3000)), "precio forzado 600, no 480")
	assert.True(t, ci.Amounts.Other.Equal(dec(-3000)))
	assert.True(t, ci.Amounts.TaxAmount.IsZero())

	// La lista conserva el precio registrado para mostrarlo.
	require.Len(t, ci.Membership.All, 1)
	assert.True(t, ci.Membership.All[0].UnitPrice.Equal(dec(480)))
	assert.True(t, ci.Membership.All[0].BilledUnitPrice.Equal(dec(600)))
}

func TestCompute_SoloMaterialDeLaSucursalCuenta(t *testing.T) {
	ci := newCalculator().Compute(invoicing.Input{
		Period: period,
		Material: []entity.MaterialOrderLine{
			{OrderID: "o-1", Quantity: 2, UnitPrice: dec(1500), CountsTowardInvoice: true},
			{OrderID: "o-2", Quantity: 10, UnitPrice: dec(1500), CountsTowardInvoice: false},
		},
	})
	assert.True(t, ci.Amounts.MaterialDelivery.Equal(dec(3000)))
	assert.Len(t, ci.Material, 2, "las líneas de aulas se conservan como información")
	assert.Len(t, ci.InvoicedMaterial(), 1)
}

func TestCompute_AjusteRestaYNoTributa(t *testing.T) {
	ci := newCalculator().Compute(invoicing.Input{
		Period: period,
		Expenses: invoicing.ExpenseBuckets{
			NonTaxable: []entity.ExpenseLine{expense(2000, entity.ExpenseCategoryNonTaxable)},
			Adjustment: []entity.ExpenseLine{expense(500, entity.ExpenseCategoryAdjustment)},
		},
	})
	assert.True(t, ci.Amounts.Subtotal.Equal(dec(1500)))
	assert.True(t, ci.Amounts.TaxableBase.IsZero())
	assert.True(t, ci.Amounts.TotalAmount.Equal(dec(1500)))
}

// El toggle de aulas sin socios cambia solo las filas mostradas, nunca los importes.
func TestCompute_VistasConYSinAulasVacias(t *testing.T) {
	ci := newCalculator().Compute(invoicing.Input{
		Period: period,
		Membership: []entity.MembershipLine{
			classroom("A", 0, 480),
			classroom("B", 4, 480),
			classroom("C", 0, 480),
		},
	})

	assert.Len(t, ci.MembershipRows(true), 3)
	assert.Len(t, ci.MembershipRows(false), 1)
	assert.Equal(t, ci.MembershipCount(true), ci.MembershipCount(false))
	assert.True(t, ci.Amounts.MembershipFee.Equal(dec(1920)))
}

func TestCompute_OtherLinesIncluyeAjustesDespuesDeGravados(t *testing.T) {
	ci := newCalculator().Compute(invoicing.Input{
		Period:     period,
		Membership: []entity.MembershipLine{bankTransfer("X", 1, 480)},
		Expenses: invoicing.ExpenseBuckets{
			Taxable: []entity.ExpenseLine{expense(100, entity.ExpenseCategoryTaxable)},
		},
	})
	lines := ci.OtherLines()
	require.Len(t, lines, 2)
	assert.Equal(t, entity.ExpenseSourceImported, lines[0].Source)
	assert.Equal(t, entity.ExpenseSourceGenerated, lines[1].Source)
}
