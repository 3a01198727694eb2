package invoicing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/seikyu-api/internal/domain/entity"
	"github.com/jhoicas/seikyu-api/internal/domain/invoicing"
)

func codes(lines []entity.MembershipLine) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.ClassroomCode
	}
	return out
}

func TestMergeMembership_AulasTienenPrioridadSobreSucursal(t *testing.T) {
	a := []entity.MembershipLine{classroom("S002", 3, 480), classroom("S001", 5, 480)}
	b := []entity.MembershipLine{classroom("S001", 99, 480), classroom("S000", 1, 480)}

	res := invoicing.MergeMembership(a, b, nil)

	assert.Equal(t, []string{"S000", "S001", "S002"}, codes(res.Lines))
	assert.Equal(t, 5, res.Lines[1].Count, "la fila de A gana")
}

func TestMergeMembership_SucursalExcluidaSeIncluye(t *testing.T) {
	own := classroom("S000", 2, 480)
	own.Excluded = true

	res := invoicing.MergeMembership(nil, []entity.MembershipLine{own}, nil)

	require.Len(t, res.Lines, 1)
	assert.True(t, res.Lines[0].Excluded)
}

func TestMergeMembership_DomiciliadasAlFinal(t *testing.T) {
	a := []entity.MembershipLine{classroom("S003", 1, 480), classroom("S001", 1, 480)}
	c := []entity.MembershipLine{bankTransfer("S002", 4, 480), bankTransfer("S000", 2, 480), bankTransfer("S004", 0, 480)}

	res := invoicing.MergeMembership(a, nil, c)

	assert.Equal(t, []string{"S001", "S003", "S002", "S000"}, codes(res.Lines),
		"bloque A∪B ordenado y luego C sin intercalar, sin filas con count 0")
}

func TestMergeMembership_SinCodigosRepetidos(t *testing.T) {
	a := []entity.MembershipLine{classroom("X", 1, 480), classroom("X", 2, 480), classroom("Y", 1, 480)}
	b := []entity.MembershipLine{classroom("Y", 1, 480), classroom("Z", 1, 480)}
	c := []entity.MembershipLine{bankTransfer("Z", 3, 480), bankTransfer("W", 1, 480), bankTransfer("W", 2, 480)}

	res := invoicing.MergeMembership(a, b, c)

	seen := map[string]bool{}
	for _, l := range res.Lines {
		assert.False(t, seen[l.ClassroomCode], "código repetido %s", l.ClassroomCode)
		seen[l.ClassroomCode] = true
	}
	assert.Len(t, res.Dropped, 2)
}

func TestClassifyMaterialLines(t *testing.T) {
	lines := []entity.MaterialOrderLine{
		{OrderID: "1", OriginStoreCode: "S0013000"},
		{OrderID: "2", OriginStoreCode: "S0013042"},
	}

	out := invoicing.ClassifyMaterialLines("S0013000", lines)

	assert.Equal(t, "00", out[0].DeliveryTarget)
	assert.True(t, out[0].CountsTowardInvoice)
	assert.Equal(t, "042", out[1].DeliveryTarget)
	assert.False(t, out[1].CountsTowardInvoice)
	assert.Empty(t, lines[0].DeliveryTarget, "no modifica la entrada")
}

func TestSplitExpenses_FiltraTiendaPeriodoYAprobacion(t *testing.T) {
	mk := func(store, category, status string, p entity.BillingPeriod) entity.ExpenseLine {
		return entity.ExpenseLine{StoreCode: store, Category: category, ApprovalStatus: status, BillingPeriod: p}
	}
	lines := []entity.ExpenseLine{
		mk("S000", entity.ExpenseCategoryTaxable, entity.ApprovalStatusApproved, period),
		mk("S000", entity.ExpenseCategoryNonTaxable, entity.ApprovalStatusApproved, period),
		mk("S000", entity.ExpenseCategoryAdjustment, entity.ApprovalStatusApproved, period),
		mk("S000", entity.ExpenseCategoryTaxable, entity.ApprovalStatusPending, period),
		mk("S0001", entity.ExpenseCategoryTaxable, entity.ApprovalStatusApproved, period),
		mk("S000", entity.ExpenseCategoryTaxable, entity.ApprovalStatusApproved, period.Prev()),
	}

	b := invoicing.SplitExpenses("S000", period, lines)

	assert.Len(t, b.Taxable, 1)
	assert.Len(t, b.NonTaxable, 1)
	assert.Len(t, b.Adjustment, 1)
}
