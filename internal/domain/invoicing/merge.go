package invoicing

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/seikyu-api/internal/domain/entity"
)

// MergeResult salida de la fusión de las fuentes de socios.
// Dropped contiene filas domiciliadas descartadas porque su aula ya figuraba en el bloque
// principal (dato anómalo que el caller debe registrar).
type MergeResult struct {
	Lines   []entity.MembershipLine
	Dropped []entity.MembershipLine
}

// MergeMembership fusiona las tres fuentes de la lista de socios de una sucursal:
//
//	classroom (A) ∪ branch (B) por código de aula, A tiene prioridad; orden ascendente;
//	bankTransfer (C) se añade al final como bloque separado.
//
// El resultado nunca contiene dos filas con el mismo código de aula.
func MergeMembership(classroom, branch, bankTransfer []entity.MembershipLine) MergeResult {
	byCode := make(map[string]entity.MembershipLine, len(classroom)+len(branch))
	for _, l := range classroom {
		if _, ok := byCode[l.ClassroomCode]; !ok {
			byCode[l.ClassroomCode] = l
		}
	}
	for _, l := range branch {
		if _, ok := byCode[l.ClassroomCode]; !ok {
			byCode[l.ClassroomCode] = l
		}
	}

	merged := make([]entity.MembershipLine, 0, len(byCode)+len(bankTransfer))
	for _, l := range byCode {
		merged = append(merged, l)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].ClassroomCode < merged[j].ClassroomCode })

	var res MergeResult
	seen := make(map[string]struct{}, len(bankTransfer))
	for _, l := range bankTransfer {
		if l.Count <= 0 {
			continue
		}
		if _, dup := byCode[l.ClassroomCode]; dup {
			res.Dropped = append(res.Dropped, l)
			continue
		}
		if _, dup := seen[l.ClassroomCode]; dup {
			res.Dropped = append(res.Dropped, l)
			continue
		}
		seen[l.ClassroomCode] = struct{}{}
		merged = append(merged, l)
	}
	res.Lines = merged
	return res
}

// ClassifyMaterialLines marca cada línea con su destino de entrega y si cuenta para la
// factura de la sucursal. Un pedido es de la sucursal solo si su código de origen
// coincide exactamente con el de la sucursal.
func ClassifyMaterialLines(branchStoreCode string, lines []entity.MaterialOrderLine) []entity.MaterialOrderLine {
	out := make([]entity.MaterialOrderLine, len(lines))
	for i, l := range lines {
		if l.OriginStoreCode == branchStoreCode {
			l.DeliveryTarget = entity.DeliveryTargetBranch
			l.CountsTowardInvoice = true
		} else {
			l.DeliveryTarget = entity.StoreCodeSuffix(l.OriginStoreCode)
			l.CountsTowardInvoice = false
		}
		out[i] = l
	}
	return out
}

// ExpenseBuckets gastos aprobados separados por categoría.
type ExpenseBuckets struct {
	Taxable    []entity.ExpenseLine
	NonTaxable []entity.ExpenseLine
	Adjustment []entity.ExpenseLine
}

// SplitExpenses filtra por código de tienda exacto, periodo y aprobación, y reparte por
// categoría. Las líneas de aulas subordinadas nunca entran en la factura de la sucursal.
func SplitExpenses(storeCode string, period entity.BillingPeriod, lines []entity.ExpenseLine) ExpenseBuckets {
	var b ExpenseBuckets
	for _, l := range lines {
		if l.StoreCode != storeCode || l.BillingPeriod != period || !l.IsApproved() {
			continue
		}
		switch l.Category {
		case entity.ExpenseCategoryTaxable:
			b.Taxable = append(b.Taxable, l)
		case entity.ExpenseCategoryNonTaxable:
			b.NonTaxable = append(b.NonTaxable, l)
		case entity.ExpenseCategoryAdjustment:
			b.Adjustment = append(b.Adjustment, l)
		}
	}
	return b
}

func sumExpenses(lines []entity.ExpenseLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Amount)
	}
	return total
}
