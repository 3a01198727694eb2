package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Categorías de gasto.
const (
	ExpenseCategoryTaxable    = "taxable"
	ExpenseCategoryNonTaxable = "non_taxable"
	ExpenseCategoryAdjustment = "adjustment"
)

// Estados de aprobación (los asigna un flujo externo; aquí solo se leen).
const (
	ApprovalStatusPending  = "pending"
	ApprovalStatusApproved = "approved"
	ApprovalStatusRejected = "rejected"
)

// Origen de la línea.
const (
	ExpenseSourceGenerated = "generated" // generada por el sistema, autoritativa
	ExpenseSourceImported  = "imported"  // cargada manualmente
)

// ExpenseLine línea de gasto u otro concepto. Importe negativo = abono a favor del facturado.
type ExpenseLine struct {
	ID             string
	StoreCode      string
	ClassroomCode  string // opcional; se usa para detectar duplicados
	BillingPeriod  BillingPeriod
	Description    string
	Amount         decimal.Decimal
	Category       string
	ApprovalStatus string
	Source         string
	CreatedAt      time.Time
}

// Deletable solo las líneas importadas pueden eliminarse desde la conciliación.
func (e ExpenseLine) Deletable() bool { return e.Source == ExpenseSourceImported }

// IsApproved indica si la línea entra en la facturación.
func (e ExpenseLine) IsApproved() bool { return e.ApprovalStatus == ApprovalStatusApproved }
