package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MonthlyInvoice registro persistido de la factura mensual de un departamento.
// Solo se guardan los totales resumidos; el detalle se recalcula en cada render.
type MonthlyInvoice struct {
	ID            string
	DepartmentID  string
	BillingPeriod BillingPeriod
	IsCurrent     bool // una sola factura vigente por departamento y periodo
	Payment       decimal.Decimal
	IssueDate     time.Time
	DueDate       *time.Time // nil = se calcula con el día de vencimiento configurado
	Subtotal      decimal.Decimal
	TaxAmount     decimal.Decimal
	TotalAmount   decimal.Decimal
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
