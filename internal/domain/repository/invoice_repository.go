package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/seikyu-api/internal/domain/entity"
)

// InvoiceRepository define el puerto de persistencia para las facturas mensuales.
// Las lecturas devuelven nil, nil cuando el registro no existe.
type InvoiceRepository interface {
	GetByID(ctx context.Context, id string) (*entity.MonthlyInvoice, error)

	// FindCurrent devuelve la factura vigente (is_current) del departamento en el periodo.
	FindCurrent(ctx context.Context, departmentID string, period entity.BillingPeriod) (*entity.MonthlyInvoice, error)

	// ListCurrent lista las facturas vigentes del periodo (cohorte), para el render por lotes.
	ListCurrent(ctx context.Context, period entity.BillingPeriod) ([]*entity.MonthlyInvoice, error)

	// ListCohortStoreCodes códigos de tienda de los departamentos con factura vigente en el periodo.
	ListCohortStoreCodes(ctx context.Context, period entity.BillingPeriod) ([]string, error)

	// UpdateTotals guarda los totales resumidos calculados.
	UpdateTotals(ctx context.Context, id string, subtotal, tax, total decimal.Decimal) error
}
