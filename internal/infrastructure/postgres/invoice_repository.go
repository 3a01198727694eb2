package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/seikyu-api/internal/domain/entity"
	"github.com/jhoicas/seikyu-api/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

// InvoiceRepo implementación de InvoiceRepository (usable con pool o tx).
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

const invoiceColumns = `
	mi.id, mi.department_id, mi.billing_period, mi.is_current, mi.payment, mi.issue_date, mi.due_date,
	mi.subtotal, mi.tax_amount, mi.total_amount, mi.created_at, mi.updated_at`

// GetByID obtiene la factura por ID; nil, nil si no existe.
func (r *InvoiceRepo) GetByID(ctx context.Context, id string) (*entity.MonthlyInvoice, error) {
	query := `SELECT` + invoiceColumns + ` FROM monthly_invoices mi WHERE mi.id = $1`
	inv, err := scanInvoice(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return inv, nil
}

// FindCurrent factura vigente del departamento en el periodo; nil, nil si no hay.
func (r *InvoiceRepo) FindCurrent(ctx context.Context, departmentID string, period entity.BillingPeriod) (*entity.MonthlyInvoice, error) {
	query := `SELECT` + invoiceColumns + `
		FROM monthly_invoices mi
		WHERE mi.department_id = $1 AND mi.billing_period = $2 AND mi.is_current
		ORDER BY mi.updated_at DESC
		LIMIT 1`
	inv, err := scanInvoice(r.q.QueryRow(ctx, query, departmentID, period.String()))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find current invoice: %w", err)
	}
	return inv, nil
}

// ListCurrent facturas vigentes del periodo.
func (r *InvoiceRepo) ListCurrent(ctx context.Context, period entity.BillingPeriod) ([]*entity.MonthlyInvoice, error) {
	query := `SELECT` + invoiceColumns + `
		FROM monthly_invoices mi
		WHERE mi.billing_period = $1 AND mi.is_current
		ORDER BY mi.id`
	rows, err := r.q.Query(ctx, query, period.String())
	if err != nil {
		return nil, fmt.Errorf("list current invoices: %w", err)
	}
	defer rows.Close()

	var list []*entity.MonthlyInvoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		list = append(list, inv)
	}
	return list, rows.Err()
}

// ListCohortStoreCodes códigos de tienda con factura vigente en el periodo.
func (r *InvoiceRepo) ListCohortStoreCodes(ctx context.Context, period entity.BillingPeriod) ([]string, error) {
	query := `
		SELECT DISTINCT d.store_code
		FROM monthly_invoices mi
		JOIN departments d ON d.id = mi.department_id
		WHERE mi.billing_period = $1 AND mi.is_current
		ORDER BY d.store_code`
	rows, err := r.q.Query(ctx, query, period.String())
	if err != nil {
		return nil, fmt.Errorf("list cohort store codes: %w", err)
	}
	codes, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("list cohort store codes: %w", err)
	}
	return codes, nil
}

// UpdateTotals guarda los totales resumidos.
func (r *InvoiceRepo) UpdateTotals(ctx context.Context, id string, subtotal, tax, total decimal.Decimal) error {
	query := `
		UPDATE monthly_invoices
		SET subtotal = $2, tax_amount = $3, total_amount = $4, updated_at = $5
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, id, subtotal, tax, total, time.Now())
	if err != nil {
		return fmt.Errorf("update invoice totals: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update invoice totals: factura %s no encontrada", id)
	}
	return nil
}

func scanInvoice(row pgx.Row) (*entity.MonthlyInvoice, error) {
	var (
		inv     entity.MonthlyInvoice
		period  string
		payment decimal.NullDecimal
		dueDate *time.Time
	)
	if err := row.Scan(
		&inv.ID, &inv.DepartmentID, &period, &inv.IsCurrent, &payment, &inv.IssueDate, &dueDate,
		&inv.Subtotal, &inv.TaxAmount, &inv.TotalAmount, &inv.CreatedAt, &inv.UpdatedAt,
	); err != nil {
		return nil, err
	}
	p, err := parsePeriod(period)
	if err != nil {
		return nil, err
	}
	inv.BillingPeriod = p
	inv.Payment = decimal.Zero
	if payment.Valid {
		inv.Payment = payment.Decimal
	}
	inv.DueDate = dueDate
	return &inv, nil
}
