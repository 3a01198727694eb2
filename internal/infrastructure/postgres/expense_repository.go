package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/seikyu-api/internal/domain/entity"
	"github.com/jhoicas/seikyu-api/internal/domain/repository"
)

var _ repository.ExpenseRepository = (*ExpenseRepo)(nil)

// ExpenseRepo adaptador de expense_lines. approval_status solo se lee.
type ExpenseRepo struct {
	q Querier
}

// NewExpenseRepository construye el adaptador.
func NewExpenseRepository(q Querier) *ExpenseRepo {
	return &ExpenseRepo{q: q}
}

const expenseColumns = `
	id, store_code, classroom_code, billing_period, description, amount,
	category, approval_status, source, created_at`

// ListByStore todas las líneas del código de tienda en el periodo.
func (r *ExpenseRepo) ListByStore(ctx context.Context, storeCode string, period entity.BillingPeriod) ([]entity.ExpenseLine, error) {
	query := `SELECT` + expenseColumns + `
		FROM expense_lines
		WHERE store_code = $1 AND billing_period = $2
		ORDER BY created_at, id`
	rows, err := r.q.Query(ctx, query, storeCode, period.String())
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return collectExpenses(rows)
}

// GetByIDs líneas existentes entre los ids indicados.
func (r *ExpenseRepo) GetByIDs(ctx context.Context, ids []string) ([]entity.ExpenseLine, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT` + expenseColumns + `
		FROM expense_lines
		WHERE id::text = ANY($1)`
	rows, err := r.q.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("get expenses by ids: %w", err)
	}
	return collectExpenses(rows)
}

// DeleteImported borra en una sola sentencia. La condición sobre source garantiza que una
// línea generada nunca se borre aunque llegue su id.
func (r *ExpenseRepo) DeleteImported(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `
		DELETE FROM expense_lines
		WHERE id::text = ANY($1) AND source = $2
		RETURNING id::text`
	rows, err := r.q.Query(ctx, query, ids, entity.ExpenseSourceImported)
	if err != nil {
		return nil, fmt.Errorf("delete imported expenses: %w", err)
	}
	deleted, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("delete imported expenses: %w", err)
	}
	return deleted, nil
}

func collectExpenses(rows pgx.Rows) ([]entity.ExpenseLine, error) {
	defer rows.Close()
	var list []entity.ExpenseLine
	for rows.Next() {
		var row expenseRow
		if err := rows.Scan(
			&row.ID, &row.StoreCode, &row.ClassroomCode, &row.BillingPeriod, &row.Description, &row.Amount,
			&row.Category, &row.ApprovalStatus, &row.Source, &row.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		line, err := row.toLine()
		if err != nil {
			return nil, err
		}
		list = append(list, line)
	}
	return list, rows.Err()
}
