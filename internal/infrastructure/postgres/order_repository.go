package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/seikyu-api/internal/domain/entity"
	"github.com/jhoicas/seikyu-api/internal/domain/repository"
)

var _ repository.OrderRepository = (*OrderRepo)(nil)

// OrderRepo lectura de pedidos de material (orders, order_items, products).
type OrderRepo struct {
	q   Querier
	loc *time.Location
}

// NewOrderRepository construye el adaptador. loc es la zona de facturación: el mes de un
// pedido se decide con la fecha local, no con la UTC.
func NewOrderRepository(q Querier, loc *time.Location) *OrderRepo {
	if loc == nil {
		loc = time.UTC
	}
	return &OrderRepo{q: q, loc: loc}
}

// ListMaterialLines líneas de pedidos de la sucursal y de sus aulas con fecha dentro del periodo.
// El rango es [inicio, inicio del mes siguiente) en la zona de facturación; timestamptz compara instantes.
func (r *OrderRepo) ListMaterialLines(ctx context.Context, branchID string, period entity.BillingPeriod) ([]entity.MaterialOrderLine, error) {
	query := `
		SELECT o.id, o.order_date, o.store_code, oi.quantity, oi.unit_price, p.name, p.reference_price
		FROM orders o
		JOIN order_items oi ON oi.order_id = o.id
		LEFT JOIN products p ON p.id = oi.product_id
		WHERE (o.department_id = $1
		       OR o.department_id IN (SELECT id FROM departments WHERE parent_id = $1))
		  AND o.order_date >= $2 AND o.order_date < $3
		ORDER BY o.order_date, o.id, oi.id`
	from, to := r.monthBounds(period)

	rows, err := r.q.Query(ctx, query, branchID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list material lines: %w", err)
	}
	defer rows.Close()

	var list []entity.MaterialOrderLine
	for rows.Next() {
		var row materialRow
		if err := rows.Scan(
			&row.OrderID, &row.OrderDate, &row.OriginStoreCode,
			&row.Quantity, &row.ItemPrice, &row.ProductName, &row.ReferencePrice,
		); err != nil {
			return nil, fmt.Errorf("scan material line: %w", err)
		}
		line, err := row.toLine()
		if err != nil {
			return nil, err
		}
		list = append(list, line)
	}
	return list, rows.Err()
}

// monthBounds límites del mes de facturación en la zona configurada.
func (r *OrderRepo) monthBounds(period entity.BillingPeriod) (time.Time, time.Time) {
	return period.FirstDay(r.loc), period.Next().FirstDay(r.loc)
}
