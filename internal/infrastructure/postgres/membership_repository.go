package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/seikyu-api/internal/domain/entity"
	"github.com/jhoicas/seikyu-api/internal/domain/repository"
)

var _ repository.MembershipRepository = (*MembershipRepo)(nil)

// MembershipRepo lectura de membership_fees.
type MembershipRepo struct {
	q Querier
}

// NewMembershipRepository construye el adaptador.
func NewMembershipRepository(q Querier) *MembershipRepo {
	return &MembershipRepo{q: q}
}

const membershipColumns = `
	m.classroom_code, d.name, m.member_count, m.unit_price, m.collection_channel, m.is_excluded`

// ListClassroomLines aulas subordinadas, sin excluidas ni domiciliadas.
func (r *MembershipRepo) ListClassroomLines(ctx context.Context, branchID string, period entity.BillingPeriod) ([]entity.MembershipLine, error) {
	query := `
		SELECT` + membershipColumns + `
		FROM membership_fees m
		JOIN departments d ON d.store_code = m.classroom_code
		WHERE d.parent_id = $1
		  AND m.billing_period = $2
		  AND COALESCE(m.is_excluded, false) = false
		  AND m.collection_channel <> $3
		ORDER BY m.classroom_code`
	return r.list(ctx, "aulas", query, branchID, period.String(), entity.ChannelBankTransfer)
}

// ListBranchLines filas propias de la sucursal; la marca de exclusión no aplica.
func (r *MembershipRepo) ListBranchLines(ctx context.Context, branchStoreCode string, period entity.BillingPeriod) ([]entity.MembershipLine, error) {
	query := `
		SELECT` + membershipColumns + `
		FROM membership_fees m
		LEFT JOIN departments d ON d.store_code = m.classroom_code
		WHERE m.classroom_code = $1
		  AND m.billing_period = $2
		  AND m.collection_channel <> $3
		ORDER BY m.classroom_code`
	return r.list(ctx, "sucursal", query, branchStoreCode, period.String(), entity.ChannelBankTransfer)
}

// ListBankTransferLines filas domiciliadas de las aulas con socios.
func (r *MembershipRepo) ListBankTransferLines(ctx context.Context, branchID string, period entity.BillingPeriod) ([]entity.MembershipLine, error) {
	query := `
		SELECT` + membershipColumns + `
		FROM membership_fees m
		JOIN departments d ON d.store_code = m.classroom_code
		WHERE d.parent_id = $1
		  AND m.billing_period = $2
		  AND m.collection_channel = $3
		  AND m.member_count > 0
		ORDER BY m.classroom_code`
	return r.list(ctx, "domiciliadas", query, branchID, period.String(), entity.ChannelBankTransfer)
}

func (r *MembershipRepo) list(ctx context.Context, what, query string, args ...any) ([]entity.MembershipLine, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list membership (%s): %w", what, err)
	}
	defer rows.Close()

	var list []entity.MembershipLine
	for rows.Next() {
		var row membershipRow
		if err := rows.Scan(&row.ClassroomCode, &row.ClassroomName, &row.Count, &row.UnitPrice, &row.Channel, &row.Excluded); err != nil {
			return nil, fmt.Errorf("scan membership (%s): %w", what, err)
		}
		line, err := row.toLine()
		if err != nil {
			return nil, err
		}
		list = append(list, line)
	}
	return list, rows.Err()
}
