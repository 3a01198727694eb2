package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/seikyu-api/internal/domain/entity"
	"github.com/jhoicas/seikyu-api/internal/domain/repository"
)

// Asegura que DepartmentRepo implementa repository.DepartmentRepository.
var _ repository.DepartmentRepository = (*DepartmentRepo)(nil)

// DepartmentRepo lectura del registro de departamentos sobre PostgreSQL.
type DepartmentRepo struct {
	q Querier
}

// NewDepartmentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewDepartmentRepository(q Querier) *DepartmentRepo {
	return &DepartmentRepo{q: q}
}

// GetByID obtiene un departamento por ID.
func (r *DepartmentRepo) GetByID(ctx context.Context, id string) (*entity.Department, error) {
	query := `
		SELECT id, code, name, type, parent_id, store_code,
		       postal_code, address, phone, representative, created_at, updated_at
		FROM departments WHERE id = $1`
	var d entity.Department
	var parentID, postalCode, address, phone, representative *string
	err := r.q.QueryRow(ctx, query, id).Scan(
		&d.ID, &d.Code, &d.Name, &d.Type, &parentID, &d.StoreCode,
		&postalCode, &address, &phone, &representative, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get department: %w", err)
	}
	d.ParentID = derefString(parentID)
	d.PostalCode = derefString(postalCode)
	d.Address = derefString(address)
	d.Phone = derefString(phone)
	d.Representative = derefString(representative)
	return &d, nil
}
