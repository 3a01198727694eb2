package repository

import (
	"context"

	"github.com/jhoicas/seikyu-api/internal/domain/entity"
)

// DepartmentRepository puerto de lectura del registro de departamentos.
type DepartmentRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Department, error)
}
