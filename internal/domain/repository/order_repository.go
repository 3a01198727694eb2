package repository

import (
	"context"

	"github.com/jhoicas/seikyu-api/internal/domain/entity"
)

// OrderRepository puerto de lectura de pedidos de material.
// Devuelve las líneas de pedidos originados por la sucursal o por sus aulas; la
// clasificación (destino, si cuenta para la factura) la hace el agregador.
type OrderRepository interface {
	ListMaterialLines(ctx context.Context, branchID string, period entity.BillingPeriod) ([]entity.MaterialOrderLine, error)
}
