package repository

import (
	"context"

	"github.com/jhoicas/seikyu-api/internal/domain/entity"
)

// MembershipRepository puerto de lectura de las listas de cuotas de socios.
// Cada método corresponde a una de las tres fuentes que se fusionan por sucursal.
type MembershipRepository interface {
	// ListClassroomLines aulas subordinadas a la sucursal, sin excluidas ni domiciliadas.
	ListClassroomLines(ctx context.Context, branchID string, period entity.BillingPeriod) ([]entity.MembershipLine, error)

	// ListBranchLines filas propias de la sucursal (por código de tienda), aunque estén
	// marcadas como excluidas, sin domiciliadas.
	ListBranchLines(ctx context.Context, branchStoreCode string, period entity.BillingPeriod) ([]entity.MembershipLine, error)

	// ListBankTransferLines filas domiciliadas de las aulas de la sucursal con count > 0,
	// sin aplicar la marca de exclusión.
	ListBankTransferLines(ctx context.Context, branchID string, period entity.BillingPeriod) ([]entity.MembershipLine, error)
}
