package repository

import (
	"context"

	"github.com/jhoicas/seikyu-api/internal/domain/entity"
)

// ExpenseRepository puerto para las líneas de gasto.
// El estado de aprobación lo escribe un flujo externo; aquí solo se lee.
type ExpenseRepository interface {
	// ListByStore todas las líneas (cualquier estado/origen) del código de tienda en el periodo.
	ListByStore(ctx context.Context, storeCode string, period entity.BillingPeriod) ([]entity.ExpenseLine, error)

	GetByIDs(ctx context.Context, ids []string) ([]entity.ExpenseLine, error)

	// DeleteImported elimina en un solo lote las líneas importadas indicadas y devuelve los
	// ids efectivamente borrados. Los ids ya inexistentes o generados no se tocan.
	DeleteImported(ctx context.Context, ids []string) ([]string, error)
}
