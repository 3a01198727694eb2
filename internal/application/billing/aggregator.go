package billing

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/seikyu-api/internal/domain"
	"github.com/jhoicas/seikyu-api/internal/domain/entity"
	"github.com/jhoicas/seikyu-api/internal/domain/invoicing"
	"github.com/jhoicas/seikyu-api/internal/domain/repository"
	"github.com/jhoicas/seikyu-api/pkg/logger"
)

// AggregatedLines líneas ya fusionadas y clasificadas de un departamento y periodo.
type AggregatedLines struct {
	Department entity.Department
	Period     entity.BillingPeriod
	Membership []entity.MembershipLine
	Material   []entity.MaterialOrderLine
	Expenses   invoicing.ExpenseBuckets
	// Imported líneas importadas del código de tienda (cualquier estado), para la conciliación.
	Imported []entity.ExpenseLine

	// DroppedBankTransfer filas domiciliadas cuyo código de aula ya figuraba en la lista.
	// No suman; el documento las muestra para que se revise el origen del dato.
	DroppedBankTransfer []entity.MembershipLine
}

// Aggregator reúne las fuentes de datos de una factura. Las consultas son independientes
// y se lanzan en paralelo; cualquier fallo cancela el resto y no devuelve datos parciales.
type Aggregator struct {
	departmentRepo repository.DepartmentRepository
	membershipRepo repository.MembershipRepository
	orderRepo      repository.OrderRepository
	expenseRepo    repository.ExpenseRepository
	log            *logger.Logger
}

// NewAggregator construye el agregador inyectando los puertos de datos.
func NewAggregator(
	departmentRepo repository.DepartmentRepository,
	membershipRepo repository.MembershipRepository,
	orderRepo repository.OrderRepository,
	expenseRepo repository.ExpenseRepository,
	log *logger.Logger,
) *Aggregator {
	return &Aggregator{
		departmentRepo: departmentRepo,
		membershipRepo: membershipRepo,
		orderRepo:      orderRepo,
		expenseRepo:    expenseRepo,
		log:            log,
	}
}

// Aggregate carga el departamento y sus líneas del periodo.
//
// Retorna:
//   - domain.ErrNotFound    si el departamento no existe.
//   - domain.ErrAggregation si alguna consulta falla (envuelve el error original).
func (a *Aggregator) Aggregate(ctx context.Context, departmentID string, period entity.BillingPeriod) (*AggregatedLines, error) {
	dept, err := a.departmentRepo.GetByID(ctx, departmentID)
	if err != nil {
		return nil, fmt.Errorf("%w: obtener departamento %s: %w", domain.ErrAggregation, departmentID, err)
	}
	if dept == nil {
		return nil, fmt.Errorf("departamento %s: %w", departmentID, domain.ErrNotFound)
	}

	var (
		classroomLines []entity.MembershipLine
		branchLines    []entity.MembershipLine
		transferLines  []entity.MembershipLine
		materialLines  []entity.MaterialOrderLine
		expenseLines   []entity.ExpenseLine
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lines, err := a.membershipRepo.ListClassroomLines(gctx, dept.ID, period)
		if err != nil {
			return fmt.Errorf("socios de aulas: %w", err)
		}
		classroomLines = lines
		return nil
	})
	g.Go(func() error {
		lines, err := a.membershipRepo.ListBranchLines(gctx, dept.StoreCode, period)
		if err != nil {
			return fmt.Errorf("socios de la sucursal: %w", err)
		}
		branchLines = lines
		return nil
	})
	g.Go(func() error {
		lines, err := a.membershipRepo.ListBankTransferLines(gctx, dept.ID, period)
		if err != nil {
			return fmt.Errorf("socios domiciliados: %w", err)
		}
		transferLines = lines
		return nil
	})
	g.Go(func() error {
		lines, err := a.orderRepo.ListMaterialLines(gctx, dept.ID, period)
		if err != nil {
			return fmt.Errorf("pedidos de material: %w", err)
		}
		materialLines = lines
		return nil
	})
	g.Go(func() error {
		lines, err := a.expenseRepo.ListByStore(gctx, dept.StoreCode, period)
		if err != nil {
			return fmt.Errorf("gastos: %w", err)
		}
		expenseLines = lines
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: departamento %s periodo %s: %w", domain.ErrAggregation, dept.ID, period, err)
	}

	merged := invoicing.MergeMembership(classroomLines, branchLines, transferLines)
	for _, d := range merged.Dropped {
		a.log.Warn().
			Str("department_id", dept.ID).
			Str("period", period.String()).
			Str("classroom_code", d.ClassroomCode).
			Int("count", d.Count).
			Msg("fila domiciliada descartada: el aula ya figura en la lista")
	}

	var imported []entity.ExpenseLine
	for _, l := range expenseLines {
		if l.Source == entity.ExpenseSourceImported && l.StoreCode == dept.StoreCode && l.BillingPeriod == period {
			imported = append(imported, l)
		}
	}

	return &AggregatedLines{
		Department: *dept,
		Period:     period,
		Membership: merged.Lines,
		Material:   invoicing.ClassifyMaterialLines(dept.StoreCode, materialLines),
		Expenses:   invoicing.SplitExpenses(dept.StoreCode, period, expenseLines),
		Imported:   imported,

		DroppedBankTransfer: merged.Dropped,
	}, nil
}
