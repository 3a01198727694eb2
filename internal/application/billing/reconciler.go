package billing

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/seikyu-api/internal/domain"
	"github.com/jhoicas/seikyu-api/internal/domain/entity"
	"github.com/jhoicas/seikyu-api/internal/domain/invoicing"
	"github.com/jhoicas/seikyu-api/internal/domain/repository"
	"github.com/jhoicas/seikyu-api/pkg/logger"
)

// Estados de la conciliación de duplicados por factura.
//
//	Idle → Checking → {NoDuplicates | DuplicatesFound} → Resolving → Resolved
type ReconcileState string

const (
	StateIdle            ReconcileState = "idle"
	StateChecking        ReconcileState = "checking"
	StateNoDuplicates    ReconcileState = "no_duplicates"
	StateDuplicatesFound ReconcileState = "duplicates_found"
	StateResolving       ReconcileState = "resolving"
	StateResolved        ReconcileState = "resolved"
)

// DuplicateItem una línea dentro de un grupo sospechoso.
// Selectable solo es true para líneas importadas; Recommended marca las que coinciden
// en importe con la línea generada.
type DuplicateItem struct {
	ExpenseID   string
	Description string
	Amount      decimal.Decimal
	Source      string
	Selectable  bool
	Recommended bool
}

// DuplicateGroup líneas de un aula que parecen representar el mismo cargo.
type DuplicateGroup struct {
	ClassroomCode string
	Items         []DuplicateItem
}

// CheckResult resultado de la detección.
type CheckResult struct {
	State  ReconcileState
	Groups []DuplicateGroup
}

// HasDuplicates indica si hay al menos un grupo.
func (r *CheckResult) HasDuplicates() bool { return len(r.Groups) > 0 }

// FailedDeletion id que no se pudo borrar y el motivo.
type FailedDeletion struct {
	ExpenseID string
	Reason    string
}

// ResolveResult resultado por ítem de una resolución. Los borrados exitosos se conservan
// aunque otros fallen.
type ResolveResult struct {
	Deleted     []string
	AlreadyGone []string
	Failed      []FailedDeletion
}

// Success true si ningún id falló.
func (r *ResolveResult) Success() bool { return len(r.Failed) == 0 }

// FailedIDs ids fallidos en orden.
func (r *ResolveResult) FailedIDs() []string {
	out := make([]string, len(r.Failed))
	for i, f := range r.Failed {
		out[i] = f.ExpenseID
	}
	return out
}

// Message texto para el usuario.
func (r *ResolveResult) Message() string {
	removed := len(r.Deleted) + len(r.AlreadyGone)
	if r.Success() {
		return fmt.Sprintf("%d件の重複データを削除しました", removed)
	}
	return fmt.Sprintf("%d件を削除しました。%d件は削除できませんでした", removed, len(r.Failed))
}

// Reconciler detecta líneas de gasto duplicadas entre la vía generada (domiciliación) y la
// importada, y elimina las importadas elegidas. Es el único actor que borra líneas de gasto.
type Reconciler struct {
	invoiceRepo    repository.InvoiceRepository
	departmentRepo repository.DepartmentRepository
	expenseRepo    repository.ExpenseRepository
	aggregator     *Aggregator
	calculator     *invoicing.Calculator
	log            *logger.Logger

	mu     sync.Mutex
	locks  map[string]*invoiceLock
	states map[string]ReconcileState
}

type invoiceLock struct {
	mu   sync.Mutex
	refs int
}

// NewReconciler construye el conciliador.
func NewReconciler(
	invoiceRepo repository.InvoiceRepository,
	departmentRepo repository.DepartmentRepository,
	expenseRepo repository.ExpenseRepository,
	aggregator *Aggregator,
	calculator *invoicing.Calculator,
	log *logger.Logger,
) *Reconciler {
	return &Reconciler{
		invoiceRepo:    invoiceRepo,
		departmentRepo: departmentRepo,
		expenseRepo:    expenseRepo,
		aggregator:     aggregator,
		calculator:     calculator,
		log:            log,
		locks:          make(map[string]*invoiceLock),
		states:         make(map[string]ReconcileState),
	}
}

// State último estado conocido de la factura (Idle si nunca se revisó).
func (r *Reconciler) State(invoiceID string) ReconcileState {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.states[invoiceID]; ok {
		return s
	}
	return StateIdle
}

func (r *Reconciler) setState(invoiceID string, s ReconcileState) {
	r.mu.Lock()
	r.states[invoiceID] = s
	r.mu.Unlock()
}

// Check busca, por cada línea generada por domiciliación, líneas importadas del mismo
// periodo y aula con el mismo importe absoluto.
func (r *Reconciler) Check(ctx context.Context, invoiceID string) (*CheckResult, error) {
	inv, err := r.loadInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	prev := r.State(invoiceID)
	r.setState(invoiceID, StateChecking)
	lines, err := r.aggregator.Aggregate(ctx, inv.DepartmentID, inv.BillingPeriod)
	if err != nil {
		r.setState(invoiceID, prev)
		return nil, err
	}

	offsets := invoicing.BankTransferOffsets(inv.BillingPeriod, lines.Membership, r.calculator.Rates().BankTransferUnitPrice)
	groups := FindDuplicateGroups(offsets, lines.Imported)

	state := StateNoDuplicates
	if len(groups) > 0 {
		state = StateDuplicatesFound
	}
	r.setState(invoiceID, state)
	return &CheckResult{State: state, Groups: groups}, nil
}

// FindDuplicateGroups agrupa por código de aula. Un grupo existe solo si alguna línea
// importada coincide en importe absoluto con la generada; el grupo muestra además las
// demás importadas del aula, sin marcar.
func FindDuplicateGroups(generated, imported []entity.ExpenseLine) []DuplicateGroup {
	byClassroom := make(map[string][]entity.ExpenseLine)
	for _, l := range imported {
		if l.Source != entity.ExpenseSourceImported || l.ClassroomCode == "" {
			continue
		}
		byClassroom[l.ClassroomCode] = append(byClassroom[l.ClassroomCode], l)
	}

	var groups []DuplicateGroup
	for _, gen := range generated {
		candidates := byClassroom[gen.ClassroomCode]
		target := gen.Amount.Abs()
		matched := false
		for _, c := range candidates {
			if c.Amount.Abs().Equal(target) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}

		items := []DuplicateItem{{
			ExpenseID:   gen.ID,
			Description: gen.Description,
			Amount:      gen.Amount,
			Source:      entity.ExpenseSourceGenerated,
		}}
		for _, c := range candidates {
			items = append(items, DuplicateItem{
				ExpenseID:   c.ID,
				Description: c.Description,
				Amount:      c.Amount,
				Source:      c.Source,
				Selectable:  c.Deletable(),
				Recommended: c.Deletable() && c.Amount.Abs().Equal(target),
			})
		}
		groups = append(groups, DuplicateGroup{ClassroomCode: gen.ClassroomCode, Items: items})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].ClassroomCode < groups[j].ClassroomCode })
	return groups
}

// Resolve elimina en un lote las líneas importadas indicadas. Las resoluciones de una
// misma factura se serializan; el borrado es idempotente (un id ya inexistente no falla).
// Nunca borra una línea generada, sea cual sea la entrada.
//
// Retorna domain.ErrInvalidInput si la lista está vacía y domain.ErrNotFound si la
// factura no existe; los fallos por línea van en ResolveResult.Failed.
func (r *Reconciler) Resolve(ctx context.Context, invoiceID string, expenseIDs []string) (*ResolveResult, error) {
	ids := uniqueNonEmpty(expenseIDs)
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no se indicaron líneas a eliminar", domain.ErrInvalidInput)
	}

	unlock := r.lock(invoiceID)
	defer unlock()

	inv, err := r.loadInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	dept, err := r.departmentRepo.GetByID(ctx, inv.DepartmentID)
	if err != nil {
		return nil, fmt.Errorf("%w: obtener departamento %s: %w", domain.ErrAggregation, inv.DepartmentID, err)
	}
	if dept == nil {
		return nil, fmt.Errorf("departamento %s: %w", inv.DepartmentID, domain.ErrNotFound)
	}

	prev := r.State(invoiceID)
	r.setState(invoiceID, StateResolving)

	existing, err := r.expenseRepo.GetByIDs(ctx, ids)
	if err != nil {
		r.setState(invoiceID, prev)
		return nil, fmt.Errorf("%w: obtener líneas de gasto: %w", domain.ErrAggregation, err)
	}
	byID := make(map[string]entity.ExpenseLine, len(existing))
	for _, l := range existing {
		byID[l.ID] = l
	}

	res := &ResolveResult{}
	var deletable []string
	for _, id := range ids {
		l, ok := byID[id]
		switch {
		case !ok:
			// Un id generado nunca existe como fila; lo demás ya fue borrado.
			if isGeneratedID(id) {
				res.Failed = append(res.Failed, FailedDeletion{ExpenseID: id, Reason: domain.ErrNotDeletable.Error()})
			} else {
				res.AlreadyGone = append(res.AlreadyGone, id)
			}
		case !l.Deletable():
			res.Failed = append(res.Failed, FailedDeletion{ExpenseID: id, Reason: domain.ErrNotDeletable.Error()})
		case l.StoreCode != dept.StoreCode || l.BillingPeriod != inv.BillingPeriod:
			res.Failed = append(res.Failed, FailedDeletion{ExpenseID: id, Reason: "la línea no pertenece a esta factura"})
		default:
			deletable = append(deletable, id)
		}
	}

	if len(deletable) > 0 {
		deleted, err := r.expenseRepo.DeleteImported(ctx, deletable)
		if err != nil {
			r.log.Error().Err(err).
				Str("invoice_id", invoiceID).
				Strs("expense_ids", deletable).
				Msg("fallo al eliminar líneas duplicadas")
			for _, id := range deletable {
				res.Failed = append(res.Failed, FailedDeletion{ExpenseID: id, Reason: "error al eliminar"})
			}
		} else {
			done := make(map[string]struct{}, len(deleted))
			for _, id := range deleted {
				done[id] = struct{}{}
			}
			for _, id := range deletable {
				if _, ok := done[id]; ok {
					res.Deleted = append(res.Deleted, id)
				} else {
					res.AlreadyGone = append(res.AlreadyGone, id)
				}
			}
		}
	}

	r.setState(invoiceID, StateResolved)
	r.log.Info().
		Str("invoice_id", invoiceID).
		Int("deleted", len(res.Deleted)).
		Int("already_gone", len(res.AlreadyGone)).
		Int("failed", len(res.Failed)).
		Msg("conciliación de duplicados resuelta")
	return res, nil
}

func (r *Reconciler) loadInvoice(ctx context.Context, invoiceID string) (*entity.MonthlyInvoice, error) {
	inv, err := r.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("%w: obtener factura %s: %w", domain.ErrAggregation, invoiceID, err)
	}
	if inv == nil {
		return nil, fmt.Errorf("factura %s: %w", invoiceID, domain.ErrNotFound)
	}
	return inv, nil
}

// lock toma el candado de la factura y devuelve la función que lo libera.
func (r *Reconciler) lock(invoiceID string) func() {
	r.mu.Lock()
	l, ok := r.locks[invoiceID]
	if !ok {
		l = &invoiceLock{}
		r.locks[invoiceID] = l
	}
	l.refs++
	r.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		r.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(r.locks, invoiceID)
		}
		r.mu.Unlock()
	}
}

func isGeneratedID(id string) bool {
	return strings.HasPrefix(id, invoicing.GeneratedIDPrefix)
}

func uniqueNonEmpty(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
