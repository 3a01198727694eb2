// Package memorytest implementa los puertos de repositorio en memoria para las pruebas.
// Reproduce los filtros de las consultas SQL para que los casos de uso se prueben sin
// base de datos; ningún binario lo importa.
package memorytest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/seikyu-api/internal/domain/entity"
	"github.com/jhoicas/seikyu-api/internal/domain/repository"
)

var (
	_ repository.DepartmentRepository = (*Store)(nil)
	_ repository.MembershipRepository = (*Store)(nil)
	_ repository.OrderRepository      = (*Store)(nil)
	_ repository.ExpenseRepository    = (*Store)(nil)
	_ repository.InvoiceRepository    = invoiceView{}
)

// Operaciones a las que se les puede inyectar un fallo con FailOn.
const (
	OpGetDepartment     = "departments.get"
	OpClassroomLines    = "membership.classroom"
	OpBranchLines       = "membership.branch"
	OpBankTransferLines = "membership.bank_transfer"
	OpMaterialLines     = "orders.material"
	OpListExpenses      = "expenses.list"
	OpGetExpenses       = "expenses.get"
	OpDeleteExpenses    = "expenses.delete"
	OpGetInvoice        = "invoices.get"
	OpFindCurrent       = "invoices.find_current"
	OpListCurrent       = "invoices.list_current"
	OpCohort            = "invoices.cohort"
	OpUpdateTotals      = "invoices.update_totals"
)

// MembershipRecord fila de la lista de socios de un aula (o de la propia sucursal) en un periodo.
type MembershipRecord struct {
	Period entity.BillingPeriod
	Line   entity.MembershipLine
}

// OrderRecord línea de pedido con el departamento que lo hizo.
type OrderRecord struct {
	DepartmentID string
	Line         entity.MaterialOrderLine
}

// Store almacén en memoria, seguro para uso concurrente.
type Store struct {
	mu          sync.RWMutex
	departments map[string]entity.Department
	membership  []MembershipRecord
	orders      []OrderRecord
	expenses    map[string]entity.ExpenseLine
	invoices    map[string]entity.MonthlyInvoice
	failures    map[string]error
	calls       map[string]int
	loc         *time.Location
}

// New crea un almacén vacío. loc es la zona de facturación que delimita el mes de los pedidos.
func New(loc *time.Location) *Store {
	if loc == nil {
		loc = time.UTC
	}
	return &Store{
		loc:         loc,
		departments: make(map[string]entity.Department),
		expenses:    make(map[string]entity.ExpenseLine),
		invoices:    make(map[string]entity.MonthlyInvoice),
		failures:    make(map[string]error),
		calls:       make(map[string]int),
	}
}

// AddDepartment registra un departamento.
func (s *Store) AddDepartment(d entity.Department) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.departments[d.ID] = d
}

// AddMembership registra filas de socios del periodo.
func (s *Store) AddMembership(period entity.BillingPeriod, lines ...entity.MembershipLine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range lines {
		s.membership = append(s.membership, MembershipRecord{Period: period, Line: l})
	}
}

// AddOrder registra líneas de pedido hechas por un departamento.
func (s *Store) AddOrder(departmentID string, lines ...entity.MaterialOrderLine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range lines {
		s.orders = append(s.orders, OrderRecord{DepartmentID: departmentID, Line: l})
	}
}

// AddExpense registra líneas de gasto.
func (s *Store) AddExpense(lines ...entity.ExpenseLine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range lines {
		s.expenses[l.ID] = l
	}
}

// AddInvoice registra una factura mensual.
func (s *Store) AddInvoice(inv entity.MonthlyInvoice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invoices[inv.ID] = inv
}

// FailOn hace que la operación op devuelva err (nil la restablece).
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

// Calls número de veces que se llamó a op.
func (s *Store) Calls(op string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calls[op]
}

// Expense devuelve la línea si sigue existiendo.
func (s *Store) Expense(id string) (entity.ExpenseLine, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.expenses[id]
	return l, ok
}

// Invoice devuelve una copia de la factura.
func (s *Store) Invoice(id string) (entity.MonthlyInvoice, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inv, ok := s.invoices[id]
	return inv, ok
}

// begin registra la llamada y devuelve el fallo inyectado, si hay. Debe llamarse con el lock tomado.
func (s *Store) begin(ctx context.Context, op string) error {
	s.calls[op]++
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.failures[op]
}

// ── Departamentos ─────────────────────────────────────────────────────────────

func (s *Store) GetByID(ctx context.Context, id string) (*entity.Department, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(ctx, OpGetDepartment); err != nil {
		return nil, err
	}
	d, ok := s.departments[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (s *Store) childStoreCodes(branchID string) map[string]bool {
	out := make(map[string]bool)
	for _, d := range s.departments {
		if d.ParentID == branchID {
			out[d.StoreCode] = true
		}
	}
	return out
}

// ── Socios ────────────────────────────────────────────────────────────────────

func (s *Store) ListClassroomLines(ctx context.Context, branchID string, period entity.BillingPeriod) ([]entity.MembershipLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(ctx, OpClassroomLines); err != nil {
		return nil, err
	}
	children := s.childStoreCodes(branchID)
	return s.filterMembership(func(r MembershipRecord) bool {
		return r.Period == period && children[r.Line.ClassroomCode] && !r.Line.Excluded && !r.Line.IsBankTransfer()
	}), nil
}

func (s *Store) ListBranchLines(ctx context.Context, branchStoreCode string, period entity.BillingPeriod) ([]entity.MembershipLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(ctx, OpBranchLines); err != nil {
		return nil, err
	}
	return s.filterMembership(func(r MembershipRecord) bool {
		return r.Period == period && r.Line.ClassroomCode == branchStoreCode && !r.Line.IsBankTransfer()
	}), nil
}

func (s *Store) ListBankTransferLines(ctx context.Context, branchID string, period entity.BillingPeriod) ([]entity.MembershipLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(ctx, OpBankTransferLines); err != nil {
		return nil, err
	}
	children := s.childStoreCodes(branchID)
	return s.filterMembership(func(r MembershipRecord) bool {
		return r.Period == period && children[r.Line.ClassroomCode] && r.Line.IsBankTransfer() && r.Line.Count > 0
	}), nil
}

func (s *Store) filterMembership(keep func(MembershipRecord) bool) []entity.MembershipLine {
	var out []entity.MembershipLine
	for _, r := range s.membership {
		if keep(r) {
			out = append(out, r.Line)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ClassroomCode < out[j].ClassroomCode })
	return out
}

// ── Pedidos ───────────────────────────────────────────────────────────────────

func (s *Store) ListMaterialLines(ctx context.Context, branchID string, period entity.BillingPeriod) ([]entity.MaterialOrderLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(ctx, OpMaterialLines); err != nil {
		return nil, err
	}
	from := period.FirstDay(s.loc)
	to := period.Next().FirstDay(s.loc)
	var out []entity.MaterialOrderLine
	for _, o := range s.orders {
		d, ok := s.departments[o.DepartmentID]
		if !ok || (d.ID != branchID && d.ParentID != branchID) {
			continue
		}
		if o.Line.OrderDate.Before(from) || !o.Line.OrderDate.Before(to) {
			continue
		}
		out = append(out, o.Line)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].OrderDate.Before(out[j].OrderDate) })
	return out, nil
}

// ── Gastos ────────────────────────────────────────────────────────────────────

func (s *Store) ListByStore(ctx context.Context, storeCode string, period entity.BillingPeriod) ([]entity.ExpenseLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(ctx, OpListExpenses); err != nil {
		return nil, err
	}
	var out []entity.ExpenseLine
	for _, l := range s.expenses {
		if l.StoreCode == storeCode && l.BillingPeriod == period {
			out = append(out, l)
		}
	}
	sortExpenses(out)
	return out, nil
}

func (s *Store) GetByIDs(ctx context.Context, ids []string) ([]entity.ExpenseLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(ctx, OpGetExpenses); err != nil {
		return nil, err
	}
	var out []entity.ExpenseLine
	for _, id := range ids {
		if l, ok := s.expenses[id]; ok {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *Store) DeleteImported(ctx context.Context, ids []string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(ctx, OpDeleteExpenses); err != nil {
		return nil, err
	}
	var deleted []string
	for _, id := range ids {
		l, ok := s.expenses[id]
		if !ok || l.Source != entity.ExpenseSourceImported {
			continue
		}
		delete(s.expenses, id)
		deleted = append(deleted, id)
	}
	return deleted, nil
}

func sortExpenses(lines []entity.ExpenseLine) {
	sort.SliceStable(lines, func(i, j int) bool {
		if !lines[i].CreatedAt.Equal(lines[j].CreatedAt) {
			return lines[i].CreatedAt.Before(lines[j].CreatedAt)
		}
		return lines[i].ID < lines[j].ID
	})
}

// ── Facturas ──────────────────────────────────────────────────────────────────

// Invoices expone el puerto de facturas: GetByID colisiona con el de departamentos.
func (s *Store) Invoices() repository.InvoiceRepository { return invoiceView{s} }

type invoiceView struct{ s *Store }

func (v invoiceView) GetByID(ctx context.Context, id string) (*entity.MonthlyInvoice, error) {
	s := v.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(ctx, OpGetInvoice); err != nil {
		return nil, err
	}
	inv, ok := s.invoices[id]
	if !ok {
		return nil, nil
	}
	return &inv, nil
}

func (v invoiceView) FindCurrent(ctx context.Context, departmentID string, period entity.BillingPeriod) (*entity.MonthlyInvoice, error) {
	return v.s.FindCurrent(ctx, departmentID, period)
}

func (v invoiceView) ListCurrent(ctx context.Context, period entity.BillingPeriod) ([]*entity.MonthlyInvoice, error) {
	return v.s.ListCurrent(ctx, period)
}

func (v invoiceView) ListCohortStoreCodes(ctx context.Context, period entity.BillingPeriod) ([]string, error) {
	return v.s.ListCohortStoreCodes(ctx, period)
}

func (v invoiceView) UpdateTotals(ctx context.Context, id string, subtotal, tax, total decimal.Decimal) error {
	return v.s.UpdateTotals(ctx, id, subtotal, tax, total)
}

func (s *Store) FindCurrent(ctx context.Context, departmentID string, period entity.BillingPeriod) (*entity.MonthlyInvoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(ctx, OpFindCurrent); err != nil {
		return nil, err
	}
	for _, inv := range s.invoices {
		if inv.DepartmentID == departmentID && inv.BillingPeriod == period && inv.IsCurrent {
			inv := inv
			return &inv, nil
		}
	}
	return nil, nil
}

func (s *Store) ListCurrent(ctx context.Context, period entity.BillingPeriod) ([]*entity.MonthlyInvoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(ctx, OpListCurrent); err != nil {
		return nil, err
	}
	var out []*entity.MonthlyInvoice
	for _, inv := range s.invoices {
		if inv.BillingPeriod == period && inv.IsCurrent {
			inv := inv
			out = append(out, &inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ListCohortStoreCodes(ctx context.Context, period entity.BillingPeriod) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(ctx, OpCohort); err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var out []string
	for _, inv := range s.invoices {
		if inv.BillingPeriod != period || !inv.IsCurrent {
			continue
		}
		d, ok := s.departments[inv.DepartmentID]
		if !ok || seen[d.StoreCode] {
			continue
		}
		seen[d.StoreCode] = true
		out = append(out, d.StoreCode)
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) UpdateTotals(ctx context.Context, id string, subtotal, tax, total decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(ctx, OpUpdateTotals); err != nil {
		return err
	}
	inv, ok := s.invoices[id]
	if !ok {
		return nil
	}
	inv.Subtotal, inv.TaxAmount, inv.TotalAmount = subtotal, tax, total
	inv.UpdatedAt = time.Now()
	s.invoices[id] = inv
	return nil
}
