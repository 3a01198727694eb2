package billing_test

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/jhoicas/seikyu-api/internal/application/billing"
	"github.com/jhoicas/seikyu-api/internal/domain/entity"
	"github.com/jhoicas/seikyu-api/internal/domain/invoicing"
	"github.com/jhoicas/seikyu-api/internal/infrastructure/memorytest"
	"github.com/jhoicas/seikyu-api/pkg/logger"
)

var (
	october   = entity.BillingPeriod{Year: 2024, Month: time.October}
	september = entity.BillingPeriod{Year: 2024, Month: time.September}
	jst       = time.FixedZone("JST", 9*60*60)
)

func yen(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

func membership(code string, count int, price int64, channel string, excluded bool) entity.MembershipLine {
	return entity.MembershipLine{
		ClassroomCode: code,
		ClassroomName: "教室" + code,
		Count:         count,
		UnitPrice:     yen(price),
		Channel:       channel,
		Excluded:      excluded,
	}
}

func expense(id, store string, period entity.BillingPeriod, amount int64, category, status, source string) entity.ExpenseLine {
	return entity.ExpenseLine{
		ID:             id,
		StoreCode:      store,
		BillingPeriod:  period,
		Description:    "gasto " + id,
		Amount:         yen(amount),
		Category:       category,
		ApprovalStatus: status,
		Source:         source,
		CreatedAt:      time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC),
	}
}

// seedBranch sucursal S100 con tres aulas en octubre de 2024:
//
//	S100 propia (excluida pero incluida)  10 × 1000 = 10000
//	S101                                  20 × 1000 = 20000
//	S102                                   0 × 1000
//	S103 domiciliada                       5 × 600  =  3000 (ajuste -3000)
//	S104 excluida                         no entra
//
// Material: 2 × 1500 de la sucursal; un pedido de S101 solo informativo.
// Gastos S100 aprobados: gravado 5000, gravado importado duplicado -3000 (aula S103),
// no gravado 1000, ajuste 2000.
func seedBranch() *memorytest.Store {
	s := memorytest.New(jst)
	s.AddDepartment(entity.Department{ID: "br1", Code: "13-001", Name: "東京支部", Type: entity.DepartmentTypeBranch, ParentID: "hq", StoreCode: "S100"})
	for _, c := range []struct{ id, code string }{{"cl1", "S101"}, {"cl2", "S102"}, {"cl3", "S103"}, {"cl4", "S104"}} {
		s.AddDepartment(entity.Department{ID: c.id, Name: "教室" + c.code, Type: entity.DepartmentTypeClassroom, ParentID: "br1", StoreCode: c.code})
	}
	// Otra sucursal de la cohorte.
	s.AddDepartment(entity.Department{ID: "br0", Name: "大阪支部", Type: entity.DepartmentTypeBranch, ParentID: "hq", StoreCode: "S050"})

	s.AddMembership(october,
		membership("S100", 10, 1000, entity.ChannelBranchRecorded, true),
		membership("S101", 20, 1000, entity.ChannelBranchRecorded, false),
		membership("S102", 0, 1000, entity.ChannelBranchRecorded, false),
		membership("S103", 5, 1200, entity.ChannelBankTransfer, false),
		membership("S104", 9, 1000, entity.ChannelBranchRecorded, true),
	)
	s.AddMembership(september, membership("S101", 99, 1000, entity.ChannelBranchRecorded, false))

	s.AddOrder("br1", entity.MaterialOrderLine{OrderID: "o1", OrderDate: time.Date(2024, 10, 3, 0, 0, 0, 0, time.UTC), ProductName: "テキストA", Quantity: 2, UnitPrice: yen(1500), OriginStoreCode: "S100"})
	s.AddOrder("cl1", entity.MaterialOrderLine{OrderID: "o2", OrderDate: time.Date(2024, 10, 9, 0, 0, 0, 0, time.UTC), ProductName: "テキストB", Quantity: 1, UnitPrice: yen(900), OriginStoreCode: "S101"})
	s.AddOrder("br1", entity.MaterialOrderLine{OrderID: "o0", OrderDate: time.Date(2024, 9, 28, 0, 0, 0, 0, time.UTC), ProductName: "テキストC", Quantity: 1, UnitPrice: yen(700), OriginStoreCode: "S100"})

	dup := expense("e-dup", "S100", october, -3000, entity.ExpenseCategoryTaxable, entity.ApprovalStatusApproved, entity.ExpenseSourceImported)
	dup.ClassroomCode = "S103"
	s.AddExpense(
		expense("e-tax", "S100", october, 5000, entity.ExpenseCategoryTaxable, entity.ApprovalStatusApproved, entity.ExpenseSourceImported),
		expense("e-pending", "S100", october, 7000, entity.ExpenseCategoryTaxable, entity.ApprovalStatusPending, entity.ExpenseSourceImported),
		expense("e-nontax", "S100", october, 1000, entity.ExpenseCategoryNonTaxable, entity.ApprovalStatusApproved, entity.ExpenseSourceImported),
		expense("e-adj", "S100", october, 2000, entity.ExpenseCategoryAdjustment, entity.ApprovalStatusApproved, entity.ExpenseSourceImported),
		expense("e-other-store", "S1000", october, 8000, entity.ExpenseCategoryTaxable, entity.ApprovalStatusApproved, entity.ExpenseSourceImported),
		expense("e-sept", "S100", september, 4000, entity.ExpenseCategoryTaxable, entity.ApprovalStatusApproved, entity.ExpenseSourceImported),
		dup,
	)

	s.AddInvoice(entity.MonthlyInvoice{ID: "inv-sep", DepartmentID: "br1", BillingPeriod: september, IsCurrent: true, TotalAmount: yen(20000)})
	s.AddInvoice(entity.MonthlyInvoice{ID: "inv-sep-old", DepartmentID: "br1", BillingPeriod: september, IsCurrent: false, TotalAmount: yen(99999)})
	s.AddInvoice(entity.MonthlyInvoice{
		ID: "inv-oct", DepartmentID: "br1", BillingPeriod: october, IsCurrent: true,
		Payment: yen(20000), IssueDate: time.Date(2024, 10, 31, 0, 0, 0, 0, jst),
	})
	s.AddInvoice(entity.MonthlyInvoice{ID: "inv-oct-osaka", DepartmentID: "br0", BillingPeriod: october, IsCurrent: true})
	return s
}

func rates() invoicing.Rates {
	return invoicing.Rates{TaxRate: decimal.RequireFromString("0.10"), BankTransferUnitPrice: yen(600)}
}

func newAggregator(s *memorytest.Store) *billing.Aggregator {
	return billing.NewAggregator(s, s, s, s, logger.Nop())
}

// mockPDF generador de PDF con testify/mock.
type mockPDF struct{ mock.Mock }

func (m *mockPDF) GenerateInvoicePDF(ctx context.Context, doc *billing.InvoiceDocument, opts billing.RenderOptions) ([]byte, error) {
	args := m.Called(ctx, doc, opts)
	b, _ := args.Get(0).([]byte)
	return b, args.Error(1)
}

// stubPreview devuelve el número y el total; suficiente para comprobar el flujo.
type stubPreview struct{}

func (stubPreview) RenderPreview(_ context.Context, doc *billing.InvoiceDocument, opts billing.RenderOptions) ([]byte, error) {
	return []byte(doc.Number + "|" + doc.Computed.Amounts.TotalAmount.String()), nil
}

func newDocumentUseCase(s *memorytest.Store, pdf billing.InvoicePDFGenerator) *billing.DocumentUseCase {
	return newDocumentUseCaseWithConfig(s, pdf, billing.DocumentConfig{CurrencySymbol: "¥", DueDay: 27, Location: jst})
}

func newDocumentUseCaseWithConfig(s *memorytest.Store, pdf billing.InvoicePDFGenerator, cfg billing.DocumentConfig) *billing.DocumentUseCase {
	if pdf == nil {
		pdf = &mockPDF{}
	}
	return billing.NewDocumentUseCase(
		s.Invoices(),
		newAggregator(s),
		invoicing.NewCalculator(rates()),
		stubPreview{},
		pdf,
		cfg,
		logger.Nop(),
	)
}
