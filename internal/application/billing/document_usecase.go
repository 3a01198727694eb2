package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/seikyu-api/internal/domain"
	"github.com/jhoicas/seikyu-api/internal/domain/entity"
	"github.com/jhoicas/seikyu-api/internal/domain/invoicing"
	"github.com/jhoicas/seikyu-api/internal/domain/repository"
	"github.com/jhoicas/seikyu-api/pkg/logger"
)

// DocumentUseCase recalcula una factura mensual en cada petición y la entrega en los
// dos formatos (vista previa y documento paginado). No guarda nada en caché.
type DocumentUseCase struct {
	invoiceRepo repository.InvoiceRepository
	aggregator  *Aggregator
	calculator  *invoicing.Calculator
	preview     PreviewRenderer
	pdf         InvoicePDFGenerator
	cfg         DocumentConfig
	log         *logger.Logger
}

// NewDocumentUseCase construye el caso de uso inyectando todas sus dependencias.
func NewDocumentUseCase(
	invoiceRepo repository.InvoiceRepository,
	aggregator *Aggregator,
	calculator *invoicing.Calculator,
	preview PreviewRenderer,
	pdf InvoicePDFGenerator,
	cfg DocumentConfig,
	log *logger.Logger,
) *DocumentUseCase {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &DocumentUseCase{
		invoiceRepo: invoiceRepo,
		aggregator:  aggregator,
		calculator:  calculator,
		preview:     preview,
		pdf:         pdf,
		cfg:         cfg,
		log:         log,
	}
}

// Build ejecuta Aggregator → Calculator y arma el documento.
//
// Retorna:
//   - domain.ErrNotFound    si la factura o su departamento no existen.
//   - domain.ErrAggregation si falla cualquier consulta (sin resultado parcial).
func (uc *DocumentUseCase) Build(ctx context.Context, invoiceID string) (*InvoiceDocument, error) {
	// ── 1. Cargar factura ─────────────────────────────────────────────────────
	inv, err := uc.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("%w: obtener factura %s: %w", domain.ErrAggregation, invoiceID, err)
	}
	if inv == nil {
		return nil, fmt.Errorf("factura %s: %w", invoiceID, domain.ErrNotFound)
	}
	period := inv.BillingPeriod

	// ── 2. Saldo anterior, cohorte y líneas en paralelo ──────────────────────
	var (
		previous *entity.MonthlyInvoice
		cohort   []string
		lines    *AggregatedLines
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := uc.invoiceRepo.FindCurrent(gctx, inv.DepartmentID, period.Prev())
		if err != nil {
			return fmt.Errorf("%w: factura del periodo %s: %w", domain.ErrAggregation, period.Prev(), err)
		}
		previous = p
		return nil
	})
	g.Go(func() error {
		codes, err := uc.invoiceRepo.ListCohortStoreCodes(gctx, period)
		if err != nil {
			return fmt.Errorf("%w: cohorte %s: %w", domain.ErrAggregation, period, err)
		}
		cohort = codes
		return nil
	})
	g.Go(func() error {
		l, err := uc.aggregator.Aggregate(gctx, inv.DepartmentID, period)
		if err != nil {
			return err
		}
		lines = l
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// ── 3. Cálculo ────────────────────────────────────────────────────────────
	// La ausencia de factura anterior no es un error: el saldo arrastrado es 0.
	previousBalance := decimal.Zero
	if previous != nil {
		previousBalance = previous.TotalAmount
	}
	computed := uc.calculator.Compute(invoicing.Input{
		Period:          period,
		PreviousBalance: previousBalance,
		Payment:         inv.Payment,
		Membership:      lines.Membership,
		Material:        lines.Material,
		Expenses:        lines.Expenses,
	})

	// ── 4. Persistir solo los totales resumidos ───────────────────────────────
	uc.writeBackTotals(ctx, inv, computed.Amounts)

	return &InvoiceDocument{
		InvoiceID:      inv.ID,
		Number:         invoicing.InvoiceNumber(cohort, lines.Department.StoreCode),
		Period:         period,
		IssueDate:      inv.IssueDate.In(uc.cfg.Location),
		DueDate:        uc.dueDate(inv),
		Recipient:      lines.Department,
		Issuer:         uc.cfg.Issuer,
		Bank:           uc.cfg.Bank,
		CurrencySymbol: uc.cfg.CurrencySymbol,
		Computed:       computed,

		DroppedBankTransfer: lines.DroppedBankTransfer,
	}, nil
}

// Preview devuelve el HTML interactivo de la factura.
func (uc *DocumentUseCase) Preview(ctx context.Context, invoiceID string, opts RenderOptions) ([]byte, error) {
	doc, err := uc.Build(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	html, err := uc.preview.RenderPreview(ctx, doc, opts)
	if err != nil {
		return nil, fmt.Errorf("vista previa %s: %w", invoiceID, err)
	}
	return html, nil
}

// writeBackTotals actualiza subtotal/impuesto/total si cambiaron. Un fallo aquí no
// invalida el documento: se registra y se sigue.
func (uc *DocumentUseCase) writeBackTotals(ctx context.Context, inv *entity.MonthlyInvoice, a invoicing.Amounts) {
	if inv.Subtotal.Equal(a.Subtotal) && inv.TaxAmount.Equal(a.TaxAmount) && inv.TotalAmount.Equal(a.TotalAmount) {
		return
	}
	if err := uc.invoiceRepo.UpdateTotals(ctx, inv.ID, a.Subtotal, a.TaxAmount, a.TotalAmount); err != nil {
		uc.log.Warn().Err(err).
			Str("invoice_id", inv.ID).
			Str("period", inv.BillingPeriod.String()).
			Msg("no se pudieron guardar los totales de la factura")
	}
}

// dueDate usa la fecha del registro o, si no hay, el día configurado del mes siguiente
// (acotado al último día del mes).
func (uc *DocumentUseCase) dueDate(inv *entity.MonthlyInvoice) time.Time {
	if inv.DueDate != nil {
		return inv.DueDate.In(uc.cfg.Location)
	}
	next := inv.BillingPeriod.Next()
	first := next.FirstDay(uc.cfg.Location)
	lastDay := first.AddDate(0, 1, -1).Day()
	day := uc.cfg.DueDay
	if day < 1 {
		day = 1
	}
	if day > lastDay {
		day = lastDay
	}
	return time.Date(next.Year, next.Month, day, 0, 0, 0, 0, uc.cfg.Location)
}
