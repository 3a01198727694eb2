package billing

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/seikyu-api/internal/domain"
	"github.com/jhoicas/seikyu-api/internal/domain/entity"
	"github.com/jhoicas/seikyu-api/internal/domain/repository"
	"github.com/jhoicas/seikyu-api/pkg/logger"
)

// BatchConfig límites del render por lotes.
type BatchConfig struct {
	Concurrency int           // documentos en paralelo
	Timeout     time.Duration // límite por documento
	KeyPrefix   string        // prefijo de las claves en el almacenamiento
}

// BatchItem resultado de un documento del lote.
type BatchItem struct {
	InvoiceID string
	Key       string
	Err       error
}

// TimedOut indica si el documento falló por exceder su límite.
func (i BatchItem) TimedOut() bool { return errors.Is(i.Err, domain.ErrRenderTimeout) }

// BatchReport resumen del lote; un documento fallido no detiene a los demás.
type BatchReport struct {
	Period entity.BillingPeriod
	Items  []BatchItem
}

// Failed documentos con error.
func (r *BatchReport) Failed() []BatchItem {
	var out []BatchItem
	for _, it := range r.Items {
		if it.Err != nil {
			out = append(out, it)
		}
	}
	return out
}

// BatchUseCase genera el documento paginado de todas las facturas vigentes de un periodo
// y lo guarda en el almacenamiento configurado.
type BatchUseCase struct {
	invoiceRepo repository.InvoiceRepository
	documents   *DocumentUseCase
	store       DocumentStore
	cfg         BatchConfig
	log         *logger.Logger
}

// NewBatchUseCase construye el caso de uso.
func NewBatchUseCase(
	invoiceRepo repository.InvoiceRepository,
	documents *DocumentUseCase,
	store DocumentStore,
	cfg BatchConfig,
	log *logger.Logger,
) *BatchUseCase {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &BatchUseCase{invoiceRepo: invoiceRepo, documents: documents, store: store, cfg: cfg, log: log}
}

// Run procesa la cohorte del periodo. Solo devuelve error si no se pudo listar la cohorte
// o si el contexto padre se canceló; los fallos por documento van en el reporte.
func (uc *BatchUseCase) Run(ctx context.Context, period entity.BillingPeriod, opts RenderOptions) (*BatchReport, error) {
	invoices, err := uc.invoiceRepo.ListCurrent(ctx, period)
	if err != nil {
		return nil, fmt.Errorf("%w: listar facturas vigentes %s: %w", domain.ErrAggregation, period, err)
	}

	report := &BatchReport{Period: period}
	var mu sync.Mutex

	g := new(errgroup.Group)
	g.SetLimit(uc.cfg.Concurrency)
	for _, inv := range invoices {
		inv := inv
		g.Go(func() error {
			item := uc.renderOne(ctx, inv.ID, opts)
			mu.Lock()
			report.Items = append(report.Items, item)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(report.Items, func(i, j int) bool { return report.Items[i].InvoiceID < report.Items[j].InvoiceID })
	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

func (uc *BatchUseCase) renderOne(parent context.Context, invoiceID string, opts RenderOptions) BatchItem {
	item := BatchItem{InvoiceID: invoiceID}
	if err := parent.Err(); err != nil {
		item.Err = err
		return item
	}

	ctx := parent
	if uc.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, uc.cfg.Timeout)
		defer cancel()
	}

	body, filename, err := uc.documents.DownloadInvoicePDF(ctx, invoiceID, opts)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, domain.ErrRenderTimeout) {
			err = fmt.Errorf("%w: %w", domain.ErrRenderTimeout, err)
		}
		item.Err = err
		uc.log.Error().Err(err).Str("invoice_id", invoiceID).Bool("timeout", item.TimedOut()).Msg("lote: documento fallido")
		return item
	}

	item.Key = path.Join(uc.cfg.KeyPrefix, filename)
	if err := uc.store.Put(ctx, item.Key, body, "application/pdf"); err != nil {
		item.Err = fmt.Errorf("guardar %s: %w", item.Key, err)
		uc.log.Error().Err(item.Err).Str("invoice_id", invoiceID).Msg("lote: no se pudo guardar el documento")
		return item
	}
	uc.log.Debug().Str("invoice_id", invoiceID).Str("key", item.Key).Msg("lote: documento guardado")
	return item
}
