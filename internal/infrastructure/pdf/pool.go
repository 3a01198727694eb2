package pdf

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jhoicas/seikyu-api/internal/application/billing"
	"github.com/jhoicas/seikyu-api/internal/domain"
	"github.com/jhoicas/seikyu-api/pkg/logger"
)

// Renderer lo que el pool necesita de un renderer concreto.
type Renderer interface {
	Render(ctx context.Context, doc *billing.InvoiceDocument, opts billing.RenderOptions) ([]byte, error)
}

// RendererFactory crea un renderer nuevo (carga de fuentes incluida).
type RendererFactory func() (Renderer, error)

// PoolConfig límites del pool.
type PoolConfig struct {
	Workers          int
	Timeout          time.Duration // por documento; 0 = sin límite propio
	MaxDocsPerWorker int           // documentos antes de recrear el renderer; 0 = sin límite
}

var _ billing.InvoicePDFGenerator = (*Pool)(nil)

// ErrPoolClosed el pool ya no acepta trabajos.
var ErrPoolClosed = errors.New("pool de renderizado cerrado")

type job struct {
	ctx    context.Context
	doc    *billing.InvoiceDocument
	opts   billing.RenderOptions
	result chan result // con buffer 1: el worker nunca se bloquea al responder
}

type result struct {
	body []byte
	err  error
}

// Pool reparte documentos entre un número fijo de workers, cada uno con su renderer.
// Un renderer se recrea tras MaxDocsPerWorker documentos o después de un fallo.
type Pool struct {
	factory RendererFactory
	cfg     PoolConfig
	log     *logger.Logger

	jobs      chan job
	wg        sync.WaitGroup
	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
	abandoned atomic.Int64
}

// NewPool arranca los workers. Falla si el primer renderer no se puede crear.
func NewPool(factory RendererFactory, cfg PoolConfig, log *logger.Logger) (*Pool, error) {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	// Valida la configuración (fuentes) antes de aceptar trabajo.
	first, err := factory()
	if err != nil {
		return nil, err
	}

	p := &Pool{
		factory: factory,
		cfg:     cfg,
		log:     log,
		jobs:    make(chan job),
	}
	for i := 0; i < cfg.Workers; i++ {
		var r Renderer
		if i == 0 {
			r = first
		}
		p.wg.Add(1)
		go p.worker(i, r)
	}
	return p, nil
}

// GenerateInvoicePDF envía el documento a un worker y espera el resultado o la cancelación
// del contexto. El límite por documento corre desde que un worker toma el trabajo, no
// mientras espera en la cola.
func (p *Pool) GenerateInvoicePDF(ctx context.Context, doc *billing.InvoiceDocument, opts billing.RenderOptions) ([]byte, error) {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return nil, ErrPoolClosed
	}
	j := job{ctx: ctx, doc: doc, opts: opts, result: make(chan result, 1)}
	select {
	case p.jobs <- j:
		p.mu.RUnlock()
	case <-ctx.Done():
		p.mu.RUnlock()
		return nil, wrapCtxErr(ctx.Err(), doc)
	}

	select {
	case res := <-j.result:
		return res.body, res.err
	case <-ctx.Done():
		return nil, wrapCtxErr(ctx.Err(), doc)
	}
}

// Abandoned renders que excedieron su límite y siguen ejecutándose en segundo plano.
func (p *Pool) Abandoned() int64 { return p.abandoned.Load() }

// Close deja de aceptar trabajos y espera a que terminen los workers.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.jobs)
		p.mu.Unlock()
		p.wg.Wait()
	})
}

func (p *Pool) worker(id int, r Renderer) {
	defer p.wg.Done()
	served := 0
	for j := range p.jobs {
		// El solicitante ya se fue: no vale la pena renderizar.
		if err := j.ctx.Err(); err != nil {
			j.result <- result{err: wrapCtxErr(err, j.doc)}
			continue
		}

		if r == nil || (p.cfg.MaxDocsPerWorker > 0 && served >= p.cfg.MaxDocsPerWorker) {
			fresh, err := p.factory()
			if err != nil {
				p.log.Error().Err(err).Int("worker", id).Msg("no se pudo crear el renderer")
				j.result <- result{err: fmt.Errorf("pdf: crear renderer: %w", err)}
				r = nil
				continue
			}
			r, served = fresh, 0
		}

		body, err := p.renderBounded(id, r, j)
		served++
		if err != nil {
			// Un renderer que falló, entró en pánico o quedó colgado se descarta.
			r = nil
		}
		j.result <- result{body: body, err: err}
	}
}

// renderBounded ejecuta el render en su propia goroutine con el límite por documento.
// Si el límite vence, el worker responde con timeout y queda libre para el siguiente
// trabajo; la goroutine colgada se abandona con su renderer (Maroto no observa ctx).
func (p *Pool) renderBounded(id int, r Renderer, j job) ([]byte, error) {
	ctx := j.ctx
	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	done := make(chan result, 1)
	go func() {
		body, err := p.render(ctx, r, j)
		done <- result{body: body, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return nil, wrapCtxErr(res.err, j.doc)
		}
		return res.body, nil
	case <-ctx.Done():
		p.abandoned.Add(1)
		go func() {
			<-done
			p.abandoned.Add(-1)
		}()
		p.log.Warn().
			Int("worker", id).
			Str("invoice_id", j.doc.InvoiceID).
			Dur("timeout", p.cfg.Timeout).
			Msg("render abandonado; el worker continúa con un renderer nuevo")
		return nil, wrapCtxErr(ctx.Err(), j.doc)
	}
}

func (p *Pool) render(ctx context.Context, r Renderer, j job) (body []byte, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			p.log.Error().Interface("panic", rec).Str("invoice_id", j.doc.InvoiceID).Msg("pánico al renderizar PDF")
			err = fmt.Errorf("pdf: pánico al renderizar %s: %v", j.doc.InvoiceID, rec)
		}
	}()
	return r.Render(ctx, j.doc, j.opts)
}

func wrapCtxErr(err error, doc *billing.InvoiceDocument) error {
	if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, domain.ErrRenderTimeout) {
		return fmt.Errorf("%w: factura %s: %w", domain.ErrRenderTimeout, doc.InvoiceID, err)
	}
	return err
}
