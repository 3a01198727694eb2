// Command batch_render genera el PDF de todas las facturas vigentes de un periodo y los
// guarda en el almacenamiento configurado (directorio local o S3).
package main

import (
	"fmt"
	"os"
	"os/signal"
	"path"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/jhoicas/seikyu-api/internal/application/billing"
	"github.com/jhoicas/seikyu-api/internal/domain/entity"
	"github.com/jhoicas/seikyu-api/internal/domain/invoicing"
	"github.com/jhoicas/seikyu-api/internal/infrastructure/document"
	infrapdf "github.com/jhoicas/seikyu-api/internal/infrastructure/pdf"
	"github.com/jhoicas/seikyu-api/internal/infrastructure/postgres"
	"github.com/jhoicas/seikyu-api/internal/infrastructure/storage"
	"github.com/jhoicas/seikyu-api/pkg/config"
	"github.com/jhoicas/seikyu-api/pkg/logger"
)

func main() {
	app := &cli.App{
		Name:  "batch_render",
		Usage: "genera los PDF de las facturas vigentes de un periodo",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "period", Aliases: []string{"p"}, Usage: "periodo YYYY-MM (por defecto el mes anterior)"},
			&cli.BoolFlag{Name: "show-zero", Usage: "incluir aulas sin socios"},
			&cli.IntFlag{Name: "concurrency", Usage: "documentos en paralelo (por defecto RENDER_WORKERS)"},
			&cli.DurationFlag{Name: "timeout", Usage: "límite por documento (por defecto RENDER_TIMEOUT_SECONDS)"},
			&cli.StringFlag{Name: "run-id", Usage: "identificador de la ejecución; se genera si falta"},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("cargar configuración: %w", err)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	loc, err := time.LoadLocation(cfg.Billing.Timezone)
	if err != nil {
		return fmt.Errorf("zona horaria %s: %w", cfg.Billing.Timezone, err)
	}
	period, err := resolvePeriod(c.String("period"), time.Now().In(loc))
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	runID := c.String("run-id")
	if runID == "" {
		runID = uuid.NewString()
	}
	log = log.Child(log.With().Str("run_id", runID).Str("period", period.String()))

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB, log)
	if err != nil {
		return fmt.Errorf("conexión a PostgreSQL: %w", err)
	}
	defer pool.Close()

	invoiceRepo := postgres.NewInvoiceRepository(pool)
	aggregator := billing.NewAggregator(
		postgres.NewDepartmentRepository(pool),
		postgres.NewMembershipRepository(pool),
		postgres.NewOrderRepository(pool, loc),
		postgres.NewExpenseRepository(pool),
		log,
	)
	calculator := invoicing.NewCalculator(invoicing.Rates{
		TaxRate:               cfg.Billing.TaxRate,
		BankTransferUnitPrice: cfg.Billing.BankTransferUnitPrice,
	})

	builder := document.NewBuilder(document.NewFormatter(cfg.Billing.CurrencySymbol, loc))
	htmlRenderer, err := document.NewHTMLRenderer(builder, "/api/invoices")
	if err != nil {
		return err
	}

	concurrency := c.Int("concurrency")
	if concurrency < 1 {
		concurrency = cfg.Render.Workers
	}
	timeout := c.Duration("timeout")
	if timeout <= 0 {
		timeout = time.Duration(cfg.Render.TimeoutSeconds) * time.Second
	}

	// El pool acota la memoria: nunca hay más renderers que workers
	pdfPool, err := infrapdf.NewPool(infrapdf.MarotoFactory(builder, infrapdf.FontConfig{
		Family:   cfg.Render.FontFamily,
		Path:     cfg.Render.FontPath,
		BoldPath: cfg.Render.FontBoldPath,
	}, "御請求書"), infrapdf.PoolConfig{
		Workers:          concurrency,
		Timeout:          timeout,
		MaxDocsPerWorker: cfg.Render.MaxDocsPerWorker,
	}, log)
	if err != nil {
		return fmt.Errorf("pool de renderizado PDF: %w", err)
	}
	defer pdfPool.Close()

	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return err
	}

	documents := billing.NewDocumentUseCase(invoiceRepo, aggregator, calculator, htmlRenderer, pdfPool, billing.DocumentConfig{
		Issuer: billing.IssuerInfo{
			Name:           cfg.Issuer.Name,
			PostalCode:     cfg.Issuer.PostalCode,
			Address:        cfg.Issuer.Address,
			Phone:          cfg.Issuer.Phone,
			RegistrationNo: cfg.Issuer.RegistrationNo,
		},
		Bank: billing.BankAccount{
			Name:          cfg.Bank.Name,
			Branch:        cfg.Bank.Branch,
			AccountType:   cfg.Bank.AccountType,
			AccountNumber: cfg.Bank.AccountNumber,
			AccountHolder: cfg.Bank.AccountHolder,
		},
		CurrencySymbol: cfg.Billing.CurrencySymbol,
		DueDay:         cfg.Billing.DueDay,
		Location:       loc,
	}, log)

	batch := billing.NewBatchUseCase(invoiceRepo, documents, store, billing.BatchConfig{
		Concurrency: concurrency,
		Timeout:     timeout,
		KeyPrefix:   path.Join(cfg.Storage.KeyPrefix, period.Compact(), runID),
	}, log)

	start := time.Now()
	report, err := batch.Run(ctx, period, billing.RenderOptions{ShowZero: c.Bool("show-zero")})
	if err != nil {
		return err
	}

	failed := report.Failed()
	timeouts := 0
	for _, it := range failed {
		if it.TimedOut() {
			timeouts++
		}
	}
	log.Info().
		Int("total", len(report.Items)).
		Int("failed", len(failed)).
		Int("timeouts", timeouts).
		Dur("elapsed", time.Since(start)).
		Msg("lote finalizado")

	if len(failed) > 0 {
		return cli.Exit(fmt.Sprintf("%d de %d documentos fallaron", len(failed), len(report.Items)), 1)
	}
	return nil
}

// resolvePeriod sin valor explícito usa el mes anterior a now.
func resolvePeriod(raw string, now time.Time) (entity.BillingPeriod, error) {
	if raw != "" {
		return entity.ParseBillingPeriod(raw)
	}
	return entity.BillingPeriod{Year: now.Year(), Month: now.Month()}.Prev(), nil
}
