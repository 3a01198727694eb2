package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/seikyu-api/internal/application/billing"
	"github.com/jhoicas/seikyu-api/internal/domain/invoicing"
	"github.com/jhoicas/seikyu-api/internal/infrastructure/document"
	infrapdf "github.com/jhoicas/seikyu-api/internal/infrastructure/pdf"
	"github.com/jhoicas/seikyu-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/seikyu-api/internal/interfaces/http"
	"github.com/jhoicas/seikyu-api/pkg/config"
	"github.com/jhoicas/seikyu-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	loc, err := time.LoadLocation(cfg.Billing.Timezone)
	if err != nil {
		log.Fatal().Err(err).Str("timezone", cfg.Billing.Timezone).Msg("zona horaria de facturación")
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	invoiceRepo := postgres.NewInvoiceRepository(pool)
	departmentRepo := postgres.NewDepartmentRepository(pool)
	membershipRepo := postgres.NewMembershipRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool, loc)
	expenseRepo := postgres.NewExpenseRepository(pool)

	aggregator := billing.NewAggregator(departmentRepo, membershipRepo, orderRepo, expenseRepo, log)
	calculator := invoicing.NewCalculator(invoicing.Rates{
		TaxRate:               cfg.Billing.TaxRate,
		BankTransferUnitPrice: cfg.Billing.BankTransferUnitPrice,
	})

	// Modelo de maquetación compartido por la vista previa y el PDF
	builder := document.NewBuilder(document.NewFormatter(cfg.Billing.CurrencySymbol, loc))
	htmlRenderer, err := document.NewHTMLRenderer(builder, "/api/invoices")
	if err != nil {
		log.Fatal().Err(err).Msg("plantillas de vista previa")
	}

	// PDF: pool de renderers Maroto con fuentes japonesas cargadas una vez por renderer
	fonts := infrapdf.FontConfig{
		Family:   cfg.Render.FontFamily,
		Path:     cfg.Render.FontPath,
		BoldPath: cfg.Render.FontBoldPath,
	}
	pdfPool, err := infrapdf.NewPool(infrapdf.MarotoFactory(builder, fonts, "御請求書"), infrapdf.PoolConfig{
		Workers:          cfg.Render.Workers,
		Timeout:          time.Duration(cfg.Render.TimeoutSeconds) * time.Second,
		MaxDocsPerWorker: cfg.Render.MaxDocsPerWorker,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("pool de renderizado PDF")
	}
	defer pdfPool.Close()

	documentUC := billing.NewDocumentUseCase(
		invoiceRepo, aggregator, calculator, htmlRenderer, pdfPool,
		documentConfig(cfg, loc), log,
	)
	reconciler := billing.NewReconciler(invoiceRepo, departmentRepo, expenseRepo, aggregator, calculator, log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Seikyu API",
	}))

	httpRouter.Router(app, httpRouter.RouterDeps{
		Documents:  documentUC,
		Reconciler: reconciler,
		Logger:     log,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

func documentConfig(cfg *config.Config, loc *time.Location) billing.DocumentConfig {
	return billing.DocumentConfig{
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
	}
}
