package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/seikyu-api/internal/application/dto"
	"github.com/jhoicas/seikyu-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Documents  InvoiceDocuments
	Reconciler DuplicateReconciler
	Logger     *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Use(RequestID(), AccessLog(deps.Logger))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(dto.HealthResponse{Status: "ok"})
	})

	api := app.Group("/api")

	// Invoices: documentos y conciliación de duplicados
	invoices := api.Group("/invoices")
	invoiceHandler := NewInvoiceHandler(deps.Documents, deps.Reconciler, deps.Logger)
	invoices.Get("/:id/preview", invoiceHandler.Preview)
	invoices.Get("/:id/pdf", invoiceHandler.PDF)
	invoices.Get("/:id/duplicates", invoiceHandler.CheckDuplicates)
	invoices.Delete("/:id/duplicates", invoiceHandler.ResolveDuplicates)
}
