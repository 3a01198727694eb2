package http

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/seikyu-api/internal/application/billing"
	"github.com/jhoicas/seikyu-api/internal/application/dto"
	"github.com/jhoicas/seikyu-api/internal/domain"
	"github.com/jhoicas/seikyu-api/pkg/logger"
)

// InvoiceDocuments genera los dos formatos de una factura.
type InvoiceDocuments interface {
	Preview(ctx context.Context, invoiceID string, opts billing.RenderOptions) ([]byte, error)
	DownloadInvoicePDF(ctx context.Context, invoiceID string, opts billing.RenderOptions) ([]byte, string, error)
}

// DuplicateReconciler detecta y elimina líneas de gasto duplicadas.
type DuplicateReconciler interface {
	Check(ctx context.Context, invoiceID string) (*billing.CheckResult, error)
	Resolve(ctx context.Context, invoiceID string, expenseIDs []string) (*billing.ResolveResult, error)
}

// InvoiceHandler maneja las peticiones HTTP de documentos de factura y conciliación.
type InvoiceHandler struct {
	documents  InvoiceDocuments
	reconciler DuplicateReconciler
	validate   *validator.Validate
	log        *logger.Logger
}

// NewInvoiceHandler construye el handler.
func NewInvoiceHandler(documents InvoiceDocuments, reconciler DuplicateReconciler, log *logger.Logger) *InvoiceHandler {
	return &InvoiceHandler{
		documents:  documents,
		reconciler: reconciler,
		validate:   validator.New(),
		log:        log,
	}
}

// Preview godoc
// @Summary      Vista previa de la factura mensual
// @Description  Recalcula la factura y devuelve el HTML interactivo (barra de control + documento).
// @Tags         invoices
// @Produce      html
// @Param        id        path   string  true   "ID de la factura"
// @Param        showZero  query  bool    false  "Mostrar aulas sin socios"
// @Success      200  {string}  string
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/preview [get]
func (h *InvoiceHandler) Preview(c *fiber.Ctx) error {
	id, opts, bad := documentParams(c)
	if bad != nil {
		return c.Status(fiber.StatusBadRequest).JSON(bad)
	}
	html, err := h.documents.Preview(c.UserContext(), id, opts)
	if err != nil {
		return h.fail(c, id, err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Send(html)
}

// PDF godoc
// @Summary      Descargar la factura en PDF
// @Description  Genera el documento paginado a partir del mismo cálculo que la vista previa.
// @Tags         invoices
// @Produce      application/pdf
// @Param        id        path   string  true   "ID de la factura"
// @Param        showZero  query  bool    false  "Mostrar aulas sin socios"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Failure      504  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/pdf [get]
func (h *InvoiceHandler) PDF(c *fiber.Ctx) error {
	id, opts, bad := documentParams(c)
	if bad != nil {
		return c.Status(fiber.StatusBadRequest).JSON(bad)
	}
	body, filename, err := h.documents.DownloadInvoicePDF(c.UserContext(), id, opts)
	if err != nil {
		return h.fail(c, id, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Send(body)
}

// CheckDuplicates godoc
// @Summary      Detectar líneas de gasto duplicadas
// @Tags         invoices
// @Produce      json
// @Param        id   path  string  true  "ID de la factura"
// @Success      200  {object}  dto.DuplicateCheckResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/duplicates [get]
func (h *InvoiceHandler) CheckDuplicates(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id requerido"})
	}
	res, err := h.reconciler.Check(c.UserContext(), id)
	if err != nil {
		return h.fail(c, id, err)
	}
	return c.JSON(toCheckResponse(res))
}

// ResolveDuplicates godoc
// @Summary      Eliminar líneas importadas duplicadas
// @Description  Borra en lote las líneas indicadas. Las líneas generadas nunca se borran; los fallos se listan por id.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id    path  string                       true  "ID de la factura"
// @Param        body  body  dto.DeleteDuplicatesRequest  true  "expense_ids"
// @Success      200  {object}  dto.DeleteDuplicatesResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/duplicates [delete]
func (h *InvoiceHandler) ResolveDuplicates(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id requerido"})
	}
	var in dto.DeleteDuplicatesRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := h.validate.Struct(in); err != nil {
		h.log.Warn().Err(err).Str("invoice_id", id).Str("request_id", GetRequestID(c)).Msg("petición de borrado inválida")
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "削除する項目を選択してください"})
	}

	res, err := h.reconciler.Resolve(c.UserContext(), id, in.ExpenseIDs)
	if err != nil {
		return h.fail(c, id, err)
	}
	failed := res.FailedIDs()
	if failed == nil {
		failed = []string{}
	}
	return c.JSON(dto.DeleteDuplicatesResponse{
		Success:      res.Success(),
		Message:      res.Message(),
		DeletedCount: len(res.Deleted) + len(res.AlreadyGone),
		FailedIDs:    failed,
	})
}

func documentParams(c *fiber.Ctx) (string, billing.RenderOptions, *dto.ErrorResponse) {
	id := c.Params("id")
	if id == "" {
		return "", billing.RenderOptions{}, &dto.ErrorResponse{Code: "VALIDATION", Message: "id requerido"}
	}
	var q dto.InvoiceDocumentQuery
	if err := c.QueryParser(&q); err != nil {
		return "", billing.RenderOptions{}, &dto.ErrorResponse{Code: "VALIDATION", Message: "showZero inválido"}
	}
	return id, billing.RenderOptions{ShowZero: q.ShowZero}, nil
}

// fail traduce errores de dominio a respuestas. Los 5xx solo exponen un mensaje genérico;
// el detalle va al log.
func (h *InvoiceHandler) fail(c *fiber.Ctx, invoiceID string, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "請求書が見つかりません"})
	case errors.Is(err, domain.ErrInvalidInput):
		h.log.Warn().Err(err).Str("invoice_id", invoiceID).Str("request_id", GetRequestID(c)).Msg("entrada inválida")
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "削除する項目を選択してください"})
	case errors.Is(err, domain.ErrRenderTimeout):
		h.log.Error().Err(err).Str("invoice_id", invoiceID).Str("request_id", GetRequestID(c)).Msg("render excedió el tiempo límite")
		return c.Status(fiber.StatusGatewayTimeout).JSON(dto.ErrorResponse{Code: "RENDER_TIMEOUT", Message: "請求書の生成がタイムアウトしました"})
	case errors.Is(err, domain.ErrAggregation):
		h.log.Error().Err(err).Str("invoice_id", invoiceID).Str("request_id", GetRequestID(c)).Msg("fallo al agregar datos de la factura")
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "AGGREGATION", Message: "請求データの取得に失敗しました"})
	default:
		h.log.Error().Err(err).Str("invoice_id", invoiceID).Str("request_id", GetRequestID(c)).Msg("error interno")
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "内部エラーが発生しました"})
	}
}

func toCheckResponse(res *billing.CheckResult) dto.DuplicateCheckResponse {
	groups := make([]dto.DuplicateGroupDTO, 0, len(res.Groups))
	for _, g := range res.Groups {
		items := make([]dto.DuplicateItemDTO, 0, len(g.Items))
		for _, it := range g.Items {
			items = append(items, dto.DuplicateItemDTO{
				ExpenseID:   it.ExpenseID,
				Description: it.Description,
				Amount:      it.Amount,
				Source:      it.Source,
				Selectable:  it.Selectable,
				Recommended: it.Recommended,
			})
		}
		groups = append(groups, dto.DuplicateGroupDTO{ClassroomCode: g.ClassroomCode, Items: items})
	}
	return dto.DuplicateCheckResponse{
		HasDuplicates: res.HasDuplicates(),
		State:         string(res.State),
		Duplicates:    groups,
	}
}
