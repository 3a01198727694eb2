package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/seikyu-api/internal/application/billing"
	"github.com/jhoicas/seikyu-api/internal/application/dto"
	"github.com/jhoicas/seikyu-api/internal/domain"
	"github.com/jhoicas/seikyu-api/internal/domain/entity"
	apphttp "github.com/jhoicas/seikyu-api/internal/interfaces/http"
	"github.com/jhoicas/seikyu-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

type mockDocuments struct{ mock.Mock }

func (m *mockDocuments) Preview(ctx context.Context, id string, opts billing.RenderOptions) ([]byte, error) {
	args := m.Called(id, opts)
	b, _ := args.Get(0).([]byte)
	return b, args.Error(1)
}

func (m *mockDocuments) DownloadInvoicePDF(ctx context.Context, id string, opts billing.RenderOptions) ([]byte, string, error) {
	args := m.Called(id, opts)
	b, _ := args.Get(0).([]byte)
	return b, args.String(1), args.Error(2)
}

type mockReconciler struct{ mock.Mock }

func (m *mockReconciler) Check(ctx context.Context, id string) (*billing.CheckResult, error) {
	args := m.Called(id)
	r, _ := args.Get(0).(*billing.CheckResult)
	return r, args.Error(1)
}

func (m *mockReconciler) Resolve(ctx context.Context, id string, ids []string) (*billing.ResolveResult, error) {
	args := m.Called(id, ids)
	r, _ := args.Get(0).(*billing.ResolveResult)
	return r, args.Error(1)
}

func buildTestApp(docs *mockDocuments, rec *mockReconciler) *fiber.App {
	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{Documents: docs, Reconciler: rec, Logger: logger.Nop()})
	return app
}

func doRequest(t *testing.T, app *fiber.App, method, target, body string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// ──────────────────────────────────────────────────────────────────────────────
// Documentos
// ──────────────────────────────────────────────────────────────────────────────

func TestPreview_ReturnsHTML(t *testing.T) {
	docs := &mockDocuments{}
	docs.On("Preview", "inv-1", billing.RenderOptions{ShowZero: true}).Return([]byte("<html>御請求書</html>"), nil)

	resp := doRequest(t, buildTestApp(docs, &mockReconciler{}), http.MethodGet, "/api/invoices/inv-1/preview?showZero=true", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.NotEmpty(t, resp.Header.Get(apphttp.HeaderRequestID))
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "御請求書")
	docs.AssertExpectations(t)
}

func TestPreview_ErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("factura x: %w", domain.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{fmt.Errorf("%w: membership: %w", domain.ErrAggregation, errors.New("pq: relation does not exist")), http.StatusInternalServerError, "AGGREGATION"},
		{domain.ErrRenderTimeout, http.StatusGatewayTimeout, "RENDER_TIMEOUT"},
		{errors.New("boom"), http.StatusInternalServerError, "INTERNAL"},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			docs := &mockDocuments{}
			docs.On("Preview", "inv-1", billing.RenderOptions{}).Return(nil, tc.err)

			resp := doRequest(t, buildTestApp(docs, &mockReconciler{}), http.MethodGet, "/api/invoices/inv-1/preview", "")
			assert.Equal(t, tc.status, resp.StatusCode)
			out := decode[dto.ErrorResponse](t, resp)
			assert.Equal(t, tc.code, out.Code)
			assert.NotContains(t, out.Message, "pq:", "el detalle interno solo va al log")
		})
	}
}

func TestPreview_InvalidShowZero(t *testing.T) {
	resp := doRequest(t, buildTestApp(&mockDocuments{}, &mockReconciler{}), http.MethodGet, "/api/invoices/inv-1/preview?showZero=maybe", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPDF_Attachment(t *testing.T) {
	docs := &mockDocuments{}
	docs.On("DownloadInvoicePDF", "inv-1", billing.RenderOptions{}).Return([]byte("%PDF-1.3"), "seikyu_202410_0002_S100.pdf", nil)

	resp := doRequest(t, buildTestApp(docs, &mockReconciler{}), http.MethodGet, "/api/invoices/inv-1/pdf", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Equal(t, `attachment; filename="seikyu_202410_0002_S100.pdf"`, resp.Header.Get("Content-Disposition"))
	body, _ := io.ReadAll(resp.Body)
	assert.True(t, strings.HasPrefix(string(body), "%PDF"))
}

func TestPDF_Timeout(t *testing.T) {
	docs := &mockDocuments{}
	docs.On("DownloadInvoicePDF", "inv-1", mock.Anything).Return(nil, "", fmt.Errorf("pdf inv-1: %w", domain.ErrRenderTimeout))

	resp := doRequest(t, buildTestApp(docs, &mockReconciler{}), http.MethodGet, "/api/invoices/inv-1/pdf", "")
	assert.Equal(t, http.StatusGatewayTimeout, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// Duplicados
// ──────────────────────────────────────────────────────────────────────────────

func TestCheckDuplicates(t *testing.T) {
	rec := &mockReconciler{}
	rec.On("Check", "inv-1").Return(&billing.CheckResult{
		State: billing.StateDuplicatesFound,
		Groups: []billing.DuplicateGroup{{
			ClassroomCode: "S103",
			Items: []billing.DuplicateItem{
				{ExpenseID: "generated-202410-S103", Amount: decimal.NewFromInt(-3000), Source: entity.ExpenseSourceGenerated},
				{ExpenseID: "e-dup", Amount: decimal.NewFromInt(-3000), Source: entity.ExpenseSourceImported, Selectable: true, Recommended: true},
			},
		}},
	}, nil)

	resp := doRequest(t, buildTestApp(&mockDocuments{}, rec), http.MethodGet, "/api/invoices/inv-1/duplicates", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[dto.DuplicateCheckResponse](t, resp)
	assert.True(t, out.HasDuplicates)
	assert.Equal(t, "duplicates_found", out.State)
	require.Len(t, out.Duplicates, 1)
	items := out.Duplicates[0].Items
	require.Len(t, items, 2)
	assert.False(t, items[0].Selectable)
	assert.True(t, items[1].Recommended)
	assert.True(t, items[1].Amount.Equal(decimal.NewFromInt(-3000)))
}

func TestCheckDuplicates_EmptyListIsArray(t *testing.T) {
	rec := &mockReconciler{}
	rec.On("Check", "inv-1").Return(&billing.CheckResult{State: billing.StateNoDuplicates}, nil)

	resp := doRequest(t, buildTestApp(&mockDocuments{}, rec), http.MethodGet, "/api/invoices/inv-1/duplicates", "")
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `"duplicates":[]`)
	assert.Contains(t, string(body), `"has_duplicates":false`)
}

func TestResolveDuplicates(t *testing.T) {
	rec := &mockReconciler{}
	rec.On("Resolve", "inv-1", []string{"e-dup", "gone"}).Return(&billing.ResolveResult{
		Deleted:     []string{"e-dup"},
		AlreadyGone: []string{"gone"},
	}, nil)

	resp := doRequest(t, buildTestApp(&mockDocuments{}, rec), http.MethodDelete, "/api/invoices/inv-1/duplicates", `{"expense_ids":["e-dup","gone"]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[dto.DeleteDuplicatesResponse](t, resp)
	assert.True(t, out.Success)
	assert.Equal(t, 2, out.DeletedCount)
	assert.Empty(t, out.FailedIDs)
	assert.Equal(t, "2件の重複データを削除しました", out.Message)
}

func TestResolveDuplicates_PartialFailure(t *testing.T) {
	rec := &mockReconciler{}
	rec.On("Resolve", "inv-1", mock.Anything).Return(&billing.ResolveResult{
		Deleted: []string{"e-dup"},
		Failed:  []billing.FailedDeletion{{ExpenseID: "generated-202410-S103", Reason: "no"}},
	}, nil)

	resp := doRequest(t, buildTestApp(&mockDocuments{}, rec), http.MethodDelete, "/api/invoices/inv-1/duplicates", `{"expense_ids":["e-dup","generated-202410-S103"]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[dto.DeleteDuplicatesResponse](t, resp)
	assert.False(t, out.Success)
	assert.Equal(t, []string{"generated-202410-S103"}, out.FailedIDs)
}

func TestResolveDuplicates_BadRequests(t *testing.T) {
	for name, body := range map[string]string{
		"lista vacía":   `{"expense_ids":[]}`,
		"sin campo":     `{}`,
		"id vacío":      `{"expense_ids":[""]}`,
		"json inválido": `{"expense_ids":`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := &mockReconciler{}
			resp := doRequest(t, buildTestApp(&mockDocuments{}, rec), http.MethodDelete, "/api/invoices/inv-1/duplicates", body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			rec.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
		})
	}
}

func TestResolveDuplicates_NotFound(t *testing.T) {
	rec := &mockReconciler{}
	rec.On("Resolve", "missing", []string{"e-1"}).Return(nil, domain.ErrNotFound)

	resp := doRequest(t, buildTestApp(&mockDocuments{}, rec), http.MethodDelete, "/api/invoices/missing/duplicates", `{"expense_ids":["e-1"]}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	resp := doRequest(t, buildTestApp(&mockDocuments{}, &mockReconciler{}), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", decode[dto.HealthResponse](t, resp).Status)
}

func TestRequestID_KeepsIncomingUUID(t *testing.T) {
	app := buildTestApp(&mockDocuments{}, &mockReconciler{})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(apphttp.HeaderRequestID, "3f1c1a52-8a63-4f4e-9d2a-7b1f1a0c9e11")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, "3f1c1a52-8a63-4f4e-9d2a-7b1f1a0c9e11", resp.Header.Get(apphttp.HeaderRequestID))
}
