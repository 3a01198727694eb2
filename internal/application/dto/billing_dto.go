package dto

import "github.com/shopspring/decimal"

// InvoiceDocumentQuery parámetros de GET /api/invoices/:id/preview y /pdf.
type InvoiceDocumentQuery struct {
	ShowZero bool `query:"showZero"` // incluir aulas sin socios
}

// DuplicateItemDTO línea dentro de un grupo de posibles duplicados.
type DuplicateItemDTO struct {
	ExpenseID   string          `json:"expense_id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Source      string          `json:"source"`      // generated | imported
	Selectable  bool            `json:"selectable"`  // solo importadas
	Recommended bool            `json:"recommended"` // preseleccionada para borrar
}

// DuplicateGroupDTO grupo por código de aula.
type DuplicateGroupDTO struct {
	ClassroomCode string             `json:"classroom_code"`
	Items         []DuplicateItemDTO `json:"items"`
}

// DuplicateCheckResponse respuesta de GET /api/invoices/:id/duplicates.
type DuplicateCheckResponse struct {
	HasDuplicates bool                `json:"has_duplicates"`
	State         string              `json:"state"`
	Duplicates    []DuplicateGroupDTO `json:"duplicates"`
}

// DeleteDuplicatesRequest body de DELETE /api/invoices/:id/duplicates.
type DeleteDuplicatesRequest struct {
	ExpenseIDs []string `json:"expense_ids" validate:"required,min=1,dive,required"`
}

// DeleteDuplicatesResponse resultado por lote; los borrados exitosos se mantienen aunque otros fallen.
type DeleteDuplicatesResponse struct {
	Success      bool     `json:"success"`
	Message      string   `json:"message"`
	DeletedCount int      `json:"deleted_count"`
	FailedIDs    []string `json:"failed_ids"`
}

// HealthResponse respuesta de GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}
