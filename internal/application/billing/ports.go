package billing

import (
	"context"
	"time"

	"github.com/jhoicas/seikyu-api/internal/domain/entity"
	"github.com/jhoicas/seikyu-api/internal/domain/invoicing"
)

// IssuerInfo datos del emisor (bloque remitente del documento).
type IssuerInfo struct {
	Name           string
	PostalCode     string
	Address        string
	Phone          string
	RegistrationNo string
}

// BankAccount cuenta indicada en las instrucciones de transferencia.
type BankAccount struct {
	Name          string
	Branch        string
	AccountType   string
	AccountNumber string
	AccountHolder string
}

// DocumentConfig parámetros fijos de los documentos.
type DocumentConfig struct {
	Issuer         IssuerInfo
	Bank           BankAccount
	CurrencySymbol string
	DueDay         int
	Location       *time.Location
}

// InvoiceDocument todo lo que necesita un renderer: el resultado del cálculo más los
// datos de cabecera. Ambos formatos consumen exactamente este valor.
type InvoiceDocument struct {
	InvoiceID      string
	Number         string // número de 4 dígitos dentro de la cohorte
	Period         entity.BillingPeriod
	IssueDate      time.Time
	DueDate        time.Time
	Recipient      entity.Department
	Issuer         IssuerInfo
	Bank           BankAccount
	CurrencySymbol string
	Computed       invoicing.ComputedInvoice

	// DroppedBankTransfer filas domiciliadas descartadas en la fusión; solo informativas.
	DroppedBankTransfer []entity.MembershipLine
}

// RenderOptions opciones de presentación que no alteran importes.
type RenderOptions struct {
	ShowZero bool // mostrar aulas sin socios
}

// PreviewRenderer genera la vista previa interactiva (HTML).
type PreviewRenderer interface {
	RenderPreview(ctx context.Context, doc *InvoiceDocument, opts RenderOptions) ([]byte, error)
}

// InvoicePDFGenerator genera el documento paginado.
type InvoicePDFGenerator interface {
	GenerateInvoicePDF(ctx context.Context, doc *InvoiceDocument, opts RenderOptions) ([]byte, error)
}

// DocumentStore destino de los documentos generados por lotes.
type DocumentStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
}
