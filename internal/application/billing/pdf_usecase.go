package billing

import (
	"context"
	"fmt"
)

// DownloadInvoicePDF recalcula la factura y genera el documento paginado a partir del
// mismo InvoiceDocument que usa la vista previa.
//
// Retorna:
//   - (pdfBytes, filename, nil)  si todo sale bien.
//   - domain.ErrNotFound         si la factura no existe.
//   - domain.ErrAggregation      si falla la carga de datos.
//   - domain.ErrRenderTimeout    si el renderer excede su límite.
func (uc *DocumentUseCase) DownloadInvoicePDF(
	ctx context.Context,
	invoiceID string,
	opts RenderOptions,
) (pdfBytes []byte, filename string, err error) {
	doc, err := uc.Build(ctx, invoiceID)
	if err != nil {
		return nil, "", err
	}
	pdfBytes, err = uc.pdf.GenerateInvoicePDF(ctx, doc, opts)
	if err != nil {
		return nil, "", fmt.Errorf("pdf %s: %w", invoiceID, err)
	}
	return pdfBytes, PDFFilename(doc), nil
}

// PDFFilename nombre del archivo descargado: periodo compacto + número + código de tienda.
func PDFFilename(doc *InvoiceDocument) string {
	return fmt.Sprintf("seikyu_%s_%s_%s.pdf", doc.Period.Compact(), doc.Number, doc.Recipient.StoreCode)
}
