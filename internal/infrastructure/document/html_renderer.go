package document

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/url"
	"strconv"

	"github.com/jhoicas/seikyu-api/internal/application/billing"
)

//go:embed templates/*.html
var templateFS embed.FS

var _ billing.PreviewRenderer = (*HTMLRenderer)(nil)

// HTMLRenderer vista previa interactiva: barra de control encima del mismo documento que se imprime.
type HTMLRenderer struct {
	builder *Builder
	tmpl    *template.Template
	apiBase string
}

// NewHTMLRenderer parsea las plantillas embebidas. apiBase es el prefijo de las rutas
// de factura ("/api/invoices").
func NewHTMLRenderer(builder *Builder, apiBase string) (*HTMLRenderer, error) {
	tmpl, err := template.New("preview.html").Funcs(template.FuncMap{
		"pct": func(span int) template.CSS {
			return template.CSS(strconv.FormatFloat(float64(span)*100/12, 'f', 4, 64) + "%")
		},
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse plantillas: %w", err)
	}
	return &HTMLRenderer{builder: builder, tmpl: tmpl, apiBase: apiBase}, nil
}

type previewData struct {
	Doc           *Document
	ToggleURL     string
	ToggleLabel   string
	PDFURL        string
	DuplicatesURL string
}

// RenderPreview genera el HTML completo de la vista previa.
func (r *HTMLRenderer) RenderPreview(ctx context.Context, doc *billing.InvoiceDocument, opts billing.RenderOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d := r.builder.Build(doc, opts)
	base := r.apiBase + "/" + url.PathEscape(doc.InvoiceID)

	data := previewData{
		Doc:           d,
		ToggleURL:     base + "/preview?showZero=" + strconv.FormatBool(!opts.ShowZero),
		ToggleLabel:   "0人の教室を表示",
		PDFURL:        base + "/pdf?showZero=" + strconv.FormatBool(opts.ShowZero),
		DuplicatesURL: base + "/duplicates",
	}
	if opts.ShowZero {
		data.ToggleLabel = "0人の教室を隠す"
	}

	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "preview.html", data); err != nil {
		return nil, fmt.Errorf("ejecutar plantilla: %w", err)
	}
	return buf.Bytes(), nil
}
