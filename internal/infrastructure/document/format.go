package document

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Formatter contrato de formato común a la vista previa y al documento paginado.
// Los importes se muestran en yenes enteros con separador de miles; los negativos entre paréntesis.
type Formatter struct {
	symbol  string
	printer *message.Printer
	loc     *time.Location
}

// NewFormatter crea el formateador. symbol vacío usa "¥"; loc nil usa time.Local.
func NewFormatter(symbol string, loc *time.Location) *Formatter {
	if symbol == "" {
		symbol = "¥"
	}
	if loc == nil {
		loc = time.Local
	}
	return &Formatter{symbol: symbol, printer: message.NewPrinter(language.Japanese), loc: loc}
}

// Money "¥1,234" / "(¥3,000)".
func (f *Formatter) Money(d decimal.Decimal) string {
	n := d.Round(0).IntPart()
	if n < 0 {
		return "(" + f.symbol + f.printer.Sprintf("%d", -n) + ")"
	}
	return f.symbol + f.printer.Sprintf("%d", n)
}

// Number entero agrupado sin símbolo.
func (f *Formatter) Number(n int) string {
	return f.printer.Sprintf("%d", n)
}

// Percent tasa como porcentaje entero ("10%").
func (f *Formatter) Percent(rate decimal.Decimal) string {
	return rate.Mul(decimal.NewFromInt(100)).Round(0).String() + "%"
}

// LongDate "2024年10月31日".
func (f *Formatter) LongDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	t = t.In(f.loc)
	return fmt.Sprintf("%d年%d月%d日", t.Year(), int(t.Month()), t.Day())
}

// ShortDate "10/3".
func (f *Formatter) ShortDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	t = t.In(f.loc)
	return fmt.Sprintf("%d/%d", int(t.Month()), t.Day())
}
