package entity

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// BillingPeriod identifica un ciclo de facturación mensual (año-mes).
// El valor cero no es un periodo válido.
type BillingPeriod struct {
	Year  int
	Month time.Month
}

// NewBillingPeriod construye el periodo validando el mes.
func NewBillingPeriod(year int, month time.Month) (BillingPeriod, error) {
	if year < 1 || month < time.January || month > time.December {
		return BillingPeriod{}, fmt.Errorf("periodo inválido: %d-%d", year, month)
	}
	return BillingPeriod{Year: year, Month: month}, nil
}

// ParseBillingPeriod acepta "YYYY-MM" o "YYYYMM".
func ParseBillingPeriod(s string) (BillingPeriod, error) {
	s = strings.TrimSpace(s)
	var ys, ms string
	switch {
	case len(s) == 7 && s[4] == '-':
		ys, ms = s[:4], s[5:]
	case len(s) == 6:
		ys, ms = s[:4], s[4:]
	default:
		return BillingPeriod{}, fmt.Errorf("periodo inválido: %q", s)
	}
	y, err := strconv.Atoi(ys)
	if err != nil {
		return BillingPeriod{}, fmt.Errorf("periodo inválido: %q", s)
	}
	m, err := strconv.Atoi(ms)
	if err != nil {
		return BillingPeriod{}, fmt.Errorf("periodo inválido: %q", s)
	}
	return NewBillingPeriod(y, time.Month(m))
}

// Prev devuelve el periodo anterior (enero → diciembre del año previo).
func (p BillingPeriod) Prev() BillingPeriod {
	if p.Month == time.January {
		return BillingPeriod{Year: p.Year - 1, Month: time.December}
	}
	return BillingPeriod{Year: p.Year, Month: p.Month - 1}
}

// Next devuelve el periodo siguiente.
func (p BillingPeriod) Next() BillingPeriod {
	if p.Month == time.December {
		return BillingPeriod{Year: p.Year + 1, Month: time.January}
	}
	return BillingPeriod{Year: p.Year, Month: p.Month + 1}
}

// IsZero indica si el periodo no fue inicializado.
func (p BillingPeriod) IsZero() bool { return p.Year == 0 && p.Month == 0 }

// String formato de almacenamiento: "2024-10".
func (p BillingPeriod) String() string { return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month)) }

// Compact formato para nombres de archivo: "202410".
func (p BillingPeriod) Compact() string { return fmt.Sprintf("%04d%02d", p.Year, int(p.Month)) }

// Label etiqueta impresa en los documentos: "2024年10月分".
func (p BillingPeriod) Label() string { return fmt.Sprintf("%d年%d月分", p.Year, int(p.Month)) }

// FirstDay primer día del mes en la zona indicada.
func (p BillingPeriod) FirstDay(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, loc)
}
