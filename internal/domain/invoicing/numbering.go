package invoicing

import (
	"fmt"
	"sort"
)

// AssignInvoiceNumbers numera la cohorte: códigos de tienda ordenados ascendentemente,
// índice desde 1 con 4 dígitos. Los códigos repetidos se cuentan una vez.
func AssignInvoiceNumbers(storeCodes []string) map[string]string {
	codes := uniqueSorted(storeCodes)
	out := make(map[string]string, len(codes))
	for i, code := range codes {
		out[code] = fmt.Sprintf("%04d", i+1)
	}
	return out
}

// InvoiceNumber número del departamento dentro de la cohorte. Si el código no figura en la
// cohorte se incorpora antes de numerar.
func InvoiceNumber(cohort []string, storeCode string) string {
	codes := append(append(make([]string, 0, len(cohort)+1), cohort...), storeCode)
	return AssignInvoiceNumbers(codes)[storeCode]
}

func uniqueSorted(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
