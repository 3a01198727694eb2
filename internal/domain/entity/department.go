package entity

import "time"

// Tipos de departamento (jerarquía: sede central → sucursal → aula).
const (
	DepartmentTypeHeadquarters = "headquarters"
	DepartmentTypeBranch       = "branch"
	DepartmentTypeClassroom    = "classroom"
)

// Department representa una sucursal o un aula.
// StoreCode es la clave con la que se cruzan pedidos, gastos y listas de socios.
type Department struct {
	ID             string
	Code           string // código jerárquico (ej: "13-001")
	Name           string
	Type           string // ver constantes DepartmentType*
	ParentID       string // vacío en la sede central
	StoreCode      string
	PostalCode     string
	Address        string
	Phone          string
	Representative string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsBranch indica si el departamento factura a sus aulas.
func (d *Department) IsBranch() bool { return d.Type == DepartmentTypeBranch }

// StoreCodeSuffix devuelve los últimos tres caracteres del código de tienda.
// Se usa como destino de entrega y en las descripciones de las líneas de ajuste.
func StoreCodeSuffix(storeCode string) string {
	r := []rune(storeCode)
	if len(r) <= 3 {
		return storeCode
	}
	return string(r[len(r)-3:])
}
