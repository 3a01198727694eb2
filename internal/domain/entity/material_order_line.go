package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// DeliveryTargetBranch destino de entrega de los pedidos hechos por la propia sucursal.
const DeliveryTargetBranch = "00"

// MaterialOrderLine línea de un pedido de material didáctico.
// CountsTowardInvoice solo es true para pedidos originados en la sucursal facturada;
// los pedidos de aulas subordinadas se muestran como información.
type MaterialOrderLine struct {
	OrderID             string
	OrderDate           time.Time
	ProductName         string
	Quantity            int
	UnitPrice           decimal.Decimal
	OriginStoreCode     string
	DeliveryTarget      string
	CountsTowardInvoice bool
}

// Amount cantidad × precio unitario.
func (l MaterialOrderLine) Amount() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}
