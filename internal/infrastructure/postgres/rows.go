package postgres

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/seikyu-api/internal/domain/entity"
)

// Las filas de join llegan con columnas anulables. Se validan aquí, en el borde, para que
// el dominio solo vea registros tipados y completos.

// membershipRow fila de membership_fees unida con departments (nombre del aula).
type membershipRow struct {
	ClassroomCode string
	ClassroomName *string
	Count         *int32
	UnitPrice     decimal.NullDecimal
	Channel       string
	Excluded      *bool
}

func (r membershipRow) toLine() (entity.MembershipLine, error) {
	if r.ClassroomCode == "" {
		return entity.MembershipLine{}, fmt.Errorf("fila de socios sin código de aula")
	}
	switch r.Channel {
	case entity.ChannelBranchRecorded, entity.ChannelBankTransfer:
	default:
		return entity.MembershipLine{}, fmt.Errorf("aula %s: canal de cobro desconocido %q", r.ClassroomCode, r.Channel)
	}
	count := 0
	if r.Count != nil {
		count = int(*r.Count)
	}
	if count < 0 {
		return entity.MembershipLine{}, fmt.Errorf("aula %s: cantidad de socios negativa (%d)", r.ClassroomCode, count)
	}
	price := decimal.Zero
	if r.UnitPrice.Valid {
		price = r.UnitPrice.Decimal
	}
	return entity.MembershipLine{
		ClassroomCode: r.ClassroomCode,
		ClassroomName: derefString(r.ClassroomName),
		Count:         count,
		UnitPrice:     price,
		Channel:       r.Channel,
		Excluded:      r.Excluded != nil && *r.Excluded,
	}, nil
}

// materialRow fila orders ⨝ order_items ⟕ products. El precio de la línea puede faltar
// (pedidos antiguos); en ese caso se usa el precio de referencia del producto.
type materialRow struct {
	OrderID         string
	OrderDate       time.Time
	OriginStoreCode string
	Quantity        *int32
	ItemPrice       decimal.NullDecimal
	ProductName     *string
	ReferencePrice  decimal.NullDecimal
}

func (r materialRow) toLine() (entity.MaterialOrderLine, error) {
	if r.Quantity == nil {
		return entity.MaterialOrderLine{}, fmt.Errorf("pedido %s: línea sin cantidad", r.OrderID)
	}
	var price decimal.Decimal
	switch {
	case r.ItemPrice.Valid:
		price = r.ItemPrice.Decimal
	case r.ReferencePrice.Valid:
		price = r.ReferencePrice.Decimal
	default:
		return entity.MaterialOrderLine{}, fmt.Errorf("pedido %s: línea sin precio ni precio de referencia", r.OrderID)
	}
	name := derefString(r.ProductName)
	if name == "" {
		name = "(商品不明)"
	}
	return entity.MaterialOrderLine{
		OrderID:         r.OrderID,
		OrderDate:       r.OrderDate,
		ProductName:     name,
		Quantity:        int(*r.Quantity),
		UnitPrice:       price,
		OriginStoreCode: r.OriginStoreCode,
	}, nil
}

// expenseRow fila de expense_lines.
type expenseRow struct {
	ID             string
	StoreCode      string
	ClassroomCode  *string
	BillingPeriod  string
	Description    *string
	Amount         decimal.Decimal
	Category       string
	ApprovalStatus string
	Source         string
	CreatedAt      time.Time
}

func (r expenseRow) toLine() (entity.ExpenseLine, error) {
	period, err := parsePeriod(r.BillingPeriod)
	if err != nil {
		return entity.ExpenseLine{}, fmt.Errorf("gasto %s: %w", r.ID, err)
	}
	switch r.Category {
	case entity.ExpenseCategoryTaxable, entity.ExpenseCategoryNonTaxable, entity.ExpenseCategoryAdjustment:
	default:
		return entity.ExpenseLine{}, fmt.Errorf("gasto %s: categoría desconocida %q", r.ID, r.Category)
	}
	switch r.Source {
	case entity.ExpenseSourceGenerated, entity.ExpenseSourceImported:
	default:
		return entity.ExpenseLine{}, fmt.Errorf("gasto %s: origen desconocido %q", r.ID, r.Source)
	}
	return entity.ExpenseLine{
		ID:             r.ID,
		StoreCode:      r.StoreCode,
		ClassroomCode:  derefString(r.ClassroomCode),
		BillingPeriod:  period,
		Description:    derefString(r.Description),
		Amount:         r.Amount,
		Category:       r.Category,
		ApprovalStatus: r.ApprovalStatus,
		Source:         r.Source,
		CreatedAt:      r.CreatedAt,
	}, nil
}
