package postgres

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/seikyu-api/internal/domain/entity"
)

func ptr[T any](v T) *T { return &v }

func TestMaterialRow_FallsBackToReferencePrice(t *testing.T) {
	row := materialRow{
		OrderID:         "o-1",
		OrderDate:       time.Date(2024, 10, 3, 0, 0, 0, 0, time.UTC),
		OriginStoreCode: "S100",
		Quantity:        ptr(int32(3)),
		ProductName:     ptr("テキストA"),
		ReferencePrice:  decimal.NullDecimal{Decimal: decimal.NewFromInt(800), Valid: true},
	}
	line, err := row.toLine()
	require.NoError(t, err)
	assert.True(t, line.UnitPrice.Equal(decimal.NewFromInt(800)))
	assert.True(t, line.Amount().Equal(decimal.NewFromInt(2400)))
	assert.Equal(t, "テキストA", line.ProductName)
}

func TestMaterialRow_ItemPriceWins(t *testing.T) {
	row := materialRow{
		OrderID:        "o-1",
		Quantity:       ptr(int32(1)),
		ItemPrice:      decimal.NullDecimal{Decimal: decimal.NewFromInt(500), Valid: true},
		ReferencePrice: decimal.NullDecimal{Decimal: decimal.NewFromInt(800), Valid: true},
	}
	line, err := row.toLine()
	require.NoError(t, err)
	assert.True(t, line.UnitPrice.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, "(商品不明)", line.ProductName)
}

func TestMaterialRow_RejectsIncompleteRows(t *testing.T) {
	_, err := materialRow{OrderID: "o-1", Quantity: ptr(int32(1))}.toLine()
	assert.Error(t, err)

	_, err = materialRow{OrderID: "o-2"}.toLine()
	assert.Error(t, err)
}

func TestMembershipRow(t *testing.T) {
	line, err := membershipRow{
		ClassroomCode: "C001",
		Count:         ptr(int32(4)),
		UnitPrice:     decimal.NullDecimal{Decimal: decimal.NewFromInt(1000), Valid: true},
		Channel:       entity.ChannelBankTransfer,
	}.toLine()
	require.NoError(t, err)
	assert.True(t, line.IsBankTransfer())
	assert.False(t, line.Excluded)
	assert.Equal(t, 4, line.Count)

	_, err = membershipRow{ClassroomCode: "C001", Channel: "cash"}.toLine()
	assert.Error(t, err)

	_, err = membershipRow{ClassroomCode: "C001", Channel: entity.ChannelBranchRecorded, Count: ptr(int32(-1))}.toLine()
	assert.Error(t, err)
}

func TestExpenseRow(t *testing.T) {
	line, err := expenseRow{
		ID:             "e-1",
		StoreCode:      "S100",
		BillingPeriod:  "2024-10",
		Amount:         decimal.NewFromInt(-3000),
		Category:       entity.ExpenseCategoryTaxable,
		ApprovalStatus: entity.ApprovalStatusApproved,
		Source:         entity.ExpenseSourceImported,
	}.toLine()
	require.NoError(t, err)
	assert.Equal(t, entity.BillingPeriod{Year: 2024, Month: time.October}, line.BillingPeriod)
	assert.Equal(t, "", line.ClassroomCode)
	assert.True(t, line.Deletable())

	_, err = expenseRow{ID: "e-2", BillingPeriod: "2024/10", Category: entity.ExpenseCategoryTaxable, Source: entity.ExpenseSourceImported}.toLine()
	assert.Error(t, err)

	_, err = expenseRow{ID: "e-3", BillingPeriod: "2024-10", Category: "misc", Source: entity.ExpenseSourceImported}.toLine()
	assert.Error(t, err)
}
