package entity_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/seikyu-api/internal/domain/entity"
)

func TestBillingPeriod_PrevNext(t *testing.T) {
	jan := entity.BillingPeriod{Year: 2025, Month: time.January}
	assert.Equal(t, entity.BillingPeriod{Year: 2024, Month: time.December}, jan.Prev())
	assert.Equal(t, jan, jan.Prev().Next())

	dec := entity.BillingPeriod{Year: 2024, Month: time.December}
	assert.Equal(t, entity.BillingPeriod{Year: 2025, Month: time.January}, dec.Next())
}

func TestParseBillingPeriod(t *testing.T) {
	for _, in := range []string{"2024-10", "202410", " 2024-10 "} {
		p, err := entity.ParseBillingPeriod(in)
		require.NoError(t, err, in)
		assert.Equal(t, "2024-10", p.String())
		assert.Equal(t, "202410", p.Compact())
		assert.Equal(t, "2024年10月分", p.Label())
	}
	for _, in := range []string{"", "2024-13", "2024/10", "abcd-10", "2024-1"} {
		_, err := entity.ParseBillingPeriod(in)
		assert.Error(t, err, in)
	}
}

func TestStoreCodeSuffix(t *testing.T) {
	assert.Equal(t, "042", entity.StoreCodeSuffix("S0013042"))
	assert.Equal(t, "42", entity.StoreCodeSuffix("42"))
}
