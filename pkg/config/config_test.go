package config_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/seikyu-api/pkg/config"
)

func TestLoad_ValoresPorDefecto(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.True(t, cfg.Billing.TaxRate.Equal(decimal.RequireFromString("0.10")))
	assert.True(t, cfg.Billing.BankTransferUnitPrice.Equal(decimal.NewFromInt(600)))
	assert.Equal(t, "¥", cfg.Billing.CurrencySymbol)
	assert.Equal(t, "local", cfg.Storage.Driver)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
}

func TestLoad_VariablesDeEntorno(t *testing.T) {
	t.Setenv("BILLING_TAX_RATE", "0.08")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("RENDER_WORKERS", "4")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.True(t, cfg.Billing.TaxRate.Equal(decimal.RequireFromString("0.08")))
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, 4, cfg.Render.Workers)
}

func TestLoad_TasaInvalida(t *testing.T) {
	t.Setenv("BILLING_TAX_RATE", "diez")
	_, err := config.Load()
	assert.Error(t, err)
}

func TestDBConfig_DSNEscapaPassword(t *testing.T) {
	c := config.DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss/word", DBName: "seikyu", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss%2Fword@db:5432/seikyu?sslmode=disable", c.DSN())

	c.DatabaseURL = "postgres://x"
	assert.Equal(t, "postgres://x", c.ConnectionString())
}
