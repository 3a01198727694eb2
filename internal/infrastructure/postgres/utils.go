package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/seikyu-api/internal/domain/entity"
)

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// parsePeriod convierte la columna billing_period ('YYYY-MM') en BillingPeriod.
func parsePeriod(raw string) (entity.BillingPeriod, error) {
	p, err := entity.ParseBillingPeriod(raw)
	if err != nil {
		return entity.BillingPeriod{}, fmt.Errorf("billing_period %q: %w", raw, err)
	}
	return p, nil
}
