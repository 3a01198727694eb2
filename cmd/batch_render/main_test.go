package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePeriod(t *testing.T) {
	jst := time.FixedZone("JST", 9*60*60)

	p, err := resolvePeriod("", time.Date(2024, 11, 5, 10, 0, 0, 0, jst))
	require.NoError(t, err)
	assert.Equal(t, "2024-10", p.String())

	p, err = resolvePeriod("", time.Date(2025, 1, 1, 0, 30, 0, 0, jst))
	require.NoError(t, err)
	assert.Equal(t, "2024-12", p.String())

	p, err = resolvePeriod("202403", time.Now())
	require.NoError(t, err)
	assert.Equal(t, "2024-03", p.String())

	_, err = resolvePeriod("marzo", time.Now())
	assert.Error(t, err)
}
