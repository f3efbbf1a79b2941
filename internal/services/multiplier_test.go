package services_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pomo1231/solbombs2/internal/models"
	"github.com/pomo1231/solbombs2/internal/services"
)

func TestCalculateMultiplierBps(t *testing.T) {
	tests := []struct {
		name  string
		safe  uint8
		bombs uint8
		want  uint16
	}{
		{"no reveals is par", 0, 3, 10_000},
		{"one bomb one reveal", 1, 1, 10_312},
		{"three bombs two reveals", 2, 3, 12_857},
		{"24 bombs caps", 1, 24, 65_535},
		{"all safe tiles with one bomb caps", 24, 1, 65_535},
		{"over-revealed short-circuits to par", 2, 24, 10_000},
		{"no safe tiles short-circuits to par", 1, 25, 10_000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := services.CalculateMultiplierBps(tt.safe, tt.bombs)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMultiplierBaseCaseAndBounds(t *testing.T) {
	for bombs := uint8(models.MinBombs); bombs <= models.MaxBombs; bombs++ {
		base, err := services.CalculateMultiplierBps(0, bombs)
		require.NoError(t, err)
		assert.Equal(t, services.ParBps, base, "bombs=%d", bombs)

		prev := base
		for safe := uint8(1); safe <= models.GridSize-bombs; safe++ {
			bps, err := services.CalculateMultiplierBps(safe, bombs)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, bps, services.ParBps, "bombs=%d safe=%d", bombs, safe)
			assert.GreaterOrEqual(t, bps, prev, "not monotonic at bombs=%d safe=%d", bombs, safe)
			prev = bps
		}
	}
}

func TestMultiplierDeterministic(t *testing.T) {
	a, err := services.CalculateMultiplierBps(7, 5)
	require.NoError(t, err)
	b, err := services.CalculateMultiplierBps(7, 5)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestCalculatePayout(t *testing.T) {
	payout, err := services.CalculatePayout(1_000_000, 12_857)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_285_700), payout)

	payout, err = services.CalculatePayout(12_345, services.ParBps)
	require.NoError(t, err)
	assert.Equal(t, uint64(12_345), payout)

	payout, err = services.CalculatePayout(10_001, 10_312)
	require.NoError(t, err)
	assert.Equal(t, uint64(10_313), payout, "rounds down")

	payout, err = services.CalculatePayout(math.MaxUint64/2, 12_000)
	require.NoError(t, err)
	assert.Greater(t, payout, uint64(math.MaxUint64/2))

	_, err = services.CalculatePayout(math.MaxUint64, services.MaxMultiplierBps)
	assert.ErrorIs(t, err, services.ErrMathOverflow)
}

func TestPot(t *testing.T) {
	pot, err := services.Pot(1_000_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(2_000_000), pot)

	_, err = services.Pot(math.MaxUint64/2 + 1)
	assert.ErrorIs(t, err, services.ErrMathOverflow)
}
