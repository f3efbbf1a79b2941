package services

import (
	"math/bits"

	"github.com/pomo1231/solbombs2/internal/models"
)

const (
	// ParBps is a 1.0x multiplier.
	ParBps uint16 = 10_000
	// MaxMultiplierBps caps every multiplier.
	MaxMultiplierBps uint16 = 65_535

	houseEdgeBps uint64 = 9_900
	chanceScale  uint64 = 1_000_000
)

// CalculateMultiplierBps returns the payout multiplier after safeRevealed safe
// reveals on a board with the given bomb count. The survival chance is tracked
// in millionths and truncated after every step, so results are reproducible
// bit for bit.
func CalculateMultiplierBps(safeRevealed, bombs uint8) (uint16, error) {
	if safeRevealed == 0 {
		return ParBps, nil
	}

	chance := chanceScale
	for i := uint64(0); i < uint64(safeRevealed); i++ {
		remainingTiles := int64(models.GridSize) - int64(i)
		remainingSafe := int64(models.GridSize) - int64(bombs) - int64(i)
		if remainingTiles <= 0 || remainingSafe <= 0 {
			return ParBps, nil
		}

		hi, lo := bits.Mul64(chance, uint64(remainingSafe))
		if hi != 0 {
			return 0, ErrMathOverflow
		}
		chance = lo / uint64(remainingTiles)
	}

	if chance == 0 {
		return MaxMultiplierBps, nil
	}

	hi, lo := bits.Mul64(houseEdgeBps, chanceScale)
	if hi >= chance {
		return MaxMultiplierBps, nil
	}
	calc, _ := bits.Div64(hi, lo, chance)

	switch {
	case calc > uint64(MaxMultiplierBps):
		return MaxMultiplierBps, nil
	case calc < uint64(ParBps):
		return ParBps, nil
	}
	return uint16(calc), nil
}

// CalculatePayout applies a multiplier to a wager, rounding down.
func CalculatePayout(wager uint64, multiplierBps uint16) (uint64, error) {
	if multiplierBps == ParBps {
		return wager, nil
	}
	hi, lo := bits.Mul64(wager, uint64(multiplierBps))
	if hi >= uint64(ParBps) {
		return 0, ErrMathOverflow
	}
	payout, _ := bits.Div64(hi, lo, uint64(ParBps))
	return payout, nil
}

// Pot is the total staked in a PvP game, both sides' wagers.
func Pot(wager uint64) (uint64, error) {
	hi, lo := bits.Mul64(wager, 2)
	if hi != 0 {
		return 0, ErrMathOverflow
	}
	return lo, nil
}
