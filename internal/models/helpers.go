package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// BaseUnitsPerCoin is the number of base units in one whole coin.
const BaseUnitsPerCoin = 1_000_000_000

func GenerateEventID() string {
	return fmt.Sprintf("evt_%s_%s",
		time.Now().UTC().Format("20060102"),
		uuid.NewString())
}

func NewSettlementEvent(kind EventKind, game, actor Address) *SettlementEvent {
	return &SettlementEvent{
		ID:    GenerateEventID(),
		Kind:  kind,
		Game:  game,
		Actor: actor,
		At:    time.Now().UTC(),
	}
}

// FormatAmount renders base units as whole coins with nine decimals.
func FormatAmount(units uint64) string {
	return fmt.Sprintf("%d.%09d", units/BaseUnitsPerCoin, units%BaseUnitsPerCoin)
}

// FormatMultiplier renders basis points as an "x" multiplier, 12857 -> "1.2857x".
func FormatMultiplier(bps uint16) string {
	return fmt.Sprintf("%d.%04dx", bps/10_000, bps%10_000)
}
