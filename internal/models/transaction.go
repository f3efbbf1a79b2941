package models

import "time"

type EventKind string

const (
	EventSoloStart        EventKind = "solo_start"
	EventSoloReveal       EventKind = "solo_reveal"
	EventSoloCashout      EventKind = "solo_cashout"
	EventSoloLoss         EventKind = "solo_loss"
	EventPvpStart         EventKind = "pvp_start"
	EventPvpRobot         EventKind = "pvp_robot"
	EventPvpJoin          EventKind = "pvp_join"
	EventPvpResolve       EventKind = "pvp_resolve"
	EventTreasurySnapshot EventKind = "treasury_snapshot"
)

// SettlementEvent describes one committed operation. Parties lists the
// players of the game when Actor and Counterparty do not already name them,
// as on a PvP resolution.
type SettlementEvent struct {
	ID              string    `json:"id"`
	Kind            EventKind `json:"kind"`
	Game            Address   `json:"game"`
	Actor           Address   `json:"actor"`
	Counterparty    Address   `json:"counterparty,omitempty"`
	Amount          uint64    `json:"amount"`
	MultiplierBps   uint16    `json:"multiplier_bps,omitempty"`
	TreasuryBalance uint64    `json:"treasury_balance"`
	Note            string    `json:"note,omitempty"`
	Parties         []Address `json:"parties,omitempty"`
	At              time.Time `json:"at"`
}

// Involves reports whether addr acted, was paid, or played in the game.
func (e *SettlementEvent) Involves(addr Address) bool {
	if e.Actor == addr || (!e.Counterparty.IsZero() && e.Counterparty == addr) {
		return true
	}
	for _, p := range e.Parties {
		if p == addr {
			return true
		}
	}
	return false
}

// WalletStats aggregates an address's settlement history.
type WalletStats struct {
	Address      Address `json:"address"`
	GamesPlayed  uint64  `json:"games_played"`
	TotalWagered uint64  `json:"total_wagered"`
	TotalPaidOut uint64  `json:"total_paid_out"`
}
