package recorder

import "github.com/pomo1231/solbombs2/internal/models"

// Recorder persists committed settlement events for audit and history.
type Recorder interface {
	RecordSettlement(evt *models.SettlementEvent) error
	// RecentSettlements returns the newest events where addr acted or was the counterparty.
	RecentSettlements(addr models.Address, limit int) ([]*models.SettlementEvent, error)
	// Stats totals what addr has staked and been paid across all recorded games.
	Stats(addr models.Address) (*models.WalletStats, error)
	Close() error
}

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 100
)

func clampLimit(limit int) int {
	if limit <= 0 || limit > MaxHistoryLimit {
		return DefaultHistoryLimit
	}
	return limit
}
