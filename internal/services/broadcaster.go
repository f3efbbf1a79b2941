package services

import "github.com/pomo1231/solbombs2/internal/models"

// Broadcaster receives every settlement after it has been committed.
type Broadcaster interface {
	BroadcastSettlement(evt *models.SettlementEvent)
}
