package recorder

import "github.com/pomo1231/solbombs2/internal/models"

// NoopRecorder is used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordSettlement(_ *models.SettlementEvent) error { return nil }
func (n *NoopRecorder) RecentSettlements(_ models.Address, _ int) ([]*models.SettlementEvent, error) {
	return nil, nil
}
func (n *NoopRecorder) Stats(addr models.Address) (*models.WalletStats, error) {
	return &models.WalletStats{Address: addr}, nil
}
func (n *NoopRecorder) Close() error { return nil }
