package services_test

import (
	"context"
	"crypto/sha256"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pomo1231/solbombs2/internal/models"
	"github.com/pomo1231/solbombs2/internal/services"
)

const (
	playerFunds   uint64 = 100_000_000
	soloDeposit   uint64 = (128 + 8 + 45) * 6_960
	pvpDeposit    uint64 = (128 + 8 + 77) * 6_960
	defaultWager  uint64 = 1_000_000
	treasuryFunds uint64 = 50_000_000
)

var (
	programID = models.Address(sha256.Sum256([]byte("test program")))
	alice     = testAddress("alice")
	bob       = testAddress("bob")
	carol     = testAddress("carol")
)

func testAddress(name string) models.Address {
	return models.Address(sha256.Sum256([]byte("player:" + name)))
}

type captureRecorder struct {
	mu     sync.Mutex
	events []*models.SettlementEvent
}

func (r *captureRecorder) RecordSettlement(evt *models.SettlementEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return nil
}

func (r *captureRecorder) RecentSettlements(addr models.Address, limit int) ([]*models.SettlementEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.SettlementEvent
	for i := len(r.events) - 1; i >= 0 && len(out) < limit; i-- {
		if r.events[i].Involves(addr) {
			out = append(out, r.events[i])
		}
	}
	return out, nil
}

func (r *captureRecorder) Stats(addr models.Address) (*models.WalletStats, error) {
	return &models.WalletStats{Address: addr}, nil
}

func (r *captureRecorder) Close() error { return nil }

func (r *captureRecorder) kinds() []models.EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]models.EventKind, 0, len(r.events))
	for _, e := range r.events {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

type captureBroadcaster struct {
	mu     sync.Mutex
	events []*models.SettlementEvent
}

func (b *captureBroadcaster) BroadcastSettlement(evt *models.SettlementEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, evt)
}

type fixture struct {
	ctx      context.Context
	host     *services.MemoryHost
	engine   *services.GameEngine
	treasury models.Address
	rec      *captureRecorder
	bc       *captureBroadcaster
}

// newFixture funds the treasury with treasuryBalance and every test player
// with playerFunds.
func newFixture(t *testing.T, treasuryBalance uint64) *fixture {
	t.Helper()

	f := &fixture{
		ctx:  context.Background(),
		host: services.NewMemoryHost(),
		rec:  &captureRecorder{},
		bc:   &captureBroadcaster{},
	}
	deriver := services.NewSeedDeriver(programID)
	f.engine = services.NewGameEngine(f.host, deriver,
		services.WithRecorder(f.rec),
		services.WithBroadcaster(f.bc),
	)
	f.treasury = deriver.TreasuryAddress()

	if treasuryBalance > 0 {
		require.NoError(t, f.engine.FundAccount(f.ctx, f.treasury, treasuryBalance))
	}
	for _, p := range []models.Address{alice, bob, carol} {
		require.NoError(t, f.engine.FundAccount(f.ctx, p, playerFunds))
	}
	return f
}

func (f *fixture) balance(addr models.Address) uint64 {
	return f.host.Balance(addr)
}

// snapshot captures every balance a test might check for an unchanged ledger.
func (f *fixture) snapshot(extra ...models.Address) map[models.Address]uint64 {
	out := map[models.Address]uint64{
		f.treasury: f.balance(f.treasury),
		alice:      f.balance(alice),
		bob:        f.balance(bob),
		carol:      f.balance(carol),
	}
	for _, a := range extra {
		out[a] = f.balance(a)
	}
	return out
}
