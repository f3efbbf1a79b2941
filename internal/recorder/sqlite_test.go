package recorder_test

import (
	"crypto/sha256"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pomo1231/solbombs2/internal/models"
	"github.com/pomo1231/solbombs2/internal/recorder"
)

func addr(name string) models.Address {
	return models.Address(sha256.Sum256([]byte(name)))
}

func openRecorder(t *testing.T) *recorder.SQLiteRecorder {
	t.Helper()
	r, err := recorder.NewSQLiteRecorder(filepath.Join(t.TempDir(), "settlements.db"))
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestSQLiteRecorderRoundTrip(t *testing.T) {
	r := openRecorder(t)
	alice, bob, game := addr("alice"), addr("bob"), addr("game")

	start := models.NewSettlementEvent(models.EventPvpStart, game, alice)
	start.Amount = 1_000_000
	start.TreasuryBalance = 5_000_000
	start.At = time.Unix(100, 0).UTC()

	resolve := models.NewSettlementEvent(models.EventPvpResolve, game, alice)
	resolve.Counterparty = bob
	resolve.Amount = 2_000_000
	resolve.TreasuryBalance = 3_000_000
	resolve.Note = "side=1"
	resolve.At = time.Unix(200, 0).UTC()

	require.NoError(t, r.RecordSettlement(start))
	require.NoError(t, r.RecordSettlement(resolve))

	got, err := r.RecentSettlements(alice, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, resolve, got[0], "newest first")
	assert.Equal(t, start, got[1])

	got, err = r.RecentSettlements(bob, 10)
	require.NoError(t, err)
	require.Len(t, got, 1, "counterparty sees the payout")
	assert.Equal(t, bob, got[0].Counterparty)

	got, err = r.RecentSettlements(addr("nobody"), 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSQLiteRecorderLimit(t *testing.T) {
	r := openRecorder(t)
	alice := addr("alice")

	for i := 0; i < recorder.MaxHistoryLimit+5; i++ {
		evt := models.NewSettlementEvent(models.EventSoloReveal, addr("game"), alice)
		evt.MultiplierBps = uint16(10_000 + i)
		evt.At = time.Unix(int64(i), 0).UTC()
		require.NoError(t, r.RecordSettlement(evt))
	}

	got, err := r.RecentSettlements(alice, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, uint16(10_000+recorder.MaxHistoryLimit+4), got[0].MultiplierBps)

	got, err = r.RecentSettlements(alice, 0)
	require.NoError(t, err)
	assert.Len(t, got, recorder.DefaultHistoryLimit)

	got, err = r.RecentSettlements(alice, recorder.MaxHistoryLimit+1)
	require.NoError(t, err)
	assert.Len(t, got, recorder.DefaultHistoryLimit)
}

func TestSQLiteRecorderDuplicateID(t *testing.T) {
	r := openRecorder(t)
	evt := models.NewSettlementEvent(models.EventSoloStart, addr("game"), addr("alice"))

	require.NoError(t, r.RecordSettlement(evt))
	assert.Error(t, r.RecordSettlement(evt))
}

func TestNoopRecorder(t *testing.T) {
	r := recorder.NewNoopRecorder()
	require.NoError(t, r.RecordSettlement(models.NewSettlementEvent(models.EventSoloStart, addr("g"), addr("a"))))

	got, err := r.RecentSettlements(addr("a"), 10)
	require.NoError(t, err)
	assert.Empty(t, got)

	stats, err := r.Stats(addr("a"))
	require.NoError(t, err)
	assert.Equal(t, &models.WalletStats{Address: addr("a")}, stats)
	assert.NoError(t, r.Close())
}

func TestSQLiteRecorderKeepsFullUint64(t *testing.T) {
	r := openRecorder(t)
	alice := addr("alice")

	evt := models.NewSettlementEvent(models.EventSoloCashout, addr("game"), alice)
	evt.Amount = ^uint64(0)
	evt.TreasuryBalance = uint64(1) << 63
	evt.At = time.Unix(1, 0).UTC()
	require.NoError(t, r.RecordSettlement(evt))

	got, err := r.RecentSettlements(alice, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, ^uint64(0), got[0].Amount)
	assert.Equal(t, uint64(1)<<63, got[0].TreasuryBalance)
}

func TestSQLiteRecorderPartiesSeeResolve(t *testing.T) {
	r := openRecorder(t)
	alice, bob, carol := addr("alice"), addr("bob"), addr("carol")

	resolve := models.NewSettlementEvent(models.EventPvpResolve, addr("game"), carol)
	resolve.Counterparty = bob
	resolve.Amount = 2_000_000
	resolve.Parties = []models.Address{alice, bob}
	resolve.At = time.Unix(1, 0).UTC()
	require.NoError(t, r.RecordSettlement(resolve))

	got, err := r.RecentSettlements(alice, 10)
	require.NoError(t, err)
	require.Len(t, got, 1, "losing creator sees a resolve someone else sent")
	assert.Equal(t, resolve, got[0])

	got, err = r.RecentSettlements(addr("dave"), 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSQLiteRecorderStats(t *testing.T) {
	r := openRecorder(t)
	alice, bob := addr("alice"), addr("bob")

	record := func(kind models.EventKind, actor, counterparty models.Address, amount uint64) {
		t.Helper()
		evt := models.NewSettlementEvent(kind, addr("game"), actor)
		evt.Counterparty = counterparty
		evt.Amount = amount
		require.NoError(t, r.RecordSettlement(evt))
	}

	record(models.EventSoloStart, alice, models.ZeroAddress, 1_000_000)
	record(models.EventSoloCashout, alice, models.ZeroAddress, 1_285_700)
	record(models.EventPvpStart, bob, models.ZeroAddress, 500_000)
	record(models.EventPvpJoin, alice, bob, 500_000)
	record(models.EventPvpResolve, bob, alice, 1_000_000)
	record(models.EventTreasurySnapshot, alice, models.ZeroAddress, 0)

	stats, err := r.Stats(alice)
	require.NoError(t, err)
	assert.Equal(t, alice, stats.Address)
	assert.Equal(t, uint64(2), stats.GamesPlayed)
	assert.Equal(t, uint64(1_500_000), stats.TotalWagered)
	assert.Equal(t, uint64(2_285_700), stats.TotalPaidOut)

	stats, err = r.Stats(bob)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), stats.GamesPlayed)
	assert.Equal(t, uint64(500_000), stats.TotalWagered)
	assert.Zero(t, stats.TotalPaidOut, "resolving does not pay the resolver")

	record(models.EventSoloCashout, alice, models.ZeroAddress, ^uint64(0))
	_, err = r.Stats(alice)
	assert.ErrorIs(t, err, recorder.ErrStatsOverflow)
}
