package recorder

import (
	"database/sql"
	"errors"
	"fmt"
	"math/bits"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/pomo1231/solbombs2/internal/models"
)

var ErrStatsOverflow = errors.New("stats total exceeds uint64")

// SQLiteRecorder persists settlement events to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

// Amounts are full uint64 values and SQLite integers are signed, so they are
// kept as decimal TEXT.
func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS settlements (
			id               TEXT PRIMARY KEY,
			timestamp        INTEGER NOT NULL,
			kind             TEXT NOT NULL,
			game             TEXT NOT NULL,
			actor            TEXT NOT NULL,
			counterparty     TEXT,
			amount           TEXT NOT NULL,
			multiplier_bps   INTEGER,
			treasury_balance TEXT NOT NULL,
			note             TEXT,
			parties          TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_settlements_ts ON settlements(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_settlements_actor ON settlements(actor, timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_settlements_counterparty ON settlements(counterparty, timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordSettlement(evt *models.SettlementEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var counterparty sql.NullString
	if !evt.Counterparty.IsZero() {
		counterparty = sql.NullString{String: evt.Counterparty.String(), Valid: true}
	}

	parties := make([]string, len(evt.Parties))
	for i, p := range evt.Parties {
		parties[i] = p.String()
	}

	_, err := r.db.Exec(`INSERT INTO settlements
		(id, timestamp, kind, game, actor, counterparty, amount, multiplier_bps, treasury_balance, note, parties)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		evt.ID, evt.At.UnixNano(), string(evt.Kind),
		evt.Game.String(), evt.Actor.String(), counterparty,
		strconv.FormatUint(evt.Amount, 10), int64(evt.MultiplierBps),
		strconv.FormatUint(evt.TreasuryBalance, 10), evt.Note,
		strings.Join(parties, ","),
	)
	return err
}

func (r *SQLiteRecorder) RecentSettlements(addr models.Address, limit int) ([]*models.SettlementEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := addr.String()
	rows, err := r.db.Query(`SELECT id, timestamp, kind, game, actor, counterparty, amount, multiplier_bps, treasury_balance, note, parties
		FROM settlements
		WHERE actor = ? OR counterparty = ? OR instr(parties, ?) > 0
		ORDER BY timestamp DESC
		LIMIT ?`, key, key, key, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query settlements: %w", err)
	}
	defer rows.Close()

	var events []*models.SettlementEvent
	for rows.Next() {
		var (
			evt                        models.SettlementEvent
			ts, bps                    int64
			kind, game, actor, parties string
			amount, treasuryBalance    string
			counterparty, note         sql.NullString
		)
		if err := rows.Scan(&evt.ID, &ts, &kind, &game, &actor, &counterparty, &amount, &bps, &treasuryBalance, &note, &parties); err != nil {
			return nil, fmt.Errorf("scan settlement: %w", err)
		}

		evt.At = time.Unix(0, ts).UTC()
		evt.Kind = models.EventKind(kind)
		if evt.Game, err = models.ParseAddress(game); err != nil {
			return nil, err
		}
		if evt.Actor, err = models.ParseAddress(actor); err != nil {
			return nil, err
		}
		if counterparty.Valid {
			if evt.Counterparty, err = models.ParseAddress(counterparty.String); err != nil {
				return nil, err
			}
		}
		if parties != "" {
			for _, p := range strings.Split(parties, ",") {
				a, err := models.ParseAddress(p)
				if err != nil {
					return nil, err
				}
				evt.Parties = append(evt.Parties, a)
			}
		}
		if evt.Amount, err = strconv.ParseUint(amount, 10, 64); err != nil {
			return nil, fmt.Errorf("settlement %s amount: %w", evt.ID, err)
		}
		if evt.TreasuryBalance, err = strconv.ParseUint(treasuryBalance, 10, 64); err != nil {
			return nil, fmt.Errorf("settlement %s treasury balance: %w", evt.ID, err)
		}
		evt.MultiplierBps = uint16(bps)
		evt.Note = note.String
		events = append(events, &evt)
	}
	return events, rows.Err()
}

// Stats counts starts and joins as games played and their amounts as wagered;
// cash-outs and PvP payouts received count as paid out.
func (r *SQLiteRecorder) Stats(addr models.Address) (*models.WalletStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := addr.String()
	rows, err := r.db.Query(`SELECT kind, amount FROM settlements
		WHERE (actor = ? AND kind IN (?, ?, ?, ?))
		   OR (counterparty = ? AND kind = ?)`,
		key, string(models.EventSoloStart), string(models.EventPvpStart), string(models.EventPvpJoin), string(models.EventSoloCashout),
		key, string(models.EventPvpResolve),
	)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	stats := &models.WalletStats{Address: addr}
	for rows.Next() {
		var kind, raw string
		if err := rows.Scan(&kind, &raw); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		amount, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("stats amount: %w", err)
		}

		total := &stats.TotalPaidOut
		switch models.EventKind(kind) {
		case models.EventSoloStart, models.EventPvpStart, models.EventPvpJoin:
			stats.GamesPlayed++
			total = &stats.TotalWagered
		}
		sum, carry := bits.Add64(*total, amount, 0)
		if carry != 0 {
			return nil, ErrStatsOverflow
		}
		*total = sum
	}
	return stats, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
