package services

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog/log"

	"github.com/pomo1231/solbombs2/internal/models"
	"github.com/pomo1231/solbombs2/internal/recorder"
)

// DefaultStorageRate is the per-byte deposit charged when a game record is created.
const DefaultStorageRate uint64 = 6_960

// GameEngine settles solo and PvP games against one shared treasury. Every
// operation runs inside a single Host.Execute call and re-reads live state.
type GameEngine struct {
	host        Host
	deriver     AddressDeriver
	deposit     DepositFunc
	recorder    recorder.Recorder
	broadcaster Broadcaster
}

type Option func(*GameEngine)

func WithDeposit(fn DepositFunc) Option {
	return func(ge *GameEngine) { ge.deposit = fn }
}

func WithRecorder(r recorder.Recorder) Option {
	return func(ge *GameEngine) { ge.recorder = r }
}

func WithBroadcaster(b Broadcaster) Option {
	return func(ge *GameEngine) { ge.broadcaster = b }
}

func NewGameEngine(host Host, deriver AddressDeriver, opts ...Option) *GameEngine {
	ge := &GameEngine{
		host:     host,
		deriver:  deriver,
		deposit:  StorageDeposit(DefaultStorageRate),
		recorder: recorder.NewNoopRecorder(),
	}
	for _, opt := range opts {
		opt(ge)
	}
	return ge
}

// SetBroadcaster attaches a broadcaster after construction; the websocket
// hub needs the engine before it exists.
func (ge *GameEngine) SetBroadcaster(b Broadcaster) {
	ge.broadcaster = b
}

func (ge *GameEngine) Treasury() models.Address {
	return ge.deriver.TreasuryAddress()
}

func (ge *GameEngine) StartSolo(ctx context.Context, owner models.Address, nonce uint8, wager uint64, bombs uint8) (*models.SoloResult, error) {
	if wager < models.MinWager {
		return nil, ErrWagerTooSmall
	}
	if bombs < models.MinBombs || bombs > models.MaxBombs {
		return nil, ErrInvalidBombCount
	}

	addr, bump := ge.deriver.GameAddress(NamespaceSolo, owner, nonce)
	treasury := ge.deriver.TreasuryAddress()
	game := &models.SoloGame{
		Bump:  bump,
		Owner: owner,
		Nonce: nonce,
		Wager: wager,
		Bombs: bombs,
		State: models.SoloActive,
	}

	var balance uint64
	err := ge.host.Execute(ctx, func(tx Tx) error {
		data, err := game.MarshalBinary()
		if err != nil {
			return err
		}
		if err := tx.Create(addr, owner, data, ge.deposit(len(data))); err != nil {
			return fmt.Errorf("create solo game: %w", err)
		}
		if err := tx.Transfer(owner, treasury, wager); err != nil {
			return fmt.Errorf("debit wager: %w", err)
		}
		balance, err = tx.Balance(treasury)
		return err
	})
	if err != nil {
		return nil, err
	}

	evt := models.NewSettlementEvent(models.EventSoloStart, addr, owner)
	evt.Amount = wager
	evt.TreasuryBalance = balance
	evt.Note = fmt.Sprintf("bombs=%d", bombs)
	ge.publish(evt)

	return &models.SoloResult{
		Address:         addr,
		Game:            game,
		MultiplierBps:   ParBps,
		TreasuryBalance: balance,
	}, nil
}

// RevealSafe records one more safe tile. The caller has already decided the
// tile was safe; only the count is tracked here.
func (ge *GameEngine) RevealSafe(ctx context.Context, caller, owner models.Address, nonce uint8) (*models.SoloResult, error) {
	addr, _ := ge.deriver.GameAddress(NamespaceSolo, owner, nonce)

	var (
		game *models.SoloGame
		bps  uint16
	)
	err := ge.host.Execute(ctx, func(tx Tx) error {
		var err error
		if game, err = ge.activeSolo(tx, addr, caller); err != nil {
			return err
		}
		if game.SafeRevealed >= game.MaxSafe() {
			return ErrTooManySafeRevealed
		}
		if game.SafeRevealed == math.MaxUint8 {
			return ErrMathOverflow
		}
		game.SafeRevealed++

		if bps, err = CalculateMultiplierBps(game.SafeRevealed, game.Bombs); err != nil {
			return err
		}
		return storeRecord(tx, addr, game)
	})
	if err != nil {
		return nil, err
	}

	evt := models.NewSettlementEvent(models.EventSoloReveal, addr, caller)
	evt.MultiplierBps = bps
	evt.Note = fmt.Sprintf("safe=%d/%d", game.SafeRevealed, game.MaxSafe())
	ge.publish(evt)

	return &models.SoloResult{Address: addr, Game: game, MultiplierBps: bps}, nil
}

func (ge *GameEngine) CashOut(ctx context.Context, caller, owner models.Address, nonce uint8) (*models.SoloResult, error) {
	addr, _ := ge.deriver.GameAddress(NamespaceSolo, owner, nonce)
	treasury := ge.deriver.TreasuryAddress()

	var (
		game    *models.SoloGame
		bps     uint16
		payout  uint64
		balance uint64
	)
	err := ge.host.Execute(ctx, func(tx Tx) error {
		var err error
		if game, err = ge.activeSolo(tx, addr, caller); err != nil {
			return err
		}
		if game.SafeRevealed == 0 {
			return ErrNoSafeRevealed
		}
		if bps, err = CalculateMultiplierBps(game.SafeRevealed, game.Bombs); err != nil {
			return err
		}
		if payout, err = CalculatePayout(game.Wager, bps); err != nil {
			return err
		}

		if err := requireTreasury(tx, treasury, payout); err != nil {
			return err
		}
		if err := tx.Transfer(treasury, game.Owner, payout); err != nil {
			return fmt.Errorf("pay out: %w", err)
		}

		game.State = models.SoloResolved
		if err := storeRecord(tx, addr, game); err != nil {
			return err
		}
		if err := tx.Close(addr, game.Owner); err != nil {
			return fmt.Errorf("close solo game: %w", err)
		}
		balance, err = tx.Balance(treasury)
		return err
	})
	if err != nil {
		return nil, err
	}

	evt := models.NewSettlementEvent(models.EventSoloCashout, addr, caller)
	evt.Amount = payout
	evt.MultiplierBps = bps
	evt.TreasuryBalance = balance
	ge.publish(evt)

	return &models.SoloResult{
		Address:         addr,
		Game:            game,
		MultiplierBps:   bps,
		Payout:          payout,
		TreasuryBalance: balance,
	}, nil
}

// ResolveLoss ends a game that hit a bomb. The wager already sits in the
// treasury, which also keeps the storage deposit.
func (ge *GameEngine) ResolveLoss(ctx context.Context, caller, owner models.Address, nonce uint8) (*models.SoloResult, error) {
	addr, _ := ge.deriver.GameAddress(NamespaceSolo, owner, nonce)
	treasury := ge.deriver.TreasuryAddress()

	var (
		game    *models.SoloGame
		balance uint64
	)
	err := ge.host.Execute(ctx, func(tx Tx) error {
		var err error
		if game, err = ge.activeSolo(tx, addr, caller); err != nil {
			return err
		}

		game.State = models.SoloResolved
		if err := storeRecord(tx, addr, game); err != nil {
			return err
		}
		if err := tx.Close(addr, treasury); err != nil {
			return fmt.Errorf("close solo game: %w", err)
		}
		balance, err = tx.Balance(treasury)
		return err
	})
	if err != nil {
		return nil, err
	}

	evt := models.NewSettlementEvent(models.EventSoloLoss, addr, caller)
	evt.Amount = game.Wager
	evt.TreasuryBalance = balance
	ge.publish(evt)

	return &models.SoloResult{
		Address:         addr,
		Game:            game,
		MultiplierBps:   ParBps,
		TreasuryBalance: balance,
	}, nil
}

// GetSolo returns the stored game with the multiplier and payout a cash-out
// would settle at right now.
func (ge *GameEngine) GetSolo(ctx context.Context, owner models.Address, nonce uint8) (*models.SoloResult, error) {
	addr, _ := ge.deriver.GameAddress(NamespaceSolo, owner, nonce)

	res := &models.SoloResult{Address: addr}
	err := ge.host.Execute(ctx, func(tx Tx) error {
		game, err := loadSolo(tx, addr)
		if err != nil {
			return err
		}
		res.Game = game
		if res.MultiplierBps, err = CalculateMultiplierBps(game.SafeRevealed, game.Bombs); err != nil {
			return err
		}
		if res.Payout, err = CalculatePayout(game.Wager, res.MultiplierBps); err != nil {
			return err
		}
		res.TreasuryBalance, err = tx.Balance(ge.deriver.TreasuryAddress())
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (ge *GameEngine) TreasuryBalance(ctx context.Context) (uint64, error) {
	return ge.Balance(ctx, ge.deriver.TreasuryAddress())
}

func (ge *GameEngine) Balance(ctx context.Context, addr models.Address) (uint64, error) {
	var balance uint64
	err := ge.host.Execute(ctx, func(tx Tx) error {
		var err error
		balance, err = tx.Balance(addr)
		return err
	})
	return balance, err
}

// FundAccount credits addr outside the game rules, for seeding the treasury
// and player wallets.
func (ge *GameEngine) FundAccount(ctx context.Context, addr models.Address, amount uint64) error {
	funder, ok := ge.host.(Funder)
	if !ok {
		return ErrFundingUnsupported
	}
	if err := funder.Fund(ctx, addr, amount); err != nil {
		return fmt.Errorf("fund %s: %w", addr, err)
	}
	log.Info().Str("account", addr.String()).Uint64("amount", amount).Msg("account funded")
	return nil
}

// SeedTreasury funds the treasury with amount unless it already holds a
// balance, so restarting with the same seed never mints it twice.
func (ge *GameEngine) SeedTreasury(ctx context.Context, amount uint64) (bool, error) {
	funder, ok := ge.host.(Funder)
	if !ok {
		return false, ErrFundingUnsupported
	}
	treasury := ge.deriver.TreasuryAddress()
	seeded, err := funder.SeedIfEmpty(ctx, treasury, amount)
	if err != nil {
		return false, fmt.Errorf("seed treasury: %w", err)
	}
	if seeded {
		log.Info().Str("treasury", treasury.String()).Uint64("amount", amount).Msg("treasury seeded")
	} else {
		log.Info().Str("treasury", treasury.String()).Msg("treasury already funded, seed skipped")
	}
	return seeded, nil
}

// SnapshotTreasury records the current treasury balance as an event.
func (ge *GameEngine) SnapshotTreasury(ctx context.Context) (*models.SettlementEvent, error) {
	treasury := ge.deriver.TreasuryAddress()
	balance, err := ge.Balance(ctx, treasury)
	if err != nil {
		return nil, err
	}

	evt := models.NewSettlementEvent(models.EventTreasurySnapshot, treasury, treasury)
	evt.Amount = balance
	evt.TreasuryBalance = balance
	ge.publish(evt)
	return evt, nil
}

// Stats aggregates addr's recorded wagers and payouts.
func (ge *GameEngine) Stats(addr models.Address) (*models.WalletStats, error) {
	return ge.recorder.Stats(addr)
}

// History lists recent settlements involving addr.
func (ge *GameEngine) History(addr models.Address, limit int) ([]*models.SettlementEvent, error) {
	return ge.recorder.RecentSettlements(addr, limit)
}

// activeSolo loads a solo game and checks it can still be acted on by caller.
func (ge *GameEngine) activeSolo(tx Tx, addr, caller models.Address) (*models.SoloGame, error) {
	game, err := loadSolo(tx, addr)
	if err != nil {
		return nil, err
	}
	if game.Resolved() {
		return nil, ErrAlreadyResolved
	}
	if game.Owner != caller {
		return nil, ErrBadAuthority
	}
	return game, nil
}

func loadSolo(tx Tx, addr models.Address) (*models.SoloGame, error) {
	data, err := tx.Load(addr)
	if err != nil {
		return nil, err
	}
	var game models.SoloGame
	if err := game.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("decode solo game %s: %w", addr, err)
	}
	return &game, nil
}

type binaryRecord interface {
	MarshalBinary() ([]byte, error)
}

func storeRecord(tx Tx, addr models.Address, rec binaryRecord) error {
	data, err := rec.MarshalBinary()
	if err != nil {
		return err
	}
	return tx.Store(addr, data)
}

// publish fans a committed event out to the recorder and broadcaster.
// Failures here are logged and never undo the settlement.
func (ge *GameEngine) publish(evt *models.SettlementEvent) {
	if err := ge.recorder.RecordSettlement(evt); err != nil {
		log.Error().Err(err).Str("event_id", evt.ID).Msg("failed to record settlement")
	}
	if ge.broadcaster != nil {
		ge.broadcaster.BroadcastSettlement(evt)
	}

	log.Info().
		Str("kind", string(evt.Kind)).
		Str("game", evt.Game.String()).
		Str("actor", evt.Actor.String()).
		Uint64("amount", evt.Amount).
		Uint64("treasury", evt.TreasuryBalance).
		Msg("settlement committed")
}
