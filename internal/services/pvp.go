package services

import (
	"context"
	"fmt"

	"github.com/pomo1231/solbombs2/internal/models"
)

// ResolvePvpParams names the winning side and the accounts that side maps to.
// CreatorAccount receives the pot for WinnerCreator, JoinerAccount for
// WinnerCounterparty.
type ResolvePvpParams struct {
	Creator        models.Address
	Nonce          uint8
	WinnerSide     models.WinnerSide
	CreatorAccount models.Address
	JoinerAccount  models.Address
}

func (ge *GameEngine) StartPvp(ctx context.Context, creator models.Address, nonce uint8, wager uint64, vsRobot bool) (*models.PvpResult, error) {
	if wager < models.MinWager {
		return nil, ErrWagerTooSmall
	}

	addr, bump := ge.deriver.GameAddress(NamespacePvp, creator, nonce)
	treasury := ge.deriver.TreasuryAddress()
	game := &models.PvpGame{
		Bump:    bump,
		Creator: creator,
		Nonce:   nonce,
		Wager:   wager,
		State:   models.PvpAwaitingCounterparty,
	}
	if vsRobot {
		game.Robot = true
		game.State = models.PvpRobotLocked
	}

	var balance uint64
	err := ge.host.Execute(ctx, func(tx Tx) error {
		if vsRobot {
			if err := requireTreasury(tx, treasury, wager); err != nil {
				return err
			}
		}

		data, err := game.MarshalBinary()
		if err != nil {
			return err
		}
		if err := tx.Create(addr, creator, data, ge.deposit(len(data))); err != nil {
			return fmt.Errorf("create pvp game: %w", err)
		}
		if err := tx.Transfer(creator, treasury, wager); err != nil {
			return fmt.Errorf("debit wager: %w", err)
		}
		balance, err = tx.Balance(treasury)
		return err
	})
	if err != nil {
		return nil, err
	}

	evt := models.NewSettlementEvent(models.EventPvpStart, addr, creator)
	evt.Amount = wager
	evt.TreasuryBalance = balance
	if vsRobot {
		evt.Note = "vs_robot"
	}
	ge.publish(evt)

	return &models.PvpResult{Address: addr, Game: game, TreasuryBalance: balance}, nil
}

// ConvertToRobot locks a game that nobody joined to the robot counterparty.
// No value moves.
func (ge *GameEngine) ConvertToRobot(ctx context.Context, caller, creator models.Address, nonce uint8) (*models.PvpResult, error) {
	addr, _ := ge.deriver.GameAddress(NamespacePvp, creator, nonce)
	treasury := ge.deriver.TreasuryAddress()

	var (
		game    *models.PvpGame
		balance uint64
	)
	err := ge.host.Execute(ctx, func(tx Tx) error {
		var err error
		if game, err = ge.openPvp(tx, addr); err != nil {
			return err
		}
		if game.Creator != caller {
			return ErrBadAuthority
		}
		if game.HasJoiner() {
			return ErrAlreadyHasJoiner
		}
		if err := requireTreasury(tx, treasury, game.Wager); err != nil {
			return err
		}

		game.Robot = true
		game.State = models.PvpRobotLocked
		if err := storeRecord(tx, addr, game); err != nil {
			return err
		}
		balance, err = tx.Balance(treasury)
		return err
	})
	if err != nil {
		return nil, err
	}

	evt := models.NewSettlementEvent(models.EventPvpRobot, addr, caller)
	evt.TreasuryBalance = balance
	ge.publish(evt)

	return &models.PvpResult{Address: addr, Game: game, TreasuryBalance: balance}, nil
}

// JoinPvp adds a human counterparty, who stakes the same wager as the creator.
func (ge *GameEngine) JoinPvp(ctx context.Context, joiner, creator models.Address, nonce uint8) (*models.PvpResult, error) {
	addr, _ := ge.deriver.GameAddress(NamespacePvp, creator, nonce)
	treasury := ge.deriver.TreasuryAddress()

	var (
		game    *models.PvpGame
		balance uint64
	)
	err := ge.host.Execute(ctx, func(tx Tx) error {
		var err error
		if game, err = ge.openPvp(tx, addr); err != nil {
			return err
		}
		if game.VsRobot() {
			return ErrHumanJoinNotAllowedForRobot
		}
		if game.HasJoiner() {
			return ErrAlreadyHasJoiner
		}
		if err := tx.Transfer(joiner, treasury, game.Wager); err != nil {
			return fmt.Errorf("debit wager: %w", err)
		}

		game.Joiner = joiner
		game.State = models.PvpHumanJoined
		if err := storeRecord(tx, addr, game); err != nil {
			return err
		}
		balance, err = tx.Balance(treasury)
		return err
	})
	if err != nil {
		return nil, err
	}

	evt := models.NewSettlementEvent(models.EventPvpJoin, addr, joiner)
	evt.Counterparty = creator
	evt.Amount = game.Wager
	evt.TreasuryBalance = balance
	ge.publish(evt)

	return &models.PvpResult{Address: addr, Game: game, TreasuryBalance: balance}, nil
}

// ResolvePvp settles a game for the declared winner. A game that never got a
// human joiner resolves as a robot match. When the robot wins the pot stays in
// the treasury; otherwise the whole pot goes to the payee named for the
// winning side. Any caller may resolve; the storage deposit is refunded to it.
func (ge *GameEngine) ResolvePvp(ctx context.Context, caller models.Address, p ResolvePvpParams) (*models.PvpResult, error) {
	addr, _ := ge.deriver.GameAddress(NamespacePvp, p.Creator, p.Nonce)
	treasury := ge.deriver.TreasuryAddress()

	var (
		game    *models.PvpGame
		pot     uint64
		payee   *models.Address
		balance uint64
	)
	err := ge.host.Execute(ctx, func(tx Tx) error {
		payee = nil

		var err error
		if game, err = ge.openPvp(tx, addr); err != nil {
			return err
		}
		if p.WinnerSide != models.WinnerCreator && p.WinnerSide != models.WinnerCounterparty {
			return ErrInvalidWinner
		}

		robot := game.VsRobot() || !game.HasJoiner()
		if pot, err = Pot(game.Wager); err != nil {
			return err
		}

		if !robot || p.WinnerSide != models.WinnerCounterparty {
			to, err := resolvePayee(game, robot, p)
			if err != nil {
				return err
			}
			if err := requireTreasury(tx, treasury, pot); err != nil {
				return err
			}
			if err := tx.Transfer(treasury, to, pot); err != nil {
				return fmt.Errorf("pay out: %w", err)
			}
			payee = &to
		}

		game.State = models.PvpResolved
		if err := storeRecord(tx, addr, game); err != nil {
			return err
		}
		if err := tx.Close(addr, caller); err != nil {
			return fmt.Errorf("close pvp game: %w", err)
		}
		balance, err = tx.Balance(treasury)
		return err
	})
	if err != nil {
		return nil, err
	}

	res := &models.PvpResult{Address: addr, Game: game, Pot: pot, Payee: payee, TreasuryBalance: balance}
	evt := models.NewSettlementEvent(models.EventPvpResolve, addr, caller)
	evt.TreasuryBalance = balance
	if payee != nil {
		res.Payout = pot
		evt.Counterparty = *payee
		evt.Amount = pot
	} else {
		evt.Note = "robot_won"
	}
	evt.Parties = []models.Address{game.Creator}
	if game.HasJoiner() {
		evt.Parties = append(evt.Parties, game.Joiner)
	}
	ge.publish(evt)

	return res, nil
}

func (ge *GameEngine) GetPvp(ctx context.Context, creator models.Address, nonce uint8) (*models.PvpResult, error) {
	addr, _ := ge.deriver.GameAddress(NamespacePvp, creator, nonce)

	res := &models.PvpResult{Address: addr}
	err := ge.host.Execute(ctx, func(tx Tx) error {
		game, err := loadPvp(tx, addr)
		if err != nil {
			return err
		}
		res.Game = game
		if res.Pot, err = Pot(game.Wager); err != nil {
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

// resolvePayee maps the winning side to the account that is paid and checks
// it against the identities stored on the game.
func resolvePayee(game *models.PvpGame, robot bool, p ResolvePvpParams) (models.Address, error) {
	to := p.CreatorAccount
	if p.WinnerSide == models.WinnerCounterparty {
		to = p.JoinerAccount
	}

	if robot {
		if p.WinnerSide != models.WinnerCreator || to != game.Creator {
			return models.ZeroAddress, ErrInvalidWinner
		}
		return to, nil
	}
	if to != game.Creator && to != game.Joiner {
		return models.ZeroAddress, ErrInvalidWinner
	}
	return to, nil
}

func (ge *GameEngine) openPvp(tx Tx, addr models.Address) (*models.PvpGame, error) {
	game, err := loadPvp(tx, addr)
	if err != nil {
		return nil, err
	}
	if game.Resolved() {
		return nil, ErrAlreadyResolved
	}
	return game, nil
}

func loadPvp(tx Tx, addr models.Address) (*models.PvpGame, error) {
	data, err := tx.Load(addr)
	if err != nil {
		return nil, err
	}
	var game models.PvpGame
	if err := game.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("decode pvp game %s: %w", addr, err)
	}
	return &game, nil
}

func requireTreasury(tx Tx, treasury models.Address, amount uint64) error {
	available, err := tx.Balance(treasury)
	if err != nil {
		return err
	}
	if available < amount {
		return ErrInsufficientTreasury
	}
	return nil
}
