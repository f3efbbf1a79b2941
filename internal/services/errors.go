package services

import "errors"

// Settlement errors. None are retriable; an operation that returns one has
// left no trace in the ledger or the game store.
var (
	ErrWagerTooSmall               = errors.New("wager below minimum")
	ErrInvalidBombCount            = errors.New("invalid bomb count (must be 1-24)")
	ErrAlreadyResolved             = errors.New("game already resolved")
	ErrBadAuthority                = errors.New("bad authority")
	ErrMathOverflow                = errors.New("math overflow")
	ErrTooManySafeRevealed         = errors.New("too many safe tiles revealed")
	ErrNoSafeRevealed              = errors.New("no safe tiles revealed yet")
	ErrInsufficientTreasury        = errors.New("treasury has insufficient funds for payout")
	ErrAlreadyHasJoiner            = errors.New("game already has a joiner")
	ErrHumanJoinNotAllowedForRobot = errors.New("cannot join a robot game as human")
	ErrInvalidWinner               = errors.New("invalid winner")
)

// Host errors, raised by the execution environment rather than by game rules.
var (
	ErrGameExists        = errors.New("game account already exists")
	ErrGameNotFound      = errors.New("game account not found")
	ErrInsufficientFunds = errors.New("insufficient funds")

	ErrFundingUnsupported = errors.New("host does not support funding")
	ErrTxConflict         = errors.New("transaction kept conflicting, giving up")
)

var errorKinds = []struct {
	err  error
	kind string
}{
	{ErrWagerTooSmall, "WagerTooSmall"},
	{ErrInvalidBombCount, "InvalidBombCount"},
	{ErrAlreadyResolved, "AlreadyResolved"},
	{ErrBadAuthority, "BadAuthority"},
	{ErrMathOverflow, "MathOverflow"},
	{ErrTooManySafeRevealed, "TooManySafeRevealed"},
	{ErrNoSafeRevealed, "NoSafeRevealed"},
	{ErrInsufficientTreasury, "InsufficientTreasury"},
	{ErrAlreadyHasJoiner, "AlreadyHasJoiner"},
	{ErrHumanJoinNotAllowedForRobot, "HumanJoinNotAllowedForRobot"},
	{ErrInvalidWinner, "InvalidWinner"},
	{ErrGameExists, "GameExists"},
	{ErrGameNotFound, "GameNotFound"},
	{ErrInsufficientFunds, "InsufficientFunds"},
}

// ErrorKind returns the stable name of a settlement or host error, or "" for anything else.
func ErrorKind(err error) string {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return ""
}
