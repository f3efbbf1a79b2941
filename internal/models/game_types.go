package models

import "fmt"

type StartSoloRequest struct {
	Nonce *uint8 `json:"nonce" binding:"required"`
	Wager uint64 `json:"wager"`
	Bombs uint8  `json:"bombs"`
}

type SoloKeyRequest struct {
	Owner Address `json:"owner" binding:"required"`
	Nonce *uint8  `json:"nonce" binding:"required"`
}

type StartPvpRequest struct {
	Nonce   *uint8 `json:"nonce" binding:"required"`
	Wager   uint64 `json:"wager"`
	VsRobot bool   `json:"vs_robot"`
}

type PvpKeyRequest struct {
	Creator Address `json:"creator" binding:"required"`
	Nonce   *uint8  `json:"nonce" binding:"required"`
}

type ResolvePvpRequest struct {
	Creator        Address `json:"creator" binding:"required"`
	Nonce          *uint8  `json:"nonce" binding:"required"`
	WinnerSide     *uint8  `json:"winner_side" binding:"required"`
	CreatorAccount Address `json:"creator_account"`
	JoinerAccount  Address `json:"joiner_account"`
}

// LoginRequest proves control of Address: Signature is the hex ed25519
// signature of LoginMessage(Address, Timestamp).
type LoginRequest struct {
	Address   Address `json:"address" binding:"required"`
	Timestamp int64   `json:"timestamp" binding:"required"`
	Signature string  `json:"signature" binding:"required,hexadecimal"`
}

type FundRequest struct {
	Address Address `json:"address" binding:"required"`
	Amount  uint64  `json:"amount" binding:"required,gt=0"`
}

type SoloResult struct {
	Address         Address   `json:"address"`
	Game            *SoloGame `json:"game"`
	MultiplierBps   uint16    `json:"multiplier_bps"`
	Payout          uint64    `json:"payout"`
	TreasuryBalance uint64    `json:"treasury_balance"`
}

type PvpResult struct {
	Address         Address  `json:"address"`
	Game            *PvpGame `json:"game"`
	Pot             uint64   `json:"pot"`
	Payee           *Address `json:"payee,omitempty"`
	Payout          uint64   `json:"payout"`
	TreasuryBalance uint64   `json:"treasury_balance"`
}

func LoginMessage(addr Address, timestamp int64) string {
	return fmt.Sprintf("solbombs login %s %d", addr, timestamp)
}
