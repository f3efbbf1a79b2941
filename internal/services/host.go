package services

import (
	"context"

	"github.com/pomo1231/solbombs2/internal/models"
)

// Namespace separates the address spaces of derived accounts.
type Namespace string

const (
	NamespaceSolo     Namespace = "solo"
	NamespacePvp      Namespace = "pvp"
	NamespaceTreasury Namespace = "treasury"
)

// AddressDeriver maps an owner and a per-game nonce to a unique account address.
type AddressDeriver interface {
	GameAddress(ns Namespace, owner models.Address, nonce uint8) (models.Address, uint8)
	TreasuryAddress() models.Address
}

// Authenticator attests which identity signed the current request.
type Authenticator interface {
	Authenticate(token string) (models.Address, error)
}

// Host runs settlement operations. Execute must run fn as one serialized,
// all-or-nothing unit: when fn returns an error nothing it did is kept.
type Host interface {
	Execute(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the view of accounts available inside one Execute call.
type Tx interface {
	Balance(addr models.Address) (uint64, error)
	// Transfer fails with ErrInsufficientFunds when from cannot cover amount.
	Transfer(from, to models.Address, amount uint64) error

	// Load returns the record stored at addr, including a closed game's
	// tombstone, or ErrGameNotFound.
	Load(addr models.Address) ([]byte, error)
	// Create stores a new record and moves deposit from payer onto addr.
	// It fails with ErrGameExists when a live record is already there.
	Create(addr, payer models.Address, data []byte, deposit uint64) error
	Store(addr models.Address, data []byte) error
	// Close moves whatever balance addr still holds to refundTo and keeps
	// the final record as a tombstone.
	Close(addr, refundTo models.Address) error
}

// DepositFunc prices the storage deposit for a record of the given size.
type DepositFunc func(recordSize int) uint64

// StorageDeposit charges rate units per byte, with a fixed 128-byte account overhead.
func StorageDeposit(rate uint64) DepositFunc {
	return func(recordSize int) uint64 {
		return uint64(128+recordSize) * rate
	}
}

// Funder credits an account from outside the game rules; hosts use it to
// seed the treasury and player wallets.
type Funder interface {
	Fund(ctx context.Context, addr models.Address, amount uint64) error
	// SeedIfEmpty credits addr only when its balance is zero, in one
	// operation, and reports whether it did.
	SeedIfEmpty(ctx context.Context, addr models.Address, amount uint64) (bool, error)
}
