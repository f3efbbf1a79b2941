package models

import (
	"encoding/hex"
	"fmt"
)

// AddressLength is the size in bytes of every account key.
const AddressLength = 32

// Address identifies an account: a player wallet, the treasury, or a derived game instance.
type Address [AddressLength]byte

// ZeroAddress is the unset address, used for a PvP game without a joiner.
var ZeroAddress Address

func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

func (a Address) IsZero() bool {
	return a == ZeroAddress
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAddress decodes the 64-character hex form of an address.
func ParseAddress(s string) (Address, error) {
	var a Address
	if len(s) != hex.EncodedLen(AddressLength) {
		return a, fmt.Errorf("invalid address length: %d", len(s))
	}
	if _, err := hex.Decode(a[:], []byte(s)); err != nil {
		return a, fmt.Errorf("invalid address: %w", err)
	}
	return a, nil
}

// MustParseAddress is ParseAddress for constants and tests.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// BalanceResponse is the wire form of an account balance.
type BalanceResponse struct {
	Address Address `json:"address"`
	Balance uint64  `json:"balance"`
}
