package models

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
)

const (
	// GridSize is the number of tiles on every board.
	GridSize = 25

	MinBombs = 1
	MaxBombs = 24

	// MinWager is the smallest accepted stake in base units.
	MinWager uint64 = 10_000

	// DiscriminatorSize prefixes every stored record.
	DiscriminatorSize = 8

	// SoloRecordSize is bump(1) owner(32) nonce(1) wager(8) bombs(1) safe(1) resolved(1).
	SoloRecordSize = 1 + AddressLength + 1 + 8 + 1 + 1 + 1
)

var (
	ErrAccountDiscriminator = errors.New("account discriminator mismatch")
	ErrAccountSize          = errors.New("account data has unexpected size")
)

var soloDiscriminator = discriminator("SoloGame")

func discriminator(name string) [DiscriminatorSize]byte {
	sum := sha256.Sum256([]byte("account:" + name))
	var d [DiscriminatorSize]byte
	copy(d[:], sum[:DiscriminatorSize])
	return d
}

type SoloState uint8

const (
	SoloActive SoloState = iota
	SoloResolved
)

func (s SoloState) String() string {
	switch s {
	case SoloActive:
		return "active"
	case SoloResolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// SoloGame is one single-player round played against the treasury.
type SoloGame struct {
	Bump         uint8     `json:"bump"`
	Owner        Address   `json:"owner"`
	Nonce        uint8     `json:"nonce"`
	Wager        uint64    `json:"wager"`
	Bombs        uint8     `json:"bombs"`
	SafeRevealed uint8     `json:"safe_revealed"`
	State        SoloState `json:"state"`
}

func (g *SoloGame) Resolved() bool {
	return g.State == SoloResolved
}

// MaxSafe is the number of safe tiles on the board.
func (g *SoloGame) MaxSafe() uint8 {
	return GridSize - g.Bombs
}

func (g *SoloGame) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 0, DiscriminatorSize+SoloRecordSize)
	buf = append(buf, soloDiscriminator[:]...)
	buf = append(buf, g.Bump)
	buf = append(buf, g.Owner[:]...)
	buf = append(buf, g.Nonce)
	buf = binary.LittleEndian.AppendUint64(buf, g.Wager)
	buf = append(buf, g.Bombs, g.SafeRevealed, boolByte(g.Resolved()))
	return buf, nil
}

func (g *SoloGame) UnmarshalBinary(data []byte) error {
	if len(data) != DiscriminatorSize+SoloRecordSize {
		return ErrAccountSize
	}
	if [DiscriminatorSize]byte(data[:DiscriminatorSize]) != soloDiscriminator {
		return ErrAccountDiscriminator
	}
	p := data[DiscriminatorSize:]
	g.Bump = p[0]
	copy(g.Owner[:], p[1:33])
	g.Nonce = p[33]
	g.Wager = binary.LittleEndian.Uint64(p[34:42])
	g.Bombs = p[42]
	g.SafeRevealed = p[43]
	g.State = SoloActive
	if p[44] != 0 {
		g.State = SoloResolved
	}
	return nil
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
