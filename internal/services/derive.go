package services

import (
	"crypto/sha256"

	"github.com/pomo1231/solbombs2/internal/models"
)

const derivationMarker = "ProgramDerivedAddress"

// SeedDeriver derives account addresses by hashing seeds with the program id.
// Like any program-derived address scheme it searches for a bump byte from
// 255 down; a candidate is rejected when its high bit is set, which keeps
// derived addresses out of half of the key space.
type SeedDeriver struct {
	programID models.Address
	treasury  models.Address
}

func NewSeedDeriver(programID models.Address) *SeedDeriver {
	d := &SeedDeriver{programID: programID}
	d.treasury, _ = d.derive([]byte(NamespaceTreasury))
	return d
}

func (d *SeedDeriver) GameAddress(ns Namespace, owner models.Address, nonce uint8) (models.Address, uint8) {
	return d.derive([]byte(ns), owner[:], []byte{nonce})
}

func (d *SeedDeriver) TreasuryAddress() models.Address {
	return d.treasury
}

func (d *SeedDeriver) derive(seeds ...[]byte) (models.Address, uint8) {
	for bump := 255; bump >= 0; bump-- {
		h := sha256.New()
		for _, s := range seeds {
			h.Write(s)
		}
		h.Write([]byte{byte(bump)})
		h.Write(d.programID[:])
		h.Write([]byte(derivationMarker))

		var addr models.Address
		copy(addr[:], h.Sum(nil))
		if addr[models.AddressLength-1]&0x80 == 0 {
			return addr, uint8(bump)
		}
	}
	// Unreachable in practice: 256 consecutive rejections has probability 2^-256.
	panic("no viable bump seed")
}
