package models

import "encoding/binary"

// PvpRecordSize is bump(1) creator(32) joiner(32) has_joiner(1) nonce(1) wager(8) vs_robot(1) resolved(1).
const PvpRecordSize = 1 + AddressLength + AddressLength + 1 + 1 + 8 + 1 + 1

var pvpDiscriminator = discriminator("PvpGame")

type PvpState uint8

const (
	PvpAwaitingCounterparty PvpState = iota
	PvpRobotLocked
	PvpHumanJoined
	PvpResolved
)

func (s PvpState) String() string {
	switch s {
	case PvpAwaitingCounterparty:
		return "awaiting_counterparty"
	case PvpRobotLocked:
		return "robot_locked"
	case PvpHumanJoined:
		return "human_joined"
	case PvpResolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// WinnerSide names who won a PvP game.
type WinnerSide uint8

const (
	WinnerCreator      WinnerSide = 0
	WinnerCounterparty WinnerSide = 1
)

// PvpGame is a head-to-head round between a creator and a human joiner or the robot.
//
// Robot stays set once the game was locked to the robot so a resolved record
// still tells which kind of match it was.
type PvpGame struct {
	Bump    uint8    `json:"bump"`
	Creator Address  `json:"creator"`
	Joiner  Address  `json:"joiner"`
	Nonce   uint8    `json:"nonce"`
	Wager   uint64   `json:"wager"`
	Robot   bool     `json:"vs_robot"`
	State   PvpState `json:"state"`
}

func (g *PvpGame) Resolved() bool {
	return g.State == PvpResolved
}

func (g *PvpGame) VsRobot() bool {
	return g.Robot
}

func (g *PvpGame) HasJoiner() bool {
	switch g.State {
	case PvpHumanJoined:
		return true
	case PvpResolved:
		return !g.Joiner.IsZero()
	default:
		return false
	}
}

func (g *PvpGame) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 0, DiscriminatorSize+PvpRecordSize)
	buf = append(buf, pvpDiscriminator[:]...)
	buf = append(buf, g.Bump)
	buf = append(buf, g.Creator[:]...)
	buf = append(buf, g.Joiner[:]...)
	buf = append(buf, boolByte(g.HasJoiner()), g.Nonce)
	buf = binary.LittleEndian.AppendUint64(buf, g.Wager)
	buf = append(buf, boolByte(g.Robot), boolByte(g.Resolved()))
	return buf, nil
}

func (g *PvpGame) UnmarshalBinary(data []byte) error {
	if len(data) != DiscriminatorSize+PvpRecordSize {
		return ErrAccountSize
	}
	if [DiscriminatorSize]byte(data[:DiscriminatorSize]) != pvpDiscriminator {
		return ErrAccountDiscriminator
	}
	p := data[DiscriminatorSize:]
	g.Bump = p[0]
	copy(g.Creator[:], p[1:33])
	copy(g.Joiner[:], p[33:65])
	hasJoiner := p[65] != 0
	g.Nonce = p[66]
	g.Wager = binary.LittleEndian.Uint64(p[67:75])
	g.Robot = p[75] != 0

	switch {
	case p[76] != 0:
		g.State = PvpResolved
	case hasJoiner:
		g.State = PvpHumanJoined
	case g.Robot:
		g.State = PvpRobotLocked
	default:
		g.State = PvpAwaitingCounterparty
	}
	return nil
}
