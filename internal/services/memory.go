package services

import (
	"context"
	"math/bits"
	"sync"

	"github.com/pomo1231/solbombs2/internal/models"
)

// MemoryHost keeps every account in process. One mutex serializes all
// operations; each Execute works on copies and commits them only on success.
type MemoryHost struct {
	mu       sync.Mutex
	accounts map[models.Address]*memoryAccount
}

type memoryAccount struct {
	balance uint64
	data    []byte
	live    bool
}

func (a *memoryAccount) clone() *memoryAccount {
	c := *a
	c.data = append([]byte(nil), a.data...)
	return &c
}

func NewMemoryHost() *MemoryHost {
	return &MemoryHost{accounts: make(map[models.Address]*memoryAccount)}
}

func (h *MemoryHost) Execute(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	tx := &memoryTx{host: h, staged: make(map[models.Address]*memoryAccount)}
	if err := fn(tx); err != nil {
		return err
	}
	for addr, acct := range tx.staged {
		h.accounts[addr] = acct
	}
	return nil
}

// Fund credits addr out of thin air. It is the faucet used to seed the
// treasury and player wallets.
func (h *MemoryHost) Fund(ctx context.Context, addr models.Address, amount uint64) error {
	return h.Execute(ctx, func(tx Tx) error {
		return tx.(*memoryTx).credit(addr, amount)
	})
}

func (h *MemoryHost) SeedIfEmpty(ctx context.Context, addr models.Address, amount uint64) (bool, error) {
	var seeded bool
	err := h.Execute(ctx, func(tx Tx) error {
		mtx := tx.(*memoryTx)
		if mtx.account(addr).balance != 0 {
			return nil
		}
		seeded = true
		return mtx.credit(addr, amount)
	})
	return seeded && err == nil, err
}

// Balance reads an account balance outside of any operation.
func (h *MemoryHost) Balance(addr models.Address) uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	if acct, ok := h.accounts[addr]; ok {
		return acct.balance
	}
	return 0
}

type memoryTx struct {
	host   *MemoryHost
	staged map[models.Address]*memoryAccount
}

func (tx *memoryTx) account(addr models.Address) *memoryAccount {
	if acct, ok := tx.staged[addr]; ok {
		return acct
	}
	acct := &memoryAccount{}
	if base, ok := tx.host.accounts[addr]; ok {
		acct = base.clone()
	}
	tx.staged[addr] = acct
	return acct
}

func (tx *memoryTx) credit(addr models.Address, amount uint64) error {
	acct := tx.account(addr)
	sum, carry := bits.Add64(acct.balance, amount, 0)
	if carry != 0 {
		return ErrMathOverflow
	}
	acct.balance = sum
	return nil
}

func (tx *memoryTx) Balance(addr models.Address) (uint64, error) {
	return tx.account(addr).balance, nil
}

func (tx *memoryTx) Transfer(from, to models.Address, amount uint64) error {
	src := tx.account(from)
	if src.balance < amount {
		return ErrInsufficientFunds
	}
	src.balance -= amount
	return tx.credit(to, amount)
}

func (tx *memoryTx) Load(addr models.Address) ([]byte, error) {
	acct := tx.account(addr)
	if acct.data == nil {
		return nil, ErrGameNotFound
	}
	return append([]byte(nil), acct.data...), nil
}

func (tx *memoryTx) Create(addr, payer models.Address, data []byte, deposit uint64) error {
	if tx.account(addr).live {
		return ErrGameExists
	}
	if err := tx.Transfer(payer, addr, deposit); err != nil {
		return err
	}
	acct := tx.account(addr)
	acct.data = append([]byte(nil), data...)
	acct.live = true
	return nil
}

func (tx *memoryTx) Store(addr models.Address, data []byte) error {
	acct := tx.account(addr)
	if !acct.live {
		return ErrGameNotFound
	}
	acct.data = append([]byte(nil), data...)
	return nil
}

func (tx *memoryTx) Close(addr, refundTo models.Address) error {
	acct := tx.account(addr)
	if !acct.live {
		return ErrGameNotFound
	}
	if err := tx.Transfer(addr, refundTo, acct.balance); err != nil {
		return err
	}
	acct.live = false
	return nil
}
