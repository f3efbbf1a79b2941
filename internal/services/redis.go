package services

import (
	"context"
	"errors"
	"fmt"
	"math/bits"
	"strconv"
	"time"

	"github.com/jpillora/backoff"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/pomo1231/solbombs2/internal/config"
	"github.com/pomo1231/solbombs2/internal/models"
)

// RedisService is a Host backed by Redis. Every Execute runs as one
// optimistic transaction: keys are WATCHed as they are read, writes are
// buffered and flushed in a single MULTI/EXEC, and a conflicting writer makes
// the whole callback run again.
type RedisService struct {
	client *redis.Client
}

func NewRedisService(cfg *config.Config) (*RedisService, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})

	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisService{client: client}, nil
}

func (s *RedisService) Close() error {
	return s.client.Close()
}

func (s *RedisService) Execute(ctx context.Context, fn func(tx Tx) error) error {
	b := &backoff.Backoff{
		Min:    5 * time.Millisecond,
		Max:    250 * time.Millisecond,
		Factor: 2,
		Jitter: true,
	}

	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err := s.client.Watch(ctx, func(rtx *redis.Tx) error {
			tx := newRedisTx(ctx, rtx)
			if err := fn(tx); err != nil {
				return err
			}
			return tx.commit()
		})
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}

		wait := b.Duration()
		log.Debug().Int("attempt", attempt).Dur("backoff", wait).Msg("redis transaction conflict, retrying")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return ErrTxConflict
}

// Fund credits addr outside the game rules.
func (s *RedisService) Fund(ctx context.Context, addr models.Address, amount uint64) error {
	return s.Execute(ctx, func(tx Tx) error {
		return tx.(*redisTx).credit(addr, amount)
	})
}

func (s *RedisService) SeedIfEmpty(ctx context.Context, addr models.Address, amount uint64) (bool, error) {
	var seeded bool
	err := s.Execute(ctx, func(tx Tx) error {
		rtx := tx.(*redisTx)
		seeded = false
		bal, err := rtx.balance(addr)
		if err != nil || bal != 0 {
			return err
		}
		seeded = true
		return rtx.credit(addr, amount)
	})
	return seeded && err == nil, err
}

func (s *RedisService) CheckRateLimit(ctx context.Context, identity, action string, limit int, window time.Duration) (bool, error) {
	key := fmt.Sprintf(KeyRateLimit, identity, action)

	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit: %w", err)
	}

	if count == 1 {
		s.client.Expire(ctx, key, window)
	}

	return count <= int64(limit), nil
}

func (s *RedisService) ClearRateLimit(ctx context.Context, identity, action string) error {
	return s.client.Del(ctx, fmt.Sprintf(KeyRateLimit, identity, action)).Err()
}

func balanceKey(addr models.Address) string {
	return fmt.Sprintf(KeyBalance, addr)
}

func gameKey(addr models.Address) string {
	return fmt.Sprintf(KeyGame, addr)
}

type redisRecord struct {
	data []byte
	live bool
}

type redisTx struct {
	ctx context.Context
	rtx *redis.Tx

	balances     map[models.Address]uint64
	records      map[models.Address]*redisRecord
	dirtyBalance map[models.Address]bool
	dirtyRecord  map[models.Address]bool
}

func newRedisTx(ctx context.Context, rtx *redis.Tx) *redisTx {
	return &redisTx{
		ctx:          ctx,
		rtx:          rtx,
		balances:     make(map[models.Address]uint64),
		records:      make(map[models.Address]*redisRecord),
		dirtyBalance: make(map[models.Address]bool),
		dirtyRecord:  make(map[models.Address]bool),
	}
}

func (tx *redisTx) balance(addr models.Address) (uint64, error) {
	if bal, ok := tx.balances[addr]; ok {
		return bal, nil
	}

	key := balanceKey(addr)
	if err := tx.rtx.Watch(tx.ctx, key).Err(); err != nil {
		return 0, fmt.Errorf("watch %s: %w", key, err)
	}
	raw, err := tx.rtx.Get(tx.ctx, key).Result()
	if err == redis.Nil {
		tx.balances[addr] = 0
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get %s: %w", key, err)
	}

	bal, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse balance %s: %w", key, err)
	}
	tx.balances[addr] = bal
	return bal, nil
}

func (tx *redisTx) setBalance(addr models.Address, bal uint64) {
	tx.balances[addr] = bal
	tx.dirtyBalance[addr] = true
}

func (tx *redisTx) credit(addr models.Address, amount uint64) error {
	bal, err := tx.balance(addr)
	if err != nil {
		return err
	}
	sum, carry := bits.Add64(bal, amount, 0)
	if carry != 0 {
		return ErrMathOverflow
	}
	tx.setBalance(addr, sum)
	return nil
}

func (tx *redisTx) record(addr models.Address) (*redisRecord, error) {
	if rec, ok := tx.records[addr]; ok {
		return rec, nil
	}

	key := gameKey(addr)
	if err := tx.rtx.Watch(tx.ctx, key).Err(); err != nil {
		return nil, fmt.Errorf("watch %s: %w", key, err)
	}
	fields, err := tx.rtx.HGetAll(tx.ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("hgetall %s: %w", key, err)
	}

	rec := &redisRecord{}
	if data, ok := fields[fieldData]; ok {
		rec.data = []byte(data)
		rec.live = fields[fieldLive] == "1"
	}
	tx.records[addr] = rec
	return rec, nil
}

func (tx *redisTx) Balance(addr models.Address) (uint64, error) {
	return tx.balance(addr)
}

func (tx *redisTx) Transfer(from, to models.Address, amount uint64) error {
	src, err := tx.balance(from)
	if err != nil {
		return err
	}
	if src < amount {
		return ErrInsufficientFunds
	}
	tx.setBalance(from, src-amount)
	return tx.credit(to, amount)
}

func (tx *redisTx) Load(addr models.Address) ([]byte, error) {
	rec, err := tx.record(addr)
	if err != nil {
		return nil, err
	}
	if rec.data == nil {
		return nil, ErrGameNotFound
	}
	return append([]byte(nil), rec.data...), nil
}

func (tx *redisTx) Create(addr, payer models.Address, data []byte, deposit uint64) error {
	rec, err := tx.record(addr)
	if err != nil {
		return err
	}
	if rec.live {
		return ErrGameExists
	}
	if err := tx.Transfer(payer, addr, deposit); err != nil {
		return err
	}
	rec.data = append([]byte(nil), data...)
	rec.live = true
	tx.dirtyRecord[addr] = true
	return nil
}

func (tx *redisTx) Store(addr models.Address, data []byte) error {
	rec, err := tx.record(addr)
	if err != nil {
		return err
	}
	if !rec.live {
		return ErrGameNotFound
	}
	rec.data = append([]byte(nil), data...)
	tx.dirtyRecord[addr] = true
	return nil
}

func (tx *redisTx) Close(addr, refundTo models.Address) error {
	rec, err := tx.record(addr)
	if err != nil {
		return err
	}
	if !rec.live {
		return ErrGameNotFound
	}
	bal, err := tx.balance(addr)
	if err != nil {
		return err
	}
	if err := tx.Transfer(addr, refundTo, bal); err != nil {
		return err
	}
	rec.live = false
	tx.dirtyRecord[addr] = true
	return nil
}

func (tx *redisTx) commit() error {
	if len(tx.dirtyBalance) == 0 && len(tx.dirtyRecord) == 0 {
		return nil
	}

	_, err := tx.rtx.TxPipelined(tx.ctx, func(pipe redis.Pipeliner) error {
		for addr := range tx.dirtyBalance {
			pipe.Set(tx.ctx, balanceKey(addr), strconv.FormatUint(tx.balances[addr], 10), 0)
		}
		for addr := range tx.dirtyRecord {
			rec := tx.records[addr]
			key := gameKey(addr)
			live := "0"
			if rec.live {
				live = "1"
			}
			pipe.HSet(tx.ctx, key, fieldData, rec.data, fieldLive, live)
			if rec.live {
				pipe.Persist(tx.ctx, key)
			} else {
				pipe.Expire(tx.ctx, key, TTLTombstone)
			}
		}
		return nil
	})
	return err
}
