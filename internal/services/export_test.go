package services

import (
	"context"
	"time"

	"github.com/pomo1231/solbombs2/internal/models"
)

// DeleteAccount drops an account's balance and record.
func (s *RedisService) DeleteAccount(ctx context.Context, addr models.Address) error {
	return s.client.Del(ctx, balanceKey(addr), gameKey(addr)).Err()
}

// RecordTTL reports how long a closed game's tombstone has left.
func (s *RedisService) RecordTTL(ctx context.Context, addr models.Address) (time.Duration, error) {
	return s.client.TTL(ctx, gameKey(addr)).Result()
}
