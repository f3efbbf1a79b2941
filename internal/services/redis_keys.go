package services

import "time"

const (
	KeyBalance   = "balance:%s"
	KeyGame      = "game:%s"
	KeyRateLimit = "ratelimit:%s:%s"

	fieldData = "data"
	fieldLive = "live"

	// Closed games keep their tombstone this long, then the key is free.
	TTLTombstone = 30 * 24 * time.Hour // 30 days

	DefaultRateLimitSettlements = 60 // Max 60 settlement calls per minute

	maxTxAttempts = 8
)
