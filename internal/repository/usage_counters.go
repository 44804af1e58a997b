package repository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	dailyKeyPrefix = "usage:day:"
	dailyKeyTTL    = 48 * time.Hour
)

// DailyIncrement adds N requests to one client's counter for one UTC day.
type DailyIncrement struct {
	ClientID string
	Day      time.Time
	N        int64
}

// UsageCountersRepository keeps per-client daily request counters in Redis.
type UsageCountersRepository interface {
	Increment(ctx context.Context, incs []DailyIncrement) error
	Get(ctx context.Context, clientID string, day time.Time) (int64, error)
}

type redisUsageCounters struct {
	rdb *redis.Client
}

func NewUsageCountersRepository(rdb *redis.Client) UsageCountersRepository {
	return &redisUsageCounters{rdb: rdb}
}

// DailyKey is usage:day:{client_id}:{YYYYMMDD} (UTC).
func DailyKey(clientID string, day time.Time) string {
	return dailyKeyPrefix + clientID + ":" + day.UTC().Format("20060102")
}

// Increment applies all increments in one pipeline; each touched key expires after 48h.
func (r *redisUsageCounters) Increment(ctx context.Context, incs []DailyIncrement) error {
	if len(incs) == 0 {
		return nil
	}
	pipe := r.rdb.Pipeline()
	for _, in := range incs {
		key := DailyKey(in.ClientID, in.Day)
		pipe.IncrBy(ctx, key, in.N)
		pipe.Expire(ctx, key, dailyKeyTTL)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (r *redisUsageCounters) Get(ctx context.Context, clientID string, day time.Time) (int64, error) {
	n, err := r.rdb.Get(ctx, DailyKey(clientID, day)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}
