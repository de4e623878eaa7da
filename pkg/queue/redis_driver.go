package queue

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisDriver keeps ready jobs in a list (LPUSH/BRPOP) and delayed jobs in a
// sorted set scored by their due time.
type RedisDriver struct {
	rdb        *redis.Client
	readyKey   string
	delayedKey string
	wait       time.Duration
}

func NewRedisDriver(rdb *redis.Client, prefix string) *RedisDriver {
	if prefix == "" {
		prefix = "pehnawa"
	}
	return &RedisDriver{
		rdb:        rdb,
		readyKey:   prefix + ":queue:jobs",
		delayedKey: prefix + ":queue:delayed",
		wait:       5 * time.Second,
	}
}

func (d *RedisDriver) Push(ctx context.Context, payload []byte) error {
	if err := d.rdb.LPush(ctx, d.readyKey, payload).Err(); err != nil {
		return fmt.Errorf("queue/redis: push: %w", err)
	}
	return nil
}

func (d *RedisDriver) Pop(ctx context.Context) ([]byte, error) {
	res, err := d.rdb.BRPop(ctx, d.wait, d.readyKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("queue/redis: pop: %w", err)
	}
	if len(res) < 2 {
		return nil, nil
	}
	return []byte(res[1]), nil
}

func (d *RedisDriver) PushDelayed(ctx context.Context, payload []byte, delay time.Duration) error {
	due := float64(time.Now().Add(delay).Unix())
	if err := d.rdb.ZAdd(ctx, d.delayedKey, redis.Z{Score: due, Member: string(payload)}).Err(); err != nil {
		return fmt.Errorf("queue/redis: push delayed: %w", err)
	}
	return nil
}

// Run moves due delayed jobs onto the ready list once a second.
func (d *RedisDriver) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.promote(ctx)
		}
	}
}

func (d *RedisDriver) promote(ctx context.Context) {
	now := strconv.FormatInt(time.Now().Unix(), 10)
	due, err := d.rdb.ZRangeByScore(ctx, d.delayedKey, &redis.ZRangeBy{Min: "-inf", Max: now}).Result()
	if err != nil || len(due) == 0 {
		return
	}
	for _, job := range due {
		// ZRem first so two workers never promote the same job
		n, err := d.rdb.ZRem(ctx, d.delayedKey, job).Result()
		if err != nil || n == 0 {
			continue
		}
		d.rdb.LPush(ctx, d.readyKey, job) //nolint:errcheck
	}
}
