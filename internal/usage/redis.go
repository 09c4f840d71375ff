package usage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	pendingKey  = "usage:pending"
	drainPrefix = "usage:draining:"
)

// Buffered counts hits in a Redis hash and periodically folds the totals into
// the store with one IncrementUsed per mapping.
type Buffered struct {
	Redis  *redis.Client
	Store  Incrementer
	logger *slog.Logger
}

func NewBuffered(rdb *redis.Client, s Incrementer, logger *slog.Logger) *Buffered {
	return &Buffered{Redis: rdb, Store: s, logger: logger}
}

func (b *Buffered) Record(ctx context.Context, id string) error {
	return b.Redis.HIncrBy(ctx, pendingKey, id, 1).Err()
}

// Flush moves the pending hash aside and applies its counts. Counts that fail
// to apply are dropped.
func (b *Buffered) Flush(ctx context.Context) (int, error) {
	drainKey := drainPrefix + strconv.FormatInt(time.Now().UnixNano(), 10)
	if err := b.Redis.Rename(ctx, pendingKey, drainKey).Err(); err != nil {
		if isNoSuchKey(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("rename pending usage: %w", err)
	}
	defer b.Redis.Del(context.WithoutCancel(ctx), drainKey)

	counts, err := b.Redis.HGetAll(ctx, drainKey).Result()
	if err != nil {
		return 0, fmt.Errorf("read pending usage: %w", err)
	}

	applied := 0
	for id, raw := range counts {
		delta, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || delta <= 0 {
			continue
		}
		if err := b.Store.IncrementUsed(ctx, id, delta); err != nil {
			b.logger.Debug("usage flush dropped", "id", id, "delta", delta, "error", err)
			continue
		}
		applied++
	}
	return applied, nil
}

// Run flushes every interval until ctx is done, then flushes once more.
func (b *Buffered) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			final, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if n, err := b.Flush(final); err != nil {
				b.logger.Warn("final usage flush failed", "error", err)
			} else if n > 0 {
				b.logger.Info("final usage flush", "mappings", n)
			}
			cancel()
			return
		case <-ticker.C:
			if n, err := b.Flush(ctx); err != nil {
				b.logger.Warn("usage flush failed", "error", err)
			} else if n > 0 {
				b.logger.Debug("usage flushed", "mappings", n)
			}
		}
	}
}

func isNoSuchKey(err error) bool {
	return err != nil && !errors.Is(err, redis.Nil) && strings.Contains(err.Error(), "no such key")
}
