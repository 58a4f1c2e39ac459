package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/lumenkind/playtrack-backend/internal/logger"
	"github.com/lumenkind/playtrack-backend/internal/types"
)

// MetricsBus fans real-time session metric snapshots out to live dashboard
// consumers over a redis pub/sub channel. The tracking service works without
// it; a nil bus just means local-only metrics.
type MetricsBus interface {
	Publish(ctx context.Context, m types.RealTimeProgressMetrics) error
	Subscribe(ctx context.Context, onMetrics func(m types.RealTimeProgressMetrics)) error
	Close() error
}

type metricsBus struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

func NewMetricsBus(log *logger.Logger) (MetricsBus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	ch := strings.TrimSpace(os.Getenv("REDIS_METRICS_CHANNEL"))
	if ch == "" {
		ch = "session_metrics"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &metricsBus{
		log:     log.With("service", "RedisMetricsBus"),
		rdb:     rdb,
		channel: ch,
	}, nil
}

func (b *metricsBus) Publish(ctx context.Context, m types.RealTimeProgressMetrics) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis metrics bus not initialized")
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal metrics: %w", err)
	}
	if err := b.rdb.Publish(ctx, b.channel, raw).Err(); err != nil {
		return fmt.Errorf("publish metrics: %w", err)
	}
	return nil
}

func (b *metricsBus) Subscribe(ctx context.Context, onMetrics func(m types.RealTimeProgressMetrics)) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis metrics bus not initialized")
	}
	sub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe: %w", err)
	}
	go func() {
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-sub.Channel():
				if !ok {
					return
				}
				var m types.RealTimeProgressMetrics
				if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil {
					b.log.Warn("Dropping malformed metrics payload", "error", err)
					continue
				}
				onMetrics(m)
			}
		}
	}()
	return nil
}

func (b *metricsBus) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}
