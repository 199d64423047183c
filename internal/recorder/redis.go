package recorder

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"TickSentinel/internal/model"
)

// RedisOptions configures a RedisRecorder.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration // zero keeps keys forever
	Timeout  time.Duration
}

// RedisRecorder keeps the latest record per instrument in a Redis hash.
type RedisRecorder struct {
	client  *redis.Client
	log     *zap.Logger
	ttl     time.Duration
	timeout time.Duration
}

// NewRedisRecorder connects and pings the server.
func NewRedisRecorder(opts RedisOptions, logger *zap.Logger) (*RedisRecorder, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 2 * time.Second
	}
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  opts.Timeout,
		ReadTimeout:  opts.Timeout,
		WriteTimeout: opts.Timeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}

	logger.Info("redis recorder opened", zap.String("addr", opts.Addr))
	return &RedisRecorder{client: client, log: logger, ttl: opts.TTL, timeout: opts.Timeout}, nil
}

// LatestKey is the hash holding the latest record for symbol.
func LatestKey(symbol string) string {
	return "tick:" + symbol
}

func recordFields(rec model.Record) map[string]interface{} {
	return map[string]interface{}{
		"time":     rec.FormattedTime(),
		"symbol":   rec.Symbol,
		"ask":      rec.Ask,
		"bid":      rec.Bid,
		"epoch":    rec.Epoch,
		"pip_size": rec.PipSize,
		"open":     rec.Open,
		"price":    rec.Price,
		"high":     rec.High,
		"low":      rec.Low,
		"close":    rec.Close,
	}
}

func (r *RedisRecorder) Append(ctx context.Context, symbol string, rec model.Record) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	key := LatestKey(symbol)
	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, key, recordFields(rec))
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis hset %s: %w", key, err)
	}
	return nil
}

func (r *RedisRecorder) Close() error {
	r.log.Info("closing redis recorder")
	return r.client.Close()
}
