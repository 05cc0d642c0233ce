package feed

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/kirana-labs/kirana/internal/config"
)

// redisNotifier delivers change notices over a redis pub/sub channel. Every
// api instance publishes to and subscribes from the same channel, so feeds
// stay live across replicas.
type redisNotifier struct {
	client  *goredis.Client
	channel string
}

// NewNotifier builds the redis-backed notifier on its own connection; pub/sub
// holds the connection open, so it is not shared with the cache client.
func NewNotifier(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (Notifier, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
	})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("ping redis: %w", err)
			}
			logger.Info("order feed notifier connected", zap.String("channel", cfg.Feed.Channel))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("closing order feed notifier")
			return client.Close()
		},
	})

	return &redisNotifier{client: client, channel: cfg.Feed.Channel}, nil
}

func (n *redisNotifier) Publish(ctx context.Context, orderID string) error {
	return n.client.Publish(ctx, n.channel, orderID).Err()
}

func (n *redisNotifier) Subscribe(ctx context.Context) (<-chan string, func(), error) {
	pubsub := n.client.Subscribe(ctx, n.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, err
	}

	out := make(chan string)
	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			select {
			case out <- msg.Payload:
			case <-ctx.Done():
				return
			}
		}
	}()

	release := func() { _ = pubsub.Close() }
	return out, release, nil
}
