package broadcast

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisBroker - рассылка через Redis Pub/Sub, для нескольких экземпляров сервера.
type RedisBroker struct {
	client *redis.Client
	buffer int
	log    *zap.SugaredLogger
}

// NewRedisBroker создаёт брокер поверх готового клиента.
func NewRedisBroker(client *redis.Client, buffer int, log *zap.SugaredLogger) *RedisBroker {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &RedisBroker{client: client, buffer: buffer, log: log}
}

func (b *RedisBroker) Subscribe(ctx context.Context, roomHash string) (*Subscription, error) {
	group := GroupName(roomHash)
	ps := b.client.Subscribe(ctx, group)
	// ждём подтверждения, чтобы подписка была активна до возврата
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("redis subscribe %s: %w", group, err)
	}

	out := make(chan []byte, b.buffer)
	go func() {
		defer close(out)
		for msg := range ps.Channel() {
			select {
			case out <- []byte(msg.Payload):
			default:
				b.log.Warnw("broadcast: subscriber queue full, message dropped", "group", group)
			}
		}
	}()

	return newSubscription(ctx, group, out, func(*Subscription) {
		if err := ps.Close(); err != nil {
			b.log.Warnw("broadcast: redis unsubscribe failed", "group", group, "error", err)
		}
	}), nil
}

func (b *RedisBroker) Publish(ctx context.Context, roomHash string, payload []byte) error {
	return b.client.Publish(ctx, GroupName(roomHash), payload).Err()
}
