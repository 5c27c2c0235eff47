package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisPublisher публикует JSON события в канал Redis pub/sub
type RedisPublisher struct {
	client  *redis.Client
	channel string
	logger  *zap.Logger
}

func NewRedisPublisher(client *redis.Client, channel string, logger *zap.Logger) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel, logger: logger}
}

func (p *RedisPublisher) Publish(ctx context.Context, e BookingStatusChanged) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
		return fmt.Errorf("publish event to %s: %w", p.channel, err)
	}

	p.logger.Debug("Event published",
		zap.String("channel", p.channel),
		zap.String("booking_id", e.BookingID.String()),
		zap.String("to_status", e.ToStatus),
	)
	return nil
}

// Subscribe читает события канала, пока не завершится ctx или handle
// не вернёт ошибку. Битые сообщения логируются и пропускаются.
func (p *RedisPublisher) Subscribe(ctx context.Context, handle func(BookingStatusChanged) error) error {
	sub := p.client.Subscribe(ctx, p.channel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var e BookingStatusChanged
			if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
				p.logger.Warn("Failed to parse event", zap.Error(err))
				continue
			}
			if err := handle(e); err != nil {
				return fmt.Errorf("handle event %s: %w", e.BookingID, err)
			}
		}
	}
}
