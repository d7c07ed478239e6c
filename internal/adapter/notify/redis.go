package notify

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/kibeterick/blood-management-fullstack/internal/domain"
)

var _ domain.NotificationChannel = (*RedisStreamChannel)(nil)

// RedisStreamChannel appends notifications to a Redis stream that outbound
// delivery workers (push, email) consume.
type RedisStreamChannel struct {
	client redis.Cmdable
	stream string
	maxLen int64
}

// NewRedisStreamChannel creates a channel writing to stream. A positive
// maxLen caps the stream length approximately.
func NewRedisStreamChannel(client redis.Cmdable, stream string, maxLen int64) *RedisStreamChannel {
	return &RedisStreamChannel{client: client, stream: stream, maxLen: maxLen}
}

// Send appends one entry per donor notification.
func (c *RedisStreamChannel) Send(ctx context.Context, donor domain.Donor, summary domain.RequestSummary) error {
	payload, err := NewPayload(donor, summary).encode()
	if err != nil {
		return err
	}

	args := &redis.XAddArgs{
		Stream: c.stream,
		Values: map[string]any{
			"request_id": summary.RequestID,
			"donor_id":   donor.ID,
			"urgency":    string(summary.Urgency),
			"payload":    string(payload),
		},
	}
	if c.maxLen > 0 {
		args.MaxLen = c.maxLen
		args.Approx = true
	}

	if err := c.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("appending to stream %s: %w", c.stream, err)
	}
	return nil
}
