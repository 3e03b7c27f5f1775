package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// maxStreamLen caps the stream; older entries are trimmed approximately.
const maxStreamLen = 100_000

// RedisStream publishes notifications to a Redis stream consumed by the mailer.
type RedisStream struct {
	client *redis.Client
	stream string
}

func NewRedisStream(url, stream string) (*RedisStream, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return NewRedisStreamWithClient(redis.NewClient(opts), stream), nil
}

func NewRedisStreamWithClient(client *redis.Client, stream string) *RedisStream {
	return &RedisStream{client: client, stream: stream}
}

func (s *RedisStream) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStream) Close() error {
	return s.client.Close()
}

func (s *RedisStream) Notify(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}

	return s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		MaxLen: maxStreamLen,
		Approx: true,
		Values: map[string]any{
			"event_type":      string(n.Type),
			"article_id":      strconv.FormatUint(uint64(n.ArticleID), 10),
			"recipient_email": n.RecipientEmail,
			"payload":         payload,
		},
	}).Err()
}
