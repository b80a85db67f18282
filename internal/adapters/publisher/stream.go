package publisher

import (
	"context"

	"github.com/cockroachdb/errors"
	goredis "github.com/redis/go-redis/v9"

	"github.com/okian/touchdown/internal/domain/model"
)

const defaultStreamMaxLen = 10000

// RedisStream appends events to a Redis stream.
type RedisStream struct {
	client goredis.UniversalClient
	stream string
	maxLen int64
}

// NewRedisStream returns a stream publisher. maxLen <= 0 uses the default cap.
func NewRedisStream(client goredis.UniversalClient, stream string, maxLen int64) *RedisStream {
	if maxLen <= 0 {
		maxLen = defaultStreamMaxLen
	}
	return &RedisStream{client: client, stream: stream, maxLen: maxLen}
}

// Name implements Publisher.
func (p *RedisStream) Name() string { return "redis" }

// Publish implements Publisher.
func (p *RedisStream) Publish(ctx context.Context, ev model.NotificationEvent) error {
	data, err := Encode(&ev)
	if err != nil {
		return err
	}
	err = p.client.XAdd(ctx, &goredis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"data":     string(data),
			"id":       ev.ID,
			"game_id":  ev.GameID,
			"kind":     string(ev.Kind),
			"dedup":    ev.Key().String(),
			"owner_id": ev.OwnerID,
		},
	}).Err()
	if err != nil {
		return errors.Wrapf(err, "xadd %s", p.stream)
	}
	return nil
}
