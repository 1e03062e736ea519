package redis_store

import (
	"context"
	"errors"
	"strings"
	"time"

	"cinepoint/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	StreamLifecycle = "events:lifecycle"
	GroupWorker     = "cinepoint-worker"

	fieldEvent = "event"
)

func PublishLifecycleEvent(ctx context.Context, client redis.UniversalClient, event *models.LifecycleEvent) error {
	b, err := msgpack.Marshal(event)
	if err != nil {
		return err
	}

	return client.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamLifecycle,
		Values: map[string]interface{}{fieldEvent: b},
	}).Err()
}

// EnsureGroup creates the consumer group at the start of the stream; an
// existing group is not an error.
func EnsureGroup(ctx context.Context, client redis.UniversalClient) error {
	err := client.XGroupCreateMkStream(ctx, StreamLifecycle, GroupWorker, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}

func ReadGroup(ctx context.Context, client redis.UniversalClient, consumer string, count int64, block time.Duration) ([]redis.XMessage, error) {
	streams, err := client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    GroupWorker,
		Consumer: consumer,
		Streams:  []string{StreamLifecycle, ">"},
		Count:    count,
		Block:    block,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var messages []redis.XMessage
	for _, stream := range streams {
		messages = append(messages, stream.Messages...)
	}
	return messages, nil
}

func Ack(ctx context.Context, client redis.UniversalClient, ids ...string) error {
	return client.XAck(ctx, StreamLifecycle, GroupWorker, ids...).Err()
}

// AutoClaim moves deliveries that sat pending on a dead consumer over to the
// caller so they get retried.
func AutoClaim(ctx context.Context, client redis.UniversalClient, consumer string, minIdle time.Duration, start string, count int64) ([]redis.XMessage, string, error) {
	messages, next, err := client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   StreamLifecycle,
		Group:    GroupWorker,
		Consumer: consumer,
		MinIdle:  minIdle,
		Start:    start,
		Count:    count,
	}).Result()
	if err != nil {
		return nil, "", err
	}
	return messages, next, nil
}

func DecodeEvent(message redis.XMessage) (*models.LifecycleEvent, error) {
	raw, ok := message.Values[fieldEvent]
	if !ok {
		return nil, errors.New("stream entry has no event field")
	}

	s, ok := raw.(string)
	if !ok {
		return nil, errors.New("stream entry event field is not a string")
	}

	var event models.LifecycleEvent
	if err := msgpack.Unmarshal([]byte(s), &event); err != nil {
		return nil, err
	}
	return &event, nil
}
