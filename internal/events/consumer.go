package events

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"cinepoint/internal/datastore/redis_store"
	"cinepoint/internal/models"
	"cinepoint/internal/services"

	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
)

const (
	readCount = 16
	readBlock = 5 * time.Second
)

// Consumer drains the lifecycle stream through the worker consumer group.
// Handlers are idempotent, so the ack policy can stay simple: ack on success
// and on permanent failure, leave retryable failures pending for redelivery.
type Consumer struct {
	redisDB    redis.UniversalClient
	dispatcher *Dispatcher
	bot        *services.Bot

	consumerName string
}

func NewConsumer(container *do.Injector) (*Consumer, error) {
	redisDB, err := do.InvokeNamed[redis.UniversalClient](container, "redis-stream")
	if err != nil {
		return nil, err
	}

	dispatcher, err := do.Invoke[*Dispatcher](container)
	if err != nil {
		return nil, err
	}

	bot, err := do.Invoke[*services.Bot](container)
	if err != nil {
		return nil, err
	}

	hostname, _ := os.Hostname()
	name := fmt.Sprintf("%s-%d", hostname, os.Getpid())

	return &Consumer{redisDB, dispatcher, bot, name}, nil
}

func (consumer *Consumer) Run(ctx context.Context) error {
	if err := redis_store.EnsureGroup(ctx, consumer.redisDB); err != nil {
		return err
	}

	log.Printf("consumer %s reading %s", consumer.consumerName, redis_store.StreamLifecycle)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		messages, err := redis_store.ReadGroup(ctx, consumer.redisDB, consumer.consumerName, readCount, readBlock)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("stream read failed: %v", err)
			time.Sleep(time.Second)
			continue
		}

		for _, message := range messages {
			consumer.process(ctx, message)
		}
	}
}

func (consumer *Consumer) process(ctx context.Context, message redis.XMessage) {
	event, err := redis_store.DecodeEvent(message)
	if err != nil {
		consumer.deadLetter(ctx, message.ID, nil, err)
		return
	}

	err = consumer.dispatcher.Dispatch(ctx, event)
	if err == nil {
		consumer.ack(ctx, message.ID)
		return
	}

	if isPermanentFailure(err) {
		consumer.deadLetter(ctx, message.ID, event, err)
		return
	}

	// Left pending: this consumer retries it on reclaim, or another consumer
	// picks it up after the idle threshold.
	log.Printf("event %s failed, will retry: %v", message.ID, err)
}

func (consumer *Consumer) ack(ctx context.Context, id string) {
	if err := redis_store.Ack(ctx, consumer.redisDB, id); err != nil {
		log.Printf("ack %s failed: %v", id, err)
	}
}

// deadLetter acks the entry so it stops redelivering and alerts ops; the
// event payload stays in the stream for manual replay.
func (consumer *Consumer) deadLetter(ctx context.Context, id string, event *models.LifecycleEvent, cause error) {
	eventID := "unknown"
	eventType := "undecodable"
	if event != nil {
		eventID = event.ID
		eventType = event.Type
	}
	log.Printf("dead-lettering entry %s (event %s, type %s): %v", id, eventID, eventType, cause)

	consumer.ack(ctx, id)

	text := fmt.Sprintf("⚠️ <b>Dead-lettered event</b>\nentry: %s\nevent: %s\ntype: %s\ncause: %v", id, eventID, eventType, cause)
	if err := consumer.bot.SendAlert(text); err != nil {
		log.Printf("ops alert failed: %v", err)
	}
}

// A permanent failure is one redelivery can never fix; everything else is
// assumed transient (provider outages, db hiccups) and worth retrying.
func isPermanentFailure(err error) bool {
	return errors.Is(err, services.ErrUserNotFound) ||
		errors.Is(err, services.ErrBroadcastNotFound) ||
		errors.Is(err, services.ErrUnknownEventType) ||
		errors.Is(err, services.ErrInsufficientBalance)
}
