package events

import (
	"context"
	"log"
	"time"

	"cinepoint/internal/datastore/redis_store"
	"cinepoint/internal/services"

	"github.com/go-redsync/redsync/v4"
	"github.com/samber/do"
)

const (
	reclaimMinIdle = 5 * time.Minute
	reclaimCount   = 64
)

// Reclaimer sweeps deliveries that sat pending past the idle threshold —
// usually a consumer that died mid-handle — and runs them through the normal
// processing path. The distributed lock keeps concurrent workers from
// sweeping the same entries.
type Reclaimer struct {
	consumer *Consumer
	locker   *redsync.Redsync
}

func NewReclaimer(container *do.Injector) (*Reclaimer, error) {
	consumer, err := do.Invoke[*Consumer](container)
	if err != nil {
		return nil, err
	}

	locker, err := do.Invoke[*redsync.Redsync](container)
	if err != nil {
		return nil, err
	}

	return &Reclaimer{consumer, locker}, nil
}

func (reclaimer *Reclaimer) Run(ctx context.Context) error {
	mutex := reclaimer.locker.NewMutex(
		services.LockKeyStreamReclaim(),
		redsync.WithExpiry(2*time.Minute),
		redsync.WithTries(1),
	)
	if err := mutex.TryLockContext(ctx); err != nil {
		log.Printf("reclaim lock held elsewhere, skipping sweep")
		return nil
	}
	defer func() {
		if _, err := mutex.UnlockContext(ctx); err != nil {
			log.Printf("reclaim unlock failed: %v", err)
		}
	}()

	start := "0-0"
	reclaimed := 0
	for {
		messages, next, err := redis_store.AutoClaim(ctx, reclaimer.consumer.redisDB, reclaimer.consumer.consumerName, reclaimMinIdle, start, reclaimCount)
		if err != nil {
			return err
		}

		for _, message := range messages {
			reclaimer.consumer.process(ctx, message)
			reclaimed++
		}

		if next == "0-0" || len(messages) == 0 {
			break
		}
		start = next
	}

	if reclaimed > 0 {
		log.Printf("reclaimed %d stale deliveries", reclaimed)
	}
	return nil
}
