package interfaces

import (
	"context"

	"cinepoint/internal/models"

	"github.com/go-redis/redis_rate/v10"
)

type Limiter interface {
	Allow(ctx context.Context, key string, limit redis_rate.Limit) error
}

// PushGateway is one batched multicast send. Implementations must bound their
// own timeouts; a per-token failure is reported in the outcomes, a transport
// failure for the whole batch is the returned error.
type PushGateway interface {
	SendMulticast(ctx context.Context, message *models.PushMessage) ([]models.DeliveryOutcome, error)
}

// EventPublisher emits lifecycle events to the at-least-once stream.
type EventPublisher interface {
	PublishLifecycle(ctx context.Context, event *models.LifecycleEvent) error
}
