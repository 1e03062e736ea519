package services

import (
	"context"

	"cinepoint/internal/datastore/redis_store"
	"cinepoint/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
)

// ServiceEvents publishes lifecycle events onto the at-least-once stream the
// worker consumes.
type ServiceEvents struct {
	redisDB redis.UniversalClient
}

func NewServiceEvents(container *do.Injector) (*ServiceEvents, error) {
	redisDB, err := do.InvokeNamed[redis.UniversalClient](container, "redis-stream")
	if err != nil {
		return nil, err
	}

	return &ServiceEvents{redisDB}, nil
}

func (service *ServiceEvents) PublishLifecycle(ctx context.Context, event *models.LifecycleEvent) error {
	return redis_store.PublishLifecycleEvent(ctx, service.redisDB, event)
}
