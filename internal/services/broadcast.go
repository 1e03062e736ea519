package services

import (
	"context"
	"errors"
	"log"
	"time"

	"cinepoint/internal/datastore"
	"cinepoint/internal/interfaces"
	"cinepoint/internal/models"

	"github.com/google/uuid"
	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/samber/do"
	"github.com/uptrace/bun"
)

type ServiceBroadcast struct {
	container *do.Injector
	db        *bun.DB
	events    interfaces.EventPublisher
}

func NewServiceBroadcast(container *do.Injector) (*ServiceBroadcast, error) {
	db, err := do.Invoke[*bun.DB](container)
	if err != nil {
		return nil, err
	}

	events, err := do.Invoke[interfaces.EventPublisher](container)
	if err != nil {
		return nil, err
	}

	return &ServiceBroadcast{container, db, events}, nil
}

// CreateBroadcast stores the message and emits broadcast.created; the worker
// owns the actual fan-out.
func (service *ServiceBroadcast) CreateBroadcast(ctx context.Context, kind string, title string, content string, pushEnabled bool, pushTitle *string, pushMessage *string) (*models.BroadcastMessage, error) {
	if kind != models.BroadcastKindNotice && kind != models.BroadcastKindEvent {
		return nil, errorx.Wrap(errors.New("kind must be notice or event"), errorx.Invalid)
	}
	if title == "" {
		return nil, errorx.Wrap(errors.New("title is required"), errorx.Invalid)
	}

	message := &models.BroadcastMessage{
		ID:          uuid.NewString(),
		Kind:        kind,
		Title:       title,
		Content:     content,
		PushEnabled: pushEnabled,
		PushTitle:   pushTitle,
		PushMessage: pushMessage,
		CreatedAt:   time.Now(),
	}
	if _, err := datastore.CreateBroadcast(ctx, service.db, message); err != nil {
		return nil, err
	}

	event := models.NewLifecycleEvent(models.EventBroadcastCreated, "", message.ID)
	if err := service.events.PublishLifecycle(ctx, event); err != nil {
		log.Printf("publish broadcast.created for %s failed: %v", message.ID, err)
	}
	return message, nil
}

func (service *ServiceBroadcast) FindBroadcastByID(ctx context.Context, id string) (*models.BroadcastMessage, error) {
	return datastore.FindBroadcastByID(ctx, service.db, id)
}
