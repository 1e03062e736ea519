package events

import (
	"context"
	"fmt"

	"cinepoint/internal/models"
	"cinepoint/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/samber/do"
)

// Dispatcher routes a decoded lifecycle event to the service that handles it.
type Dispatcher struct {
	ledger *services.ServiceLedger
	push   *services.ServicePush
}

func NewDispatcher(container *do.Injector) (*Dispatcher, error) {
	ledger, err := do.Invoke[*services.ServiceLedger](container)
	if err != nil {
		return nil, err
	}

	push, err := do.Invoke[*services.ServicePush](container)
	if err != nil {
		return nil, err
	}

	return &Dispatcher{ledger, push}, nil
}

func (dispatcher *Dispatcher) Dispatch(ctx context.Context, event *models.LifecycleEvent) error {
	switch event.Type {
	case models.EventUserCreated, models.EventViewingCompleted, models.EventReviewCreated:
		return dispatcher.ledger.HandleLifecycleEvent(ctx, event)
	case models.EventBroadcastCreated:
		return dispatcher.push.HandleBroadcastCreated(ctx, event)
	default:
		return errorx.Wrap(fmt.Errorf("%w: %s", services.ErrUnknownEventType, event.Type), errorx.Invalid)
	}
}
