package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"cinepoint/internal/datastore"
	"cinepoint/internal/interfaces"
	"cinepoint/internal/models"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/samber/do"
	"github.com/uptrace/bun"
)

// ServicePush fans a broadcast out to every registered device token through
// the push gateway, in fixed-size batches.
type ServicePush struct {
	container *do.Injector
	db        *bun.DB
	gateway   interfaces.PushGateway
}

func NewServicePush(container *do.Injector) (*ServicePush, error) {
	db, err := do.Invoke[*bun.DB](container)
	if err != nil {
		return nil, err
	}

	gateway, err := do.Invoke[interfaces.PushGateway](container)
	if err != nil {
		return nil, err
	}

	return &ServicePush{container, db, gateway}, nil
}

// HandleBroadcastCreated claims the event before sending anything, so a
// redelivered broadcast.created never produces a second fan-out. The cost is
// that a crash mid-send drops the rest of that fan-out, which beats
// double-notifying every device.
func (service *ServicePush) HandleBroadcastCreated(ctx context.Context, event *models.LifecycleEvent) error {
	message, err := datastore.FindBroadcastByID(ctx, service.db, event.Subject)
	if errors.Is(err, sql.ErrNoRows) {
		return errorx.Wrap(fmt.Errorf("%w: %s", ErrBroadcastNotFound, event.Subject), errorx.NotExist)
	}
	if err != nil {
		return err
	}

	claimed, err := datastore.MarkEventProcessed(ctx, service.db, event.ID, event.Type)
	if err != nil {
		return err
	}
	if !claimed {
		log.Printf("event %s already processed, skipping", event.ID)
		return nil
	}

	if !message.PushEnabled {
		log.Printf("broadcast %s has push disabled, skipping fan-out", message.ID)
		return nil
	}

	result, err := service.DeliverBroadcast(ctx, message)
	if err != nil {
		return err
	}

	log.Printf("broadcast %s delivered: %d ok, %d failed", message.ID, result.SuccessCount, result.FailureCount)
	return nil
}

// DeliverBroadcast resolves the current token set and sends in batches. A
// failed batch marks its tokens failed and moves on; one bad batch must not
// sink the rest of the fan-out.
func (service *ServicePush) DeliverBroadcast(ctx context.Context, message *models.BroadcastMessage) (*models.BroadcastResult, error) {
	tokens, err := datastore.ListDeviceTokens(ctx, service.db)
	if err != nil {
		return nil, err
	}

	result := &models.BroadcastResult{FailedTokens: []models.DeliveryOutcome{}}
	if len(tokens) == 0 {
		log.Printf("broadcast %s: no registered device tokens", message.ID)
		return result, nil
	}

	title, body := buildNotification(message)
	data := map[string]string{"type": message.Kind}
	if message.Kind == models.BroadcastKindEvent {
		data["event_id"] = message.ID
	} else {
		data["notice_id"] = message.ID
	}

	for start := 0; start < len(tokens); start += PUSH_BATCH_SIZE {
		end := min(start+PUSH_BATCH_SIZE, len(tokens))
		batch := tokens[start:end]

		outcomes, err := service.gateway.SendMulticast(ctx, &models.PushMessage{
			Title:  title,
			Body:   body,
			Data:   data,
			Tokens: batch,
		})
		if err != nil {
			log.Printf("broadcast %s: batch of %d failed: %v", message.ID, len(batch), err)
			result.FailureCount += len(batch)
			for _, token := range batch {
				result.FailedTokens = append(result.FailedTokens, models.DeliveryOutcome{Token: token, ErrorKind: "unavailable"})
			}
			continue
		}

		for _, outcome := range outcomes {
			if outcome.Success {
				result.SuccessCount++
				continue
			}
			result.FailureCount++
			result.FailedTokens = append(result.FailedTokens, outcome)
		}
	}

	for _, failed := range result.FailedTokens {
		if failed.ErrorKind == "stale_token" {
			log.Printf("broadcast %s: stale device token %s", message.ID, failed.Token)
		}
	}
	return result, nil
}

func buildNotification(message *models.BroadcastMessage) (string, string) {
	title := message.Title
	if message.PushTitle != nil && *message.PushTitle != "" {
		title = *message.PushTitle
	}
	if message.Kind == models.BroadcastKindEvent {
		title = "🎉 " + title
	}

	body := truncateRunes(message.Content, 100)
	if message.PushMessage != nil && *message.PushMessage != "" {
		body = *message.PushMessage
	}
	return title, body
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
