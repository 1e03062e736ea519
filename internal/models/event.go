package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const (
	EventUserCreated      = "user.created"
	EventViewingCompleted = "viewing.completed"
	EventReviewCreated    = "review.created"
	EventBroadcastCreated = "broadcast.created"
)

// LifecycleEvent is the envelope delivered through the stream. Delivery is
// at-least-once; the stable ID is what handlers key their processed markers on.
type LifecycleEvent struct {
	ID         string    `msgpack:"id" json:"id"`
	Type       string    `msgpack:"type" json:"type"`
	UserID     string    `msgpack:"user_id" json:"user_id"`
	Subject    string    `msgpack:"subject" json:"subject"`
	OccurredAt time.Time `msgpack:"occurred_at" json:"occurred_at"`
}

func NewLifecycleEvent(eventType string, userID string, subject string) *LifecycleEvent {
	return &LifecycleEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		UserID:     userID,
		Subject:    subject,
		OccurredAt: time.Now(),
	}
}

// ProcessedEvent marks a source event as consumed. The primary key makes the
// conflict-insert the redelivery guard.
type ProcessedEvent struct {
	bun.BaseModel `bun:"table:processed_event"`
	EventID       string    `bun:"event_id,pk" json:"event_id"`
	EventType     string    `bun:"event_type" json:"event_type"`
	ProcessedAt   time.Time `bun:"processed_at,default:current_timestamp" json:"processed_at"`
}
