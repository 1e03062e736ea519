package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	BroadcastKindNotice = "notice"
	BroadcastKindEvent  = "event"
)

type BroadcastMessage struct {
	bun.BaseModel `bun:"table:broadcast_message"`
	ID            string    `bun:"id,pk" json:"id"`
	Kind          string    `bun:"kind" json:"kind"`
	Title         string    `bun:"title" json:"title"`
	Content       string    `bun:"content" json:"content"`
	PushEnabled   bool      `bun:"push_enabled" json:"push_enabled"`
	PushTitle     *string   `bun:"push_title" json:"push_title"`
	PushMessage   *string   `bun:"push_message" json:"push_message"`
	CreatedAt     time.Time `bun:"created_at,default:current_timestamp" json:"created_at"`
}

// PushMessage is one multicast call to the push gateway.
type PushMessage struct {
	Title  string            `json:"title"`
	Body   string            `json:"body"`
	Data   map[string]string `json:"data"`
	Tokens []string          `json:"tokens"`
}

// DeliveryOutcome is per-token, logged not stored.
type DeliveryOutcome struct {
	Token     string `json:"token"`
	Success   bool   `json:"success"`
	ErrorKind string `json:"error_kind,omitempty"`
}

type BroadcastResult struct {
	SuccessCount int               `json:"success_count"`
	FailureCount int               `json:"failure_count"`
	FailedTokens []DeliveryOutcome `json:"failed_tokens"`
}
