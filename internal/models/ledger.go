package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	ReasonSignup          = "signup"
	ReasonViewingComplete = "viewing_complete"
	ReasonReviewWrite     = "review_write"
	ReasonCheckIn         = "checkin"
	ReasonAdminAdd        = "admin_add"
	ReasonAdminSub        = "admin_sub"
)

// PointLedgerEntry is append-only; the running balance on the user row is
// derived from it and the two must stay consistent within one transaction.
type PointLedgerEntry struct {
	bun.BaseModel  `bun:"table:point_ledger_entry"`
	ID             int64     `bun:"id,pk,autoincrement" json:"id"`
	UserID         string    `bun:"user_id" json:"user_id"`
	Delta          int       `bun:"delta" json:"delta"`
	Reason         string    `bun:"reason" json:"reason"`
	Description    string    `bun:"description" json:"description"`
	RelatedEventID *string   `bun:"related_event_id" json:"related_event_id"`
	CreatedAt      time.Time `bun:"created_at,default:current_timestamp" json:"created_at"`
}

type CheckInResult struct {
	AlreadyDone bool `json:"already_done"`
	NewBalance  int  `json:"new_balance"`
	Points      int  `json:"points"`
}
