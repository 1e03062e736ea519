package models

import (
	"time"

	"github.com/uptrace/bun"
)

// CheckInRecord exists purely for the (user_id, day) uniqueness claim; the
// reward itself lands in the ledger.
type CheckInRecord struct {
	bun.BaseModel `bun:"table:check_in"`
	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	UserID        string    `bun:"user_id" json:"user_id"`
	Day           string    `bun:"day" json:"day"`
	CreatedAt     time.Time `bun:"created_at,default:current_timestamp" json:"created_at"`
}
