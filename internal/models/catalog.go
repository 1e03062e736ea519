package models

import (
	"time"

	"github.com/uptrace/bun"
)

// ViewingHistory rows are written when a playback session finishes; the create
// is what produces the viewing.completed lifecycle event.
type ViewingHistory struct {
	bun.BaseModel `bun:"table:viewing_history"`
	ID            string    `bun:"id,pk" json:"id"`
	UserID        string    `bun:"user_id" json:"user_id"`
	MovieID       string    `bun:"movie_id" json:"movie_id"`
	MovieTitle    string    `bun:"movie_title" json:"movie_title"`
	CreatedAt     time.Time `bun:"created_at,default:current_timestamp" json:"created_at"`
}

type Review struct {
	bun.BaseModel `bun:"table:review"`
	ID            string    `bun:"id,pk" json:"id"`
	UserID        string    `bun:"user_id" json:"user_id"`
	MovieID       string    `bun:"movie_id" json:"movie_id"`
	Rating        int       `bun:"rating" json:"rating"`
	Content       string    `bun:"content" json:"content"`
	CreatedAt     time.Time `bun:"created_at,default:current_timestamp" json:"created_at"`
}
