package models

import (
	"time"

	"github.com/uptrace/bun"
)

type UserAccount struct {
	bun.BaseModel   `bun:"table:user_account"`
	ID              string     `bun:"id,pk" json:"id"`
	DisplayName     string     `bun:"display_name" json:"display_name"`
	Email           *string    `bun:"email" json:"email"`
	AvatarURL       *string    `bun:"avatar_url" json:"avatar_url"`
	AuthProvider    string     `bun:"auth_provider" json:"auth_provider"`
	PointsBalance   int        `bun:"points_balance,default:0" json:"points_balance"`
	DeviceToken     *string    `bun:"device_token" json:"-"`
	LastCheckInDate *string    `bun:"last_check_in_date" json:"last_check_in_date"`
	LastLoginAt     *time.Time `bun:"last_login_at" json:"last_login_at"`
	CreatedAt       time.Time  `bun:"created_at,default:current_timestamp" json:"created_at"`
	UpdatedAt       time.Time  `bun:"updated_at" json:"updated_at"`
}

// AuthUser only use in middleware
type AuthUser struct {
	ID       string `json:"id"`
	Provider string `json:"provider"`
}
