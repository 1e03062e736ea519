package services

import (
	"errors"
	"fmt"
	"time"
)

var ErrUserNotFound = errors.New("user not found")
var ErrInsufficientBalance = errors.New("insufficient point balance")
var ErrMissingAccessToken = errors.New("access token is required")
var ErrUnknownProvider = errors.New("unknown auth provider")
var ErrInvalidProviderToken = errors.New("provider rejected access token")
var ErrMalformedProfile = errors.New("malformed provider profile")
var ErrUnknownEventType = errors.New("unknown lifecycle event type")
var ErrBroadcastNotFound = errors.New("broadcast not found")

const (
	POINTS_SIGNUP           = 100
	POINTS_VIEWING_COMPLETE = 10
	POINTS_REVIEW_WRITE     = 5
	POINTS_CHECKIN          = 10

	PUSH_BATCH_SIZE = 500

	LEDGER_TX_ATTEMPTS = 3

	EXCHANGE_RATE_LIMIT_PER_MINUTE = 30
	CHECKIN_RATE_LIMIT_PER_MINUTE  = 10

	CACHE_TTL_1_MIN  = 1 * time.Minute
	CACHE_TTL_5_MINS = 5 * time.Minute
	CACHE_TTL_1_HOUR = 1 * time.Hour

	KAKAO_API_BASE_URL = "https://kapi.kakao.com"
	NAVER_API_BASE_URL = "https://openapi.naver.com"
	FCM_API_BASE_URL   = "https://fcm.googleapis.com"

	CHECKIN_DAY_FORMAT = "2006-01-02"
)

func DBKeyUser(userID string) string {
	return fmt.Sprintf("user:%s", userID)
}

func DBKeyPointHistory(userID string, page int, limit int) string {
	return fmt.Sprintf("point_history:%s:%d:%d", userID, page, limit)
}

func LockKeyStreamReclaim() string {
	return "lock:stream-reclaim"
}

func LimitKeyExchange(remoteIP string) string {
	return fmt.Sprintf("limit:exchange:%s", remoteIP)
}

func LimitKeyCheckIn(userID string) string {
	return fmt.Sprintf("limit:checkin:%s", userID)
}
