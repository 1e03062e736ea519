package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"cinepoint/internal/datastore"
	"cinepoint/internal/interfaces"
	"cinepoint/internal/models"
	"cinepoint/internal/pkg/caching"

	"github.com/go-redis/redis_rate/v10"
	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/limiter"
	"github.com/samber/do"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

// ServiceLedger owns every point mutation. All balance changes go through
// applyDeltaTx so the guarded increment and the ledger row commit or roll
// back together.
type ServiceLedger struct {
	container *do.Injector
	db        *bun.DB
	cache     caching.Cache
	limiter   interfaces.Limiter
}

func NewServiceLedger(container *do.Injector) (*ServiceLedger, error) {
	db, err := do.Invoke[*bun.DB](container)
	if err != nil {
		return nil, err
	}

	cache, err := do.Invoke[caching.Cache](container)
	if err != nil {
		return nil, err
	}

	rateLimiter, err := do.Invoke[interfaces.Limiter](container)
	if err != nil {
		return nil, err
	}

	return &ServiceLedger{container, db, cache, rateLimiter}, nil
}

// ApplyDelta credits or debits a user and records the ledger entry in the
// same transaction. Negative results are rejected unless the reason is an
// admin adjustment. Returns the balance after the write.
func (service *ServiceLedger) ApplyDelta(ctx context.Context, userID string, delta int, reason string, description string, relatedEventID *string) (int, error) {
	if delta == 0 {
		return 0, errorx.Wrap(errors.New("delta must be non-zero"), errorx.Invalid)
	}

	var newBalance int
	err := service.runInLedgerTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		balance, err := applyDeltaTx(ctx, tx, userID, delta, reason, description, relatedEventID)
		if err != nil {
			return err
		}
		newBalance = balance
		return nil
	})
	if err != nil {
		return 0, err
	}

	service.invalidateUser(ctx, userID)
	return newBalance, nil
}

// CheckIn claims the daily check-in for today (UTC) and credits the bonus.
// A repeat claim within the same day is reported, not rejected.
func (service *ServiceLedger) CheckIn(ctx context.Context, userID string) (*models.CheckInResult, error) {
	err := service.limiter.Allow(ctx, LimitKeyCheckIn(userID), redis_rate.PerMinute(CHECKIN_RATE_LIMIT_PER_MINUTE))
	if err != nil {
		if err.Error() == limiter.ErrRateLimited.Error() {
			return nil, errorx.Wrap(err, errorx.RateLimiting)
		}
		return nil, err
	}

	return service.checkIn(ctx, userID, time.Now().UTC().Format(CHECKIN_DAY_FORMAT))
}

func (service *ServiceLedger) checkIn(ctx context.Context, userID string, day string) (*models.CheckInResult, error) {
	var result models.CheckInResult
	err := service.runInLedgerTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		created, err := datastore.InsertCheckIn(ctx, tx, userID, day)
		if err != nil {
			return err
		}
		if !created {
			result = models.CheckInResult{AlreadyDone: true}
			return nil
		}

		balance, err := applyDeltaTx(ctx, tx, userID, POINTS_CHECKIN, models.ReasonCheckIn, "daily check-in", nil)
		if err != nil {
			return err
		}

		if err := datastore.SetLastCheckInDate(ctx, tx, userID, day); err != nil {
			return err
		}

		result = models.CheckInResult{NewBalance: balance, Points: POINTS_CHECKIN}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.AlreadyDone {
		service.invalidateUser(ctx, userID)
	}
	return &result, nil
}

// HandleLifecycleEvent credits the reward attached to a lifecycle event.
// The processed-event claim makes redelivery a no-op: the stream guarantees
// at-least-once, this guarantees at-most-one credit per event id.
func (service *ServiceLedger) HandleLifecycleEvent(ctx context.Context, event *models.LifecycleEvent) error {
	var delta int
	var reason string
	var description string
	switch event.Type {
	case models.EventUserCreated:
		delta, reason, description = POINTS_SIGNUP, models.ReasonSignup, "signup bonus"
	case models.EventViewingCompleted:
		delta, reason, description = POINTS_VIEWING_COMPLETE, models.ReasonViewingComplete, fmt.Sprintf("viewing complete: %s", event.Subject)
	case models.EventReviewCreated:
		delta, reason, description = POINTS_REVIEW_WRITE, models.ReasonReviewWrite, fmt.Sprintf("review: %s", event.Subject)
	default:
		return errorx.Wrap(fmt.Errorf("%w: %s", ErrUnknownEventType, event.Type), errorx.Invalid)
	}

	credited := false
	err := service.runInLedgerTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		claimed, err := datastore.MarkEventProcessed(ctx, tx, event.ID, event.Type)
		if err != nil {
			return err
		}
		if !claimed {
			log.Printf("event %s already processed, skipping", event.ID)
			return nil
		}

		if _, err := applyDeltaTx(ctx, tx, event.UserID, delta, reason, description, &event.ID); err != nil {
			return err
		}
		credited = true
		return nil
	})
	if err != nil {
		return err
	}

	if credited {
		service.invalidateUser(ctx, event.UserID)
	}
	return nil
}

func (service *ServiceLedger) GetPointHistory(ctx context.Context, userID string, page int, limit int) ([]*models.PointLedgerEntry, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return datastore.ListLedgerEntriesByUser(ctx, service.db, userID, limit, (page-1)*limit)
}

func (service *ServiceLedger) GetBalance(ctx context.Context, userID string) (int, error) {
	balance, err := datastore.GetBalance(ctx, service.db, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, errorx.Wrap(ErrUserNotFound, errorx.NotExist)
	}
	return balance, err
}

func (service *ServiceLedger) invalidateUser(ctx context.Context, userID string) {
	if err := service.cache.Delete(ctx, DBKeyUser(userID)); err != nil {
		log.Printf("cache invalidation failed for %s: %v", userID, err)
	}
}

// runInLedgerTx retries on serialization or deadlock aborts; any other error
// fails immediately.
func (service *ServiceLedger) runInLedgerTx(ctx context.Context, fn func(ctx context.Context, tx bun.Tx) error) error {
	var err error
	for attempt := 0; attempt < LEDGER_TX_ATTEMPTS; attempt++ {
		err = service.db.RunInTx(ctx, &sql.TxOptions{}, fn)
		if err == nil || !isRetryableTxError(err) {
			return err
		}
		time.Sleep(time.Duration(attempt+1) * 50 * time.Millisecond)
	}
	return errorx.Wrap(fmt.Errorf("ledger transaction kept aborting: %w", err), errorx.Service)
}

func isRetryableTxError(err error) bool {
	var pgErr pgdriver.Error
	if !errors.As(err, &pgErr) {
		return false
	}
	code := pgErr.Field('C')
	return code == "40001" || code == "40P01"
}

// applyDeltaTx is the single write path for balances. The guarded UPDATE
// refuses to take a non-admin balance below zero; zero rows then means
// either a missing user or an insufficient balance.
func applyDeltaTx(ctx context.Context, tx bun.IDB, userID string, delta int, reason string, description string, relatedEventID *string) (int, error) {
	allowNegative := reason == models.ReasonAdminAdd || reason == models.ReasonAdminSub

	ok, err := datastore.AdjustBalance(ctx, tx, userID, delta, allowNegative)
	if err != nil {
		return 0, err
	}
	if !ok {
		exists, err := datastore.CheckUserExists(ctx, tx, userID)
		if err != nil {
			return 0, err
		}
		if !exists {
			return 0, errorx.Wrap(ErrUserNotFound, errorx.NotExist)
		}
		return 0, errorx.Wrap(ErrInsufficientBalance, errorx.Invalid)
	}

	entry := &models.PointLedgerEntry{
		UserID:         userID,
		Delta:          delta,
		Reason:         reason,
		Description:    description,
		RelatedEventID: relatedEventID,
		CreatedAt:      time.Now(),
	}
	if err := datastore.InsertLedgerEntry(ctx, tx, entry); err != nil {
		return 0, err
	}

	return datastore.GetBalance(ctx, tx, userID)
}
