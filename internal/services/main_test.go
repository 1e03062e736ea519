package services

import (
	"context"
	"database/sql"
	"testing"

	"cinepoint/internal/datastore"
	"cinepoint/internal/models"
	"cinepoint/internal/pkg/caching"

	"github.com/go-redis/redis_rate/v10"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// a single conn keeps the in-memory db alive and serializes access
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	migrations := []func(context.Context, *bun.DB) error{
		datastore.CreateTableUserAccount,
		datastore.CreateTablePointLedgerEntry,
		datastore.CreateTableCheckIn,
		datastore.CreateTableProcessedEvent,
		datastore.CreateTableBroadcastMessage,
		datastore.CreateTableViewingHistory,
		datastore.CreateTableReview,
	}
	for _, migration := range migrations {
		if err := migration(ctx, db); err != nil {
			t.Fatalf("migrate: %v", err)
		}
	}

	return db
}

func newTestCache(t *testing.T) caching.Cache {
	t.Helper()
	c, err := caching.NewCacheLocal()
	if err != nil {
		t.Fatalf("cache: %v", err)
	}
	return c
}

type allowAllLimiter struct{}

func (allowAllLimiter) Allow(ctx context.Context, key string, limit redis_rate.Limit) error {
	return nil
}

type capturePublisher struct {
	events []*models.LifecycleEvent
}

func (p *capturePublisher) PublishLifecycle(ctx context.Context, event *models.LifecycleEvent) error {
	p.events = append(p.events, event)
	return nil
}

func newTestLedger(t *testing.T) *ServiceLedger {
	t.Helper()
	return &ServiceLedger{
		db:      newTestDB(t),
		cache:   newTestCache(t),
		limiter: allowAllLimiter{},
	}
}

func seedUser(t *testing.T, db *bun.DB, id string, balance int) {
	t.Helper()

	user := &models.UserAccount{
		ID:            id,
		DisplayName:   "Test User",
		AuthProvider:  models.ProviderKakao,
		PointsBalance: balance,
	}
	if _, err := db.NewInsert().Model(user).Exec(context.Background()); err != nil {
		t.Fatalf("seed user %s: %v", id, err)
	}
}

func countLedgerEntries(t *testing.T, db *bun.DB, userID string) int {
	t.Helper()

	n, err := db.NewSelect().Model((*models.PointLedgerEntry)(nil)).Where("user_id = ?", userID).Count(context.Background())
	if err != nil {
		t.Fatalf("count ledger entries: %v", err)
	}
	return n
}
