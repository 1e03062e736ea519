package handler

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cinepoint/internal/datastore"
	"cinepoint/internal/interfaces"
	"cinepoint/internal/models"
	"cinepoint/internal/pkg/caching"
	"cinepoint/internal/services"

	"github.com/go-redis/redis_rate/v10"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type allowAllLimiter struct{}

func (allowAllLimiter) Allow(ctx context.Context, key string, limit redis_rate.Limit) error {
	return nil
}

func newTestContainer(t *testing.T) (*do.Injector, *bun.DB) {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	migrations := []func(context.Context, *bun.DB) error{
		datastore.CreateTableUserAccount,
		datastore.CreateTablePointLedgerEntry,
		datastore.CreateTableCheckIn,
		datastore.CreateTableProcessedEvent,
	}
	for _, migration := range migrations {
		if err := migration(ctx, db); err != nil {
			t.Fatalf("migrate: %v", err)
		}
	}

	injector := do.New()
	do.ProvideValue(injector, db)
	do.Provide(injector, func(i *do.Injector) (caching.Cache, error) {
		return caching.NewCacheLocal()
	})
	do.Provide(injector, func(i *do.Injector) (interfaces.Limiter, error) {
		return allowAllLimiter{}, nil
	})
	do.Provide(injector, func(i *do.Injector) (*services.ServiceLedger, error) {
		return services.NewServiceLedger(i)
	})

	return injector, db
}

func newAuthedContext(t *testing.T, userID string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/user/checkin", nil)
	ctx := context.WithValue(req.Context(), ctxKeyAuthUser, &models.AuthUser{ID: userID, Provider: models.ProviderKakao})
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestCheckInResponseShape(t *testing.T) {
	injector, db := newTestContainer(t)

	user := &models.UserAccount{ID: "kakao:1", DisplayName: "Test User", AuthProvider: models.ProviderKakao}
	if _, err := db.NewInsert().Model(user).Exec(context.Background()); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	gr := &groupUser{container: injector}

	c, rec := newAuthedContext(t, "kakao:1")
	if err := gr.CheckIn(c); err != nil {
		t.Fatalf("check-in: %v", err)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"success":true`) {
		t.Fatalf("first check-in body = %s, want success true", body)
	}
	if !strings.Contains(body, `"points":10`) {
		t.Fatalf("first check-in body = %s, want points", body)
	}

	c, rec = newAuthedContext(t, "kakao:1")
	if err := gr.CheckIn(c); err != nil {
		t.Fatalf("repeat check-in: %v", err)
	}
	body = rec.Body.String()
	if !strings.Contains(body, `"success":false`) {
		t.Fatalf("repeat check-in body = %s, want success false", body)
	}
	if !strings.Contains(body, "already checked in today") {
		t.Fatalf("repeat check-in body = %s, want message", body)
	}
}
