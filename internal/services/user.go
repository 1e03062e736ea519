package services

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"cinepoint/internal/datastore"
	"cinepoint/internal/models"
	"cinepoint/internal/pkg/caching"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/samber/do"
	"github.com/uptrace/bun"
)

type ServiceUser struct {
	container *do.Injector
	db        *bun.DB
	cache     caching.Cache
}

func NewServiceUser(container *do.Injector) (*ServiceUser, error) {
	db, err := do.Invoke[*bun.DB](container)
	if err != nil {
		return nil, err
	}

	cache, err := do.Invoke[caching.Cache](container)
	if err != nil {
		return nil, err
	}

	return &ServiceUser{container, db, cache}, nil
}

func (service *ServiceUser) FindUserByID(ctx context.Context, userID string) (*models.UserAccount, error) {
	user, err := caching.UseCache(ctx, service.cache, DBKeyUser(userID), CACHE_TTL_5_MINS, func() (*models.UserAccount, error) {
		return datastore.FindUserByID(ctx, service.db, userID)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errorx.Wrap(ErrUserNotFound, errorx.NotExist)
	}
	return user, err
}

// RegisterDeviceToken stores the push target for a user. An empty token
// clears it, which removes the user from broadcast fan-out.
func (service *ServiceUser) RegisterDeviceToken(ctx context.Context, userID string, token string) error {
	var value *string
	if token != "" {
		value = &token
	}

	found, err := datastore.SetDeviceToken(ctx, service.db, userID, value)
	if err != nil {
		return err
	}
	if !found {
		return errorx.Wrap(ErrUserNotFound, errorx.NotExist)
	}

	if err := service.cache.Delete(ctx, DBKeyUser(userID)); err != nil {
		log.Printf("cache invalidation failed for %s: %v", userID, err)
	}
	return nil
}
