package services

import (
	"context"
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
)

// ServiceIdentity bridges external OAuth identities (Kakao, Naver) onto local
// accounts: verify the provider access token, upsert the account keyed by the
// canonical local id, then mint the local custom token.
type ServiceIdentity struct {
	*ServiceHTTP
	container      *do.Injector
	db             *bun.DB
	cache          caching.Cache
	authentication *Authentication
	events         interfaces.EventPublisher
	limiter        interfaces.Limiter

	kakaoBaseURL string
	naverBaseURL string
}

func NewServiceIdentity(container *do.Injector) (*ServiceIdentity, error) {
	db, err := do.Invoke[*bun.DB](container)
	if err != nil {
		return nil, err
	}

	cache, err := do.Invoke[caching.Cache](container)
	if err != nil {
		return nil, err
	}

	authentication, err := do.Invoke[*Authentication](container)
	if err != nil {
		return nil, err
	}

	events, err := do.Invoke[interfaces.EventPublisher](container)
	if err != nil {
		return nil, err
	}

	rateLimiter, err := do.Invoke[interfaces.Limiter](container)
	if err != nil {
		return nil, err
	}

	return &ServiceIdentity{
		ServiceHTTP:    &ServiceHTTP{},
		container:      container,
		db:             db,
		cache:          cache,
		authentication: authentication,
		events:         events,
		limiter:        rateLimiter,
		kakaoBaseURL:   KAKAO_API_BASE_URL,
		naverBaseURL:   NAVER_API_BASE_URL,
	}, nil
}

// ExchangeExternalToken verifies a provider access token and returns a local
// custom token. First contact creates the account and emits user.created; a
// returning user gets a profile merge and a login stamp.
func (service *ServiceIdentity) ExchangeExternalToken(ctx context.Context, provider string, accessToken string, remoteIP string) (string, error) {
	if accessToken == "" {
		return "", errorx.Wrap(ErrMissingAccessToken, errorx.Invalid)
	}

	err := service.limiter.Allow(ctx, LimitKeyExchange(remoteIP), redis_rate.PerMinute(EXCHANGE_RATE_LIMIT_PER_MINUTE))
	if err != nil {
		if err.Error() == limiter.ErrRateLimited.Error() {
			return "", errorx.Wrap(err, errorx.RateLimiting)
		}
		return "", err
	}

	identity, err := service.fetchProfile(ctx, provider, accessToken)
	if err != nil {
		return "", err
	}

	localID := identity.LocalID()
	created, err := service.upsertUser(ctx, identity)
	if err != nil {
		return "", err
	}

	if created {
		event := models.NewLifecycleEvent(models.EventUserCreated, localID, identity.DisplayName)
		if err := service.events.PublishLifecycle(ctx, event); err != nil {
			// The account exists either way; the worker reclaim path cannot
			// recover an unpublished event, so flag it loudly.
			log.Printf("publish user.created for %s failed: %v", localID, err)
		}
	}

	token, err := service.authentication.CreateCustomToken(localID, provider)
	if err != nil {
		return "", errorx.Wrap(err, errorx.Service)
	}
	return token, nil
}

func (service *ServiceIdentity) fetchProfile(ctx context.Context, provider string, accessToken string) (*models.ExternalIdentity, error) {
	switch provider {
	case models.ProviderKakao:
		return service.fetchKakaoProfile(ctx, accessToken)
	case models.ProviderNaver:
		return service.fetchNaverProfile(ctx, accessToken)
	default:
		return nil, errorx.Wrap(ErrUnknownProvider, errorx.Invalid)
	}
}

func (service *ServiceIdentity) upsertUser(ctx context.Context, identity *models.ExternalIdentity) (bool, error) {
	now := time.Now()
	user := &models.UserAccount{
		ID:           identity.LocalID(),
		DisplayName:  identity.DisplayName,
		AuthProvider: identity.Provider,
		Email:        nullable(identity.Email),
		AvatarURL:    nullable(identity.AvatarURL),
		LastLoginAt:  &now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := datastore.InsertUserIfAbsent(ctx, service.db, user)
	if err != nil {
		return false, err
	}
	if !created {
		if err := datastore.MergeUserProfile(ctx, service.db, user); err != nil {
			return false, err
		}
	}

	if err := service.cache.Delete(ctx, DBKeyUser(user.ID)); err != nil {
		log.Printf("cache invalidation failed for %s: %v", user.ID, err)
	}
	return created, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
