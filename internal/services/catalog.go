package services

import (
	"context"
	"errors"
	"log"
	"time"

	"cinepoint/internal/datastore"
	"cinepoint/internal/interfaces"
	"cinepoint/internal/models"

	"github.com/google/uuid"
	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/samber/do"
	"github.com/uptrace/bun"
)

// ServiceCatalog records completed viewings and reviews and emits the
// lifecycle events that trigger point credits. The write and the event are
// separate steps; the worker-side processed guard absorbs any double publish.
type ServiceCatalog struct {
	container *do.Injector
	db        *bun.DB
	events    interfaces.EventPublisher
}

func NewServiceCatalog(container *do.Injector) (*ServiceCatalog, error) {
	db, err := do.Invoke[*bun.DB](container)
	if err != nil {
		return nil, err
	}

	events, err := do.Invoke[interfaces.EventPublisher](container)
	if err != nil {
		return nil, err
	}

	return &ServiceCatalog{container, db, events}, nil
}

func (service *ServiceCatalog) CompleteViewing(ctx context.Context, userID string, movieID string, movieTitle string) (*models.ViewingHistory, error) {
	if movieID == "" {
		return nil, errorx.Wrap(errors.New("movie_id is required"), errorx.Invalid)
	}

	viewing := &models.ViewingHistory{
		ID:         uuid.NewString(),
		UserID:     userID,
		MovieID:    movieID,
		MovieTitle: movieTitle,
		CreatedAt:  time.Now(),
	}
	if _, err := datastore.CreateViewingHistory(ctx, service.db, viewing); err != nil {
		return nil, err
	}

	event := models.NewLifecycleEvent(models.EventViewingCompleted, userID, movieTitle)
	if err := service.events.PublishLifecycle(ctx, event); err != nil {
		log.Printf("publish viewing.completed for %s failed: %v", viewing.ID, err)
	}
	return viewing, nil
}

func (service *ServiceCatalog) CreateReview(ctx context.Context, userID string, movieID string, rating int, content string) (*models.Review, error) {
	if movieID == "" {
		return nil, errorx.Wrap(errors.New("movie_id is required"), errorx.Invalid)
	}
	if rating < 1 || rating > 5 {
		return nil, errorx.Wrap(errors.New("rating must be between 1 and 5"), errorx.Invalid)
	}

	review := &models.Review{
		ID:        uuid.NewString(),
		UserID:    userID,
		MovieID:   movieID,
		Rating:    rating,
		Content:   content,
		CreatedAt: time.Now(),
	}
	if _, err := datastore.CreateReview(ctx, service.db, review); err != nil {
		return nil, err
	}

	event := models.NewLifecycleEvent(models.EventReviewCreated, userID, movieID)
	if err := service.events.PublishLifecycle(ctx, event); err != nil {
		log.Printf("publish review.created for %s failed: %v", review.ID, err)
	}
	return review, nil
}
