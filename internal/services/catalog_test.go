package services

import (
	"context"
	"testing"

	"cinepoint/internal/models"
)

func newTestCatalog(t *testing.T) (*ServiceCatalog, *capturePublisher) {
	t.Helper()
	publisher := &capturePublisher{}
	return &ServiceCatalog{db: newTestDB(t), events: publisher}, publisher
}

func TestCompleteViewingPublishesEvent(t *testing.T) {
	ctx := context.Background()
	service, publisher := newTestCatalog(t)
	seedUser(t, service.db, "kakao:1", 0)

	viewing, err := service.CompleteViewing(ctx, "kakao:1", "m-77", "Oldboy")
	if err != nil {
		t.Fatalf("complete viewing: %v", err)
	}
	if viewing.ID == "" {
		t.Fatal("viewing has no id")
	}

	if len(publisher.events) != 1 {
		t.Fatalf("published %d events, want 1", len(publisher.events))
	}
	event := publisher.events[0]
	if event.Type != models.EventViewingCompleted || event.UserID != "kakao:1" || event.Subject != "Oldboy" {
		t.Fatalf("event = %+v", event)
	}
}

func TestCompleteViewingRequiresMovie(t *testing.T) {
	service, publisher := newTestCatalog(t)

	if _, err := service.CompleteViewing(context.Background(), "kakao:1", "", "x"); err == nil {
		t.Fatal("expected error for missing movie_id")
	}
	if len(publisher.events) != 0 {
		t.Fatal("invalid viewing published an event")
	}
}

func TestCreateReviewPublishesEvent(t *testing.T) {
	ctx := context.Background()
	service, publisher := newTestCatalog(t)
	seedUser(t, service.db, "naver:2", 0)

	review, err := service.CreateReview(ctx, "naver:2", "m-77", 5, "Masterpiece")
	if err != nil {
		t.Fatalf("create review: %v", err)
	}
	if review.Rating != 5 {
		t.Fatalf("rating = %d", review.Rating)
	}

	if len(publisher.events) != 1 || publisher.events[0].Type != models.EventReviewCreated {
		t.Fatalf("events = %+v", publisher.events)
	}
}

func TestCreateReviewValidatesRating(t *testing.T) {
	service, _ := newTestCatalog(t)

	for _, rating := range []int{0, 6, -1} {
		if _, err := service.CreateReview(context.Background(), "naver:2", "m-77", rating, ""); err == nil {
			t.Fatalf("rating %d accepted", rating)
		}
	}
}

func TestCreateBroadcastPublishesEvent(t *testing.T) {
	ctx := context.Background()
	publisher := &capturePublisher{}
	service := &ServiceBroadcast{db: newTestDB(t), events: publisher}

	message, err := service.CreateBroadcast(ctx, models.BroadcastKindEvent, "Double points", "This weekend only", true, nil, nil)
	if err != nil {
		t.Fatalf("create broadcast: %v", err)
	}

	if len(publisher.events) != 1 {
		t.Fatalf("published %d events, want 1", len(publisher.events))
	}
	event := publisher.events[0]
	if event.Type != models.EventBroadcastCreated || event.Subject != message.ID {
		t.Fatalf("event = %+v, want broadcast.created for %s", event, message.ID)
	}

	stored, err := service.FindBroadcastByID(ctx, message.ID)
	if err != nil {
		t.Fatalf("find broadcast: %v", err)
	}
	if !stored.PushEnabled || stored.Kind != models.BroadcastKindEvent {
		t.Fatalf("stored = %+v", stored)
	}
}

func TestCreateBroadcastValidatesKind(t *testing.T) {
	publisher := &capturePublisher{}
	service := &ServiceBroadcast{db: newTestDB(t), events: publisher}

	if _, err := service.CreateBroadcast(context.Background(), "promo", "t", "c", false, nil, nil); err == nil {
		t.Fatal("unknown kind accepted")
	}
	if _, err := service.CreateBroadcast(context.Background(), models.BroadcastKindNotice, "", "c", false, nil, nil); err == nil {
		t.Fatal("empty title accepted")
	}
}
