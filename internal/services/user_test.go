package services

import (
	"context"
	"errors"
	"testing"

	"cinepoint/internal/datastore"
)

func newTestUser(t *testing.T) *ServiceUser {
	t.Helper()
	return &ServiceUser{db: newTestDB(t), cache: newTestCache(t)}
}

func TestFindUserByID(t *testing.T) {
	ctx := context.Background()
	service := newTestUser(t)
	seedUser(t, service.db, "kakao:1", 42)

	user, err := service.FindUserByID(ctx, "kakao:1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if user.PointsBalance != 42 {
		t.Fatalf("balance = %d, want 42", user.PointsBalance)
	}

	// second lookup is served from cache
	again, err := service.FindUserByID(ctx, "kakao:1")
	if err != nil {
		t.Fatalf("cached find: %v", err)
	}
	if again.ID != user.ID {
		t.Fatalf("cached user = %+v", again)
	}
}

func TestFindUserByIDMissing(t *testing.T) {
	service := newTestUser(t)

	_, err := service.FindUserByID(context.Background(), "kakao:missing")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}
}

func TestRegisterDeviceToken(t *testing.T) {
	ctx := context.Background()
	service := newTestUser(t)
	seedUser(t, service.db, "kakao:1", 0)

	if err := service.RegisterDeviceToken(ctx, "kakao:1", "fcm-token-1"); err != nil {
		t.Fatalf("register: %v", err)
	}

	tokens, err := datastore.ListDeviceTokens(ctx, service.db)
	if err != nil {
		t.Fatalf("list tokens: %v", err)
	}
	if len(tokens) != 1 || tokens[0] != "fcm-token-1" {
		t.Fatalf("tokens = %v", tokens)
	}

	// empty token clears the registration
	if err := service.RegisterDeviceToken(ctx, "kakao:1", ""); err != nil {
		t.Fatalf("clear: %v", err)
	}
	tokens, err = datastore.ListDeviceTokens(ctx, service.db)
	if err != nil {
		t.Fatalf("list tokens: %v", err)
	}
	if len(tokens) != 0 {
		t.Fatalf("tokens = %v, want none", tokens)
	}
}

func TestRegisterDeviceTokenUnknownUser(t *testing.T) {
	service := newTestUser(t)

	err := service.RegisterDeviceToken(context.Background(), "kakao:missing", "fcm-token-1")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}
}
