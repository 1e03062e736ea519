package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cinepoint/internal/datastore"
	"cinepoint/internal/models"

	"github.com/uptrace/bun"
)

type fakeGateway struct {
	batches   [][]string
	titles    []string
	staleFrom map[string]bool
	fail      bool
}

func (g *fakeGateway) SendMulticast(ctx context.Context, message *models.PushMessage) ([]models.DeliveryOutcome, error) {
	if g.fail {
		return nil, fmt.Errorf("gateway unreachable")
	}

	g.batches = append(g.batches, message.Tokens)
	g.titles = append(g.titles, message.Title)

	outcomes := make([]models.DeliveryOutcome, 0, len(message.Tokens))
	for _, token := range message.Tokens {
		if g.staleFrom[token] {
			outcomes = append(outcomes, models.DeliveryOutcome{Token: token, ErrorKind: "stale_token"})
			continue
		}
		outcomes = append(outcomes, models.DeliveryOutcome{Token: token, Success: true})
	}
	return outcomes, nil
}

func newTestPush(t *testing.T, gateway *fakeGateway) *ServicePush {
	t.Helper()
	return &ServicePush{
		db:      newTestDB(t),
		gateway: gateway,
	}
}

func seedUserWithToken(t *testing.T, db *bun.DB, id string, token string) {
	t.Helper()
	seedUser(t, db, id, 0)
	if _, err := datastore.SetDeviceToken(context.Background(), db, id, &token); err != nil {
		t.Fatalf("set device token: %v", err)
	}
}

func seedBroadcast(t *testing.T, db *bun.DB, message *models.BroadcastMessage) {
	t.Helper()
	if _, err := datastore.CreateBroadcast(context.Background(), db, message); err != nil {
		t.Fatalf("seed broadcast: %v", err)
	}
}

func TestDeliverBroadcastCountsOutcomes(t *testing.T) {
	ctx := context.Background()
	gateway := &fakeGateway{staleFrom: map[string]bool{"token-b": true}}
	service := newTestPush(t, gateway)

	seedUserWithToken(t, service.db, "kakao:1", "token-a")
	seedUserWithToken(t, service.db, "kakao:2", "token-b")
	seedUserWithToken(t, service.db, "kakao:3", "token-c")
	seedUser(t, service.db, "kakao:4", 0) // no device token

	message := &models.BroadcastMessage{ID: "b1", Kind: models.BroadcastKindNotice, Title: "Maintenance", Content: "Down at midnight"}
	result, err := service.DeliverBroadcast(ctx, message)
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}

	if result.SuccessCount != 2 || result.FailureCount != 1 {
		t.Fatalf("result = %d ok / %d failed, want 2/1", result.SuccessCount, result.FailureCount)
	}
	if len(result.FailedTokens) != 1 || result.FailedTokens[0].Token != "token-b" {
		t.Fatalf("failed tokens = %+v", result.FailedTokens)
	}
	if result.FailedTokens[0].ErrorKind != "stale_token" {
		t.Fatalf("error kind = %s", result.FailedTokens[0].ErrorKind)
	}
	if len(gateway.batches) != 1 || len(gateway.batches[0]) != 3 {
		t.Fatalf("batches = %+v, want one batch of 3", gateway.batches)
	}
	if gateway.titles[0] != "Maintenance" {
		t.Fatalf("title = %q, want %q", gateway.titles[0], "Maintenance")
	}
}

func TestDeliverBroadcastPartitionsBatches(t *testing.T) {
	ctx := context.Background()
	gateway := &fakeGateway{staleFrom: map[string]bool{"token-3": true, "token-501": true}}
	service := newTestPush(t, gateway)

	total := PUSH_BATCH_SIZE + 2
	for i := 0; i < total; i++ {
		seedUserWithToken(t, service.db, fmt.Sprintf("kakao:%d", i), fmt.Sprintf("token-%d", i))
	}

	message := &models.BroadcastMessage{ID: "b1", Kind: models.BroadcastKindNotice, Title: "Big one", Content: "hello"}
	result, err := service.DeliverBroadcast(ctx, message)
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}

	if len(gateway.batches) != 2 {
		t.Fatalf("gateway called %d times, want 2", len(gateway.batches))
	}
	if len(gateway.batches[0]) != PUSH_BATCH_SIZE || len(gateway.batches[1]) != 2 {
		t.Fatalf("batch sizes = %d/%d, want %d/2", len(gateway.batches[0]), len(gateway.batches[1]), PUSH_BATCH_SIZE)
	}

	seen := map[string]int{}
	for _, batch := range gateway.batches {
		for _, token := range batch {
			seen[token]++
		}
	}
	if len(seen) != total {
		t.Fatalf("gateway saw %d distinct tokens, want %d", len(seen), total)
	}
	for token, n := range seen {
		if n != 1 {
			t.Fatalf("token %s sent %d times", token, n)
		}
	}

	if result.SuccessCount != total-2 || result.FailureCount != 2 {
		t.Fatalf("result = %d ok / %d failed, want %d/2", result.SuccessCount, result.FailureCount, total-2)
	}
}

func TestDeliverBroadcastNoTargets(t *testing.T) {
	gateway := &fakeGateway{}
	service := newTestPush(t, gateway)
	seedUser(t, service.db, "kakao:1", 0)

	message := &models.BroadcastMessage{ID: "b1", Kind: models.BroadcastKindNotice, Title: "Hi"}
	result, err := service.DeliverBroadcast(context.Background(), message)
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if result.SuccessCount != 0 || result.FailureCount != 0 {
		t.Fatalf("result = %+v, want zeroes", result)
	}
	if len(gateway.batches) != 0 {
		t.Fatal("gateway was called with no targets")
	}
}

func TestDeliverBroadcastGatewayDown(t *testing.T) {
	gateway := &fakeGateway{fail: true}
	service := newTestPush(t, gateway)
	seedUserWithToken(t, service.db, "kakao:1", "token-a")

	message := &models.BroadcastMessage{ID: "b1", Kind: models.BroadcastKindNotice, Title: "Hi"}
	result, err := service.DeliverBroadcast(context.Background(), message)
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if result.FailureCount != 1 {
		t.Fatalf("failure count = %d, want 1", result.FailureCount)
	}
	if result.FailedTokens[0].ErrorKind != "unavailable" {
		t.Fatalf("error kind = %s", result.FailedTokens[0].ErrorKind)
	}
}

func TestHandleBroadcastCreatedOnlyOnce(t *testing.T) {
	ctx := context.Background()
	gateway := &fakeGateway{}
	service := newTestPush(t, gateway)
	seedUserWithToken(t, service.db, "kakao:1", "token-a")

	message := &models.BroadcastMessage{ID: "b1", Kind: models.BroadcastKindNotice, Title: "Hi", Content: "There", PushEnabled: true}
	seedBroadcast(t, service.db, message)

	event := models.NewLifecycleEvent(models.EventBroadcastCreated, "", "b1")
	if err := service.HandleBroadcastCreated(ctx, event); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if err := service.HandleBroadcastCreated(ctx, event); err != nil {
		t.Fatalf("redelivery: %v", err)
	}

	if len(gateway.batches) != 1 {
		t.Fatalf("gateway called %d times, want 1 (at most one fan-out)", len(gateway.batches))
	}
}

func TestHandleBroadcastCreatedPushDisabled(t *testing.T) {
	ctx := context.Background()
	gateway := &fakeGateway{}
	service := newTestPush(t, gateway)
	seedUserWithToken(t, service.db, "kakao:1", "token-a")

	message := &models.BroadcastMessage{ID: "b1", Kind: models.BroadcastKindNotice, Title: "Hi", PushEnabled: false}
	seedBroadcast(t, service.db, message)

	event := models.NewLifecycleEvent(models.EventBroadcastCreated, "", "b1")
	if err := service.HandleBroadcastCreated(ctx, event); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(gateway.batches) != 0 {
		t.Fatal("push-disabled broadcast was fanned out")
	}
}

func TestBuildNotification(t *testing.T) {
	long := strings.Repeat("가", 120)
	pushTitle := "Override"

	cases := []struct {
		name      string
		message   *models.BroadcastMessage
		wantTitle string
		wantBody  string
	}{
		{
			name:      "notice defaults",
			message:   &models.BroadcastMessage{Kind: models.BroadcastKindNotice, Title: "Maintenance", Content: "Down at midnight"},
			wantTitle: "Maintenance",
			wantBody:  "Down at midnight",
		},
		{
			name:      "event kind gets prefix",
			message:   &models.BroadcastMessage{Kind: models.BroadcastKindEvent, Title: "Double points", Content: "This weekend"},
			wantTitle: "🎉 Double points",
			wantBody:  "This weekend",
		},
		{
			name:      "push title override",
			message:   &models.BroadcastMessage{Kind: models.BroadcastKindNotice, Title: "Maintenance", Content: "x", PushTitle: &pushTitle},
			wantTitle: "Override",
			wantBody:  "x",
		},
		{
			name:      "long content truncated by runes",
			message:   &models.BroadcastMessage{Kind: models.BroadcastKindNotice, Title: "t", Content: long},
			wantTitle: "t",
			wantBody:  strings.Repeat("가", 100) + "...",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			title, body := buildNotification(tc.message)
			if title != tc.wantTitle {
				t.Fatalf("title = %q, want %q", title, tc.wantTitle)
			}
			if body != tc.wantBody {
				t.Fatalf("body = %q, want %q", body, tc.wantBody)
			}
		})
	}
}

func TestFCMGatewayClassifiesResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "key=test-server-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		var req struct {
			RegistrationIDs []string `json:"registration_ids"`
		}
		//nolint:errcheck
		json.NewDecoder(r.Body).Decode(&req)

		results := make([]map[string]string, 0, len(req.RegistrationIDs))
		for _, token := range req.RegistrationIDs {
			switch token {
			case "gone":
				results = append(results, map[string]string{"error": "NotRegistered"})
			case "mangled":
				results = append(results, map[string]string{"error": "InvalidRegistration"})
			default:
				results = append(results, map[string]string{"message_id": "m-" + token})
			}
		}

		w.Header().Set("Content-Type", "application/json")
		//nolint:errcheck
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": 1,
			"failure": 2,
			"results": results,
		})
	}))
	t.Cleanup(srv.Close)

	gateway := NewFCMGateway("test-server-key")
	gateway.baseURL = srv.URL

	outcomes, err := gateway.SendMulticast(context.Background(), &models.PushMessage{
		Title:  "t",
		Body:   "b",
		Tokens: []string{"ok", "gone", "mangled"},
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	if !outcomes[0].Success {
		t.Fatalf("outcome[0] = %+v, want success", outcomes[0])
	}
	if outcomes[1].Success || outcomes[1].ErrorKind != "stale_token" {
		t.Fatalf("outcome[1] = %+v, want stale_token", outcomes[1])
	}
	if outcomes[2].Success || outcomes[2].ErrorKind != "stale_token" {
		t.Fatalf("outcome[2] = %+v, want stale_token", outcomes[2])
	}
}
