package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"cinepoint/internal/models"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
)

type fcmMulticastRequest struct {
	RegistrationIDs []string          `json:"registration_ids"`
	Notification    fcmNotification   `json:"notification"`
	Data            map[string]string `json:"data,omitempty"`
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type fcmMulticastResponse struct {
	Success int `json:"success"`
	Failure int `json:"failure"`
	Results []struct {
		MessageID string `json:"message_id"`
		Error     string `json:"error"`
	} `json:"results"`
}

// FCMGateway talks to the legacy FCM multicast endpoint. One request covers
// one batch of registration ids; results come back positionally.
type FCMGateway struct {
	*ServiceHTTP
	serverKey string
	baseURL   string
}

func NewFCMGateway(serverKey string) *FCMGateway {
	return &FCMGateway{&ServiceHTTP{}, serverKey, FCM_API_BASE_URL}
}

func (gateway *FCMGateway) SendMulticast(ctx context.Context, message *models.PushMessage) ([]models.DeliveryOutcome, error) {
	payload, err := json.Marshal(fcmMulticastRequest{
		RegistrationIDs: message.Tokens,
		Notification:    fcmNotification{Title: message.Title, Body: message.Body},
		Data:            message.Data,
	})
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Other)
	}

	headers := http.Header{}
	headers.Set("Authorization", "key="+gateway.serverKey)
	headers.Set("Content-Type", "application/json")

	resp, err := gateway.httpClient(2).Post(gateway.baseURL+"/fcm/send", bytes.NewReader(payload), headers)
	if err != nil {
		return nil, errorx.Wrap(fmt.Errorf("fcm send: %w", err), errorx.Service)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errorx.Wrap(fmt.Errorf("fcm responded %d", resp.StatusCode), errorx.Service)
	}

	var body fcmMulticastResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, errorx.Wrap(fmt.Errorf("fcm response decode: %w", err), errorx.Other)
	}
	if len(body.Results) != len(message.Tokens) {
		return nil, errorx.Wrap(fmt.Errorf("fcm returned %d results for %d tokens", len(body.Results), len(message.Tokens)), errorx.Other)
	}

	outcomes := make([]models.DeliveryOutcome, 0, len(message.Tokens))
	for i, res := range body.Results {
		outcome := models.DeliveryOutcome{Token: message.Tokens[i], Success: res.Error == ""}
		if !outcome.Success {
			outcome.ErrorKind = classifyFCMError(res.Error)
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

// NotRegistered and InvalidRegistration mean the token will never work again;
// callers can drop it instead of retrying.
func classifyFCMError(code string) string {
	switch code {
	case "NotRegistered", "InvalidRegistration":
		return "stale_token"
	default:
		return "send_failed"
	}
}
