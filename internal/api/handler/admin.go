package handler

import (
	"errors"

	"cinepoint/internal/models"
	"cinepoint/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

type groupAdmin struct {
	container *do.Injector
}

type broadcastPayload struct {
	Kind        string  `json:"kind"`
	Title       string  `json:"title"`
	Content     string  `json:"content"`
	PushEnabled bool    `json:"push_enabled"`
	PushTitle   *string `json:"push_title"`
	PushMessage *string `json:"push_message"`
}

func (gr *groupAdmin) CreateBroadcast(c echo.Context) error {
	ctx := c.Request().Context()

	var payload broadcastPayload
	if err := c.Bind(&payload); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Invalid))
	}

	serviceBroadcast, err := do.Invoke[*services.ServiceBroadcast](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	message, err := serviceBroadcast.CreateBroadcast(ctx, payload.Kind, payload.Title, payload.Content, payload.PushEnabled, payload.PushTitle, payload.PushMessage)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, message, nil)
}

type adjustPointsPayload struct {
	Delta       int    `json:"delta"`
	Description string `json:"description"`
}

// AdjustPoints is the manual correction path; it may drive a balance
// negative, unlike every user-facing mutation.
func (gr *groupAdmin) AdjustPoints(c echo.Context) error {
	ctx := c.Request().Context()

	userID := c.Param("id")
	if userID == "" {
		return httpx.RestAbort(c, nil, errorx.Wrap(errors.New("user id is required"), errorx.Invalid))
	}

	var payload adjustPointsPayload
	if err := c.Bind(&payload); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Invalid))
	}

	serviceLedger, err := do.Invoke[*services.ServiceLedger](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	reason := models.ReasonAdminAdd
	if payload.Delta < 0 {
		reason = models.ReasonAdminSub
	}

	balance, err := serviceLedger.ApplyDelta(ctx, userID, payload.Delta, reason, payload.Description, nil)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, map[string]interface{}{
		"balance": balance,
	}, nil)
}
