package handler

import (
	"strconv"

	"cinepoint/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

type groupUser struct {
	container *do.Injector
}

func (gr *groupUser) Me(c echo.Context) error {
	ctx := c.Request().Context()

	authUser, err := ResolveAuthUser(ctx)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	serviceUser, err := do.Invoke[*services.ServiceUser](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	user, err := serviceUser.FindUserByID(ctx, authUser.ID)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, user, nil)
}

func (gr *groupUser) CheckIn(c echo.Context) error {
	ctx := c.Request().Context()

	authUser, err := ResolveAuthUser(ctx)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	serviceLedger, err := do.Invoke[*services.ServiceLedger](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	result, err := serviceLedger.CheckIn(ctx, authUser.ID)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	// a repeat check-in is a result, not an error
	if result.AlreadyDone {
		return httpx.RestAbort(c, map[string]interface{}{
			"success": false,
			"message": "already checked in today",
		}, nil)
	}

	return httpx.RestAbort(c, map[string]interface{}{
		"success":     true,
		"points":      result.Points,
		"new_balance": result.NewBalance,
	}, nil)
}

func (gr *groupUser) PointHistory(c echo.Context) error {
	ctx := c.Request().Context()

	authUser, err := ResolveAuthUser(ctx)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	serviceLedger, err := do.Invoke[*services.ServiceLedger](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	entries, err := serviceLedger.GetPointHistory(ctx, authUser.ID, page, limit)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	balance, err := serviceLedger.GetBalance(ctx, authUser.ID)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, map[string]interface{}{
		"balance": balance,
		"entries": entries,
	}, nil)
}

type deviceTokenPayload struct {
	DeviceToken string `json:"device_token"`
}

func (gr *groupUser) RegisterDeviceToken(c echo.Context) error {
	ctx := c.Request().Context()

	authUser, err := ResolveAuthUser(ctx)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	var payload deviceTokenPayload
	if err := c.Bind(&payload); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Invalid))
	}

	serviceUser, err := do.Invoke[*services.ServiceUser](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	if err := serviceUser.RegisterDeviceToken(ctx, authUser.ID, payload.DeviceToken); err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, "success", nil)
}
