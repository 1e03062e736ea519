package handler

import (
	"cinepoint/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

type groupAuth struct {
	container *do.Injector
}

type exchangePayload struct {
	AccessToken string `json:"access_token"`
}

// Exchange trades a Kakao/Naver access token for a local custom token.
func (gr *groupAuth) Exchange(c echo.Context) error {
	ctx := c.Request().Context()

	var payload exchangePayload
	if err := c.Bind(&payload); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Invalid))
	}

	serviceIdentity, err := do.Invoke[*services.ServiceIdentity](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	provider := c.Param("provider")
	token, err := serviceIdentity.ExchangeExternalToken(ctx, provider, payload.AccessToken, c.RealIP())
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, map[string]interface{}{
		"token": token,
	}, nil)
}
