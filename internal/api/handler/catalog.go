package handler

import (
	"cinepoint/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

type groupCatalog struct {
	container *do.Injector
}

type viewingPayload struct {
	MovieID    string `json:"movie_id"`
	MovieTitle string `json:"movie_title"`
}

func (gr *groupCatalog) CompleteViewing(c echo.Context) error {
	ctx := c.Request().Context()

	authUser, err := ResolveAuthUser(ctx)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	var payload viewingPayload
	if err := c.Bind(&payload); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Invalid))
	}

	serviceCatalog, err := do.Invoke[*services.ServiceCatalog](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	viewing, err := serviceCatalog.CompleteViewing(ctx, authUser.ID, payload.MovieID, payload.MovieTitle)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, viewing, nil)
}

type reviewPayload struct {
	MovieID string `json:"movie_id"`
	Rating  int    `json:"rating"`
	Content string `json:"content"`
}

func (gr *groupCatalog) CreateReview(c echo.Context) error {
	ctx := c.Request().Context()

	authUser, err := ResolveAuthUser(ctx)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	var payload reviewPayload
	if err := c.Bind(&payload); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Invalid))
	}

	serviceCatalog, err := do.Invoke[*services.ServiceCatalog](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	review, err := serviceCatalog.CreateReview(ctx, authUser.ID, payload.MovieID, payload.Rating, payload.Content)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, review, nil)
}
