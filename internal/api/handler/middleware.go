package handler

import (
	"context"
	"errors"
	"strings"

	"cinepoint/internal/models"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
)

type ctxKey string

var ctxKeyAuthUser ctxKey = "AUTH_USER"

// Authn resolves the bearer token into the session user. It does NOT
// terminate unauthenticated requests; handlers that need a session go through
// ResolveAuthUser.
func Authn(verifier interface {
	Validate(token string) (*models.AuthUser, error)
},
) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return next(c)
			}

			parts := strings.Split(header, "Bearer")
			if len(parts) != 2 {
				return next(c)
			}

			token := strings.TrimSpace(parts[1])
			if len(token) == 0 {
				return next(c)
			}

			user, err := verifier.Validate(token)
			if err != nil {
				// client error, but no details leak
				//nolint:errcheck
				httpx.Abort(c, errorx.Wrap(errors.New("invalid access token"), errorx.Authn), -1)
				return nil
			}

			ctx := c.Request().Context()
			ctx = context.WithValue(ctx, ctxKeyAuthUser, user)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

func ResolveAuthUser(ctx context.Context) (*models.AuthUser, error) {
	user, ok := ctx.Value(ctxKeyAuthUser).(*models.AuthUser)
	if !ok {
		return nil, errorx.Wrap(errors.New("missing session"), errorx.Authn)
	}
	return user, nil
}

// AuthnAdmin gates the admin surface behind the static ops key.
func AuthnAdmin(apiKey string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("X-Api-Key")
			if apiKey == "" || header != apiKey {
				//nolint:errcheck
				httpx.Abort(c, errorx.Wrap(errors.New("unauthorized"), errorx.Authn), -1)
				return nil
			}
			return next(c)
		}
	}
}
