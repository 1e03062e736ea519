package handler

import (
	"net/http"

	"cinepoint/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo-contrib/pprof"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/samber/do"
)

type Config struct {
	Container   *do.Injector
	Mode        string
	Origins     []string
	AdminAPIKey string
}

func New(cfg *Config) (http.Handler, error) {
	r := echo.New()
	r.Pre(middleware.RemoveTrailingSlash())
	if cfg.Mode == "debug" {
		r.Debug = true
		pprof.Register(r)
	}

	r.JSONSerializer = httpx.SegmentJSONSerializer{}
	r.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339}\t${method}\t${uri}\t${status}\t${latency_human}\n",
	}))
	r.Use(middleware.Recover())

	r.GET("", func(c echo.Context) error {
		return c.String(http.StatusOK, "🎬")
	})

	routesAPIv1 := r.Group("/api/v1")
	{
		authentication, err := do.Invoke[*services.Authentication](cfg.Container)
		if err != nil {
			return nil, err
		}
		cors := middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     cfg.Origins,
			AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
			AllowCredentials: true,
			MaxAge:           60 * 60,
		})

		routesAPIv1.Use(cors)
		routesAPIv1.Use(Authn(authentication)) // Authn will NOT terminate unauthenticated request.
		routesAPIv1.GET("", Hello)

		a := groupAuth{cfg.Container}
		routesAPIv1.POST("/auth/:provider/exchange", a.Exchange)

		routesAPIv1User := routesAPIv1.Group("/user")
		{
			u := groupUser{cfg.Container}
			routesAPIv1User.GET("/me", u.Me)
			routesAPIv1User.POST("/checkin", u.CheckIn)
			routesAPIv1User.GET("/points/history", u.PointHistory)
			routesAPIv1User.PUT("/device-token", u.RegisterDeviceToken)
		}

		ct := groupCatalog{cfg.Container}
		routesAPIv1.POST("/viewings", ct.CompleteViewing)
		routesAPIv1.POST("/reviews", ct.CreateReview)

		routesAPIv1Admin := routesAPIv1.Group("/admin")
		{
			routesAPIv1Admin.Use(AuthnAdmin(cfg.AdminAPIKey))
			ad := groupAdmin{cfg.Container}
			routesAPIv1Admin.POST("/broadcasts", ad.CreateBroadcast)
			routesAPIv1Admin.POST("/users/:id/points", ad.AdjustPoints)
		}
	}

	return r, nil
}

func Hello(c echo.Context) error {
	return httpx.RestAbort(c, "hello world", nil)
}
