package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"cinepoint/internal/events"
	"cinepoint/internal/interfaces"
	"cinepoint/internal/pkg/caching"
	"cinepoint/internal/pkg/limiter"
	"cinepoint/internal/services"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/hiendaovinh/toolkit/pkg/db"
	"github.com/hiendaovinh/toolkit/pkg/env"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/samber/do"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

func init() {
	// for development
	//nolint:errcheck
	godotenv.Load("../../.env")

	// for production
	//nolint:errcheck
	godotenv.Load("./.env")
}

func main() {
	vs, err := env.EnvsRequired(
		"DB_DSN",
		"FCM_SERVER_KEY",
	)
	if err != nil {
		log.Fatal(err)
	}

	container := NewContainer(vs)

	app := &cli.App{
		Name: "worker",
		Commands: []*cli.Command{
			commandConsume(container),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func commandConsume(container *do.Injector) *cli.Command {
	return &cli.Command{
		Name:  "consume",
		Usage: "consume the lifecycle event stream",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "reclaim-schedule",
				Value: "@every 1m",
				Usage: "cron schedule for the stale-delivery sweep",
			},
		},
		Action: func(c *cli.Context) error {
			consumer, err := do.Invoke[*events.Consumer](container)
			if err != nil {
				return err
			}

			reclaimer, err := do.Invoke[*events.Reclaimer](container)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errWg, errCtx := errgroup.WithContext(ctx)

			errWg.Go(func() error {
				err := consumer.Run(errCtx)
				if err == context.Canceled {
					return nil
				}
				return err
			})

			schedule := cron.New()
			_, err = schedule.AddFunc(c.String("reclaim-schedule"), func() {
				if err := reclaimer.Run(errCtx); err != nil {
					log.Printf("reclaim sweep failed: %v", err)
				}
			})
			if err != nil {
				return err
			}

			errWg.Go(func() error {
				schedule.Start()
				<-errCtx.Done()
				<-schedule.Stop().Done()
				return nil
			})

			return errWg.Wait()
		},
	}
}

func NewContainer(vs map[string]string) *do.Injector {
	injector := do.New()

	do.ProvideNamedValue(injector, "envs", vs)

	do.Provide(injector, func(i *do.Injector) (*bun.DB, error) {
		sqldb := sql.OpenDB(pgdriver.NewConnector(
			pgdriver.WithDSN(os.Getenv("DB_DSN")),
			pgdriver.WithPassword(os.Getenv("DB_PASSWORD")),
		))

		db := bun.NewDB(sqldb, pgdialect.New())
		return db, nil
	})

	do.ProvideNamed(injector, "redis-stream", func(i *do.Injector) (redis.UniversalClient, error) {
		return db.InitRedis(&db.RedisConfig{
			URL: os.Getenv("REDIS_STREAM"),
		})
	})

	do.ProvideNamed(injector, "redis-cache", func(i *do.Injector) (redis.UniversalClient, error) {
		return db.InitRedis(&db.RedisConfig{
			URL: os.Getenv("REDIS_CACHE"),
		})
	})

	do.ProvideNamed(injector, "redis-limiter", func(i *do.Injector) (redis.UniversalClient, error) {
		return db.InitRedis(&db.RedisConfig{
			URL: os.Getenv("REDIS_LIMITER"),
		})
	})

	do.ProvideNamed(injector, "redis-mutex", func(i *do.Injector) (redis.UniversalClient, error) {
		return db.InitRedis(&db.RedisConfig{
			URL: os.Getenv("REDIS_MUTEX"),
		})
	})

	do.Provide(injector, func(i *do.Injector) (caching.Cache, error) {
		dbRedis, err := do.InvokeNamed[redis.UniversalClient](i, "redis-cache")
		if err != nil {
			return nil, err
		}

		return caching.NewCacheRedis(dbRedis, false)
	})

	do.Provide(injector, func(i *do.Injector) (interfaces.Limiter, error) {
		dbRedis, err := do.InvokeNamed[redis.UniversalClient](i, "redis-limiter")
		if err != nil {
			return nil, err
		}

		return limiter.NewLimiter(dbRedis)
	})

	do.Provide(injector, func(i *do.Injector) (*redsync.Redsync, error) {
		dbRedis, err := do.InvokeNamed[redis.UniversalClient](i, "redis-mutex")
		if err != nil {
			return nil, err
		}

		pool := goredis.NewPool(dbRedis)
		rs := redsync.New(pool)
		return rs, nil
	})

	do.Provide(injector, func(i *do.Injector) (*services.Bot, error) {
		chatID, _ := strconv.ParseInt(os.Getenv("BOT_CHAT_ID"), 10, 64)
		return services.NewBot(os.Getenv("BOT_TOKEN"), chatID)
	})

	do.Provide(injector, func(i *do.Injector) (interfaces.PushGateway, error) {
		return services.NewFCMGateway(vs["FCM_SERVER_KEY"]), nil
	})

	do.Provide(injector, func(i *do.Injector) (interfaces.EventPublisher, error) {
		return services.NewServiceEvents(injector)
	})

	do.Provide(injector, func(i *do.Injector) (*services.ServiceLedger, error) {
		return services.NewServiceLedger(injector)
	})

	do.Provide(injector, func(i *do.Injector) (*services.ServicePush, error) {
		return services.NewServicePush(injector)
	})

	do.Provide(injector, func(i *do.Injector) (*events.Dispatcher, error) {
		return events.NewDispatcher(injector)
	})

	do.Provide(injector, func(i *do.Injector) (*events.Consumer, error) {
		return events.NewConsumer(injector)
	})

	do.Provide(injector, func(i *do.Injector) (*events.Reclaimer, error) {
		return events.NewReclaimer(injector)
	})

	return injector
}
