package main

import (
	"context"
	"database/sql"
	"log"
	"os"

	"cinepoint/internal/datastore"
	"cinepoint/internal/datastore/redis_store"

	"github.com/hiendaovinh/toolkit/pkg/db"
	"github.com/hiendaovinh/toolkit/pkg/env"
	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/urfave/cli/v2"
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
	app := &cli.App{
		Name: "migrate",
		Commands: []*cli.Command{
			commandMigration(),
			commandInitStream(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func commandMigration() *cli.Command {
	return &cli.Command{
		Name:  "tables",
		Usage: "create tables and indexes",
		Action: func(c *cli.Context) error {
			_, err := env.EnvsRequired("DB_DSN")
			if err != nil {
				return err
			}

			sqldb := sql.OpenDB(pgdriver.NewConnector(
				pgdriver.WithDSN(os.Getenv("DB_DSN")),
				pgdriver.WithPassword(os.Getenv("DB_PASSWORD")),
			))
			bunDB := bun.NewDB(sqldb, pgdialect.New())

			ctx := context.Background()
			migrations := []func(context.Context, *bun.DB) error{
				datastore.CreateTableUserAccount,
				datastore.CreateTablePointLedgerEntry,
				datastore.CreateTableCheckIn,
				datastore.CreateTableProcessedEvent,
				datastore.CreateTableBroadcastMessage,
				datastore.CreateTableViewingHistory,
				datastore.CreateTableReview,
			}
			for _, migration := range migrations {
				if err := migration(ctx, bunDB); err != nil {
					return err
				}
			}

			log.Println("tables ready")
			return nil
		},
	}
}

func commandInitStream() *cli.Command {
	return &cli.Command{
		Name:  "stream",
		Usage: "create the lifecycle stream consumer group",
		Action: func(c *cli.Context) error {
			redisDB, err := db.InitRedis(&db.RedisConfig{
				URL: os.Getenv("REDIS_STREAM"),
			})
			if err != nil {
				return err
			}

			if err := redis_store.EnsureGroup(context.Background(), redisDB); err != nil {
				return err
			}

			log.Printf("consumer group %s ready on %s", redis_store.GroupWorker, redis_store.StreamLifecycle)
			return nil
		},
	}
}
