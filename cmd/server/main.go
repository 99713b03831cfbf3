package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"runtime/debug"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/coursecraft/platform/internal/server"
	"github.com/coursecraft/platform/pkg/application"
	"github.com/coursecraft/platform/pkg/configuration"
	"github.com/coursecraft/platform/pkg/eventbus"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			configuration.Use().Unload()
			log.Println(r)
			debug.PrintStack()
			os.Exit(1)
		}
	}()

	root := &cobra.Command{
		Use:           "platform",
		Short:         "CourseCraft intake platform server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), migrateCmd())

	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf := configuration.Use()
			logger := conf.Logger()

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()
			pool, err := pgxpool.New(ctx, conf.Database.Opts)
			if err != nil {
				return err
			}
			defer pool.Close()

			app := application.New(pool, eventbus.NewEventPublisher(logger), logger)
			srv, err := server.Default(&server.DefaultOptions{
				Logger:        logger,
				Configuration: conf,
				Application:   app,
				Pool:          pool,
			})
			if err != nil {
				return err
			}

			logger.WithField("address", conf.SocketAddress).Info("starting server")
			return srv.Start(conf.SocketAddress)
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf := configuration.Use()

			db, err := sql.Open("pgx", conf.Database.Opts)
			if err != nil {
				return err
			}
			defer func() {
				if err := db.Close(); err != nil {
					conf.Logger().WithError(err).Error("closing migration connection")
				}
			}()

			if err := goose.SetDialect("postgres"); err != nil {
				return err
			}
			return goose.UpContext(cmd.Context(), db, conf.MigrationsDir)
		},
	}
}
