package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/psdwalk/internal/api"
	"github.com/samcharles93/psdwalk/internal/logger"
)

func serveCmd() *cli.Command {
	var (
		addr        string
		readTimeout time.Duration
		storeSize   int
		logLevel    string
		logFormat   string
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the document inspection REST API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8080",
				Destination: &addr,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
			&cli.IntFlag{
				Name:        "store-size",
				Usage:       "max simultaneously open documents",
				Value:       32,
				Destination: &storeSize,
			},
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error)",
				Value:       "info",
				Destination: &logLevel,
			},
			&cli.StringFlag{
				Name:        "log-format",
				Usage:       "log format (pretty, json)",
				Value:       "pretty",
				Destination: &logFormat,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyServeConfig(cmd, LoadConfig(), &addr, &storeSize, &logLevel, &logFormat)

			level := logger.ParseLevel(logLevel)
			var log logger.Logger
			if logFormat == "json" {
				log = logger.JSON(os.Stderr, level)
			} else {
				log = logger.Pretty(os.Stderr, level)
			}
			ctx = logger.WithContext(ctx, log)

			store := api.NewDocumentStore(storeSize)
			defer store.Close()

			server := api.NewServer(store)
			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			server.Register(e)

			log.Info("starting server", "address", addr, "store_size", storeSize)
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}
