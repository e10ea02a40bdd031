// Package main はAPIサーバーのエントリーポイントです。
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/whoabuu/task-manager/internal/config"
	"github.com/whoabuu/task-manager/internal/httpserver"
	"github.com/whoabuu/task-manager/internal/logutil"
)

func main() {
	app := &cli.App{
		Name:   "task-manager",
		Usage:  "Task manager API server",
		Action: serveAction,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the HTTP API server",
				Action: serveAction,
			},
			{
				Name:   "migrate",
				Usage:  "Create indexes and tables, then exit",
				Action: migrateAction,
			},
		},
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Error().Err(err).Msg("Application failed")
		cancel()
		os.Exit(1)
	}
}

// bootstrap は設定を読み込み、ロガーを組み込んだコンテキストを返します。
func bootstrap(ctx context.Context) (*config.Config, context.Context, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, ctx, err
	}
	logger := logutil.New(cfg.LogLevel, cfg.GinMode)
	log.Logger = logger
	return cfg, logutil.WithLogger(ctx, logger), nil
}

func serveAction(appCtx *cli.Context) error {
	cfg, ctx, err := bootstrap(appCtx.Context)
	if err != nil {
		return err
	}
	logger := logutil.GetOrDefault(ctx)

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore(ctx, st)

	if err := st.Migrate(ctx); err != nil {
		return err
	}

	limiter, closeLimiter, err := newLimiter(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeLimiter()

	router, err := newRouter(cfg, st, limiter, logger)
	if err != nil {
		return err
	}

	addr := ":" + cfg.Port
	logger.Info().Str("addr", addr).Str("mode", cfg.GinMode).Msg("Starting API server")
	return httpserver.Serve(ctx, addr, router)
}

func migrateAction(appCtx *cli.Context) error {
	cfg, ctx, err := bootstrap(appCtx.Context)
	if err != nil {
		return err
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore(ctx, st)

	if err := st.Migrate(ctx); err != nil {
		return err
	}
	logger := logutil.GetOrDefault(ctx)
	logger.Info().Msg("Migration completed")
	return nil
}
