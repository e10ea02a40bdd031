package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/whoabuu/task-manager/internal/auth"
	"github.com/whoabuu/task-manager/internal/config"
	"github.com/whoabuu/task-manager/internal/logutil"
	"github.com/whoabuu/task-manager/internal/store"
	"github.com/whoabuu/task-manager/internal/store/mongostore"
	"github.com/whoabuu/task-manager/internal/store/sqlstore"
)

// openStore は DATABASE_URL のスキームに応じてバックエンドを選びます。
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch {
	case mongostore.IsMongoURL(cfg.DatabaseURL):
		return mongostore.Open(ctx, cfg.DatabaseURL, cfg.MongoDatabase)
	case strings.HasPrefix(cfg.DatabaseURL, sqlstore.Scheme):
		return sqlstore.Open(cfg.DatabaseURL, logutil.GetOrDefault(ctx))
	default:
		return nil, fmt.Errorf("unsupported DATABASE_URL scheme: use mongodb://, mongodb+srv:// or %s", sqlstore.Scheme)
	}
}

func closeStore(ctx context.Context, st store.Store) {
	closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := st.Close(closeCtx); err != nil {
		log := logutil.GetOrDefault(ctx)
		log.Warn().Err(err).Msg("Failed to close store")
	}
}

// newLimiter は REDIS_URL が設定されていれば Redis、無ければメモリのログイン試行制限を返します。
func newLimiter(ctx context.Context, cfg *config.Config) (auth.AttemptLimiter, func(), error) {
	if cfg.RedisURL == "" {
		return auth.NewMemoryLimiter(), func() {}, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log := logutil.GetOrDefault(ctx)
	log.Info().Str("addr", opt.Addr).Msg("Login limiter uses redis")
	return auth.NewRedisLimiter(rdb), func() { _ = rdb.Close() }, nil
}
