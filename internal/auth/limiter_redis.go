package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	attemptKeyPrefix = "login:attempts:"
	lockKeyPrefix    = "login:lock:"
)

// RedisLimiter は試行回数とロックを Redis に保存します。複数インスタンスで状態を共有できます。
type RedisLimiter struct {
	rdb *redis.Client
}

// NewRedisLimiter は RedisLimiter を作成します。
func NewRedisLimiter(rdb *redis.Client) *RedisLimiter {
	return &RedisLimiter{rdb: rdb}
}

func (r *RedisLimiter) Check(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := r.rdb.PTTL(ctx, lockKeyPrefix+key).Result()
	if err != nil {
		return 0, err
	}
	// キーが無い場合は -2、期限なしは -1 が返る
	if ttl <= 0 {
		return 0, nil
	}
	return ttl, nil
}

func (r *RedisLimiter) Fail(ctx context.Context, key string) (int, error) {
	attemptKey := attemptKeyPrefix + key
	// INCR と期限設定は同じトランザクションで送り、期限のないカウンターを残さない
	pipe := r.rdb.TxPipeline()
	incr := pipe.Incr(ctx, attemptKey)
	pipe.ExpireNX(ctx, attemptKey, loginWindow)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	count := incr.Val()

	if count >= int64(maxLoginAttempts) {
		lock := r.rdb.TxPipeline()
		lock.Set(ctx, lockKeyPrefix+key, 1, lockDuration)
		lock.Del(ctx, attemptKey)
		if _, err := lock.Exec(ctx); err != nil {
			return 0, err
		}
		return 0, nil
	}
	return maxLoginAttempts - int(count), nil
}

func (r *RedisLimiter) Reset(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, attemptKeyPrefix+key, lockKeyPrefix+key).Err()
}
