package repo

import (
	"Next_Express/config"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var Redis *redis.Client

// ErrLockBusy is returned when another holder owns the lock.
var ErrLockBusy = errors.New("lock is busy")

type RedisLock struct {
	rdb   *redis.Client
	key   string
	token string
	ttl   time.Duration
}

// InitRedis initializes the Redis client.
func InitRedis(ctx context.Context, logger *zap.Logger) error {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", config.AppConfig.RedisHost, config.AppConfig.RedisPort),
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("ping redis: %w", err)
	}
	logger.Info("init redis success", zap.String("addr", client.Options().Addr))
	Redis = client
	return nil
}

// NewRedisLock creates a Redis lock helper.
func NewRedisLock(rdb *redis.Client, key string, ttl time.Duration) *RedisLock {
	return &RedisLock{
		rdb: rdb,
		key: key,
		ttl: ttl,
	}
}

// Lock acquires a Redis-based lock.
func (l *RedisLock) Lock(ctx context.Context) error {
	token := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrLockBusy
	}
	l.token = token
	return nil
}

var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Unlock releases a Redis-based lock held by this instance only.
func (l *RedisLock) Unlock(ctx context.Context) error {
	if l.token == "" {
		return nil
	}
	_, err := unlockScript.Run(
		ctx,
		l.rdb,
		[]string{l.key},
		l.token,
	).Result()
	l.token = ""
	return err
}

// EmailGuard serializes writes that claim the same email address across
// processes. The check-then-write on the key-value store is not atomic; the
// reservation narrows that window for writers sharing this Redis.
type EmailGuard struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

func NewEmailGuard(rdb *redis.Client, namespace string, ttl time.Duration) *EmailGuard {
	return &EmailGuard{rdb: rdb, prefix: "email:reserve:" + namespace + ":", ttl: ttl}
}

// Reserve locks the normalized email. ErrLockBusy means a concurrent writer holds it.
func (g *EmailGuard) Reserve(ctx context.Context, email string) (func(), error) {
	lock := NewRedisLock(g.rdb, g.prefix+strings.ToLower(strings.TrimSpace(email)), g.ttl)
	if err := lock.Lock(ctx); err != nil {
		return nil, err
	}
	return func() {
		// release even if the request context is already done
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = lock.Unlock(releaseCtx)
	}, nil
}
