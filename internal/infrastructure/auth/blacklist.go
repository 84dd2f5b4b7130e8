package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisBlacklist struct{ rdb *redis.Client }

func NewRedisBlacklist(rdb *redis.Client) *RedisBlacklist { return &RedisBlacklist{rdb: rdb} }

func blacklistKey(jti string) string { return "loanease:session:revoked:" + jti }

func (b *RedisBlacklist) Add(ctx context.Context, jti string, ttl time.Duration) error {
	return b.rdb.Set(ctx, blacklistKey(jti), 1, ttl).Err()
}

func (b *RedisBlacklist) Contains(ctx context.Context, jti string) (bool, error) {
	n, err := b.rdb.Exists(ctx, blacklistKey(jti)).Result()
	return n > 0, err
}
