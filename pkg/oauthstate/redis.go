package oauthstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcpgw/reddit-gateway/pkg/logger"
)

// Redis key prefixes for the three tables.
const (
	pendingPrefix = "mcpgw:oauth:pending:"
	codePrefix    = "mcpgw:oauth:code:"
	refreshPrefix = "mcpgw:oauth:refresh:"
)

// RedisStore is an optional Store backend for operators running more than
// one gateway process behind a shared cache. It is never the system of
// record across a restart of the whole deployment — it exists purely so
// in-flight flows survive a single process restart or route to any
// instance behind a load balancer, not so state outlives the fleet. Row
// TTLs are enforced natively by Redis key expiry; take semantics use
// GETDEL for atomicity.
type RedisStore struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisStore wraps an existing *redis.Client. The caller owns the
// client's lifecycle; Close does not close it.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

func (r *RedisStore) ctx() context.Context {
	return context.Background()
}

func (r *RedisStore) putJSON(prefix string, value any, ttl time.Duration) (string, error) {
	key, err := newKey()
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("oauthstate/redis: marshal: %w", err)
	}
	if err := r.client.Set(r.ctx(), prefix+key, data, ttl).Err(); err != nil {
		return "", fmt.Errorf("oauthstate/redis: set: %w", err)
	}
	return key, nil
}

func takeJSON[T any](r *RedisStore, prefix, key string) (T, error) {
	var zero T
	data, err := r.client.GetDel(r.ctx(), prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return zero, ErrNotFound
	}
	if err != nil {
		return zero, fmt.Errorf("oauthstate/redis: getdel: %w", err)
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return zero, fmt.Errorf("oauthstate/redis: unmarshal: %w", err)
	}
	return out, nil
}

func getJSON[T any](r *RedisStore, prefix, key string) (T, error) {
	var zero T
	data, err := r.client.Get(r.ctx(), prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return zero, ErrNotFound
	}
	if err != nil {
		return zero, fmt.Errorf("oauthstate/redis: get: %w", err)
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return zero, fmt.Errorf("oauthstate/redis: unmarshal: %w", err)
	}
	return out, nil
}

// PutPendingAuthorization implements Store.
func (r *RedisStore) PutPendingAuthorization(row PendingAuthorization) (string, error) {
	return r.putJSON(pendingPrefix, row, PendingAuthorizationTTL)
}

// TakePendingAuthorization implements Store.
func (r *RedisStore) TakePendingAuthorization(key string) (PendingAuthorization, error) {
	return takeJSON[PendingAuthorization](r, pendingPrefix, key)
}

// PutAuthorizationCode implements Store.
func (r *RedisStore) PutAuthorizationCode(row AuthorizationCode) (string, error) {
	return r.putJSON(codePrefix, row, AuthorizationCodeTTL)
}

// TakeAuthorizationCode implements Store.
func (r *RedisStore) TakeAuthorizationCode(key string) (AuthorizationCode, error) {
	return takeJSON[AuthorizationCode](r, codePrefix, key)
}

// PutRefreshToken implements Store.
func (r *RedisStore) PutRefreshToken(row RefreshTokenRecord) (string, error) {
	return r.putJSON(refreshPrefix, row, RefreshTokenTTL)
}

// GetRefreshToken implements Store.
func (r *RedisStore) GetRefreshToken(key string) (RefreshTokenRecord, error) {
	return getJSON[RefreshTokenRecord](r, refreshPrefix, key)
}

// UpdateRefreshToken implements Store.
func (r *RedisStore) UpdateRefreshToken(key string, row RefreshTokenRecord) error {
	exists, err := r.client.Exists(r.ctx(), refreshPrefix+key).Result()
	if err != nil {
		return fmt.Errorf("oauthstate/redis: exists: %w", err)
	}
	if exists == 0 {
		return ErrNotFound
	}
	data, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("oauthstate/redis: marshal: %w", err)
	}
	if err := r.client.Set(r.ctx(), refreshPrefix+key, data, redis.KeepTTL).Err(); err != nil {
		return fmt.Errorf("oauthstate/redis: set: %w", err)
	}
	return nil
}

// InvalidateRefreshToken implements Store.
func (r *RedisStore) InvalidateRefreshToken(key string) error {
	if err := r.client.Del(r.ctx(), refreshPrefix+key).Err(); err != nil {
		return fmt.Errorf("oauthstate/redis: del: %w", err)
	}
	return nil
}

// Close implements Store. It does not close the underlying *redis.Client,
// which the caller constructed and owns.
func (r *RedisStore) Close() error {
	logger.Debug("oauthstate/redis: store closed")
	return nil
}

var _ Store = (*RedisStore)(nil)
