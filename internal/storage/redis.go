package storage

import (
	"context"
	"fmt"
	"time"

	"recruitflow-go/internal/config"
	"recruitflow-go/internal/constants"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when a key is not found in Redis.
// It wraps the underlying redis.Nil error for abstraction.
var ErrNotFound = redis.Nil

// releaseLeaseScript deletes the lease key only when the caller still owns
// it, so a run that outlived its TTL cannot release somebody else's lease.
var releaseLeaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end
`)

// renewLeaseScript pushes the lease expiry back out, but only while the
// caller still owns the key. Returns 0 when the lease expired or was taken
// by someone else.
var renewLeaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
else
	return 0
end
`)

// Redis wraps the Redis client used for ingestion leases and the refresh
// token allow-list.
type Redis struct {
	Client *redis.Client
	config *config.RedisConfig
}

// NewRedisAdapter creates a new Redis client connection.
func NewRedisAdapter(cfg *config.RedisConfig) (*Redis, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	opt := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,

		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,

		DialTimeout:  time.Duration(cfg.DialTimeoutSeconds) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,

		MaxRetries:      cfg.MaxRetries,
		MinRetryBackoff: time.Duration(cfg.MinRetryBackoffMS) * time.Millisecond,
		MaxRetryBackoff: time.Duration(cfg.MaxRetryBackoffMS) * time.Millisecond,

		ConnMaxLifetime: time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute,
		ConnMaxIdleTime: time.Duration(cfg.ConnMaxIdleTimeMinutes) * time.Minute,
	}

	client := redis.NewClient(opt)

	if err := redisotel.InstrumentTracing(client); err != nil {
		return nil, fmt.Errorf("failed to instrument Redis with OpenTelemetry: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	return &Redis{
		Client: client,
		config: cfg,
	}, nil
}

// Close closes the Redis client connection.
func (r *Redis) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}

// Ping checks the Redis connection.
func (r *Redis) Ping(ctx context.Context) error {
	if r.Client == nil {
		return fmt.Errorf("redis client is not initialized")
	}
	return r.Client.Ping(ctx).Err()
}

// ingestLeaseKey builds the lease key for one charge process.
func ingestLeaseKey(processID uint) string {
	return fmt.Sprintf("%s%d", constants.ProcessIngestLockPrefix, processID)
}

// AcquireIngestLease takes the per-process ingestion lease. The owner token
// identifies this run so only it can release the lease. Returns false when
// another run already holds it.
func (r *Redis) AcquireIngestLease(ctx context.Context, processID uint, owner string) (bool, error) {
	if r.Client == nil {
		return false, fmt.Errorf("redis client is not initialized")
	}
	ttl := time.Duration(constants.ProcessIngestLockTTLSeconds) * time.Second
	ok, err := r.Client.SetNX(ctx, ingestLeaseKey(processID), owner, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquiring ingest lease for process %d: %w", processID, err)
	}
	return ok, nil
}

// RenewIngestLease resets the lease TTL to its full length while owner
// still holds it. Returns false when the lease was lost, so a run that
// outlived its TTL knows it no longer has exclusivity.
func (r *Redis) RenewIngestLease(ctx context.Context, processID uint, owner string) (bool, error) {
	if r.Client == nil {
		return false, fmt.Errorf("redis client is not initialized")
	}
	ttl := time.Duration(constants.ProcessIngestLockTTLSeconds) * time.Second
	res, err := renewLeaseScript.Run(ctx, r.Client, []string{ingestLeaseKey(processID)}, owner, ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("renewing ingest lease for process %d: %w", processID, err)
	}
	return res == 1, nil
}

// ReleaseIngestLease releases the lease if owner still holds it. Releasing
// an expired or stolen lease is a no-op, not an error.
func (r *Redis) ReleaseIngestLease(ctx context.Context, processID uint, owner string) error {
	if r.Client == nil {
		return fmt.Errorf("redis client is not initialized")
	}
	_, err := releaseLeaseScript.Run(ctx, r.Client, []string{ingestLeaseKey(processID)}, owner).Result()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("releasing ingest lease for process %d: %w", processID, err)
	}
	return nil
}

// refreshTokenKey builds the allow-list key for one refresh token.
func refreshTokenKey(jti string) string {
	return constants.RefreshTokenPrefix + jti
}

// StoreRefreshToken adds a refresh token's jti to the allow-list, bound to
// the user it was issued for, for the lifetime of the token.
func (r *Redis) StoreRefreshToken(ctx context.Context, jti string, userID uint, ttl time.Duration) error {
	if r.Client == nil {
		return fmt.Errorf("redis client is not initialized")
	}
	if err := r.Client.Set(ctx, refreshTokenKey(jti), fmt.Sprintf("%d", userID), ttl).Err(); err != nil {
		return fmt.Errorf("storing refresh token: %w", err)
	}
	return nil
}

// CheckRefreshToken reports whether the jti is still on the allow-list.
func (r *Redis) CheckRefreshToken(ctx context.Context, jti string) (bool, error) {
	if r.Client == nil {
		return false, fmt.Errorf("redis client is not initialized")
	}
	_, err := r.Client.Get(ctx, refreshTokenKey(jti)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking refresh token: %w", err)
	}
	return true, nil
}

// RevokeRefreshToken drops the jti from the allow-list. Used on logout and
// on rotation, where the old token dies as the new one is issued.
func (r *Redis) RevokeRefreshToken(ctx context.Context, jti string) error {
	if r.Client == nil {
		return fmt.Errorf("redis client is not initialized")
	}
	if err := r.Client.Del(ctx, refreshTokenKey(jti)).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("revoking refresh token: %w", err)
	}
	return nil
}
