package storage

import (
	"context"
	"testing"
	"time"

	"recruitflow-go/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// integrationRedis connects with the default local configuration and skips
// the test when no Redis is reachable.
func integrationRedis(t *testing.T) *Redis {
	t.Helper()
	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	r, err := NewRedisAdapter(&cfg.Redis)
	if err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestIngestLeaseLifecycle(t *testing.T) {
	r := integrationRedis(t)
	ctx := context.Background()
	processID := uint(time.Now().UnixNano() % 1_000_000_000)

	acquired, err := r.AcquireIngestLease(ctx, processID, "run-a")
	require.NoError(t, err)
	require.True(t, acquired)
	t.Cleanup(func() { _ = r.ReleaseIngestLease(ctx, processID, "run-a") })

	// Held leases block a second run and cannot be renewed by it.
	acquired, err = r.AcquireIngestLease(ctx, processID, "run-b")
	require.NoError(t, err)
	assert.False(t, acquired)

	held, err := r.RenewIngestLease(ctx, processID, "run-b")
	require.NoError(t, err)
	assert.False(t, held, "only the holder may push the expiry back")

	held, err = r.RenewIngestLease(ctx, processID, "run-a")
	require.NoError(t, err)
	assert.True(t, held)

	ttl, err := r.Client.TTL(ctx, ingestLeaseKey(processID)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 29*time.Minute, "renewal must restore the full lease length")

	// Release by the wrong owner is a no-op; by the holder it frees the key.
	require.NoError(t, r.ReleaseIngestLease(ctx, processID, "run-b"))
	held, err = r.RenewIngestLease(ctx, processID, "run-a")
	require.NoError(t, err)
	assert.True(t, held)

	require.NoError(t, r.ReleaseIngestLease(ctx, processID, "run-a"))
	held, err = r.RenewIngestLease(ctx, processID, "run-a")
	require.NoError(t, err)
	assert.False(t, held, "a released lease has nothing left to renew")
}
