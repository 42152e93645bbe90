package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	redisOnce sync.Once
	redisAddr string
	redisErr  error
)

// GetRedisAddress starts a shared Redis container on first use and returns
// its host:port. The test is skipped in -short mode or when no container
// runtime is available.
func GetRedisAddress(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis container in -short mode")
	}

	redisOnce.Do(startRedisContainer)
	if redisErr != nil {
		t.Skipf("redis container unavailable: %v", redisErr)
	}
	return redisAddr
}

func startRedisContainer() {
	// Give generous timeout in CI environments
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	redisC, err := testcontainers.Run(
		ctx, "redis:7",
		testcontainers.WithExposedPorts("6379/tcp"),
		testcontainers.WithWaitStrategy(
			wait.ForListeningPort("6379/tcp"),
			wait.ForLog("Ready to accept connections"),
		),
	)
	if err != nil {
		redisErr = err
		return
	}

	endpoint, err := redisC.Endpoint(ctx, "")
	if err != nil {
		_ = redisC.Terminate(context.Background()) // best-effort cleanup
		redisErr = err
		return
	}

	// The container is shared by every test in the package binary and is
	// reaped by testcontainers' ryuk sidecar when the process exits.
	redisAddr = endpoint
}
