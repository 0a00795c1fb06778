// Package testutil starts throwaway containers for integration tests. Every
// container is terminated through t.Cleanup.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
)

const startupBudget = 2 * time.Minute

// startContainer runs req and returns host:port of its exposed port. Requests
// expose exactly one port.
func startContainer(t *testing.T, req testcontainers.ContainerRequest) string {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), startupBudget)
	defer cancel()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "start %s", req.Image)
	t.Cleanup(func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer stopCancel()
		_ = container.Terminate(stopCtx)
	})

	addr, err := container.Endpoint(ctx, "")
	require.NoError(t, err)
	return addr
}
