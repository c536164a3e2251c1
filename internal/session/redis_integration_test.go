//go:build integration

package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(ctx) })

	endpoint, err := c.Endpoint(ctx, "")
	require.NoError(t, err)
	client, err := OpenRedis(ctx, fmt.Sprintf("redis://%s/0", endpoint))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	r := NewRedisStore(client, time.Minute)
	_, ok, err := r.Get(ctx, 7)
	require.NoError(t, err)
	assert.False(t, ok)

	rec := Record{State: "olympiad_create:await_subject", Data: []byte(`{"title":"Summer Math"}`)}
	require.NoError(t, r.Set(ctx, 7, rec))
	got, ok, err := r.Get(ctx, 7)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, rec.State, got.State)
	assert.JSONEq(t, string(rec.Data), string(got.Data))

	ttl, err := client.TTL(ctx, key(7)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, r.Clear(ctx, 7))
	_, ok, err = r.Get(ctx, 7)
	require.NoError(t, err)
	assert.False(t, ok)
}
