package events

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dimitrije/bolt-api/internal/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRedis(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("failed to start redis container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	return fmt.Sprintf("%s:%s", host, port.Port())
}

func TestRedisBus_DeliversAcrossInstances(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping redis test in short mode")
	}

	addr := setupRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	publisher, err := NewRedisBus(ctx, logger.Nop(), addr, "")
	require.NoError(t, err)
	defer publisher.Close()

	subscriber, err := NewRedisBus(ctx, logger.Nop(), addr, "")
	require.NoError(t, err)
	defer subscriber.Close()

	received := make(chan Event, 1)
	require.NoError(t, subscriber.StartForwarder(ctx, func(ev Event) { received <- ev }))

	sent, err := New(FilesReplaced, uuid.New(), map[string]string{"k": "v"})
	require.NoError(t, err)
	require.NoError(t, publisher.Publish(ctx, sent))

	select {
	case ev := <-received:
		assert.Equal(t, sent.Type, ev.Type)
		assert.Equal(t, sent.WorkspaceID, ev.WorkspaceID)
		assert.JSONEq(t, string(sent.Data), string(ev.Data))
	case <-time.After(5 * time.Second):
		t.Fatal("event not delivered")
	}
}

func TestNewRedisBus_MissingAddr(t *testing.T) {
	_, err := NewRedisBus(context.Background(), logger.Nop(), "", "")
	assert.Error(t, err)
}
