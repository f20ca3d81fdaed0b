package quota

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pario-ai/aigateway/pkg/ledger"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDebiterAppliesOnStop(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, createRequest(1000))
	require.NoError(t, err)

	d := NewDebiter(svc, 2, 8, discardLogger())
	d.Start()
	assert.True(t, d.Schedule(key, 850))
	d.Stop()

	got, err := svc.Retrieve(ctx, key, ledger.Bool(true))
	require.NoError(t, err)
	assert.Equal(t, int64(850), got[0].Balance)
}

func TestDebiterDropsWhenFull(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, createRequest(1000))
	require.NoError(t, err)

	// Not started, so nothing drains the queue.
	d := NewDebiter(svc, 1, 1, discardLogger())
	assert.True(t, d.Schedule(key, 900))
	assert.False(t, d.Schedule(key, 800))

	d.Stop()
	got, err := svc.Retrieve(ctx, key, ledger.Bool(true))
	require.NoError(t, err)
	assert.Equal(t, int64(900), got[0].Balance)
}

func TestDebiterRejectsAfterStop(t *testing.T) {
	svc, _ := newTestService(t)
	d := NewDebiter(svc, 1, 1, discardLogger())
	d.Start()
	d.Stop()
	d.Stop()

	assert.False(t, d.Schedule(key, 1))
}

func TestDebiterRun(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Create(context.Background(), createRequest(10))
	require.NoError(t, err)

	d := NewDebiter(svc, 1, 4, discardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	// Schedule may race with Start inside Run; the queue buffers either way.
	require.True(t, d.Schedule(key, 3))
	cancel()
	require.NoError(t, <-done)

	got, err := svc.Retrieve(context.Background(), key, ledger.Bool(true))
	require.NoError(t, err)
	assert.Equal(t, int64(3), got[0].Balance)
}
