package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledInitInstallsNoop(t *testing.T) {
	require.NoError(t, Init(context.Background(), "scheduler", "test", Options{}))
	defer func() { _ = Shutdown(context.Background()) }()

	s := NewScheduling()
	ctx, done := s.Start(context.Background(), "submit")
	s.Admission(ctx, "confirmed", "")
	s.Transition(ctx, "pending", "confirmed")
	s.Sync(ctx, "workflow", "created")
	done(errors.New("recorded on the span"))

	assert.Empty(t, shutdownFns)
}

func TestEnabledInitRegistersShutdown(t *testing.T) {
	require.NoError(t, Init(context.Background(), "scheduler", "test", Options{Enabled: true}))
	assert.Len(t, shutdownFns, 2)
	require.NoError(t, Shutdown(context.Background()))
	assert.Empty(t, shutdownFns)

	require.NoError(t, Init(context.Background(), "scheduler", "test", Options{}))
}

func TestShutdownJoinsFailures(t *testing.T) {
	flush := errors.New("flush failed")
	calls := 0
	shutdownFns = []func(context.Context) error{
		func(context.Context) error { calls++; return flush },
		func(context.Context) error { calls++; return nil },
	}

	err := Shutdown(context.Background())
	assert.ErrorIs(t, err, flush)
	assert.Equal(t, 2, calls)
	assert.Empty(t, shutdownFns)
	assert.NoError(t, Shutdown(context.Background()))
}
