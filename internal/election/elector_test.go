package election

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestElector_AcquireSucceedsWhenFree(t *testing.T) {
	dir := t.TempDir()
	e := New(dir, "sqlite-database", "instance-1")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, e.Acquire(ctx))
	require.True(t, e.IsLeader())
	require.NoError(t, e.Release())
	require.False(t, e.IsLeader())
}

func TestElector_SecondElectorWaitsForRelease(t *testing.T) {
	dir := t.TempDir()
	e1 := New(dir, "sqlite-database", "instance-1")
	e2 := New(dir, "sqlite-database", "instance-2")

	ctx := context.Background()
	require.NoError(t, e1.Acquire(ctx))
	require.True(t, e1.IsLeader())

	done := make(chan error, 1)
	go func() {
		acquireCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		done <- e2.Acquire(acquireCtx)
	}()

	select {
	case <-done:
		t.Fatal("e2 should not have acquired leadership while e1 holds the lock")
	case <-time.After(100 * time.Millisecond):
	}

	require.NoError(t, e1.Release())

	select {
	case err := <-done:
		require.NoError(t, err)
		require.True(t, e2.IsLeader())
	case <-time.After(5 * time.Second):
		t.Fatal("e2 never acquired leadership after e1 released")
	}
}

func TestElector_AcquireCanceledWhileContended(t *testing.T) {
	dir := t.TempDir()
	e1 := New(dir, "sqlite-database", "instance-1")
	e2 := New(dir, "sqlite-database", "instance-2")

	require.NoError(t, e1.Acquire(context.Background()))
	defer e1.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := e2.Acquire(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.False(t, e2.IsLeader())
}

func TestElector_Resigned(t *testing.T) {
	dir := t.TempDir()
	e := New(dir, "sqlite-database", "instance-1")
	require.NoError(t, e.Acquire(context.Background()))

	select {
	case <-e.Resigned():
		t.Fatal("resigned channel closed before Release")
	default:
	}

	require.NoError(t, e.Release())

	select {
	case <-e.Resigned():
	default:
		t.Fatal("resigned channel should be closed after Release")
	}
}
