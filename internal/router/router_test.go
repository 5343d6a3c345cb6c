package router

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rainlanguage/sqlite-web/internal/bus"
	"github.com/rainlanguage/sqlite-web/internal/coordberr"
	"github.com/rainlanguage/sqlite-web/internal/election"
)

func newTestElector(t *testing.T, leader bool) *election.Elector {
	t.Helper()
	e := election.New(t.TempDir(), "sqlite-database", "instance-1")
	if leader {
		require.NoError(t, e.Acquire(context.Background()))
	}
	return e
}

func TestRouter_LeaderExecutesLocally(t *testing.T) {
	b := bus.NewLocalBus()
	e := newTestElector(t, true)

	called := false
	exec := func(ctx context.Context, sql string, params []any) (json.RawMessage, string, *coordberr.Error) {
		called = true
		return nil, "Rows affected: 1", nil
	}

	r := New(b, e, exec, time.Second)
	defer r.Close()

	_, msg, err := r.Route(context.Background(), "INSERT INTO t VALUES (1)", nil)
	require.Nil(t, err)
	require.True(t, called)
	require.Equal(t, "Rows affected: 1", msg)
}

func TestRouter_FollowerForwardsToLeader(t *testing.T) {
	b := bus.NewLocalBus()

	leaderElector := newTestElector(t, true)
	leaderExec := func(ctx context.Context, sql string, params []any) (json.RawMessage, string, *coordberr.Error) {
		return json.RawMessage(`[{"x":1}]`), "", nil
	}
	leaderRouter := New(b, leaderElector, leaderExec, time.Second)
	defer leaderRouter.Close()

	followerElector := election.New(t.TempDir(), "sqlite-database", "instance-2") // never leader
	followerExec := func(ctx context.Context, sql string, params []any) (json.RawMessage, string, *coordberr.Error) {
		t.Fatal("follower executor should never be called")
		return nil, "", nil
	}
	followerRouter := New(b, followerElector, followerExec, 2*time.Second)
	defer followerRouter.Close()

	rows, _, err := followerRouter.Route(context.Background(), "SELECT * FROM t", nil)
	require.Nil(t, err)
	require.JSONEq(t, `[{"x":1}]`, string(rows))
}

func TestRouter_FollowerTimesOutWithoutLeader(t *testing.T) {
	b := bus.NewLocalBus()
	followerElector := election.New(t.TempDir(), "sqlite-database", "instance-2")
	exec := func(ctx context.Context, sql string, params []any) (json.RawMessage, string, *coordberr.Error) {
		t.Fatal("executor should never run")
		return nil, "", nil
	}
	r := New(b, followerElector, exec, 50*time.Millisecond)
	defer r.Close()

	_, _, err := r.Route(context.Background(), "SELECT 1", nil)
	require.NotNil(t, err)
	require.Equal(t, coordberr.KindLeaderTimeout, err.Kind)
	require.Equal(t, 0, r.PendingCount())
}

func TestRouter_RemoteErrorPropagatesStructured(t *testing.T) {
	b := bus.NewLocalBus()

	leaderElector := newTestElector(t, true)
	leaderExec := func(ctx context.Context, sql string, params []any) (json.RawMessage, string, *coordberr.Error) {
		return nil, "", coordberr.New(coordberr.KindSqlEngine, "syntax error")
	}
	leaderRouter := New(b, leaderElector, leaderExec, time.Second)
	defer leaderRouter.Close()

	followerElector := election.New(t.TempDir(), "sqlite-database", "instance-2")
	followerRouter := New(b, followerElector, nil, 2*time.Second)
	defer followerRouter.Close()

	_, _, err := followerRouter.Route(context.Background(), "BAD SQL", nil)
	require.NotNil(t, err)
	require.Equal(t, coordberr.KindSqlEngine, err.Kind)
	require.Equal(t, "syntax error", err.Msg)
}

func TestRouter_CallerCancellationIsDistinctFromTimeout(t *testing.T) {
	b := bus.NewLocalBus()
	followerElector := election.New(t.TempDir(), "sqlite-database", "instance-2")
	exec := func(ctx context.Context, sql string, params []any) (json.RawMessage, string, *coordberr.Error) {
		t.Fatal("executor should never run")
		return nil, "", nil
	}
	r := New(b, followerElector, exec, time.Minute)
	defer r.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := r.Route(ctx, "SELECT 1", nil)
	require.NotNil(t, err)
	require.Equal(t, coordberr.KindCanceled, err.Kind)
	require.NotEqual(t, coordberr.KindLeaderTimeout, err.Kind)
	require.Equal(t, 0, r.PendingCount())
}

func TestRouter_UnmatchedResponseDiscarded(t *testing.T) {
	b := bus.NewLocalBus()
	e := election.New(t.TempDir(), "sqlite-database", "instance-1")
	r := New(b, e, nil, time.Second)
	defer r.Close()

	require.NoError(t, b.Publish(context.Background(), bus.TypeQueryResponse, bus.QueryResponse{QueryID: "unknown"}))
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, 0, r.PendingCount())
}
