// Package router implements deciding whether a validated query runs locally
// (the context is leader) or is forwarded over the inter-context bus and
// awaited. It follows a common request-deduplicator shape — register a
// channel keyed by an ID, select between it and a timeout, clean the map
// entry up after — specialized here to exactly one entry per correlation
// id rather than content-addressed dedup, since no content-based
// idempotency is assumed.
package router

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rainlanguage/sqlite-web/internal/bus"
	"github.com/rainlanguage/sqlite-web/internal/coordberr"
	"github.com/rainlanguage/sqlite-web/internal/election"
	"github.com/rainlanguage/sqlite-web/internal/instanceid"
	"github.com/rainlanguage/sqlite-web/internal/logging"
)

var log = logging.New("router")

// Executor runs one already-validated statement against the local storage
// adapter. Only called when this context is the leader.
type Executor func(ctx context.Context, sql string, params []any) (rows json.RawMessage, message string, err *coordberr.Error)

// WipeExecutor runs wipe_and_recreate against the local storage adapter.
// Only called when this context is the leader.
type WipeExecutor func(ctx context.Context) *coordberr.Error

// pendingQuery is one outstanding forwarded request awaiting a response.
type pendingQuery struct {
	result chan bus.QueryResponse
}

// Router holds the pending-query table and the leader/follower branch
// logic.
type Router struct {
	bus        bus.Bus
	elector    *election.Elector
	instanceID string
	timeout    time.Duration
	executor   Executor
	wipe       WipeExecutor

	mu      sync.Mutex
	pending map[string]*pendingQuery

	unsubscribe func()
}

// New builds a Router bound to a Bus, an Elector (consulted to decide
// leader/follower branch on every call), a local Executor, and the
// router_timeout default (5s).
func New(b bus.Bus, elector *election.Elector, executor Executor, timeout time.Duration) *Router {
	r := &Router{
		bus:        b,
		elector:    elector,
		instanceID: instanceid.New(),
		timeout:    timeout,
		executor:   executor,
		pending:    make(map[string]*pendingQuery),
	}
	r.unsubscribe = b.Subscribe(r.handleMessage)
	return r
}

// SetWipeExecutor wires the local wipe_and_recreate implementation, called
// when this context is leader and either a local or forwarded wipe request
// arrives.
func (r *Router) SetWipeExecutor(w WipeExecutor) {
	r.wipe = w
}

// Close unregisters this Router from the bus.
func (r *Router) Close() {
	if r.unsubscribe != nil {
		r.unsubscribe()
	}
}

// Route executes sql either locally (leader) or by forwarding it to the
// leader over the bus and waiting for a correlated response (follower).
func (r *Router) Route(ctx context.Context, sql string, params []any) (json.RawMessage, string, *coordberr.Error) {
	if r.elector.IsLeader() {
		rows, message, err := r.executor(ctx, sql, params)
		return rows, message, err
	}
	return r.routeRemote(ctx, sql, params)
}

func (r *Router) routeRemote(ctx context.Context, sql string, params []any) (json.RawMessage, string, *coordberr.Error) {
	req := bus.QueryRequest{SQL: sql, Params: params}
	resp, err := r.sendAndAwait(ctx, req)
	if err != nil {
		return nil, "", err
	}
	return resp.Rows, resp.Message, nil
}

// RouteWipe runs wipe_and_recreate locally (leader) or forwards it to the
// current leader over the bus and awaits completion (follower).
func (r *Router) RouteWipe(ctx context.Context) *coordberr.Error {
	if r.elector.IsLeader() {
		if r.wipe == nil {
			return coordberr.New(coordberr.KindStorageUnavailable, "no wipe executor configured")
		}
		return r.wipe(ctx)
	}
	_, err := r.sendAndAwait(ctx, bus.QueryRequest{Wipe: true})
	return err
}

func (r *Router) sendAndAwait(ctx context.Context, req bus.QueryRequest) (bus.QueryResponse, *coordberr.Error) {
	queryID := instanceid.NewCorrelationID()
	req.QueryID = queryID
	req.InstanceID = r.instanceID

	pq := &pendingQuery{result: make(chan bus.QueryResponse, 1)}
	r.mu.Lock()
	r.pending[queryID] = pq
	r.mu.Unlock()

	cleanup := func() {
		r.mu.Lock()
		delete(r.pending, queryID)
		r.mu.Unlock()
	}

	if err := r.bus.Publish(ctx, bus.TypeQueryRequest, req); err != nil {
		cleanup()
		return bus.QueryResponse{}, coordberr.Newf(coordberr.KindBusUnavailable, "publish query request: %v", err)
	}

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case resp := <-pq.result:
		cleanup()
		if len(resp.Error) > 0 {
			var cerr coordberr.Error
			if jerr := json.Unmarshal(resp.Error, &cerr); jerr == nil {
				return bus.QueryResponse{}, &cerr
			}
			return bus.QueryResponse{}, coordberr.New(coordberr.KindSqlEngine, "remote error (undecodable)")
		}
		return resp, nil

	case <-timer.C:
		cleanup()
		return bus.QueryResponse{}, coordberr.New(coordberr.KindLeaderTimeout, "timed out waiting for leader response")

	case <-ctx.Done():
		cleanup()
		return bus.QueryResponse{}, coordberr.Newf(coordberr.KindCanceled, "canceled waiting for leader response: %v", ctx.Err())
	}
}

// handleMessage dispatches incoming bus envelopes: leaders execute
// QueryRequests and publish a QueryResponse; every context resolves
// QueryResponses matching a pending entry (unmatched responses are
// silently discarded).
func (r *Router) handleMessage(ctx context.Context, env bus.Envelope) {
	switch env.Type {
	case bus.TypeQueryRequest:
		r.handleQueryRequest(ctx, env)
	case bus.TypeQueryResponse:
		r.handleQueryResponse(env)
	case bus.TypeLeaderAnnounce:
		// observability only; no protocol action required.
	default:
		log.Warnf("discarding message of unknown type %q", env.Type)
	}
}

func (r *Router) handleQueryRequest(ctx context.Context, env bus.Envelope) {
	if !r.elector.IsLeader() {
		return
	}
	var req bus.QueryRequest
	if err := json.Unmarshal(env.Payload, &req); err != nil {
		log.Warnf("malformed query request: %v", err)
		return
	}

	var (
		rows    json.RawMessage
		message string
		execErr *coordberr.Error
	)
	if req.Wipe {
		if r.wipe == nil {
			execErr = coordberr.New(coordberr.KindStorageUnavailable, "no wipe executor configured")
		} else {
			execErr = r.wipe(ctx)
		}
	} else {
		rows, message, execErr = r.executor(ctx, req.SQL, req.Params)
	}

	resp := bus.QueryResponse{QueryID: req.QueryID, Rows: rows, Message: message}
	if execErr != nil {
		data, _ := json.Marshal(execErr)
		resp.Error = data
	}

	if err := r.bus.Publish(ctx, bus.TypeQueryResponse, resp); err != nil {
		log.Errorf("publish query response for %s: %v", req.QueryID, err)
	}
}

func (r *Router) handleQueryResponse(env bus.Envelope) {
	var resp bus.QueryResponse
	if err := json.Unmarshal(env.Payload, &resp); err != nil {
		log.Warnf("malformed query response: %v", err)
		return
	}

	r.mu.Lock()
	pq, ok := r.pending[resp.QueryID]
	r.mu.Unlock()
	if !ok {
		// A response without a matching pending entry is discarded, e.g.
		// it arrived after this context's timeout already fired.
		return
	}

	select {
	case pq.result <- resp:
	default:
	}
}

// PendingCount reports the size of the pending-query table (observability
// only, used by `coordbd status`).
func (r *Router) PendingCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}
