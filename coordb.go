// Package coordb is the public facade of a single logical SQLite instance
// shared across many coordinating contexts: leader election over a local
// file lock, a best-effort inter-context bus, and a query router that
// transparently forwards non-leader calls to whichever context currently
// holds the lock.
package coordb

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rainlanguage/sqlite-web/internal/bus"
	"github.com/rainlanguage/sqlite-web/internal/coordberr"
	"github.com/rainlanguage/sqlite-web/internal/election"
	"github.com/rainlanguage/sqlite-web/internal/functions"
	"github.com/rainlanguage/sqlite-web/internal/instanceid"
	"github.com/rainlanguage/sqlite-web/internal/leaderlock"
	"github.com/rainlanguage/sqlite-web/internal/logging"
	"github.com/rainlanguage/sqlite-web/internal/params"
	"github.com/rainlanguage/sqlite-web/internal/router"
	"github.com/rainlanguage/sqlite-web/internal/storage"
)

var log = logging.New("coordb")

// Result is what Query returns: either row data or a plain summary string,
// never both.
type Result struct {
	Rows    []map[string]any `json:"rows,omitempty"`
	Message string           `json:"message,omitempty"`
}

// Options configures a Handle. DataDir and a Bus are required; everything
// else falls back to a documented default.
type Options struct {
	DataDir       string
	DatabaseName  string
	LockName      string
	RouterTimeout time.Duration
	Bus           bus.Bus
	InstanceID    string
}

func (o *Options) setDefaults() {
	if o.DatabaseName == "" {
		o.DatabaseName = "worker.db"
	}
	if o.LockName == "" {
		o.LockName = "sqlite-database"
	}
	if o.RouterTimeout == 0 {
		o.RouterTimeout = 5 * time.Second
	}
	if o.InstanceID == "" {
		o.InstanceID = instanceid.New()
	}
}

// Handle is one context's entry point into the logical instance. Open
// returns it at once as a follower that forwards through the bus; it
// becomes leader in the background if it wins the lock (see IsLeader).
type Handle struct {
	opts     Options
	elector  *election.Elector
	router   *router.Router
	adapter  *storage.Adapter // nil until/unless this context becomes leader
	bus      bus.Bus
	cancelFn context.CancelFunc
}

// Open wires together the elector, bus subscription, and router for this
// context, then races for leadership in the background — the Go-native
// analogue of a browser tab's blocking Web Locks API request. A context
// that loses the election race simply becomes a follower — Open never
// fails solely because another context is already leader.
func Open(ctx context.Context, opts Options) (*Handle, error) {
	opts.setDefaults()
	if opts.Bus == nil {
		return nil, fmt.Errorf("coordb: Options.Bus is required")
	}

	h := &Handle{opts: opts, bus: opts.Bus}
	h.elector = election.New(opts.DataDir, opts.LockName, opts.InstanceID)

	acquireCtx, cancel := context.WithCancel(ctx)
	h.cancelFn = cancel

	h.router = router.New(opts.Bus, h.elector, h.execute, opts.RouterTimeout)
	h.router.SetWipeExecutor(h.wipeLocal)

	go h.raceForLeadership(acquireCtx)

	return h, nil
}

// raceForLeadership attempts to acquire the lock in the background; this
// context behaves as a follower (forwarding through the router) for as
// long as the attempt is pending or loses.
func (h *Handle) raceForLeadership(ctx context.Context) {
	if err := h.elector.Acquire(ctx); err != nil {
		return
	}

	dbPath := filepath.Join(h.opts.DataDir, h.opts.DatabaseName)
	adapter, err := storage.Open(ctx, dbPath, functions.Register)
	if err != nil {
		log.Errorf("StorageUnavailable at leader startup: %v", err)
		_ = h.elector.Release()
		return
	}

	h.adapter = adapter
	_ = h.bus.Publish(ctx, bus.TypeLeaderAnnounce, bus.LeaderAnnounce{InstanceID: h.opts.InstanceID})
	log.Infof("now serving as leader (instance %s)", h.opts.InstanceID)
}

// Query validates sql/params, then routes the call to local execution
// (leader) or the current leader over the bus (follower).
func (h *Handle) Query(ctx context.Context, sql string, values ...any) (Result, error) {
	bound, verr := params.Validate(sql, values)
	if verr != nil {
		return Result{}, verr
	}

	if len(bound.Statements) > 1 {
		return h.executeMultiStatement(ctx, bound.Statements)
	}

	stmt := ""
	if len(bound.Statements) == 1 {
		stmt = bound.Statements[0]
	}

	rawRows, message, err := h.router.Route(ctx, stmt, bound.Params)
	if err != nil {
		return Result{}, err
	}
	return decodeResult(rawRows, message)
}

func (h *Handle) executeMultiStatement(ctx context.Context, stmts []string) (Result, error) {
	var last Result
	for _, stmt := range stmts {
		rawRows, message, err := h.router.Route(ctx, stmt, nil)
		if err != nil {
			return Result{}, err
		}
		res, derr := decodeResult(rawRows, message)
		if derr != nil {
			return Result{}, derr
		}
		last = res
	}
	return last, nil
}

func decodeResult(rawRows json.RawMessage, message string) (Result, error) {
	if len(rawRows) == 0 {
		return Result{Message: message}, nil
	}
	var rows []map[string]any
	if err := json.Unmarshal(rawRows, &rows); err != nil {
		return Result{}, coordberr.Newf(coordberr.KindSqlEngine, "decode result rows: %v", err)
	}
	return Result{Rows: rows}, nil
}

// execute is the Executor passed to the Router: it only runs while this
// context is leader, binding statement + params against the storage
// adapter and converting rows per the storage package's conversion table.
func (h *Handle) execute(ctx context.Context, stmt string, bound []any) (json.RawMessage, string, *coordberr.Error) {
	if h.adapter == nil {
		return nil, "", coordberr.New(coordberr.KindStorageUnavailable, "leader storage adapter is not open")
	}

	isQuery := isRowProducing(stmt)
	rows, res, err := h.adapter.Execute(ctx, stmt, bound, isQuery)
	if err != nil {
		return nil, "", coordberr.Wrap(coordberr.KindSqlEngine, err)
	}

	if isQuery {
		defer rows.Close()
		_, maps, cerr := storage.RowsToMaps(rows)
		if cerr != nil {
			return nil, "", coordberr.Wrap(coordberr.KindSqlEngine, cerr)
		}
		data, jerr := json.Marshal(maps)
		if jerr != nil {
			return nil, "", coordberr.Wrap(coordberr.KindSqlEngine, jerr)
		}
		return data, "", nil
	}

	n, _ := res.RowsAffected()
	return nil, fmt.Sprintf("Rows affected: %d", n), nil
}

// WipeAndRecreate drops every user object in the leader's database,
// forwarding through the router exactly like Query so a follower's call
// reaches the leader.
func (h *Handle) WipeAndRecreate(ctx context.Context) error {
	if err := h.router.RouteWipe(ctx); err != nil {
		return err
	}
	return nil
}

// wipeLocal is the router's WipeExecutor, only invoked while this context
// is leader.
func (h *Handle) wipeLocal(ctx context.Context) *coordberr.Error {
	if h.adapter == nil {
		return coordberr.New(coordberr.KindStorageUnavailable, "leader storage adapter is not open")
	}
	if err := h.adapter.Wipe(ctx); err != nil {
		return coordberr.Wrap(coordberr.KindSqlEngine, err)
	}
	return nil
}

// IsLeader reports whether this Handle currently holds the lock
// (observability only, used by `coordbd status`).
func (h *Handle) IsLeader() bool { return h.elector.IsLeader() }

// InstanceID returns this context's identity.
func (h *Handle) InstanceID() string { return h.opts.InstanceID }

// PendingQueries reports the size of the local pending-query table
// (observability only).
func (h *Handle) PendingQueries() int { return h.router.PendingCount() }

// StorageStats reports the leader's connection pool counters, used by
// `coordbd status`. A follower (nil adapter) reports the zero value.
func (h *Handle) StorageStats() storage.AdapterStats {
	if h.adapter == nil {
		return storage.AdapterStats{}
	}
	return h.adapter.Stats()
}

// LockHolder reports the instance identity and PID currently holding the
// lock, read directly off disk without contending for it — used by
// `coordbd status` to report on the leader even from a follower context.
func (h *Handle) LockHolder() (*leaderlock.Info, error) {
	return leaderlock.ReadInfo(h.opts.DataDir, h.opts.LockName)
}

// Close releases this context's resources: router subscription, leadership
// (if held), and the storage adapter.
func (h *Handle) Close() error {
	h.cancelFn()
	h.router.Close()
	if h.elector.IsLeader() {
		if h.adapter != nil {
			_ = h.adapter.Close()
		}
		return h.elector.Release()
	}
	return nil
}

func isRowProducing(stmt string) bool {
	trimmed := trimLeadingSpaceAndComments(stmt)
	return hasPrefixFold(trimmed, "SELECT") ||
		hasPrefixFold(trimmed, "PRAGMA") ||
		hasPrefixFold(trimmed, "WITH") ||
		hasPrefixFold(trimmed, "EXPLAIN")
}

func trimLeadingSpaceAndComments(s string) string {
	for {
		trimmed := len(s)
		for len(s) > 0 && (s[0] == ' ' || s[0] == '\t' || s[0] == '\n' || s[0] == '\r') {
			s = s[1:]
		}
		if strings.HasPrefix(s, "--") {
			if i := strings.IndexByte(s, '\n'); i >= 0 {
				s = s[i+1:]
			} else {
				s = ""
			}
		} else if strings.HasPrefix(s, "/*") {
			if i := strings.Index(s[2:], "*/"); i >= 0 {
				s = s[i+4:]
			} else {
				s = ""
			}
		}
		if len(s) == trimmed {
			break
		}
	}
	return s
}

func hasPrefixFold(s, prefix string) bool {
	if len(s) < len(prefix) {
		return false
	}
	for i := 0; i < len(prefix); i++ {
		a, b := s[i], prefix[i]
		if a >= 'a' && a <= 'z' {
			a -= 'a' - 'A'
		}
		if b >= 'a' && b <= 'z' {
			b -= 'a' - 'A'
		}
		if a != b {
			return false
		}
	}
	return true
}
