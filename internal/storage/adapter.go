// Package storage wraps database/sql with the ncruces/go-sqlite3 driver,
// as a single-connection SQLite store: one *sql.DB with
// SetMaxOpenConns(1) so the engine is never re-entered, serving as the
// Go-native analogue of "adapting a native C SQLite library" for
// in-process use.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"github.com/ncruces/go-sqlite3"
	"github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/rainlanguage/sqlite-web/internal/logging"
)

var log = logging.New("storage")

// FunctionRegistrar is called once per fresh native connection, so custom
// functions registered via internal/functions are always present. Wipe
// keeps the same connection, so they stay registered after a wipe.
type FunctionRegistrar func(conn *sqlite3.Conn) error

// Adapter owns the single connection to the leader's SQLite file.
type Adapter struct {
	mu       sync.RWMutex
	db       *sql.DB
	path     string
	register FunctionRegistrar
}

// AdapterStats exposes connection pool counters for `coordbd status`.
type AdapterStats struct {
	OpenConnections int
	InUse           int
	Idle            int
}

// Open creates (or reopens) the SQLite file at path, wiring register into a
// ConnectHook so every native connection gets the full custom function set.
func Open(ctx context.Context, path string, register FunctionRegistrar) (*Adapter, error) {
	connector, err := driver.Open(path, func(conn *sqlite3.Conn) error {
		if register == nil {
			return nil
		}
		return register(conn)
	})
	if err != nil {
		return nil, fmt.Errorf("storage: open connector: %w", err)
	}

	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: ping: %w", err)
	}

	return &Adapter{db: db, path: path, register: register}, nil
}

// Execute runs a single statement with positional params, returning raw
// *sql.Rows for row-returning statements or nil for exec-style statements.
// The caller (internal/params + the router) is responsible for statement
// splitting and placeholder validation before this is called.
func (a *Adapter) Execute(ctx context.Context, stmt string, params []any, isQuery bool) (*sql.Rows, sql.Result, error) {
	a.mu.RLock()
	db := a.db
	a.mu.RUnlock()

	if isQuery {
		rows, err := db.QueryContext(ctx, stmt, params...)
		return rows, nil, err
	}
	res, err := db.ExecContext(ctx, stmt, params...)
	return nil, res, err
}

// catalogObjectKinds lists sqlite_master object types in required drop
// order: triggers, views, indexes, tables.
var catalogObjectKinds = []string{"trigger", "view", "index", "table"}

// Wipe drops every user object discovered from the engine's catalog, in
// triggers/views/indexes/tables order, inside one transaction: on any
// sub-failure the whole wipe rolls back and the database is left in its
// prior state. The same handle remains valid afterward.
func (a *Adapter) Wipe(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage: begin wipe transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, kind := range catalogObjectKinds {
		names, err := a.catalogNames(ctx, tx, kind)
		if err != nil {
			return fmt.Errorf("storage: list %s objects: %w", kind, err)
		}
		for _, name := range names {
			stmt := fmt.Sprintf("DROP %s %s", sqlKeywordFor(kind), quoteIdent(name))
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("storage: drop %s %q: %w", kind, name, err)
			}
		}
	}

	return tx.Commit()
}

func (a *Adapter) catalogNames(ctx context.Context, tx *sql.Tx, kind string) ([]string, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = ? AND name NOT LIKE 'sqlite_%'`, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func sqlKeywordFor(kind string) string {
	switch kind {
	case "trigger":
		return "TRIGGER"
	case "view":
		return "VIEW"
	case "index":
		return "INDEX"
	default:
		return "TABLE"
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Close releases the underlying connection.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.db.Close()
}

// Stats reports connection pool counters (observability only).
func (a *Adapter) Stats() AdapterStats {
	a.mu.RLock()
	defer a.mu.RUnlock()
	s := a.db.Stats()
	return AdapterStats{OpenConnections: s.OpenConnections, InUse: s.InUse, Idle: s.Idle}
}
