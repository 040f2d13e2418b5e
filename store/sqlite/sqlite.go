// Package sqlite provides a SQLite implementation of the lifecycle
// store.
//
// # Calling Conventions
//
// This store is a pure data access layer with no internal transaction
// management. Individual methods execute against s.conn, which may be
// either the underlying *sql.DB (autocommit mode) or a *sql.Tx
// (transactional mode).
//
// For operations that require atomicity across multiple calls, use
// RunInTransaction:
//
//	err := s.RunInTransaction(ctx, func(txStore store.Store) error {
//	    if err := txStore.OpenCycle(ctx, cycle); err != nil {
//	        return err // triggers rollback
//	    }
//	    return txStore.AppendOp(ctx, entry) // commits if nil
//	})
//
// When methods are called outside a transaction, each SQL statement
// executes in its own implicit transaction that commits immediately.
// Single-statement methods are therefore atomic by themselves;
// sequences of calls are not.
//
// # Concurrency Model
//
// The file-backed database is opened with WAL mode for crash recovery
// and so readers do not block the writer. The manager serialises
// writes above this layer, so transactions use the default DEFERRED
// type; they provide atomicity and rollback, not writer coordination.
//
// # Prepared Statements
//
// All queries use prepared statements, compiled once at open time and
// held on the store struct. Transactional use binds the compiled
// masters to the transaction via tx.StmtContext; the masters survive
// transaction lifecycle events.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/frobware/go-switchd/store"
)

// msec formats a duration as milliseconds with 3 decimal places.
func msec(d time.Duration) string {
	return fmt.Sprintf("%.3f", float64(d.Microseconds())/1000)
}

//go:embed schema.sql
var schemaSQL string

// dbConn abstracts *sql.DB and *sql.Tx for query execution.
type dbConn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// sqliteStore implements store.Store using SQLite.
type sqliteStore struct {
	db     *sql.DB // original connection, used for BeginTx
	conn   dbConn  // active connection (db or tx)
	logger *slog.Logger

	// Prepared statements for device inventory
	stmtSaveDevice   *sql.Stmt
	stmtGetDevice    *sql.Stmt
	stmtListDevices  *sql.Stmt
	stmtDeleteDevice *sql.Stmt

	// Prepared statements for the warm-init cycle journal
	stmtOpenCycle      *sql.Stmt
	stmtCloseCycle     *sql.Stmt
	stmtAbortOpenCycle *sql.Stmt
	stmtMarkCycleFault *sql.Stmt
	stmtGetOpenCycle   *sql.Stmt
	stmtListCycles     *sql.Stmt
	stmtListOpenCycles *sql.Stmt

	// Prepared statements for the operation log
	stmtAppendOp *sql.Stmt
	stmtListOps  *sql.Stmt
}

// New creates a SQLite store at the given path, creating the parent
// directory if needed.
func New(ctx context.Context, dbPath string, logger *slog.Logger) (store.Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "store", "db", dbPath)

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open(driverName, dsn(dbPath, [][2]string{
		{"journal_mode", "WAL"},
		{"busy_timeout", "5000"},
		{"foreign_keys", "1"},
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &sqliteStore{db: db, conn: db, logger: logger}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	if err := s.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	logger.Info("opened database", "path", dbPath)
	return s, nil
}

// NewInMemory creates an in-memory SQLite store for testing.
func NewInMemory(ctx context.Context, logger *slog.Logger) (store.Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "store", "db", ":memory:")

	db, err := sql.Open(driverName, dsn(":memory:", [][2]string{{"foreign_keys", "1"}}))
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}

	s := &sqliteStore{db: db, conn: db, logger: logger}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	if err := s.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	logger.Info("opened in-memory database")
	return s, nil
}

// Close closes all prepared statements and the database connection.
func (s *sqliteStore) Close() error {
	s.closeStatements()
	return s.db.Close()
}

// closeStatements closes all prepared statements. Each close error is
// silently ignored because the database is about to be closed.
func (s *sqliteStore) closeStatements() {
	stmts := []*sql.Stmt{
		s.stmtSaveDevice,
		s.stmtGetDevice,
		s.stmtListDevices,
		s.stmtDeleteDevice,
		s.stmtOpenCycle,
		s.stmtCloseCycle,
		s.stmtAbortOpenCycle,
		s.stmtMarkCycleFault,
		s.stmtGetOpenCycle,
		s.stmtListCycles,
		s.stmtListOpenCycles,
		s.stmtAppendOp,
		s.stmtListOps,
	}
	for _, stmt := range stmts {
		if stmt != nil {
			stmt.Close()
		}
	}
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// RunInTransaction executes the callback within a database
// transaction. If the callback returns nil, the transaction commits;
// otherwise it rolls back.
//
// tx.StmtContext creates transaction-bound handles referencing the
// already-compiled master statements; no SQL parsing occurs. After
// commit or rollback the handles become invalid, which is fine: the
// txStore goes out of scope and the masters remain valid.
func (s *sqliteStore) RunInTransaction(ctx context.Context, fn func(store.Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	txStore := &sqliteStore{
		db:     s.db,
		conn:   tx,
		logger: s.logger,
		// Device statements
		stmtSaveDevice:   tx.StmtContext(ctx, s.stmtSaveDevice),
		stmtGetDevice:    tx.StmtContext(ctx, s.stmtGetDevice),
		stmtListDevices:  tx.StmtContext(ctx, s.stmtListDevices),
		stmtDeleteDevice: tx.StmtContext(ctx, s.stmtDeleteDevice),
		// Cycle statements
		stmtOpenCycle:      tx.StmtContext(ctx, s.stmtOpenCycle),
		stmtCloseCycle:     tx.StmtContext(ctx, s.stmtCloseCycle),
		stmtAbortOpenCycle: tx.StmtContext(ctx, s.stmtAbortOpenCycle),
		stmtMarkCycleFault: tx.StmtContext(ctx, s.stmtMarkCycleFault),
		stmtGetOpenCycle:   tx.StmtContext(ctx, s.stmtGetOpenCycle),
		stmtListCycles:     tx.StmtContext(ctx, s.stmtListCycles),
		stmtListOpenCycles: tx.StmtContext(ctx, s.stmtListOpenCycles),
		// Oplog statements
		stmtAppendOp: tx.StmtContext(ctx, s.stmtAppendOp),
		stmtListOps:  tx.StmtContext(ctx, s.stmtListOps),
	}

	if err := fn(txStore); err != nil {
		return err
	}

	return tx.Commit()
}
