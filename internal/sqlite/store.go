package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/campman/pkg/types"
)

// busyTimeout bounds how long a statement waits on a lock held by another
// process before failing.
const busyTimeout = 5 * time.Second

// Store owns the connection to one campaign file. It is safe for use by
// multiple goroutines; calls are serialized.
type Store struct {
	mu   sync.Mutex
	path string
	db   *sql.DB

	subjects *Table[types.Subject]
	places   *Table[types.Place]
	events   *Table[types.Event]
	groups   *Table[types.Group]
	tags     *Table[types.Tag]
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open attaches to an existing campaign file. Returns ErrStoreNotFound if
// path does not exist and ErrSchemaMismatch if the file lacks any of the
// campaign tables.
func Open(ctx context.Context, path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s: %w", types.ErrStoreNotFound, path, err)
		}
		return nil, fmt.Errorf("checking %s: %w", path, err)
	}

	db, err := openDB(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := verifySchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return newStore(path, db), nil
}

// CreateNew creates a campaign file at path and lays out the schema. It
// fails with a *types.FileExistsError if anything already exists at path.
// If the schema cannot be created the file is removed again.
func CreateNew(ctx context.Context, path string) (*Store, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, &types.FileExistsError{Path: path}
		}
		return nil, fmt.Errorf("creating %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("creating %s: %w", path, err)
	}

	db, err := openDB(ctx, path)
	if err != nil {
		os.Remove(path)
		return nil, err
	}
	if err := createSchema(ctx, db); err != nil {
		db.Close()
		os.Remove(path)
		return nil, err
	}
	return newStore(path, db), nil
}

// openDB opens path with a single connection so that per-connection pragmas
// hold for every statement.
func openDB(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite: %w", err)
	}

	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout = %d;", busyTimeout.Milliseconds()),
		"PRAGMA foreign_keys = ON;",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", pragma, err)
		}
	}
	return db, nil
}

func newStore(path string, db *sql.DB) *Store {
	s := &Store{path: path, db: db}
	s.subjects = newTable(s, subjectEntity)
	s.places = newTable(s, placeEntity)
	s.events = newTable(s, eventEntity)
	s.groups = newTable(s, groupEntity)
	s.tags = newTable(s, tagEntity)
	return s
}

// Path returns the file the store was opened from.
func (s *Store) Path() string { return s.path }

// Close releases the connection. Close is idempotent; after it returns every
// operation fails with ErrStoreClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Subjects returns the subjects table.
func (s *Store) Subjects() *Table[types.Subject] { return s.subjects }

// Places returns the places table.
func (s *Store) Places() *Table[types.Place] { return s.places }

// Events returns the events table.
func (s *Store) Events() *Table[types.Event] { return s.events }

// Groups returns the groups table.
func (s *Store) Groups() *Table[types.Group] { return s.groups }

// Tags returns the tags table.
func (s *Store) Tags() *Table[types.Tag] { return s.tags }

// do runs fn with the open connection while holding the store lock.
func (s *Store) do(fn func(db *sql.DB) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return types.ErrStoreClosed
	}
	return fn(s.db)
}

// inTx runs fn inside a transaction while holding the store lock.
func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return s.do(func(db *sql.DB) error {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("beginning transaction: %w", err)
		}
		defer tx.Rollback()

		if err := fn(tx); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing transaction: %w", err)
		}
		return nil
	})
}

// rowExists reports whether kind has a row with the given key.
func rowExists(ctx context.Context, q querier, kind types.Kind, key types.Key) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, "SELECT 1 FROM "+kind.Table()+" WHERE id = ?", int64(key)).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking %s %d: %w", kind.Singular(), key, err)
	}
	return true, nil
}
