package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite keeps collections in a single SQLite database file. Every
// collection is a slice of one table keyed by collection id.
type SQLite struct {
	db *sql.DB

	mu  sync.Mutex
	seq int
}

// OpenSQLite opens or creates the database at path and prepares the schema.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection serializes writers and keeps ":memory:" databases
	// shared across calls.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS collection_entries (
			collection TEXT NOT NULL,
			key TEXT NOT NULL,
			count INTEGER NOT NULL,
			PRIMARY KEY (collection, key)
		);`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	// Collections do not survive a run; leftovers from a crashed run are dropped.
	if _, err := db.Exec(`DELETE FROM collection_entries`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("reset collections: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Create(_ context.Context, name string) (Collection, error) {
	s.mu.Lock()
	s.seq++
	id := fmt.Sprintf("%s#%d", name, s.seq)
	s.mu.Unlock()
	return &sqliteCollection{db: s.db, name: id}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

type sqliteCollection struct {
	db   *sql.DB
	name string
}

func (c *sqliteCollection) Name() string { return c.name }

func (c *sqliteCollection) Insert(ctx context.Context, key string, delta int64) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO collection_entries (collection, key, count)
		 VALUES (?, ?, ?)
		 ON CONFLICT(collection, key) DO UPDATE SET
			count = count + excluded.count`,
		c.name, key, delta,
	)
	if err != nil {
		return fmt.Errorf("insert into %s: %w", c.name, err)
	}
	return nil
}

func (c *sqliteCollection) Iterate(ctx context.Context, fn func(string, int64) error) error {
	rows, err := c.db.QueryContext(ctx,
		`SELECT key, count FROM collection_entries WHERE collection = ? ORDER BY key`, c.name)
	if err != nil {
		return fmt.Errorf("iterate %s: %w", c.name, err)
	}

	// Rows are buffered first: with one connection, calling back into the
	// collection while the cursor is open would deadlock.
	type entry struct {
		key   string
		count int64
	}
	var entries []entry
	for rows.Next() {
		var e entry
		if err := rows.Scan(&e.key, &e.count); err != nil {
			rows.Close()
			return fmt.Errorf("scan %s: %w", c.name, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("iterate %s: %w", c.name, err)
	}
	rows.Close()

	for _, e := range entries {
		if err := fn(e.key, e.count); err != nil {
			return err
		}
	}
	return nil
}

func (c *sqliteCollection) Len(ctx context.Context) (int, error) {
	var n int
	err := c.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM collection_entries WHERE collection = ?`, c.name).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", c.name, err)
	}
	return n, nil
}

func (c *sqliteCollection) Clear(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM collection_entries WHERE collection = ?`, c.name); err != nil {
		return fmt.Errorf("clear %s: %w", c.name, err)
	}
	return nil
}
