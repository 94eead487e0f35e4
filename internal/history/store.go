// Package history keeps an SQLite log of finished evaluations.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/DipperMason/calcalc/internal/calcalc"
)

const schema = `CREATE TABLE IF NOT EXISTS expressions (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	user       TEXT NOT NULL DEFAULT '',
	expression TEXT NOT NULL,
	route      TEXT NOT NULL,
	response   TEXT NOT NULL,
	found      INTEGER NOT NULL,
	fallback   TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL
)`

// Entry is one stored evaluation.
type Entry struct {
	ID         int64     `json:"id"`
	User       string    `json:"user,omitempty"`
	Expression string    `json:"expression"`
	Route      string    `json:"route"`
	Response   string    `json:"response"`
	Found      bool      `json:"found"`
	Fallback   string    `json:"fallback,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Store implements calcalc.Recorder on top of SQLite.
type Store struct {
	db *sql.DB
}

var _ calcalc.Recorder = (*Store)(nil)

// Open opens or creates the database at path and applies the schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	// sqlite allows one writer; a single connection avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create expressions table: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores a finished evaluation.
func (s *Store) Record(ctx context.Context, rec calcalc.Record) error {
	res := rec.Result
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO expressions (user, expression, route, response, found, fallback, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.User, res.Expression, string(res.Route), res.String(), res.Found, res.Fallback, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert expression: %w", err)
	}
	return nil
}

// List returns up to limit entries, newest first. A limit <= 0 returns all.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user, expression, route, response, found, fallback, created_at
		 FROM expressions ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query expressions: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.User, &e.Expression, &e.Route, &e.Response, &e.Found, &e.Fallback, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan expression: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
