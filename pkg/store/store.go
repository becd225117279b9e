// Package store keeps named outlines in a SQLite database.
//
// Each outline is saved as its flat element sequence, one row per element
// ordered by position, with the item payload encoded as JSON. Loading
// returns the sequence unchanged; building the tree (and rejecting a
// corrupted sequence) is left to tree.New.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/flattree/pkg/loader"
	"github.com/vanderheijden86/flattree/pkg/model"
)

// DefaultFileName is the database file inside the state directory.
const DefaultFileName = "outlines.db"

// ErrNotFound is returned when no outline has the requested name.
var ErrNotFound = errors.New("outline not found")

const schema = `
CREATE TABLE IF NOT EXISTS outlines (
	name       TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS elements (
	outline  TEXT    NOT NULL REFERENCES outlines(name) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	id       INTEGER NOT NULL,
	depth    INTEGER NOT NULL,
	name     TEXT    NOT NULL DEFAULT '',
	payload  TEXT    NOT NULL,
	PRIMARY KEY (outline, position)
);
`

// Store is a handle on an outline database.
type Store struct {
	db *sql.DB
}

// Summary describes a saved outline.
type Summary struct {
	Name     string    `json:"name"`
	Title    string    `json:"title"`
	Elements int       `json:"elements"`
	Updated  time.Time `json:"updated"`
}

// Open opens (creating if needed) the database at path. Use ":memory:" for
// a throwaway store.
func Open(path string) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path)
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	db.SetMaxOpenConns(1) // sqlite
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("open store: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores elems under name, replacing any previous version.
func (s *Store) Save(ctx context.Context, name string, elems []loader.Element) error {
	if name == "" {
		return fmt.Errorf("save outline: name cannot be empty")
	}
	title := name
	if len(elems) > 0 && elems[0].Payload.Title != "" {
		title = elems[0].Payload.Title
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		now := time.Now().UTC().Truncate(time.Second).Format(time.RFC3339)
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO outlines (name, title, updated_at) VALUES (?, ?, ?)
			 ON CONFLICT(name) DO UPDATE SET title = excluded.title, updated_at = excluded.updated_at`,
			name, title, now); err != nil {
			return fmt.Errorf("save outline %q: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM elements WHERE outline = ?`, name); err != nil {
			return fmt.Errorf("save outline %q: %w", name, err)
		}

		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO elements (outline, position, id, depth, name, payload) VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("save outline %q: %w", name, err)
		}
		defer stmt.Close()

		for pos, e := range elems {
			payload, err := json.Marshal(e.Payload)
			if err != nil {
				return fmt.Errorf("encode id %d: %w", e.ID, err)
			}
			if _, err := stmt.ExecContext(ctx, name, pos, e.ID, e.Depth, e.Name, string(payload)); err != nil {
				return fmt.Errorf("save outline %q: %w", name, err)
			}
		}
		return nil
	})
}

// Load returns the element sequence saved under name.
func (s *Store) Load(ctx context.Context, name string) ([]loader.Element, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM outlines WHERE name = ?`, name).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("load outline %q: %w", name, err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("load outline %q: %w", name, ErrNotFound)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, depth, name, payload FROM elements WHERE outline = ? ORDER BY position`, name)
	if err != nil {
		return nil, fmt.Errorf("load outline %q: %w", name, err)
	}
	defer rows.Close()

	var elems []loader.Element
	for rows.Next() {
		var (
			e       loader.Element
			payload string
		)
		if err := rows.Scan(&e.ID, &e.Depth, &e.Name, &payload); err != nil {
			return nil, fmt.Errorf("load outline %q: %w", name, err)
		}
		var item model.Item
		if err := json.Unmarshal([]byte(payload), &item); err != nil {
			return nil, fmt.Errorf("decode id %d: %w", e.ID, err)
		}
		e.Payload = item
		elems = append(elems, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load outline %q: %w", name, err)
	}
	return elems, nil
}

// List returns every saved outline, most recently updated first.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT o.name, o.title, o.updated_at, COUNT(e.position)
		FROM outlines o LEFT JOIN elements e ON e.outline = o.name
		GROUP BY o.name
		ORDER BY o.updated_at DESC, o.name`)
	if err != nil {
		return nil, fmt.Errorf("list outlines: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			sum     Summary
			updated string
		)
		if err := rows.Scan(&sum.Name, &sum.Title, &updated, &sum.Elements); err != nil {
			return nil, fmt.Errorf("list outlines: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, updated); err == nil {
			sum.Updated = t
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Delete removes the outline saved under name.
func (s *Store) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM outlines WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete outline %q: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete outline %q: %w", name, ErrNotFound)
	}
	return nil
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
