package activity

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/brynix/brynixbot/internal/sqlitedb"
)

const schema = `
CREATE TABLE IF NOT EXISTS activity (
	id TEXT PRIMARY KEY,
	chat_id TEXT NOT NULL,
	kind TEXT NOT NULL,
	author TEXT NOT NULL DEFAULT '',
	text TEXT NOT NULL DEFAULT '',
	link TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_activity_chat ON activity(chat_id, created_at);
`

// Store persists entries in SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the journal database.
func NewStore(driver, path string) (*Store, error) {
	db, err := sqlitedb.Open(driver, path, schema)
	if err != nil {
		return nil, fmt.Errorf("activity db: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Insert writes one entry.
func (s *Store) Insert(ctx context.Context, e Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO activity (id, chat_id, kind, author, text, link, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.ChatID, string(e.Kind), e.Author, e.Text, e.Link, e.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

// List returns entries matching f, newest first.
func (s *Store) List(ctx context.Context, f Filter) ([]Entry, error) {
	query := `SELECT id, chat_id, kind, author, text, link, created_at FROM activity WHERE 1=1`
	args := []any{}

	if f.ChatID != "" {
		query += " AND chat_id = ?"
		args = append(args, f.ChatID)
	}
	if f.Kind != "" {
		query += " AND kind = ?"
		args = append(args, string(f.Kind))
	}
	if !f.Since.IsZero() {
		query += " AND created_at >= ?"
		args = append(args, f.Since.UnixMilli())
	}
	query += " ORDER BY created_at DESC, id"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e       Entry
			kind    string
			created int64
		)
		if err := rows.Scan(&e.ID, &e.ChatID, &kind, &e.Author, &e.Text, &e.Link, &created); err != nil {
			return nil, err
		}
		e.Kind = Kind(kind)
		e.CreatedAt = time.UnixMilli(created).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}
