package links

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/brynix/brynixbot/internal/sqlitedb"
)

const schema = `
CREATE TABLE IF NOT EXISTS group_links (
	chat_id TEXT PRIMARY KEY,
	sheet_id TEXT NOT NULL,
	project_name TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);
`

// SQLiteKV persists links in a group_links table.
type SQLiteKV struct {
	db *sql.DB
}

// NewSQLiteKV opens (or creates) the database at path with the given driver
// ("sqlite" or "sqlite3").
func NewSQLiteKV(driver, path string) (*SQLiteKV, error) {
	db, err := sqlitedb.Open(driver, path, schema)
	if err != nil {
		return nil, fmt.Errorf("links db: %w", err)
	}
	return &SQLiteKV{db: db}, nil
}

// Close releases the database handle.
func (s *SQLiteKV) Close() error {
	return s.db.Close()
}

func (s *SQLiteKV) Get(ctx context.Context, chatID string) (Link, bool, error) {
	var (
		l       Link
		updated int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT chat_id, sheet_id, project_name, updated_at FROM group_links WHERE chat_id = ?`, chatID,
	).Scan(&l.ChatID, &l.SheetID, &l.ProjectName, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Link{}, false, nil
	}
	if err != nil {
		return Link{}, false, err
	}
	l.UpdatedAt = time.Unix(updated, 0).UTC()
	return l, true, nil
}

func (s *SQLiteKV) Set(ctx context.Context, link Link) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO group_links (chat_id, sheet_id, project_name, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(chat_id) DO UPDATE SET
			sheet_id = excluded.sheet_id,
			project_name = excluded.project_name,
			updated_at = excluded.updated_at
	`, link.ChatID, link.SheetID, link.ProjectName, link.UpdatedAt.Unix())
	return err
}

func (s *SQLiteKV) Remove(ctx context.Context, chatID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM group_links WHERE chat_id = ?`, chatID)
	return err
}

func (s *SQLiteKV) List(ctx context.Context) ([]Link, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT chat_id, sheet_id, project_name, updated_at FROM group_links ORDER BY chat_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Link
	for rows.Next() {
		var (
			l       Link
			updated int64
		)
		if err := rows.Scan(&l.ChatID, &l.SheetID, &l.ProjectName, &updated); err != nil {
			return nil, err
		}
		l.UpdatedAt = time.Unix(updated, 0).UTC()
		out = append(out, l)
	}
	return out, rows.Err()
}
