package record

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const indexSchema = `
	CREATE TABLE IF NOT EXISTS recordings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		path TEXT NOT NULL UNIQUE,
		userId TEXT NOT NULL,
		sessionId TEXT NOT NULL,
		gesture TEXT NOT NULL,
		samples INTEGER NOT NULL,
		createdAt INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS recordings_user ON recordings(userId, createdAt);
`

// Entry is one committed recording in the index.
type Entry struct {
	ID        int64
	Path      string
	UserID    string
	SessionID string
	Gesture   string
	Samples   int
	CreatedAt time.Time
}

// Index is a SQLite catalog of committed recordings.
type Index struct {
	db *sql.DB
}

// OpenIndex opens (creating if needed) the index database at path.
func OpenIndex(path string) (*Index, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create index directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path))
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping index: %w", err)
	}
	if _, err := db.Exec(indexSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create index schema: %w", err)
	}

	return &Index{db: db}, nil
}

func (x *Index) Close() error {
	return x.db.Close()
}

// Add records e and returns its row id.
func (x *Index) Add(ctx context.Context, e Entry) (int64, error) {
	res, err := x.db.ExecContext(ctx, `
		INSERT INTO recordings (path, userId, sessionId, gesture, samples, createdAt)
		VALUES (?, ?, ?, ?, ?, ?)
	`, e.Path, e.UserID, e.SessionID, e.Gesture, e.Samples, e.CreatedAt.Unix())
	if err != nil {
		return 0, fmt.Errorf("insert recording: %w", err)
	}
	return res.LastInsertId()
}

// List returns recordings for userID, newest first. An empty userID lists
// every user.
func (x *Index) List(ctx context.Context, userID string) ([]Entry, error) {
	rows, err := x.db.QueryContext(ctx, `
		SELECT id, path, userId, sessionId, gesture, samples, createdAt
		FROM recordings
		WHERE ? = '' OR userId = ?
		ORDER BY createdAt DESC, id DESC
	`, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("query recordings: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var createdAt int64
		if err := rows.Scan(&e.ID, &e.Path, &e.UserID, &e.SessionID,
			&e.Gesture, &e.Samples, &createdAt); err != nil {
			return nil, fmt.Errorf("scan recording: %w", err)
		}
		e.CreatedAt = time.Unix(createdAt, 0)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
