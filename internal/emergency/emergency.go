// Package emergency persists detected emergencies to an append-only
// SQLite log so escalations survive process restarts and can be reviewed.
package emergency

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Record is one detected emergency.
type Record struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	SessionID  string    `json:"session_id"`
	Message    string    `json:"message"`
	Categories []string  `json:"categories"`
	CreatedAt  time.Time `json:"created_at"`
}

// Log is a SQLite-backed emergency log.
type Log struct {
	db *sql.DB
}

// Open creates or opens the log database at path.
func Open(path string) (*Log, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	l := &Log{db: db}
	if err := l.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return l, nil
}

func (l *Log) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS emergencies (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			session_id TEXT NOT NULL,
			message TEXT NOT NULL,
			categories TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_emergencies_user ON emergencies(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_emergencies_created ON emergencies(created_at)`,
	}

	for _, stmt := range statements {
		if _, err := l.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}
	return nil
}

// Append writes a record. An empty ID or timestamp is filled in.
func (l *Log) Append(ctx context.Context, rec *Record) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	categories, err := json.Marshal(rec.Categories)
	if err != nil {
		return fmt.Errorf("failed to marshal categories: %w", err)
	}

	query := `INSERT INTO emergencies (id, user_id, session_id, message, categories, created_at)
	          VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := l.db.ExecContext(ctx, query,
		rec.ID, rec.UserID, rec.SessionID, rec.Message, string(categories), rec.CreatedAt); err != nil {
		return fmt.Errorf("failed to append emergency: %w", err)
	}
	return nil
}

// Recent returns the most recent records, newest first.
func (l *Log) Recent(ctx context.Context, limit int) ([]Record, error) {
	query := `SELECT id, user_id, session_id, message, categories, created_at
	          FROM emergencies ORDER BY created_at DESC LIMIT ?`

	rows, err := l.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query emergencies: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var categoriesJSON string
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.SessionID, &rec.Message, &categoriesJSON, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan emergency: %w", err)
		}
		if err := json.Unmarshal([]byte(categoriesJSON), &rec.Categories); err != nil {
			return nil, fmt.Errorf("failed to unmarshal categories: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close closes the underlying database.
func (l *Log) Close() error {
	return l.db.Close()
}
