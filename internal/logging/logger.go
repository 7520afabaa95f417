package logging

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Call is one recorded generation: the prompts that went out, what came
// back, and how long it took. Error is empty for successful calls.
type Call struct {
	ID           int       `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	RunID        string    `json:"run_id"`
	Operation    string    `json:"operation"`
	Model        string    `json:"model"`
	SystemPrompt string    `json:"system_prompt"`
	UserPrompt   string    `json:"user_prompt"`
	Response     string    `json:"response"`
	DurationMS   int64     `json:"duration_ms"`
	Error        string    `json:"error,omitempty"`
}

// CallLog is a sqlite-backed audit log of every generation, reviewable
// after the fact with the review subcommand.
type CallLog struct {
	db *sql.DB
}

func Open(path string) (*CallLog, error) {
	if path == "" {
		path = "generations.db"
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	log := &CallLog{db: db}
	if err := log.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return log, nil
}

func (cl *CallLog) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS generations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		run_id TEXT NOT NULL,
		operation TEXT NOT NULL,
		model TEXT NOT NULL,
		system_prompt TEXT NOT NULL,
		user_prompt TEXT NOT NULL,
		response TEXT NOT NULL,
		duration_ms INTEGER NOT NULL,
		error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_generations_timestamp ON generations(timestamp);
	CREATE INDEX IF NOT EXISTS idx_generations_run_id ON generations(run_id);
	`

	_, err := cl.db.Exec(schema)
	return err
}

// Record inserts one call. Timestamp and ID are assigned by the database.
func (cl *CallLog) Record(c Call) error {
	var callErr *string
	if c.Error != "" {
		callErr = &c.Error
	}

	_, err := cl.db.Exec(`
		INSERT INTO generations (run_id, operation, model, system_prompt, user_prompt, response, duration_ms, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, c.RunID, c.Operation, c.Model, c.SystemPrompt, c.UserPrompt, c.Response, c.DurationMS, callErr)

	return err
}

// Recent returns the latest calls, newest first.
func (cl *CallLog) Recent(limit int) ([]Call, error) {
	rows, err := cl.db.Query(`
		SELECT id, timestamp, run_id, operation, model, system_prompt, user_prompt, response, duration_ms, error
		FROM generations
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query generations: %w", err)
	}
	defer rows.Close()

	var calls []Call
	for rows.Next() {
		var c Call
		var callErr sql.NullString
		if err := rows.Scan(&c.ID, &c.Timestamp, &c.RunID, &c.Operation, &c.Model,
			&c.SystemPrompt, &c.UserPrompt, &c.Response, &c.DurationMS, &callErr); err != nil {
			return nil, fmt.Errorf("failed to scan generation: %w", err)
		}
		if callErr.Valid {
			c.Error = callErr.String
		}
		calls = append(calls, c)
	}

	return calls, rows.Err()
}

func (cl *CallLog) Close() error {
	return cl.db.Close()
}
