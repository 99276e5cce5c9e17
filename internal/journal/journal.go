// Package journal keeps an append-only SQLite audit trail of registry
// mutations. The JSON document stays the source of truth; the journal is
// best-effort history for operators.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/loopdeck/loopdeck/internal/research"
)

const schema = `
CREATE TABLE IF NOT EXISTS loop_events (
	id TEXT PRIMARY KEY,
	loop_id TEXT NOT NULL,
	agent_id TEXT NOT NULL,
	action TEXT NOT NULL,
	round INTEGER NOT NULL DEFAULT 0,
	detail TEXT DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_loop_events_loop ON loop_events(loop_id);
CREATE INDEX IF NOT EXISTS idx_loop_events_agent ON loop_events(agent_id);
`

// Journal is a SQLite-backed implementation of research.Journal.
type Journal struct {
	db *sql.DB
}

// Open creates or opens the journal database at dbPath.
func Open(dbPath string) (*Journal, error) {
	db, err := sql.Open("sqlite", "file:"+dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open journal db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply journal schema: %w", err)
	}
	return &Journal{db: db}, nil
}

// Record appends one mutation event.
func (j *Journal) Record(ctx context.Context, entry research.JournalEntry) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO loop_events (id, loop_id, agent_id, action, round, detail, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), entry.LoopID, entry.AgentID, entry.Action, entry.Round, entry.Detail,
		time.Now().UTC(),
	)
	return err
}

// Event is one journal row.
type Event struct {
	ID        string
	LoopID    string
	AgentID   string
	Action    string
	Round     int
	Detail    string
	CreatedAt time.Time
}

// Recent returns the newest events for one loop, newest first.
func (j *Journal) Recent(ctx context.Context, loopID string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, loop_id, agent_id, action, round, detail, created_at
		 FROM loop_events WHERE loop_id = ?
		 ORDER BY created_at DESC, id DESC LIMIT ?`, loopID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var ev Event
		if err := rows.Scan(&ev.ID, &ev.LoopID, &ev.AgentID, &ev.Action, &ev.Round, &ev.Detail, &ev.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}
