// Package persistence provides SQLite-based session storage plus the
// debounced syncer that feeds it. The simulation never waits on anything in
// this package; failures are logged and retried on the next state change.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/greenfield-games/ecoquest/internal/engine"
	"github.com/greenfield-games/ecoquest/internal/events"
)

// Store wraps a SQLite connection for session persistence.
type Store struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*Store, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	st := &Store{conn: conn}
	if err := st.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return st, nil
}

// Close closes the database connection.
func (st *Store) Close() error {
	return st.conn.Close()
}

func (st *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		started INTEGER NOT NULL,
		tick INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		snapshot_json TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS session_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		event_id TEXT NOT NULL,
		type TEXT NOT NULL,
		message TEXT NOT NULL,
		payload_json TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_session_events_session ON session_events(session_id, id);
	`
	_, err := st.conn.Exec(schema)
	return err
}

// SaveSnapshot upserts the session snapshot.
func (st *Store) SaveSnapshot(snap engine.Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	_, err = st.conn.Exec(`INSERT INTO sessions (id, started, tick, outcome, snapshot_json, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			started = excluded.started,
			tick = excluded.tick,
			outcome = excluded.outcome,
			snapshot_json = excluded.snapshot_json,
			updated_at = excluded.updated_at`,
		snap.SessionID, boolToInt(snap.Started), snap.Tick, string(snap.Outcome),
		string(raw), snap.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upsert session %s: %w", snap.SessionID, err)
	}
	return nil
}

// LoadLatestSnapshot returns the most recently updated session snapshot, or
// (zero, false) when the store is empty.
func (st *Store) LoadLatestSnapshot() (engine.Snapshot, bool, error) {
	var raw string
	err := st.conn.Get(&raw, "SELECT snapshot_json FROM sessions ORDER BY updated_at DESC LIMIT 1")
	if errors.Is(err, sql.ErrNoRows) {
		return engine.Snapshot{}, false, nil
	}
	if err != nil {
		return engine.Snapshot{}, false, fmt.Errorf("load snapshot: %w", err)
	}

	var snap engine.Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return engine.Snapshot{}, false, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, true, nil
}

// AppendEvent records one game event in the append-only log.
func (st *Store) AppendEvent(sessionID string, e events.Event) error {
	var payload any
	if e.Payload != nil {
		raw, err := json.Marshal(e.Payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		payload = string(raw)
	}

	_, err := st.conn.Exec(`INSERT INTO session_events (session_id, event_id, type, message, payload_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		sessionID, e.ID, string(e.Type), e.Message, payload,
		e.Timestamp.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// RecentEvents returns the most recent N persisted events for a session,
// newest first.
func (st *Store) RecentEvents(sessionID string, limit int) ([]events.Event, error) {
	rows, err := st.conn.Queryx(`SELECT event_id, type, message, payload_json, created_at
		FROM session_events WHERE session_id = ? ORDER BY id DESC LIMIT ?`,
		sessionID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []events.Event
	for rows.Next() {
		var (
			e       events.Event
			typ     string
			payload sql.NullString
			created string
		)
		if err := rows.Scan(&e.ID, &typ, &e.Message, &payload, &created); err != nil {
			return nil, err
		}
		e.Type = events.Type(typ)
		if payload.Valid {
			if err := json.Unmarshal([]byte(payload.String), &e.Payload); err != nil {
				return nil, fmt.Errorf("decode payload: %w", err)
			}
		}
		if ts, err := time.Parse(time.RFC3339Nano, created); err == nil {
			e.Timestamp = ts
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// SaveMeta stores a key-value pair.
func (st *Store) SaveMeta(key, value string) error {
	_, err := st.conn.Exec("INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)", key, value)
	return err
}

// GetMeta retrieves a metadata value.
func (st *Store) GetMeta(key string) (string, error) {
	var value string
	err := st.conn.Get(&value, "SELECT value FROM meta WHERE key = ?", key)
	return value, err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
