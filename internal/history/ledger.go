// Package history keeps a SQLite ledger of every generation folded into a
// session's totals. The per-session state file stays authoritative; the
// ledger is an append-only audit trail for the history command.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // register sqlite driver
)

// timeLayout is fixed-width so recorded_at sorts lexically in SQL.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Entry is one recorded generation.
type Entry struct {
	SessionID     string
	GenerationID  string
	Provider      string
	Model         string
	TotalCost     float64
	CacheDiscount float64
	RecordedAt    time.Time
}

// SessionTotal aggregates the ledger for one session.
type SessionTotal struct {
	SessionID     string
	Generations   int
	TotalCost     float64
	CacheDiscount float64
	LastModel     string
	LastSeen      time.Time
}

// Ledger provides SQLite-backed generation history.
type Ledger struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the ledger database at the given path.
func Open(dbPath string) (*Ledger, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating history dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=busy_timeout(2000)")
	if err != nil {
		return nil, fmt.Errorf("opening history db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Ledger{db: db, now: time.Now}, nil
}

// Close closes the ledger database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Record stores a folded generation. Re-recording the same (session, id)
// pair is a no-op, so a retried fold can never appear twice.
func (l *Ledger) Record(ctx context.Context, e Entry) error {
	at := e.RecordedAt
	if at.IsZero() {
		at = l.now()
	}
	_, err := l.db.ExecContext(ctx, `INSERT OR IGNORE INTO generations
		(session_id, generation_id, provider, model, total_cost, cache_discount, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.SessionID, e.GenerationID, e.Provider, e.Model, e.TotalCost, e.CacheDiscount,
		at.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("recording generation %s: %w", e.GenerationID, err)
	}
	return nil
}

// Generations returns the ledger for one session, oldest first.
// limit <= 0 returns everything.
func (l *Ledger) Generations(ctx context.Context, sessionID string, limit int) ([]Entry, error) {
	query := `SELECT session_id, generation_id, provider, model, total_cost, cache_discount, recorded_at
		FROM generations WHERE session_id = ? ORDER BY recorded_at, rowid`
	args := []any{sessionID}
	if limit > 0 {
		// newest N, still returned oldest first
		query = `SELECT * FROM (
			SELECT session_id, generation_id, provider, model, total_cost, cache_discount, recorded_at, rowid AS rid
			FROM generations WHERE session_id = ? ORDER BY recorded_at DESC, rowid DESC LIMIT ?
		) ORDER BY recorded_at, rid`
		args = append(args, limit)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var provider, model sql.NullString
		var recordedAt string
		dest := []any{&e.SessionID, &e.GenerationID, &provider, &model, &e.TotalCost, &e.CacheDiscount, &recordedAt}
		if limit > 0 {
			var rid int64
			dest = append(dest, &rid)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		e.Provider = provider.String
		e.Model = model.String
		e.RecordedAt, _ = time.Parse(timeLayout, recordedAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Sessions returns per-session totals, most recently active first.
func (l *Ledger) Sessions(ctx context.Context, limit int) ([]SessionTotal, error) {
	query := `SELECT g.session_id, COUNT(*), SUM(g.total_cost), SUM(g.cache_discount), MAX(g.recorded_at),
			(SELECT model FROM generations m
			 WHERE m.session_id = g.session_id AND m.model != ''
			 ORDER BY m.recorded_at DESC, m.rowid DESC LIMIT 1)
		FROM generations g
		GROUP BY g.session_id
		ORDER BY MAX(g.recorded_at) DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var totals []SessionTotal
	for rows.Next() {
		var st SessionTotal
		var lastSeen string
		var lastModel sql.NullString
		if err := rows.Scan(&st.SessionID, &st.Generations, &st.TotalCost, &st.CacheDiscount, &lastSeen, &lastModel); err != nil {
			return nil, err
		}
		st.LastModel = lastModel.String
		st.LastSeen, _ = time.Parse(timeLayout, lastSeen)
		totals = append(totals, st)
	}
	return totals, rows.Err()
}

// Count returns the number of recorded generations for a session.
func (l *Ledger) Count(ctx context.Context, sessionID string) (int, error) {
	var n int
	err := l.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM generations WHERE session_id = ?", sessionID).Scan(&n)
	return n, err
}
