// Package journal records teleport attempts and their state transitions in a
// SQLite database.
package journal

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"worlds-collide/internal/mathutil"
	"worlds-collide/internal/teleport"
)

// Journal is safe for concurrent use.
type Journal struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens or creates the journal at path.
func Open(path string) (*Journal, error) {
	if path == "" {
		return nil, fmt.Errorf("journal: empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal: pragmas: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal: schema: %w", err)
	}
	return &Journal{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS attempts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			actor TEXT NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL,
			zone_before TEXT NOT NULL,
			zone_after TEXT NOT NULL,
			target_x REAL, target_y REAL, target_z REAL,
			intended_x REAL, intended_y REAL, intended_z REAL,
			actual_x REAL, actual_y REAL, actual_z REAL,
			direct INTEGER NOT NULL,
			moved INTEGER NOT NULL,
			fallback INTEGER NOT NULL,
			tries INTEGER NOT NULL,
			state TEXT NOT NULL,
			kind TEXT NOT NULL,
			error_2d REAL,
			error TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS transitions (
			attempt_id INTEGER NOT NULL REFERENCES attempts(id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			from_state TEXT NOT NULL,
			to_state TEXT NOT NULL,
			at TEXT NOT NULL,
			error TEXT,
			PRIMARY KEY (attempt_id, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS attempts_actor ON attempts(actor, id);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Recorder collects one attempt. Observe is a teleport.Observer.
type Recorder struct {
	j           *Journal
	actor       string
	target      mathutil.Vec3
	started     time.Time
	mu          sync.Mutex
	transitions []teleport.Transition
}

// Begin starts recording an attempt for actor.
func (j *Journal) Begin(actor string, target mathutil.Vec3) *Recorder {
	return &Recorder{j: j, actor: actor, target: target, started: time.Now()}
}

// Observe buffers a transition until Finish.
func (r *Recorder) Observe(t teleport.Transition) {
	r.mu.Lock()
	r.transitions = append(r.transitions, t)
	r.mu.Unlock()
}

// Finish writes the attempt and its transitions and returns the row id.
func (r *Recorder) Finish(res teleport.Result, attemptErr error) (int64, error) {
	r.mu.Lock()
	transitions := append([]teleport.Transition(nil), r.transitions...)
	r.mu.Unlock()

	j := r.j
	j.mu.Lock()
	defer j.mu.Unlock()

	tx, err := j.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("journal: begin: %w", err)
	}
	defer tx.Rollback()

	out, err := tx.Exec(`INSERT INTO attempts (
			actor, started_at, finished_at, zone_before, zone_after,
			target_x, target_y, target_z, intended_x, intended_y, intended_z,
			actual_x, actual_y, actual_z, direct, moved, fallback, tries,
			state, kind, error_2d, error)
		VALUES (?,?,?,?,?, ?,?,?,?,?,?, ?,?,?,?,?,?,?, ?,?,?,?)`,
		r.actor, stamp(r.started), stamp(time.Now()), res.ZoneBefore, res.ZoneAfter,
		r.target[0], r.target[1], r.target[2], res.Intended[0], res.Intended[1], res.Intended[2],
		res.Actual[0], res.Actual[1], res.Actual[2], res.Direct, res.Moved, res.Fallback, res.Attempts,
		res.State.String(), res.Kind.String(), res.Error2D, errText(attemptErr))
	if err != nil {
		return 0, fmt.Errorf("journal: insert attempt: %w", err)
	}
	id, err := out.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("journal: attempt id: %w", err)
	}

	for i, t := range transitions {
		if _, err := tx.Exec(`INSERT INTO transitions (attempt_id, seq, from_state, to_state, at, error) VALUES (?,?,?,?,?,?)`,
			id, i, t.From.String(), t.To.String(), stamp(t.At), errText(t.Err)); err != nil {
			return 0, fmt.Errorf("journal: insert transition: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("journal: commit: %w", err)
	}
	return id, nil
}

// Entry is one recorded attempt.
type Entry struct {
	ID         int64
	Actor      string
	StartedAt  time.Time
	ZoneBefore string
	ZoneAfter  string
	Target     mathutil.Vec3
	Intended   mathutil.Vec3
	Direct     bool
	Fallback   bool
	State      string
	Kind       string
	Error      string
	States     []string // transition targets in order
}

// Recent returns the latest attempts, newest first. An empty actor matches
// every actor.
func (j *Journal) Recent(actor string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	rows, err := j.db.Query(`SELECT id, actor, started_at, zone_before, zone_after,
			target_x, target_y, target_z, intended_x, intended_y, intended_z,
			direct, fallback, state, kind, COALESCE(error, '')
		FROM attempts WHERE (? = '' OR actor = ?) ORDER BY id DESC LIMIT ?`, actor, actor, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: query: %w", err)
	}
	var out []Entry
	for rows.Next() {
		var e Entry
		var started string
		if err := rows.Scan(&e.ID, &e.Actor, &started, &e.ZoneBefore, &e.ZoneAfter,
			&e.Target[0], &e.Target[1], &e.Target[2], &e.Intended[0], &e.Intended[1], &e.Intended[2],
			&e.Direct, &e.Fallback, &e.State, &e.Kind, &e.Error); err != nil {
			rows.Close()
			return nil, fmt.Errorf("journal: scan: %w", err)
		}
		e.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		out = append(out, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("journal: rows: %w", err)
	}

	for i := range out {
		states, err := j.states(out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].States = states
	}
	return out, nil
}

func (j *Journal) states(id int64) ([]string, error) {
	rows, err := j.db.Query(`SELECT to_state FROM transitions WHERE attempt_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("journal: transitions: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("journal: scan transition: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func stamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func errText(err error) any {
	if err == nil {
		return nil
	}
	return err.Error()
}
