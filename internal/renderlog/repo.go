package renderlog

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/starford/autoindex/internal/apperr"
)

// Entry is one recorded render pass.
type Entry struct {
	ID        string        `json:"id"`
	Widget    string        `json:"widget"`
	Path      string        `json:"path"`
	RootID    int           `json:"root_id"`
	Depth     int           `json:"depth"`
	Rows      int           `json:"rows"`
	Fetches   int           `json:"fetches"`
	Checksum  string        `json:"checksum,omitempty"`
	Status    string        `json:"status"`
	Error     string        `json:"error,omitempty"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ms"`
}

const entryColumns = `id, widget, path, root_id, depth, rows, fetches, checksum, status, error, started_at, duration_ms`

// Record inserts e, assigning an id when it has none.
func (db *DB) Record(e Entry) (Entry, error) {
	if e.Widget == "" || e.Status == "" {
		return Entry{}, fmt.Errorf("renderlog: widget and status are required: %w", apperr.ErrInvalidInput)
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.StartedAt.IsZero() {
		e.StartedAt = time.Now()
	}
	e.StartedAt = e.StartedAt.UTC()

	_, err := db.conn.Exec(`INSERT INTO renders (`+entryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Widget, e.Path, e.RootID, e.Depth, e.Rows, e.Fetches, e.Checksum, e.Status, e.Error,
		e.StartedAt, e.Duration.Milliseconds())
	if err != nil {
		return Entry{}, fmt.Errorf("renderlog: insert: %w", err)
	}
	return e, nil
}

// List returns entries newest first, optionally filtered by widget, and the
// total number of matching entries.
func (db *DB) List(widget string, limit, offset int) ([]Entry, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	where := ""
	var args []any
	if widget != "" {
		where = ` WHERE widget = ?`
		args = append(args, widget)
	}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM renders`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("renderlog: count: %w", err)
	}

	rows, err := db.conn.Query(`SELECT `+entryColumns+` FROM renders`+where+
		` ORDER BY started_at DESC, rowid DESC LIMIT ? OFFSET ?`, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("renderlog: list: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, e)
	}
	return out, total, rows.Err()
}

// Last returns the most recent entry for widget.
func (db *DB) Last(widget string) (*Entry, error) {
	row := db.conn.QueryRow(`SELECT `+entryColumns+` FROM renders WHERE widget = ?
		ORDER BY started_at DESC, rowid DESC LIMIT 1`, widget)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("renderlog: %s: %w", widget, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Prune keeps the newest keep entries per widget and deletes the rest.
// keep <= 0 disables pruning.
func (db *DB) Prune(keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}
	res, err := db.conn.Exec(`
		DELETE FROM renders WHERE rowid IN (
			SELECT rowid FROM (
				SELECT rowid, ROW_NUMBER() OVER (
					PARTITION BY widget ORDER BY started_at DESC, rowid DESC
				) AS rn FROM renders
			) WHERE rn > ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("renderlog: prune: %w", err)
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (Entry, error) {
	var e Entry
	var ms int64
	err := s.Scan(&e.ID, &e.Widget, &e.Path, &e.RootID, &e.Depth, &e.Rows, &e.Fetches,
		&e.Checksum, &e.Status, &e.Error, &e.StartedAt, &ms)
	if err != nil {
		return Entry{}, err
	}
	e.Duration = time.Duration(ms) * time.Millisecond
	return e, nil
}
