package journal

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/danielpatrickdp/truthjournal/internal/vector"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS audit_log (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	entry_id    TEXT NOT NULL UNIQUE,
	event       TEXT NOT NULL,
	vector      TEXT NOT NULL,
	diff_anchor TEXT NOT NULL,
	diff_last   TEXT,
	alarm       INTEGER NOT NULL,
	scorer      TEXT,
	prev_hash   TEXT,
	hash        TEXT NOT NULL,
	created_at  TEXT NOT NULL
);
`

// #endregion schema

// maxIDRetries bounds how often Append re-seals after an entry_id collision.
const maxIDRetries = 8

// #region sqlite-log
// SQLiteLog stores audit entries in the audit_log table.
type SQLiteLog struct {
	db    *sql.DB
	chain *chain
}

// NewSQLiteLog creates the audit_log table if needed.
func NewSQLiteLog(db *sql.DB, now func() time.Time) (*SQLiteLog, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate audit_log: %w", err)
	}
	return &SQLiteLog{db: db, chain: newChain(now, "")}, nil
}

// head reads the newest hash so entries appended by another process are
// linked correctly.
func (l *SQLiteLog) head() (string, error) {
	var h sql.NullString
	err := l.db.QueryRow(`SELECT hash FROM audit_log ORDER BY id DESC LIMIT 1`).Scan(&h)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("read chain head: %w", err)
	}
	return h.String, nil
}

// Close is a no-op; the database handle belongs to the state store.
func (l *SQLiteLog) Close() error { return nil }

// #endregion sqlite-log

// #region append
// Append writes one row linked to the current newest row. A UNIQUE collision on entry_id re-seals the entry
// with the next sequence number.
func (l *SQLiteLog) Append(e Entry) (Entry, error) {
	l.chain.mu.Lock()
	defer l.chain.mu.Unlock()

	for attempt := 0; ; attempt++ {
		head, err := l.head()
		if err != nil {
			return Entry{}, err
		}
		l.chain.head = head
		sealed, err := l.chain.seal(e)
		if err != nil {
			return Entry{}, err
		}
		err = insertEntry(l.db, sealed)
		if err == nil {
			l.chain.head = sealed.Hash
			return sealed, nil
		}
		if !isUniqueViolation(err) || attempt >= maxIDRetries {
			return Entry{}, err
		}
	}
}

func insertEntry(db *sql.DB, e Entry) error {
	vec, _ := json.Marshal(e.Vector)
	diffAnchor, _ := json.Marshal(e.DiffAnchor)
	var diffLast interface{}
	if e.DiffLast != nil {
		b, _ := json.Marshal(*e.DiffLast)
		diffLast = string(b)
	}

	_, err := db.Exec(
		`INSERT INTO audit_log (entry_id, event, vector, diff_anchor, diff_last, alarm, scorer, prev_hash, hash, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID,
		e.Event,
		string(vec),
		string(diffAnchor),
		diffLast,
		boolToInt(e.Alarm),
		nullIfEmpty(e.Scorer),
		nullIfEmpty(e.PrevHash),
		e.Hash,
		e.Timestamp.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

// #endregion append

// #region list
// List returns up to limit entries, newest first.
func (l *SQLiteLog) List(limit int) ([]Entry, error) {
	query := `SELECT entry_id, event, vector, diff_anchor, diff_last, alarm, scorer, prev_hash, hash, created_at
		 FROM audit_log ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := l.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var vec, diffAnchor, createdStr string
		var diffLast, scorer, prevHash sql.NullString
		var alarm int
		if err := rows.Scan(&e.ID, &e.Event, &vec, &diffAnchor, &diffLast, &alarm, &scorer, &prevHash, &e.Hash, &createdStr); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if err := json.Unmarshal([]byte(vec), &e.Vector); err != nil {
			return nil, fmt.Errorf("unmarshal vector for %s: %w", e.ID, err)
		}
		if err := json.Unmarshal([]byte(diffAnchor), &e.DiffAnchor); err != nil {
			return nil, fmt.Errorf("unmarshal diff_anchor for %s: %w", e.ID, err)
		}
		if diffLast.Valid {
			var d vector.Truth
			if err := json.Unmarshal([]byte(diffLast.String), &d); err != nil {
				return nil, fmt.Errorf("unmarshal diff_last for %s: %w", e.ID, err)
			}
			e.DiffLast = &d
		}
		e.Alarm = alarm != 0
		e.Scorer = scorer.String
		e.PrevHash = prevHash.String
		e.Timestamp, _ = time.Parse(time.RFC3339Nano, createdStr)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// #endregion list

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// #endregion helpers
