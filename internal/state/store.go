package state

import (
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/truthjournal/internal/logging"
	"github.com/danielpatrickdp/truthjournal/internal/vector"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS anchors (
	name        TEXT PRIMARY KEY CHECK (name IN ('baseline', 'last_report')),
	vector      BLOB NOT NULL,
	captured_at TEXT NOT NULL
);
`

// #endregion schema

// #region store-struct
// SQLiteStore keeps the baseline and last report as two rows of one table.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma busy_timeout: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return NewStoreWithDB(db, logger), nil
}

// NewStoreWithDB wraps an already-migrated database handle.
func NewStoreWithDB(db *sql.DB, logger *slog.Logger) *SQLiteStore {
	return &SQLiteStore{
		db:     db,
		logger: logging.NewComponentLogger(logger, "state"),
		now:    time.Now,
	}
}

// #endregion constructor

// #region close
// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB so the audit journal can share the file.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// #endregion close

// #region load
// LoadBaseline reads the baseline row.
func (s *SQLiteStore) LoadBaseline() (Record, bool) {
	return s.load(NameBaseline)
}

// LoadLastReport reads the last_report row.
func (s *SQLiteStore) LoadLastReport() (Record, bool) {
	return s.load(NameLastReport)
}

func (s *SQLiteStore) load(name string) (Record, bool) {
	var blob []byte
	var capturedStr string
	err := s.db.QueryRow(
		`SELECT vector, captured_at FROM anchors WHERE name = ?`, name,
	).Scan(&blob, &capturedStr)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, false
	}
	if err != nil {
		s.warnAbsent(name, err)
		return Record{}, false
	}

	v, err := decodeVector(blob)
	if err != nil {
		s.warnAbsent(name, err)
		return Record{}, false
	}
	rec := Record{Vector: v}
	rec.CapturedAt, _ = time.Parse(TimestampLayout, capturedStr)
	return rec, true
}

func (s *SQLiteStore) warnAbsent(name string, err error) {
	s.logger.Warn("anchor record unreadable, treating as absent",
		logging.String(logging.FieldEventType, "anchor_load_failed"),
		logging.String("record", name),
		logging.Error(err),
		logging.String(logging.FieldImpact, "record will be re-established from the next analysis"))
}

// #endregion load

// #region save
// SaveBaseline upserts the baseline row.
func (s *SQLiteStore) SaveBaseline(v vector.Truth) error {
	return s.save(NameBaseline, v)
}

// SaveLastReport upserts the last_report row.
func (s *SQLiteStore) SaveLastReport(v vector.Truth) error {
	return s.save(NameLastReport, v)
}

func (s *SQLiteStore) save(name string, v vector.Truth) error {
	_, err := s.db.Exec(
		`INSERT INTO anchors (name, vector, captured_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET vector = excluded.vector, captured_at = excluded.captured_at`,
		name, encodeVector(v), stamp(s.now()),
	)
	if err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}
	return nil
}

// #endregion save

// #region vector-encoding
func encodeVector(v vector.Truth) []byte {
	buf := make([]byte, vector.Dims*8)
	for i, f := range v {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(f))
	}
	return buf
}

func decodeVector(b []byte) (vector.Truth, error) {
	var v vector.Truth
	if len(b) != vector.Dims*8 {
		return v, fmt.Errorf("vector blob is %d bytes, want %d", len(b), vector.Dims*8)
	}
	for i := range v {
		v[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))
	}
	if !v.InRange() {
		return vector.Truth{}, fmt.Errorf("vector %v outside [0, 1]", v)
	}
	return v, nil
}

// #endregion vector-encoding
