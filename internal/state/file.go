package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/danielpatrickdp/truthjournal/internal/logging"
	"github.com/danielpatrickdp/truthjournal/internal/vector"
)

// #region file-records
type baselineFile struct {
	BaselineVector []float64 `json:"baseline_vector"`
	Timestamp      string    `json:"timestamp"`
}

type lastReportFile struct {
	Vector    []float64 `json:"vector"`
	Timestamp string    `json:"timestamp"`
}

// #endregion file-records

// #region file-store
// FileStore keeps each record as a JSON document in a state directory.
type FileStore struct {
	dir    string
	logger *slog.Logger
	now    func() time.Time
	mu     sync.Mutex
}

// NewFileStore returns a store rooted at dir. The directory is created lazily
// on the first save.
func NewFileStore(dir string, logger *slog.Logger) *FileStore {
	return &FileStore{
		dir:    dir,
		logger: logging.NewComponentLogger(logger, "state"),
		now:    time.Now,
	}
}

// BaselinePath is the location of the baseline record.
func (s *FileStore) BaselinePath() string {
	return filepath.Join(s.dir, "baseline.json")
}

// LastReportPath is the location of the last-report record.
func (s *FileStore) LastReportPath() string {
	return filepath.Join(s.dir, "last_report.json")
}

// Close is a no-op; every operation opens and closes its own file.
func (s *FileStore) Close() error { return nil }

// #endregion file-store

// #region file-load
// LoadBaseline reads baseline.json.
func (s *FileStore) LoadBaseline() (Record, bool) {
	var doc baselineFile
	if !s.read(s.BaselinePath(), NameBaseline, &doc) {
		return Record{}, false
	}
	return s.toRecord(NameBaseline, doc.BaselineVector, doc.Timestamp)
}

// LoadLastReport reads last_report.json.
func (s *FileStore) LoadLastReport() (Record, bool) {
	var doc lastReportFile
	if !s.read(s.LastReportPath(), NameLastReport, &doc) {
		return Record{}, false
	}
	return s.toRecord(NameLastReport, doc.Vector, doc.Timestamp)
}

func (s *FileStore) read(path, name string, target any) bool {
	s.mu.Lock()
	data, err := os.ReadFile(path)
	s.mu.Unlock()
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.warnAbsent(name, err)
		}
		return false
	}
	if err := json.Unmarshal(data, target); err != nil {
		s.warnAbsent(name, fmt.Errorf("parse %s: %w", path, err))
		return false
	}
	return true
}

func (s *FileStore) toRecord(name string, vals []float64, ts string) (Record, bool) {
	v, err := vector.FromSlice(vals)
	if err != nil {
		s.warnAbsent(name, err)
		return Record{}, false
	}
	if !v.InRange() {
		s.warnAbsent(name, fmt.Errorf("vector %v outside [0, 1]", v))
		return Record{}, false
	}
	rec := Record{Vector: v}
	rec.CapturedAt, _ = time.Parse(TimestampLayout, ts)
	return rec, true
}

func (s *FileStore) warnAbsent(name string, err error) {
	s.logger.Warn("anchor record unreadable, treating as absent",
		logging.String(logging.FieldEventType, "anchor_load_failed"),
		logging.String("record", name),
		logging.Error(err),
		logging.String(logging.FieldImpact, "record will be re-established from the next analysis"))
}

// #endregion file-load

// #region file-save
// SaveBaseline writes baseline.json atomically.
func (s *FileStore) SaveBaseline(v vector.Truth) error {
	return s.write(s.BaselinePath(), baselineFile{
		BaselineVector: v.Slice(),
		Timestamp:      stamp(s.now()),
	})
}

// SaveLastReport writes last_report.json atomically.
func (s *FileStore) SaveLastReport(v vector.Truth) error {
	return s.write(s.LastReportPath(), lastReportFile{
		Vector:    v.Slice(),
		Timestamp: stamp(s.now()),
	})
}

func (s *FileStore) write(path string, doc any) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// #endregion file-save
