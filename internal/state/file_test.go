package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielpatrickdp/truthjournal/internal/vector"
)

func TestFileStoreRoundTrip(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "state"), nil)
	fixed := time.Date(2026, 5, 25, 18, 15, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	if _, ok := s.LoadBaseline(); ok {
		t.Fatal("expected no baseline before first save")
	}

	base := vector.Truth{0.8, 1, 1, 1}
	if err := s.SaveBaseline(base); err != nil {
		t.Fatalf("SaveBaseline: %v", err)
	}
	rec, ok := s.LoadBaseline()
	if !ok || rec.Vector != base {
		t.Fatalf("baseline mismatch: %v (ok=%v)", rec.Vector, ok)
	}
	if !rec.CapturedAt.Equal(fixed) {
		t.Fatalf("captured_at mismatch: %v", rec.CapturedAt)
	}

	last := vector.Truth{0.5, 0.5, 0.5, 0.5}
	if err := s.SaveLastReport(last); err != nil {
		t.Fatalf("SaveLastReport: %v", err)
	}
	rec, ok = s.LoadLastReport()
	if !ok || rec.Vector != last {
		t.Fatalf("last report mismatch: %v (ok=%v)", rec.Vector, ok)
	}
}

func TestFileStoreDocumentShape(t *testing.T) {
	s := NewFileStore(t.TempDir(), nil)
	s.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 999, time.UTC) }
	s.SaveBaseline(vector.Ideal)
	s.SaveLastReport(vector.Ideal)

	data, err := os.ReadFile(s.BaselinePath())
	if err != nil {
		t.Fatalf("read baseline: %v", err)
	}
	var base map[string]any
	if err := json.Unmarshal(data, &base); err != nil {
		t.Fatalf("decode baseline: %v", err)
	}
	if base["timestamp"] != "2026-01-02T03:04:05Z" {
		t.Errorf("unexpected timestamp %v", base["timestamp"])
	}
	if vals, ok := base["baseline_vector"].([]any); !ok || len(vals) != 4 {
		t.Errorf("expected 4-element baseline_vector, got %v", base["baseline_vector"])
	}

	data, _ = os.ReadFile(s.LastReportPath())
	var last map[string]any
	json.Unmarshal(data, &last)
	if _, ok := last["vector"]; !ok {
		t.Errorf("expected vector key in last report, got %v", last)
	}
}

func TestFileStoreCorruptIsAbsent(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "{{{"},
		{"wrong length", `{"baseline_vector":[1,1,1],"timestamp":"2026-01-01T00:00:00Z"}`},
		{"out of range", `{"baseline_vector":[1,1,1,7],"timestamp":"2026-01-01T00:00:00Z"}`},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewFileStore(t.TempDir(), nil)
			if err := os.WriteFile(s.BaselinePath(), []byte(tt.body), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, ok := s.LoadBaseline(); ok {
				t.Fatal("expected corrupt baseline to read as absent")
			}
		})
	}
}

func TestFileStoreSaveFailsOnFileInPlaceOfDir(t *testing.T) {
	parent := t.TempDir()
	blocker := filepath.Join(parent, "state")
	os.WriteFile(blocker, []byte("x"), 0o644)

	s := NewFileStore(blocker, nil)
	if err := s.SaveBaseline(vector.Ideal); err == nil {
		t.Fatal("expected error when state dir is a file")
	}
	if _, ok := s.LoadBaseline(); ok {
		t.Fatal("expected absent baseline")
	}
}

func TestMemoryStore(t *testing.T) {
	m := NewMemoryStore()
	if _, ok := m.LoadBaseline(); ok {
		t.Fatal("expected empty store")
	}
	m.SaveBaseline(vector.Truth{0.2, 0.2, 0.2, 0.2})
	m.SaveLastReport(vector.Truth{0.3, 0.3, 0.3, 0.3})

	if rec, ok := m.LoadBaseline(); !ok || rec.Vector != (vector.Truth{0.2, 0.2, 0.2, 0.2}) {
		t.Fatalf("baseline mismatch: %v", rec.Vector)
	}
	if rec, ok := m.LoadLastReport(); !ok || rec.Vector != (vector.Truth{0.3, 0.3, 0.3, 0.3}) {
		t.Fatalf("last report mismatch: %v", rec.Vector)
	}
}
