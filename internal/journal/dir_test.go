package journal

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danielpatrickdp/truthjournal/internal/vector"
)

func TestDirLogAppendWritesOneFilePerEntry(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "audit")
	log, err := NewDirLog(dir, fixedClock(time.Date(2026, 5, 25, 18, 45, 0, 0, time.UTC)))
	if err != nil {
		t.Fatalf("NewDirLog: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := log.Append(analyzeEntry(vector.Ideal, false)); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	files, _ := os.ReadDir(dir)
	if len(files) != 3 {
		t.Fatalf("expected 3 files, got %d", len(files))
	}

	data, _ := os.ReadFile(filepath.Join(dir, files[0].Name()))
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("decode entry: %v", err)
	}
	for _, key := range []string{"vector", "diff_anchor", "diff_last", "alarm", "timestamp"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("entry missing %q", key)
		}
	}
	if raw["diff_last"] != nil {
		t.Errorf("expected null diff_last, got %v", raw["diff_last"])
	}
}

func TestDirLogSkipsExistingName(t *testing.T) {
	dir := t.TempDir()
	ts := time.Date(2026, 2, 2, 2, 2, 2, 0, time.UTC)
	taken := ts.Format(idLayout) + "-000001.json"
	if err := os.WriteFile(filepath.Join(dir, taken), []byte(`{}`), 0o644); err != nil {
		t.Fatal(err)
	}

	log, err := NewDirLog(dir, fixedClock(ts))
	if err != nil {
		t.Fatalf("NewDirLog: %v", err)
	}
	e, err := log.Append(analyzeEntry(vector.Ideal, false))
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if !strings.HasSuffix(e.ID, "-000002") {
		t.Fatalf("expected retry with next sequence, got %s", e.ID)
	}
	data, _ := os.ReadFile(filepath.Join(dir, taken))
	if string(data) != "{}" {
		t.Fatal("existing entry was overwritten")
	}
}

func TestDirLogChainSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	first, _ := NewDirLog(dir, nil)
	a, _ := first.Append(analyzeEntry(vector.Ideal, false))

	second, _ := NewDirLog(dir, nil)
	b, err := second.Append(analyzeEntry(vector.Truth{0.3, 1, 1, 1}, true))
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if b.PrevHash != a.Hash {
		t.Fatal("reopened log should link to the newest existing entry")
	}

	entries, err := second.List(0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 || entries[0].ID != b.ID {
		t.Fatalf("expected newest first, got %+v", entries)
	}
	if err := Verify(entries); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestDirLogIgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	log, _ := NewDirLog(dir, nil)
	a, err := log.Append(analyzeEntry(vector.Ideal, false))
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	// state records sort after timestamp-named entries
	for _, name := range []string{"last_report.json", "baseline.json", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(`{"vector":[1,1,1,1]}`), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	b, err := log.Append(analyzeEntry(vector.Truth{0.5, 1, 1, 1}, true))
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if b.PrevHash != a.Hash {
		t.Fatalf("expected link to %s, got %q", a.Hash, b.PrevHash)
	}

	entries, err := log.List(0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if err := Verify(entries); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestDirLogVerifyDetectsDeletion(t *testing.T) {
	dir := t.TempDir()
	log, _ := NewDirLog(dir, nil)
	log.Append(analyzeEntry(vector.Ideal, false))
	mid, _ := log.Append(analyzeEntry(vector.Ideal, false))
	log.Append(analyzeEntry(vector.Ideal, false))

	os.Remove(filepath.Join(dir, mid.ID+".json"))

	entries, _ := log.List(0)
	if err := Verify(entries); !errors.Is(err, ErrChainBroken) {
		t.Fatalf("expected ErrChainBroken, got %v", err)
	}
}

func TestNewDirLogFailsOnFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	os.WriteFile(path, []byte("x"), 0o644)
	if _, err := NewDirLog(path, nil); err == nil {
		t.Fatal("expected error when audit dir is a file")
	}
}

func TestMemoryJournal(t *testing.T) {
	m := NewMemory(nil)
	m.Append(analyzeEntry(vector.Ideal, false))
	m.Append(Entry{Event: EventRotate, Vector: vector.Truth{0.1, 0.1, 0.1, 0.1}})

	entries, _ := m.List(0)
	if len(entries) != 2 || entries[0].Event != EventRotate {
		t.Fatalf("unexpected entries %+v", entries)
	}
	if err := Verify(entries); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}
