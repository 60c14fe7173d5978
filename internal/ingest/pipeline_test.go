package ingest

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielpatrickdp/truthjournal/internal/drift"
	"github.com/danielpatrickdp/truthjournal/internal/journal"
	"github.com/danielpatrickdp/truthjournal/internal/logging"
	"github.com/danielpatrickdp/truthjournal/internal/state"
)

type dirs struct {
	incoming, output, archive string
}

func setupDirs(t *testing.T) dirs {
	t.Helper()
	root := t.TempDir()
	d := dirs{
		incoming: filepath.Join(root, "reports_incoming"),
		output:   filepath.Join(root, "analysis_output"),
		archive:  filepath.Join(root, "chronicle", "archive"),
	}
	if err := os.MkdirAll(d.incoming, 0o755); err != nil {
		t.Fatal(err)
	}
	return d
}

func newPipeline(t *testing.T, d dirs, ts time.Time) *Pipeline {
	t.Helper()
	eng, err := drift.New(state.NewMemoryStore(), journal.NewMemory(nil), drift.Options{})
	if err != nil {
		t.Fatalf("drift.New: %v", err)
	}
	return &Pipeline{
		IncomingDir: d.incoming,
		OutputDir:   d.output,
		ArchiveDir:  d.archive,
		Analyzer:    eng,
		Logger:      logging.NewNop(),
		Now:         func() time.Time { return ts },
	}
}

func writeIncoming(t *testing.T, d dirs, name, text string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(d.incoming, name), []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestRunWritesRecordsAndArchives(t *testing.T) {
	d := setupDirs(t)
	ts := time.Date(2026, 4, 1, 9, 30, 15, 0, time.UTC)
	writeIncoming(t, d, "a.md", "---\nmission_id: A\nquality_score: 1.0\n---\nfirst")
	writeIncoming(t, d, "b.md", "---\nquality_score: 0.5\ntags: [misinformation]\n---\nsecond")
	os.Mkdir(filepath.Join(d.incoming, "nested"), 0o755)

	sum, err := newPipeline(t, d, ts).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Processed != 2 || sum.Failed != 0 {
		t.Fatalf("unexpected summary %+v", sum)
	}
	if sum.Alarms != 1 {
		t.Fatalf("expected second report to alarm, got %d alarms", sum.Alarms)
	}

	data, err := os.ReadFile(filepath.Join(d.output, "a.json"))
	if err != nil {
		t.Fatalf("read record: %v", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	if rec.IngestTimestamp != "2026-04-01T09:30:15Z" {
		t.Errorf("timestamp = %s", rec.IngestTimestamp)
	}
	if rec.Content != "first" || rec.Metadata["mission_id"] != "A" {
		t.Errorf("unexpected record %+v", rec)
	}
	if rec.ID == "" || rec.SHA256 == "" {
		t.Error("expected id and sha256")
	}
	if rec.Analysis == nil || rec.Analysis.Alarm {
		t.Errorf("expected baseline analysis without alarm, got %+v", rec.Analysis)
	}

	for _, name := range []string{"a.md", "b.md"} {
		if _, err := os.Stat(filepath.Join(d.archive, name)); err != nil {
			t.Errorf("expected %s archived: %v", name, err)
		}
		if _, err := os.Stat(filepath.Join(d.incoming, name)); !os.IsNotExist(err) {
			t.Errorf("expected %s removed from incoming", name)
		}
	}
}

func TestRunArchiveCollisionAddsSuffix(t *testing.T) {
	d := setupDirs(t)
	ts := time.Date(2026, 4, 1, 9, 30, 15, 0, time.UTC)
	os.MkdirAll(d.archive, 0o755)
	os.WriteFile(filepath.Join(d.archive, "r.md"), []byte("old"), 0o644)
	writeIncoming(t, d, "r.md", "new")

	sum, err := newPipeline(t, d, ts).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := filepath.Join(d.archive, "r_20260401T093015Z.md")
	if sum.Results[0].ArchivePath != want {
		t.Fatalf("archive path = %s, want %s", sum.Results[0].ArchivePath, want)
	}
	old, _ := os.ReadFile(filepath.Join(d.archive, "r.md"))
	if string(old) != "old" {
		t.Fatal("existing archive overwritten")
	}
}

func TestRunWriteFailureSkipsArchive(t *testing.T) {
	d := setupDirs(t)
	writeIncoming(t, d, "r.md", "body")
	// a directory where the record file should go makes the write fail
	os.MkdirAll(filepath.Join(d.output, "r.json"), 0o755)

	sum, err := newPipeline(t, d, time.Now()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Failed != 1 || sum.Processed != 0 {
		t.Fatalf("unexpected summary %+v", sum)
	}
	if _, err := os.Stat(filepath.Join(d.incoming, "r.md")); err != nil {
		t.Fatal("report should stay in incoming for retry")
	}
}

func TestRunWithoutAnalyzer(t *testing.T) {
	d := setupDirs(t)
	writeIncoming(t, d, "r.txt", "body")
	p := &Pipeline{IncomingDir: d.incoming, OutputDir: d.output, ArchiveDir: d.archive}

	sum, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Results[0].Record.Analysis != nil {
		t.Fatal("expected no analysis without an analyzer")
	}
}

func TestRunMissingIncomingDir(t *testing.T) {
	d := setupDirs(t)
	p := newPipeline(t, d, time.Now())
	p.IncomingDir = filepath.Join(d.incoming, "missing")
	if _, err := p.Run(context.Background()); err == nil {
		t.Fatal("expected error for missing incoming directory")
	}
}

func TestRunCancelled(t *testing.T) {
	d := setupDirs(t)
	writeIncoming(t, d, "r.md", "body")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := newPipeline(t, d, time.Now()).Run(ctx); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(d.incoming, "r.md")); err != nil {
		t.Fatal("cancelled run must not touch reports")
	}
}

type countingAnalyzer struct{ calls int }

func (a *countingAnalyzer) Report(quality float64, tags []string) drift.Report {
	a.calls++
	return drift.Report{Scorer: "primary"}
}

func TestRunSkipsAnalysisForUnencodableMetadata(t *testing.T) {
	d := setupDirs(t)
	p := newPipeline(t, d, time.Date(2026, 4, 1, 9, 30, 15, 0, time.UTC))
	analyzer := &countingAnalyzer{}
	p.Analyzer = analyzer
	writeIncoming(t, d, "odd.md", "---\nnested:\n  1: one\n---\nbody")

	sum, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Failed != 1 || sum.Processed != 0 {
		t.Fatalf("unexpected summary %+v", sum)
	}
	if analyzer.calls != 0 {
		t.Fatalf("report analyzed %d times before its record could be written", analyzer.calls)
	}
	if _, err := os.Stat(filepath.Join(d.incoming, "odd.md")); err != nil {
		t.Fatalf("report should stay in incoming: %v", err)
	}
	if _, err := os.Stat(filepath.Join(d.output, "odd.json")); !os.IsNotExist(err) {
		t.Fatalf("no record expected, got %v", err)
	}
}
