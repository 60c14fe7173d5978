package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/danielpatrickdp/truthjournal/internal/drift"
	"github.com/danielpatrickdp/truthjournal/internal/logging"
)

// archiveSuffixLayout tags archived files whose name is already taken.
const archiveSuffixLayout = "20060102T150405Z"

// Analyzer scores one report. *drift.Engine satisfies it.
type Analyzer interface {
	Report(quality float64, tags []string) drift.Report
}

// #region pipeline
// Pipeline moves reports from an incoming directory through analysis into
// JSON records, then archives the originals.
type Pipeline struct {
	IncomingDir string
	OutputDir   string
	ArchiveDir  string
	Analyzer    Analyzer // optional
	Logger      *slog.Logger
	Now         func() time.Time
}

// Result describes one processed file.
type Result struct {
	File        string
	OutputPath  string
	ArchivePath string // empty when archiving was skipped or failed
	Record      Record
	Err         error
}

// Summary aggregates a Run.
type Summary struct {
	Processed int
	Alarms    int
	Failed    int
	Results   []Result
}

// Run processes every regular file in the incoming directory, in name order.
// Per-file failures are recorded in the summary; only setup errors and
// context cancellation are returned.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	logger := logging.NewComponentLogger(p.Logger, "ingest")
	now := p.Now
	if now == nil {
		now = time.Now
	}

	for _, dir := range []string{p.OutputDir, p.ArchiveDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Summary{}, fmt.Errorf("create %s: %w", dir, err)
		}
	}

	names, err := listFiles(p.IncomingDir)
	if err != nil {
		return Summary{}, err
	}

	var sum Summary
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		res := p.process(name, now().UTC().Truncate(time.Second), logger)
		sum.Results = append(sum.Results, res)
		if res.Err != nil {
			sum.Failed++
			logger.Error("report not ingested",
				logging.String("file", name),
				logging.Error(res.Err),
				logging.String(logging.FieldErrorHint, "file left in incoming directory for retry"),
			)
			continue
		}
		sum.Processed++
		if res.Record.Analysis != nil && res.Record.Analysis.Alarm {
			sum.Alarms++
		}
		logger.Info("report ingested",
			logging.String(logging.FieldEventType, "report_ingested"),
			logging.String("file", name),
			logging.String("sha256", res.Record.SHA256),
			logging.String("output", res.OutputPath),
		)
	}
	return sum, nil
}

func (p *Pipeline) process(name string, ts time.Time, logger *slog.Logger) Result {
	res := Result{File: name}
	src := filepath.Join(p.IncomingDir, name)

	report, err := ParseReport(src, logger)
	if err != nil {
		res.Err = err
		return res
	}

	rec := Record{
		ID:              uuid.NewString(),
		IngestTimestamp: stamp(ts),
		SHA256:          report.Digest(),
		Metadata:        report.Metadata,
		Content:         report.Body,
	}
	// Metadata that cannot be encoded would fail the write after the
	// analysis was already journaled.
	if _, err := json.Marshal(rec); err != nil {
		res.Err = fmt.Errorf("encode record: %w", err)
		return res
	}
	if p.Analyzer != nil {
		q, tags := report.Input()
		dr := p.Analyzer.Report(q, tags)
		rec.Analysis = &Analysis{
			Vector:     dr.Vector.Slice(),
			DiffAnchor: dr.DiffAnchor.Slice(),
			Alarm:      dr.Alarm,
			Scorer:     dr.Scorer,
			EntryID:    dr.EntryID,
		}
	}
	res.Record = rec

	base := strings.TrimSuffix(name, filepath.Ext(name))
	res.OutputPath = filepath.Join(p.OutputDir, base+".json")
	if err := writeRecord(res.OutputPath, rec); err != nil {
		res.Err = err
		return res
	}

	archivePath, err := p.archive(src, name, ts)
	if err != nil {
		// The record exists; a failed move only leaves the original behind.
		logger.Warn("archive failed",
			logging.String("file", name),
			logging.Error(err),
			logging.String(logging.FieldImpact, "report will be ingested again on the next run"),
		)
		return res
	}
	res.ArchivePath = archivePath
	return res
}

// #endregion pipeline

// #region files
func listFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read incoming directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func writeRecord(path string, rec Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}

// archive moves src into the archive directory, adding a timestamp suffix
// when the name is taken.
func (p *Pipeline) archive(src, name string, ts time.Time) (string, error) {
	dst := filepath.Join(p.ArchiveDir, name)
	if _, err := os.Stat(dst); err == nil {
		ext := filepath.Ext(name)
		root := strings.TrimSuffix(name, ext)
		dst = filepath.Join(p.ArchiveDir, fmt.Sprintf("%s_%s%s", root, ts.Format(archiveSuffixLayout), ext))
	}
	if err := moveFile(src, dst); err != nil {
		return "", err
	}
	return dst, nil
}

// moveFile renames src to dst, copying across filesystems when needed.
func moveFile(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return fmt.Errorf("move %s: %w", src, err)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("copy %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", dst, err)
	}
	return os.Remove(src)
}

// #endregion files
