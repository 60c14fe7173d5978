package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/truthjournal/internal/logging"
)

// TimestampLayout is the UTC second-resolution form used in records.
const TimestampLayout = "2006-01-02T15:04:05Z"

// DefaultQuality is used when a report carries no quality_score.
const DefaultQuality = 1.0

const frontMatterFence = "---"

// #region report
// Report is a parsed incoming report.
type Report struct {
	Name     string         // base file name
	Metadata map[string]any // YAML front matter; empty when absent or malformed
	Body     string
}

// ParseReport reads path and splits off YAML front matter.
func ParseReport(path string, logger *slog.Logger) (Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Report{}, fmt.Errorf("read report: %w", err)
	}
	return Parse(filepath.Base(path), string(data), logger), nil
}

// Parse splits text into front matter and body. Front matter must open on
// the first line with "---" and close with another "---" line; otherwise the
// whole text is the body. Unparseable front matter is logged and dropped.
// Line endings are normalized to "\n" before splitting, and a trailing
// newline does not start a new line.
func Parse(name, text string, logger *slog.Logger) Report {
	r := Report{Name: name, Metadata: map[string]any{}}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != frontMatterFence {
		r.Body = strings.TrimLeft(text, " \t\r\n")
		return r
	}

	end := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == frontMatterFence {
			end = i
			break
		}
	}
	if end < 0 {
		r.Body = strings.TrimLeft(text, " \t\r\n")
		return r
	}

	raw := strings.Join(lines[1:end], "\n")
	var meta map[string]any
	if err := yaml.Unmarshal([]byte(raw), &meta); err != nil {
		if logger != nil {
			logger.Warn("front matter not parsed",
				logging.String("report", name),
				logging.Error(err),
				logging.String(logging.FieldImpact, "metadata left empty"),
			)
		}
	} else if meta != nil {
		r.Metadata = meta
	}
	r.Body = strings.TrimLeft(strings.Join(lines[end+1:], "\n"), " \t\r\n")
	return r
}

// Digest is the hex SHA-256 of the body.
func (r Report) Digest() string {
	sum := sha256.Sum256([]byte(r.Body))
	return hex.EncodeToString(sum[:])
}

// #endregion report

// #region input
// Input extracts the engine inputs from metadata: quality_score (number or
// numeric string, default 1.0) and tags (list or comma-separated string).
func (r Report) Input() (float64, []string) {
	return qualityOf(r.Metadata["quality_score"]), tagsOf(r.Metadata["tags"])
}

func qualityOf(v any) float64 {
	switch q := v.(type) {
	case float64:
		return q
	case int:
		return float64(q)
	case int64:
		return float64(q)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(q), 64); err == nil {
			return f
		}
	}
	return DefaultQuality
}

func tagsOf(v any) []string {
	var tags []string
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				tags = append(tags, strings.TrimSpace(s))
			}
		}
	case []string:
		for _, s := range t {
			if strings.TrimSpace(s) != "" {
				tags = append(tags, strings.TrimSpace(s))
			}
		}
	case string:
		for _, s := range strings.Split(t, ",") {
			if strings.TrimSpace(s) != "" {
				tags = append(tags, strings.TrimSpace(s))
			}
		}
	}
	return tags
}

// #endregion input

// #region record
// Analysis is the drift outcome stored alongside an ingested report.
type Analysis struct {
	Vector     []float64 `json:"vector"`
	DiffAnchor []float64 `json:"diff_anchor"`
	Alarm      bool      `json:"alarm"`
	Scorer     string    `json:"scorer"`
	EntryID    string    `json:"entry_id,omitempty"`
}

// Record is the structured JSON written to the output directory.
type Record struct {
	ID              string         `json:"id"`
	IngestTimestamp string         `json:"ingest_timestamp"`
	SHA256          string         `json:"sha256"`
	Metadata        map[string]any `json:"metadata"`
	Content         string         `json:"content"`
	Analysis        *Analysis      `json:"analysis,omitempty"`
}

func stamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// #endregion record
