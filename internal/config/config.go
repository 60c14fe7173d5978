package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// #region types
// Paths contains directory configuration.
type Paths struct {
	StateDir    string `toml:"state_dir"`
	AuditDir    string `toml:"audit_dir"`
	IncomingDir string `toml:"incoming_dir"`
	OutputDir   string `toml:"output_dir"`
	ArchiveDir  string `toml:"archive_dir"`
}

// Store selects the persistence backend for baseline and audit records.
type Store struct {
	Backend string `toml:"backend"` // "sqlite" | "file"
}

// Drift holds alarm thresholds, one per truth-vector axis.
type Drift struct {
	Thresholds []float64 `toml:"thresholds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "auto" | "console" | "json"
	File   string `toml:"file"`
}

// LLM contains connection settings for the report summarizer.
type LLM struct {
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Eval holds the post-analysis health floors.
type Eval struct {
	MinQuality   float64 `toml:"min_quality"`
	MinAxis      float64 `toml:"min_axis"`
	MaxDriftNorm float64 `toml:"max_drift_norm"`
}

// Handshake controls the symbolic gate check.
type Handshake struct {
	Audit bool `toml:"audit"`
}

// Config is the root configuration document.
type Config struct {
	Paths     Paths     `toml:"paths"`
	Store     Store     `toml:"store"`
	Drift     Drift     `toml:"drift"`
	Eval      Eval      `toml:"eval"`
	Logging   Logging   `toml:"logging"`
	LLM       LLM       `toml:"llm"`
	Handshake Handshake `toml:"handshake"`
}

// #endregion types

// #region load
// Load reads the TOML file at path over the defaults. A missing file is not an
// error. A .env file in the working directory, if present, is loaded first so
// environment overrides can come from it.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SampleConfig returns the annotated sample configuration.
func SampleConfig() string {
	return sampleConfig
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("TRUTHJOURNAL_STATE_DIR"); v != "" {
		c.Paths.StateDir = v
		c.Paths.AuditDir = ""
	}
	if v := os.Getenv("TRUTHJOURNAL_STORE"); v != "" {
		c.Store.Backend = v
	}
	if v := os.Getenv("TRUTHJOURNAL_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("TRUTHJOURNAL_LLM_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("TRUTHJOURNAL_HANDSHAKE_AUDIT"); v != "" {
		audit, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("TRUTHJOURNAL_HANDSHAKE_AUDIT: %w", err)
		}
		c.Handshake.Audit = audit
	}
	return nil
}

func (c *Config) normalize() {
	c.Store.Backend = strings.ToLower(strings.TrimSpace(c.Store.Backend))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Paths.StateDir = expandHome(c.Paths.StateDir)
	if c.Paths.AuditDir == "" {
		c.Paths.AuditDir = filepath.Join(c.Paths.StateDir, "audit")
	}
	c.Paths.AuditDir = expandHome(c.Paths.AuditDir)
	c.Paths.IncomingDir = expandHome(c.Paths.IncomingDir)
	c.Paths.OutputDir = expandHome(c.Paths.OutputDir)
	c.Paths.ArchiveDir = expandHome(c.Paths.ArchiveDir)
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// #endregion load

// #region accessors
// DatabasePath is the SQLite file used by the sqlite backend.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.StateDir, "truthjournal.db")
}

// LockPath is the file used to serialize writers across processes.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "journal.lock")
}

// Thresholds returns the per-axis alarm thresholds as a fixed array.
func (c *Config) Thresholds() [4]float64 {
	var t [4]float64
	copy(t[:], c.Drift.Thresholds)
	return t
}

// #endregion accessors
