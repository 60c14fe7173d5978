package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/truthjournal/internal/config"
	"github.com/danielpatrickdp/truthjournal/internal/drift"
	"github.com/danielpatrickdp/truthjournal/internal/eval"
	"github.com/danielpatrickdp/truthjournal/internal/journal"
	"github.com/danielpatrickdp/truthjournal/internal/logging"
	"github.com/danielpatrickdp/truthjournal/internal/state"
)

// lockTimeout bounds how long a command waits for another writer.
const lockTimeout = 10 * time.Second

type commandContext struct {
	configFlag *string
	jsonFlag   *bool

	configOnce sync.Once
	config     *config.Config
	logger     *slog.Logger
	configErr  error
}

func newCommandContext(configFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		jsonFlag:   jsonFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.logger = logger
	})
	return c.config, c.configErr
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

// #region session
// session is an engine over the configured backend, held under the
// cross-process writer lock.
type session struct {
	engine *drift.Engine
	store  state.Store
	log    journal.Log
	lock   *flock.Flock
}

func (c *commandContext) openSession(ctx context.Context) (*session, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.Paths.StateDir, 0o755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}

	lock := flock.New(cfg.LockPath())
	lockCtx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()
	ok, err := lock.TryLockContext(lockCtx, 100*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("acquire journal lock: %w", err)
	}
	if !ok {
		return nil, errors.New("journal lock held by another process")
	}

	store, log, err := openBackend(cfg, c.logger)
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}

	thresholds := drift.Thresholds(cfg.Thresholds())
	eng, err := drift.New(store, log, drift.Options{Thresholds: &thresholds, Logger: c.logger})
	if err != nil {
		store.Close()
		_ = lock.Unlock()
		return nil, err
	}
	return &session{engine: eng, store: store, log: log, lock: lock}, nil
}

func openBackend(cfg *config.Config, logger *slog.Logger) (state.Store, journal.Log, error) {
	switch cfg.Store.Backend {
	case config.BackendFile:
		log, err := journal.NewDirLog(cfg.Paths.AuditDir, nil)
		if err != nil {
			return nil, nil, err
		}
		return state.NewFileStore(cfg.Paths.StateDir, logger), log, nil
	default:
		store, err := state.NewStore(cfg.DatabasePath(), logger)
		if err != nil {
			return nil, nil, err
		}
		log, err := journal.NewSQLiteLog(store.DB(), nil)
		if err != nil {
			store.Close()
			return nil, nil, err
		}
		return store, log, nil
	}
}

func (s *session) Close() error {
	err := errors.Join(s.log.Close(), s.store.Close())
	if unlockErr := s.lock.Unlock(); unlockErr != nil {
		err = errors.Join(err, fmt.Errorf("release journal lock: %w", unlockErr))
	}
	return err
}

// withSession runs fn with an open session and closes it afterwards.
func (c *commandContext) withSession(cmd *cobra.Command, fn func(*session) error) error {
	s, err := c.openSession(cmd.Context())
	if err != nil {
		return err
	}
	runErr := fn(s)
	if closeErr := s.Close(); closeErr != nil && runErr == nil {
		return closeErr
	}
	return runErr
}

// #endregion session

func evalConfig(cfg *config.Config) eval.EvalConfig {
	return eval.EvalConfig{
		MinQuality:   cfg.Eval.MinQuality,
		MinAxis:      cfg.Eval.MinAxis,
		MaxDriftNorm: cfg.Eval.MaxDriftNorm,
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
