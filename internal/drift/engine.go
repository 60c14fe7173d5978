package drift

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/danielpatrickdp/truthjournal/internal/journal"
	"github.com/danielpatrickdp/truthjournal/internal/logging"
	"github.com/danielpatrickdp/truthjournal/internal/state"
	"github.com/danielpatrickdp/truthjournal/internal/vector"
)

// #region engine
// Engine scores inputs, compares them with the persisted baseline, and
// journals every analysis. All operations are serialized by one mutex.
type Engine struct {
	mu         sync.Mutex
	store      state.Store
	log        journal.Log
	thresholds Thresholds
	scorers    []vector.Scorer
	logger     *slog.Logger
	now        func() time.Time
}

// New builds an engine over store and log.
func New(store state.Store, log journal.Log, opts Options) (*Engine, error) {
	if store == nil {
		return nil, errors.New("drift: nil store")
	}
	if log == nil {
		return nil, errors.New("drift: nil audit log")
	}
	thresholds := DefaultThresholds()
	if opts.Thresholds != nil {
		thresholds = *opts.Thresholds
	}
	for i, t := range thresholds {
		if t < 0 || math.IsNaN(t) || math.IsInf(t, 0) {
			return nil, fmt.Errorf("drift: threshold for %s must be a non-negative number, got %v", vector.AxisNames[i], t)
		}
	}
	if len(opts.Scorers) == 0 {
		opts.Scorers = vector.DefaultChain()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{
		store:      store,
		log:        log,
		thresholds: thresholds,
		scorers:    opts.Scorers,
		logger:     logging.NewComponentLogger(opts.Logger, "drift"),
		now:        opts.Now,
	}, nil
}

// State reports whether a baseline currently exists.
func (e *Engine) State() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.store.LoadBaseline(); ok {
		return Baselined
	}
	return Uninitialized
}

// Thresholds returns the configured per-axis thresholds.
func (e *Engine) Thresholds() Thresholds { return e.thresholds }

// Baseline returns the current baseline record, if any.
func (e *Engine) Baseline() (state.Record, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.LoadBaseline()
}

// LastReport returns the most recently analyzed vector, if any.
func (e *Engine) LastReport() (state.Record, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.LoadLastReport()
}

// #endregion engine

// #region analyze
// Analyze scores one input and reports whether it drifted from the baseline.
// It never fails: scorer, store, and journal errors are logged.
func (e *Engine) Analyze(quality float64, tags []string) (vector.Truth, bool) {
	r := e.Report(quality, tags)
	return r.Vector, r.Alarm
}

// Report is Analyze with the full per-axis detail.
func (e *Engine) Report(quality float64, tags []string) Report {
	e.mu.Lock()
	defer e.mu.Unlock()

	vec, scorer := e.score(quality, tags)
	r := Report{Vector: vec, Scorer: scorer}
	if unknown := unknownTags(tags); len(unknown) > 0 {
		e.logger.Warn("unrecognized tags",
			logging.String(logging.FieldEventType, "unrecognized_tags"),
			logging.Any("tags", unknown),
			logging.String(logging.FieldImpact, "counted against the other axis"),
		)
	}

	baseline, ok := e.store.LoadBaseline()
	if !ok {
		if err := e.store.SaveBaseline(vec); err != nil {
			e.logger.Warn("baseline save failed",
				logging.String(logging.FieldEventType, "baseline_save_failed"),
				logging.Error(err),
				logging.String(logging.FieldImpact, "next analysis will re-establish the baseline"),
			)
		}
		baseline = state.Record{Vector: vec, CapturedAt: e.now().UTC()}
		r.NewBaseline = true
		e.logger.Info("baseline established",
			logging.String(logging.FieldEventType, "baseline_established"),
			logging.String("vector", vec.String()),
		)
	}

	r.DiffAnchor = vector.Diff(vec, baseline.Vector)
	r.Axes, r.Alarm = e.check(r.DiffAnchor)
	if r.NewBaseline {
		r.Alarm = false
	}

	if last, ok := e.store.LoadLastReport(); ok {
		d := vector.Diff(vec, last.Vector)
		r.DiffLast = &d
	}

	entry, err := e.log.Append(journal.Entry{
		Event:      journal.EventAnalyze,
		Vector:     vec,
		DiffAnchor: r.DiffAnchor,
		DiffLast:   r.DiffLast,
		Alarm:      r.Alarm,
		Scorer:     scorer,
	})
	if err != nil {
		e.logger.Warn("audit append failed",
			logging.String(logging.FieldEventType, "audit_append_failed"),
			logging.Error(err),
			logging.String(logging.FieldImpact, "analysis not journaled"),
		)
	} else {
		r.EntryID = entry.ID
	}

	if err := e.store.SaveLastReport(vec); err != nil {
		e.logger.Warn("last report save failed",
			logging.String(logging.FieldEventType, "last_report_save_failed"),
			logging.Error(err),
		)
	}

	if r.Alarm {
		e.logger.Warn("drift alarm",
			logging.String(logging.FieldEventType, "drift_alarm"),
			logging.String("vector", vec.String()),
			logging.String("diff_anchor", r.DiffAnchor.String()),
			logging.String("entry_id", r.EntryID),
		)
	} else {
		e.logger.Debug("analysis complete",
			logging.String("vector", vec.String()),
			logging.String("scorer", scorer),
		)
	}
	return r
}

// check compares each axis difference with its threshold.
func (e *Engine) check(diff vector.Truth) ([]AxisCheck, bool) {
	axes := make([]AxisCheck, vector.Dims)
	alarm := false
	for i := range diff {
		exceeded := diff[i] > e.thresholds[i]
		axes[i] = AxisCheck{
			Axis:      vector.AxisNames[i],
			Diff:      diff[i],
			Threshold: e.thresholds[i],
			Exceeded:  exceeded,
		}
		if exceeded {
			alarm = true
		}
	}
	return axes, alarm
}

// #endregion analyze

// #region scoring
// score tries each scorer in order. A scorer that errors, panics, or
// returns an out-of-range vector is skipped. If all fail, Fallback is used.
func (e *Engine) score(quality float64, tags []string) (vector.Truth, string) {
	for _, s := range e.scorers {
		v, err := safeScore(s, quality, tags)
		if err == nil && !v.InRange() {
			err = fmt.Errorf("vector %s out of range", v)
		}
		if err == nil {
			return v, s.Name()
		}
		e.logger.Warn("scorer failed",
			logging.String(logging.FieldEventType, "scorer_failed"),
			logging.String("scorer", s.Name()),
			logging.Error(err),
			logging.String(logging.FieldImpact, "trying next scorer"),
		)
	}
	fb := vector.Fallback{}
	v, _ := fb.Score(quality, tags)
	return v, fb.Name()
}

// unknownTags returns tags outside every vocabulary, in input order.
func unknownTags(tags []string) []string {
	var out []string
	for _, t := range tags {
		if strings.TrimSpace(t) == "" || vector.Known(t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func safeScore(s vector.Scorer, quality float64, tags []string) (v vector.Truth, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("scorer %s panicked: %v", s.Name(), p)
		}
	}()
	return s.Score(quality, tags)
}

// #endregion scoring

// #region rotate
// RotateAnchor replaces the baseline. A nil v promotes the last report and
// fails with ErrNoVectorAvailable if there is none. Components of an
// explicit vector are clamped into [0,1]. On error nothing is changed.
func (e *Engine) RotateAnchor(v *vector.Truth) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var anchor vector.Truth
	if v == nil {
		last, ok := e.store.LoadLastReport()
		if !ok {
			return ErrNoVectorAvailable
		}
		anchor = last.Vector
	} else {
		for i, x := range v {
			anchor[i] = vector.Clamp01(x)
		}
	}

	prev, hadPrev := e.store.LoadBaseline()
	if err := e.store.SaveBaseline(anchor); err != nil {
		return fmt.Errorf("save baseline: %w", err)
	}

	entry := journal.Entry{Event: journal.EventRotate, Vector: anchor}
	if hadPrev {
		entry.DiffAnchor = vector.Diff(anchor, prev.Vector)
	}
	if _, err := e.log.Append(entry); err != nil {
		e.logger.Warn("audit append failed",
			logging.String(logging.FieldEventType, "audit_append_failed"),
			logging.Error(err),
			logging.String(logging.FieldImpact, "rotation not journaled"),
		)
	}

	e.logger.Info("anchor rotated",
		logging.String(logging.FieldEventType, "anchor_rotated"),
		logging.String("vector", anchor.String()),
		logging.Bool("promoted_last_report", v == nil),
	)
	return nil
}

// RotateAnchorSlice is RotateAnchor for operator input. A nil slice promotes
// the last report; any other slice must have exactly four components.
func (e *Engine) RotateAnchorSlice(vals []float64) error {
	if vals == nil {
		return e.RotateAnchor(nil)
	}
	v, err := vector.FromSlice(vals)
	if err != nil {
		return err
	}
	return e.RotateAnchor(&v)
}

// #endregion rotate
