package journal

import (
	"time"

	"github.com/danielpatrickdp/truthjournal/internal/vector"
)

// Event kinds.
const (
	EventAnalyze = "analyze"
	EventRotate  = "rotate"
)

// #region entry
// Entry is one immutable audit record. DiffLast is nil when no previous
// report existed at analysis time.
type Entry struct {
	ID         string        `json:"id"`
	Event      string        `json:"event"`
	Vector     vector.Truth  `json:"vector"`
	DiffAnchor vector.Truth  `json:"diff_anchor"`
	DiffLast   *vector.Truth `json:"diff_last"`
	Alarm      bool          `json:"alarm"`
	Scorer     string        `json:"scorer,omitempty"`
	Timestamp  time.Time     `json:"timestamp"`
	PrevHash   string        `json:"prev_hash"`
	Hash       string        `json:"hash"`
}

// #endregion entry

// #region log-interface
// Log is an append-only audit journal.
type Log interface {
	// Append assigns ID, Timestamp, PrevHash, and Hash, persists the entry,
	// and returns the sealed copy. Appends never overwrite earlier entries.
	Append(e Entry) (Entry, error)
	// List returns up to limit entries, newest first. limit <= 0 returns all.
	List(limit int) ([]Entry, error)
	Close() error
}

// #endregion log-interface
