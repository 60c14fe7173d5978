package state

import (
	"time"

	"github.com/danielpatrickdp/truthjournal/internal/vector"
)

// TimestampLayout is the UTC ISO-8601 form used in persisted records.
const TimestampLayout = "2006-01-02T15:04:05Z"

// Record names.
const (
	NameBaseline   = "baseline"
	NameLastReport = "last_report"
)

// #region record
// Record is a persisted truth vector with the time it was captured.
type Record struct {
	Vector     vector.Truth
	CapturedAt time.Time
}

// #endregion record

// #region store-interface
// Store persists the two named anchor records: the baseline and the most
// recently computed vector. Loads never fail: missing or corrupt data reads
// as absent (ok == false).
type Store interface {
	LoadBaseline() (Record, bool)
	SaveBaseline(v vector.Truth) error
	LoadLastReport() (Record, bool)
	SaveLastReport(v vector.Truth) error
	Close() error
}

// #endregion store-interface

func stamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
