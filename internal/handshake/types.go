package handshake

// #region phrases
// Canonical is the reference handshake document. Audit mode requires an
// exact byte match.
const Canonical = `
activation_conditions:
  leader_ack: true
  follower_ack: true
  recursion_authorized: true
handshake_stack:
  - No Veteran Stands Alone
  - No Veteran Left Behind
  - Nightwalker Actual – Foresight Engaged
`

const (
	ChallengePhrase = "No Veteran Stands Alone"
	ResponsePhrase  = "No Veteran Left Behind"
	SealPhrase      = "Nightwalker Actual – Foresight Engaged"
)

// MinStackLen is the number of phrases a complete stack carries.
const MinStackLen = 3

// #endregion phrases

// #region veto-type
// VetoType enumerates reasons the handshake is refused.
type VetoType string

const (
	VetoHashMismatch    VetoType = "hash_mismatch"
	VetoParseError      VetoType = "parse_error"
	VetoConditionFalse  VetoType = "condition_false"
	VetoStackIncomplete VetoType = "stack_incomplete"
	VetoPhraseMismatch  VetoType = "phrase_mismatch"
	VetoSealMismatch    VetoType = "seal_mismatch"
)

// #endregion veto-type

// #region veto-signal
// VetoSignal is one failed check.
type VetoSignal struct {
	Type   VetoType
	Reason string
}

// #endregion veto-signal

// #region config
// Config selects the verification mode.
type Config struct {
	// Audit requires the document to hash to the canonical SHA-256 and
	// parses it with the strict line matcher instead of YAML.
	Audit bool
}

// DefaultConfig returns the lenient YAML mode.
func DefaultConfig() Config {
	return Config{}
}

// #endregion config

// #region decision
// Decision is the outcome of a handshake check.
type Decision struct {
	Action      string // "confirm" | "reject"
	Reason      string
	Vetoed      bool
	VetoSignals []VetoSignal
	Mode        string // "audit" | "default"
}

// Confirmed reports whether the loop may proceed.
func (d Decision) Confirmed() bool { return d.Action == "confirm" }

// #endregion decision
