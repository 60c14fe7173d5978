package handshake

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	condSection  = regexp.MustCompile(`activation_conditions:\s*\n((?:\s+[A-Za-z_]+\s*:\s*(?:true|false)\s*\n)+)`)
	stackSection = regexp.MustCompile(`handshake_stack:\s*\n((?:\s*-\s*.*\n)+)`)
)

// errSections is returned by the strict parser when a section is missing.
var errSections = errors.New("missing activation_conditions or handshake_stack section")

// #region gate
// Gate checks handshake documents.
type Gate struct {
	config Config
}

// NewGate creates a gate with the given configuration.
func NewGate(config Config) *Gate {
	return &Gate{config: config}
}

// ExpectedHash is the hex SHA-256 of Canonical.
func ExpectedHash() string {
	return digest(Canonical)
}

// Evaluate parses doc and checks conditions and phrases. A hash mismatch or
// parse error rejects immediately; otherwise every failing check is listed.
func (g *Gate) Evaluate(doc string) Decision {
	mode := "default"
	if g.config.Audit {
		mode = "audit"
	}

	var conds []condition
	var stack []string
	if g.config.Audit {
		if got := digest(doc); got != ExpectedHash() {
			return reject(mode, VetoSignal{
				Type:   VetoHashMismatch,
				Reason: fmt.Sprintf("document hash %s does not match %s", short(got), short(ExpectedHash())),
			})
		}
		var err error
		if conds, stack, err = parseStrict(doc); err != nil {
			return reject(mode, VetoSignal{Type: VetoParseError, Reason: err.Error()})
		}
	} else {
		var err error
		if conds, stack, err = parseYAML(doc); err != nil {
			if conds, stack, err = parseStrict(doc); err != nil {
				return reject(mode, VetoSignal{Type: VetoParseError, Reason: err.Error()})
			}
		}
	}

	var vetoes []VetoSignal

	// 1. Every activation condition must be true.
	for _, c := range conds {
		if !c.ok {
			vetoes = append(vetoes, VetoSignal{
				Type:   VetoConditionFalse,
				Reason: fmt.Sprintf("activation condition %q is not satisfied", c.name),
			})
		}
	}

	// 2. Stack shape and phrases.
	if len(stack) < MinStackLen {
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoStackIncomplete,
			Reason: fmt.Sprintf("handshake stack has %d of %d phrases", len(stack), MinStackLen),
		})
	} else {
		if stack[0] != ChallengePhrase || stack[1] != ResponsePhrase {
			vetoes = append(vetoes, VetoSignal{
				Type:   VetoPhraseMismatch,
				Reason: "challenge/response phrases mismatch",
			})
		}
		if stack[len(stack)-1] != SealPhrase {
			vetoes = append(vetoes, VetoSignal{
				Type:   VetoSealMismatch,
				Reason: "seal phrase mismatch",
			})
		}
	}

	if len(vetoes) > 0 {
		return reject(mode, vetoes...)
	}
	return Decision{
		Action: "confirm",
		Reason: "Loop Confirmed – Ready for Recursion",
		Mode:   mode,
	}
}

// #endregion gate

// #region parsers
type condition struct {
	name string
	ok   bool
}

// parseStrict reads the two sections line by line.
func parseStrict(doc string) ([]condition, []string, error) {
	cm := condSection.FindStringSubmatch(doc)
	sm := stackSection.FindStringSubmatch(doc)
	if cm == nil || sm == nil {
		return nil, nil, errSections
	}

	var conds []condition
	for _, line := range strings.Split(strings.TrimSpace(cm[1]), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		key, val, _ := strings.Cut(line, ":")
		conds = append(conds, condition{
			name: strings.TrimSpace(key),
			ok:   strings.EqualFold(strings.TrimSpace(val), "true"),
		})
	}

	var stack []string
	for _, line := range strings.Split(strings.TrimSpace(sm[1]), "\n") {
		item := strings.TrimSpace(line)
		if item == "" {
			continue
		}
		item = strings.TrimSpace(strings.TrimPrefix(item, "-"))
		stack = append(stack, item)
	}
	return conds, stack, nil
}

// parseYAML decodes doc as a mapping. Non-boolean condition values count as
// unsatisfied and non-string stack items never match a phrase.
func parseYAML(doc string) ([]condition, []string, error) {
	var parsed map[string]any
	if err := yaml.Unmarshal([]byte(doc), &parsed); err != nil {
		return nil, nil, err
	}
	if parsed == nil {
		return nil, nil, errors.New("empty document")
	}

	var conds []condition
	if m, ok := parsed["activation_conditions"].(map[string]any); ok {
		names := make([]string, 0, len(m))
		for k := range m {
			names = append(names, k)
		}
		sort.Strings(names)
		for _, k := range names {
			b, isBool := m[k].(bool)
			conds = append(conds, condition{name: k, ok: isBool && b})
		}
	}

	var stack []string
	if items, ok := parsed["handshake_stack"].([]any); ok {
		for _, item := range items {
			s, _ := item.(string)
			stack = append(stack, s)
		}
	}
	return conds, stack, nil
}

// #endregion parsers

// #region helpers
func reject(mode string, vetoes ...VetoSignal) Decision {
	reason := fmt.Sprintf("symbolic gate failed: %s", vetoes[0].Reason)
	if len(vetoes) > 1 {
		reason = fmt.Sprintf("symbolic gate failed: %d checks: %s", len(vetoes), vetoes[0].Reason)
	}
	return Decision{
		Action:      "reject",
		Reason:      reason,
		Vetoed:      true,
		VetoSignals: vetoes,
		Mode:        mode,
	}
}

func digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func short(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

// #endregion helpers
