package handshake

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vetoTypes(d Decision) []VetoType {
	var out []VetoType
	for _, v := range d.VetoSignals {
		out = append(out, v.Type)
	}
	return out
}

func TestCanonicalConfirms(t *testing.T) {
	for _, cfg := range []Config{DefaultConfig(), {Audit: true}} {
		d := NewGate(cfg).Evaluate(Canonical)
		assert.True(t, d.Confirmed(), "mode %s: %s", d.Mode, d.Reason)
		assert.False(t, d.Vetoed)
		assert.Empty(t, d.VetoSignals)
	}
}

func TestAuditRejectsAnyEdit(t *testing.T) {
	// A cosmetic change that YAML would accept still fails the hash.
	edited := strings.Replace(Canonical, "  leader_ack: true", "  leader_ack:  true", 1)

	d := NewGate(Config{Audit: true}).Evaluate(edited)
	require.False(t, d.Confirmed())
	assert.Equal(t, []VetoType{VetoHashMismatch}, vetoTypes(d))
	assert.Equal(t, "audit", d.Mode)

	assert.True(t, NewGate(DefaultConfig()).Evaluate(edited).Confirmed())
}

func TestDefaultModeChecks(t *testing.T) {
	several := strings.NewReplacer(
		"recursion_authorized: true", "recursion_authorized: false",
		SealPhrase, "Nope",
	).Replace(Canonical)

	tests := []struct {
		name  string
		doc   string
		vetos []VetoType
	}{
		{
			name:  "condition false",
			doc:   strings.Replace(Canonical, "leader_ack: true", "leader_ack: false", 1),
			vetos: []VetoType{VetoConditionFalse},
		},
		{
			name:  "challenge mismatch",
			doc:   strings.Replace(Canonical, ChallengePhrase, "Wrong Challenge", 1),
			vetos: []VetoType{VetoPhraseMismatch},
		},
		{
			name:  "seal mismatch",
			doc:   strings.Replace(Canonical, SealPhrase, "Wrong Phrase", 1),
			vetos: []VetoType{VetoSealMismatch},
		},
		{
			name:  "stack incomplete",
			doc:   strings.Replace(Canonical, "  - "+SealPhrase+"\n", "", 1),
			vetos: []VetoType{VetoStackIncomplete},
		},
		{
			name:  "non boolean condition",
			doc:   strings.Replace(Canonical, "follower_ack: true", "follower_ack: \"true\"", 1),
			vetos: []VetoType{VetoConditionFalse},
		},
		{
			name:  "several failures",
			doc:   several,
			vetos: []VetoType{VetoConditionFalse, VetoSealMismatch},
		},
	}

	g := NewGate(DefaultConfig())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := g.Evaluate(tt.doc)
			require.False(t, d.Confirmed())
			assert.True(t, d.Vetoed)
			assert.Equal(t, tt.vetos, vetoTypes(d))
		})
	}
}

func TestDefaultModeFallsBackToLineParser(t *testing.T) {
	// Tabs make the YAML invalid; the line parser still reads it.
	doc := "activation_conditions:\n\tleader_ack: true\nhandshake_stack:\n- " +
		ChallengePhrase + "\n- " + ResponsePhrase + "\n- " + SealPhrase + "\n"

	d := NewGate(DefaultConfig()).Evaluate(doc)
	assert.True(t, d.Confirmed(), d.Reason)
}

func TestParseError(t *testing.T) {
	d := NewGate(DefaultConfig()).Evaluate("just some text")
	require.False(t, d.Confirmed())
	assert.Equal(t, []VetoType{VetoParseError}, vetoTypes(d))
}

func TestParseStrict(t *testing.T) {
	conds, stack, err := parseStrict(Canonical)
	require.NoError(t, err)
	assert.Len(t, conds, 3)
	for _, c := range conds {
		assert.True(t, c.ok, c.name)
	}
	assert.Equal(t, []string{ChallengePhrase, ResponsePhrase, SealPhrase}, stack)

	_, _, err = parseStrict("handshake_stack:\n  - a\n")
	assert.ErrorIs(t, err, errSections)
}

func TestExpectedHashStable(t *testing.T) {
	assert.Len(t, ExpectedHash(), 64)
	assert.Equal(t, ExpectedHash(), digest(Canonical))
}
