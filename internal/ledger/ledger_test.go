package ledger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeNode() Node {
	return NewNode("2025-05-25T1845Z-Node1", "v18.0.1", "RI-256", SymbolicAnchor, "2025-05-25T1815Z-Node0")
}

func fields(r Result) []string {
	var out []string
	for _, f := range r.Failures {
		out = append(out, f.Field)
	}
	return out
}

func TestHashMatchesSortedKeySerialization(t *testing.T) {
	h, err := Hash(makeNode())
	require.NoError(t, err)
	assert.Equal(t, "28b4c2be9721b3f356a5472caed012563b24714b498a5023efe2a9ce70b2503a", h)
}

func TestHashEscapesNonASCII(t *testing.T) {
	n := makeNode()
	n[FieldParentNode] = "Ünïcode \"q\" \\ <&> \n 😀"
	h, err := Hash(n)
	require.NoError(t, err)
	assert.Equal(t, "4af4dfb7036b57886565d13ab75ccfe458dc4482a695c0f181ef5ae181a1577f", h)
}

func TestHashRequiresStrings(t *testing.T) {
	n := makeNode()
	n[FieldID] = 7.0
	_, err := Hash(n)
	assert.Error(t, err)
}

func TestValidNode(t *testing.T) {
	r := Validate(makeNode())
	assert.True(t, r.Valid, "%+v", r.Failures)
	assert.Empty(t, r.Failures)
}

func TestValidateFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(Node)
		want   []string
	}{
		{"missing field", func(n Node) { delete(n, FieldSymbolicAnchor) }, []string{FieldSymbolicAnchor}},
		{"anchor mismatch", func(n Node) {
			n[FieldSymbolicAnchor] = "Wrong Anchor"
		}, []string{FieldSymbolicAnchor, FieldTruthVectorHash}},
		{"hash mismatch", func(n Node) { n[FieldTruthVectorHash] = "badbadbad" }, []string{FieldTruthVectorHash}},
		{"wrong major version", func(n Node) {
			n[FieldVersionAnchor] = "v17.0.1"
			n[FieldTruthVectorHash], _ = Hash(n)
		}, []string{FieldVersionAnchor}},
		{"unknown tier", func(n Node) {
			n[FieldRecursionLayer] = "RI-512"
			n[FieldTruthVectorHash], _ = Hash(n)
		}, []string{FieldRecursionLayer}},
		{"non string", func(n Node) { n[FieldParentNode] = nil }, []string{FieldParentNode}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := makeNode()
			tt.mutate(n)
			r := Validate(n)
			assert.False(t, r.Valid)
			assert.Equal(t, tt.want, fields(r))
		})
	}
}

func TestNewNodeWithCorrectHashButWrongAnchor(t *testing.T) {
	n := NewNode("n1", "v18.2.10", "RI-16", "Wrong Anchor", "n0")
	r := Validate(n)
	assert.Equal(t, []string{FieldSymbolicAnchor}, fields(r))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "node.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"id":"a","version_anchor":"v18.0.0","recursion_layer":"RI-64",`+
		`"symbolic_anchor":"No Veteran Left Behind","parent_node":"b","truth_vector_hash":"x"}`), 0o644))

	n, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "RI-64", n[FieldRecursionLayer])
	assert.Equal(t, []string{FieldTruthVectorHash}, fields(Validate(n)))

	os.WriteFile(path, []byte("{"), 0o644)
	_, err = Load(path)
	assert.Error(t, err)
}
