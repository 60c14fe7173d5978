package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"unicode/utf16"
)

// #region fields
// Node field names.
const (
	FieldID              = "id"
	FieldVersionAnchor   = "version_anchor"
	FieldRecursionLayer  = "recursion_layer"
	FieldSymbolicAnchor  = "symbolic_anchor"
	FieldParentNode      = "parent_node"
	FieldTruthVectorHash = "truth_vector_hash"
)

// SymbolicAnchor is the only accepted symbolic_anchor value.
const SymbolicAnchor = "No Veteran Left Behind"

// AllowedLayers lists the accepted recursion tiers.
var AllowedLayers = []string{"RI-16", "RI-32", "RI-64", "RI-128", "RI-256"}

var versionPattern = regexp.MustCompile(`^v18\.\d+\.\d+$`)

// hashedFields are covered by truth_vector_hash.
var hashedFields = []string{FieldID, FieldVersionAnchor, FieldRecursionLayer, FieldSymbolicAnchor, FieldParentNode}

var nodeFields = append(append([]string(nil), hashedFields...), FieldTruthVectorHash)

// #endregion fields

// Node is a decoded ledger node. Values are kept untyped so validation can
// report fields of the wrong type.
type Node map[string]any

// NewNode builds a node and stamps its truth_vector_hash.
func NewNode(id, version, layer, anchor, parent string) Node {
	n := Node{
		FieldID:             id,
		FieldVersionAnchor:  version,
		FieldRecursionLayer: layer,
		FieldSymbolicAnchor: anchor,
		FieldParentNode:     parent,
	}
	h, _ := Hash(n)
	n[FieldTruthVectorHash] = h
	return n
}

// Load reads a node from a JSON file.
func Load(path string) (Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read node: %w", err)
	}
	var n Node
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("parse node %s: %w", path, err)
	}
	return n, nil
}

// #region hash
// Hash returns the hex SHA-256 of the canonical serialization of the hashed
// fields: sorted keys, `{"k": "v", ...}` separators, non-ASCII escaped.
func Hash(n Node) (string, error) {
	keys := append([]string(nil), hashedFields...)
	sort.Strings(keys)

	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys {
		v, ok := n[k].(string)
		if !ok {
			return "", fmt.Errorf("field %s missing or not a string", k)
		}
		if i > 0 {
			b.WriteString(", ")
		}
		writeQuoted(&b, k)
		b.WriteString(": ")
		writeQuoted(&b, v)
	}
	b.WriteByte('}')

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:]), nil
}

func writeQuoted(b *strings.Builder, s string) {
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		default:
			switch {
			case r >= 0x20 && r <= 0x7e:
				b.WriteRune(r)
			case r > 0xffff:
				hi, lo := utf16.EncodeRune(r)
				fmt.Fprintf(b, `\u%04x\u%04x`, hi, lo)
			default:
				fmt.Fprintf(b, `\u%04x`, r)
			}
		}
	}
	b.WriteByte('"')
}

// #endregion hash
