package ledger

import (
	"fmt"
	"slices"
)

// Failure is one failed check.
type Failure struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Result lists every failed check. Valid is true when there are none.
type Result struct {
	Valid    bool
	Failures []Failure
}

// Validate checks field presence, version, tier, anchor, and hash.
func Validate(n Node) Result {
	var fails []Failure
	add := func(field, format string, args ...any) {
		fails = append(fails, Failure{Field: field, Reason: fmt.Sprintf(format, args...)})
	}

	str := map[string]string{}
	for _, f := range nodeFields {
		v, present := n[f]
		if !present {
			add(f, "missing")
			continue
		}
		s, ok := v.(string)
		if !ok {
			add(f, "must be a string, got %T", v)
			continue
		}
		str[f] = s
	}

	if v, ok := str[FieldVersionAnchor]; ok && !versionPattern.MatchString(v) {
		add(FieldVersionAnchor, "%q does not match v18.<minor>.<patch>", v)
	}
	if v, ok := str[FieldRecursionLayer]; ok && !slices.Contains(AllowedLayers, v) {
		add(FieldRecursionLayer, "%q is not an allowed tier", v)
	}
	if v, ok := str[FieldSymbolicAnchor]; ok && v != SymbolicAnchor {
		add(FieldSymbolicAnchor, "%q is not the ledger anchor", v)
	}
	if got, ok := str[FieldTruthVectorHash]; ok {
		if want, err := Hash(n); err == nil && got != want {
			add(FieldTruthVectorHash, "does not match content hash %s", want)
		}
	}

	return Result{Valid: len(fails) == 0, Failures: fails}
}
