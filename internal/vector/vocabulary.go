package vector

import "strings"

// #region category
// Category is the bucket a tag is counted against.
type Category string

const (
	CategoryFactual    Category = "factual"
	CategoryContextual Category = "contextual"
	CategoryOther      Category = "other"
)

// #endregion category

// #region vocabularies
var factualIssues = map[string]struct{}{
	"misinformation": {},
	"fabrication":    {},
	"false":          {},
	"inaccurate":     {},
	"error":          {},
	"incorrect":      {},
}

var contextIssues = map[string]struct{}{
	"contradiction": {},
	"inconsistency": {},
	"context":       {},
	"omission":      {},
	"discrepancy":   {},
	"incoherent":    {},
}

// otherIssues is documentary: any tag outside the factual and contextual
// vocabularies counts as "other", listed here or not.
var otherIssues = map[string]struct{}{
	"speculative": {},
	"unverified":  {},
	"ambiguous":   {},
	"irrelevant":  {},
	"off-topic":   {},
	"style":       {},
}

// #endregion vocabularies

// #region classify
// Classify returns the bucket for a tag. Matching is case-insensitive.
// Unrecognized tags land in CategoryOther.
func Classify(tag string) Category {
	key := normalizeTag(tag)
	if _, ok := factualIssues[key]; ok {
		return CategoryFactual
	}
	if _, ok := contextIssues[key]; ok {
		return CategoryContextual
	}
	return CategoryOther
}

// Known reports whether the tag appears in any of the three vocabularies.
func Known(tag string) bool {
	key := normalizeTag(tag)
	_, f := factualIssues[key]
	_, c := contextIssues[key]
	_, o := otherIssues[key]
	return f || c || o
}

func normalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

// uniqueTags collapses case variants so the input behaves as a set.
func uniqueTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		key := normalizeTag(t)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out
}

// #endregion classify
