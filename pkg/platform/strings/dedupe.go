// Package strings provides string manipulation utilities.
package strings

import (
	"strings"
)

// LabelSeparator joins the parts of a compound category label.
const LabelSeparator = " + "

// DedupeAndTrim removes duplicates and empty strings from a slice,
// trimming whitespace from each element. Order is preserved.
//
// Example:
//
//	DedupeAndTrim([]string{"  foo ", "bar", "foo", "", "  "})
//	// Returns: []string{"foo", "bar"}
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; !ok {
			seen[trimmed] = struct{}{}
			result = append(result, trimmed)
		}
	}

	return result
}

// DedupeFold is like DedupeAndTrim but compares case-insensitively, keeping
// the spelling of the first occurrence.
//
// Example:
//
//	DedupeFold([]string{"Delegate", " delegate ", "Banquet"})
//	// Returns: []string{"Delegate", "Banquet"}
func DedupeFold(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		key := strings.ToLower(trimmed)
		if _, ok := seen[key]; !ok {
			seen[key] = struct{}{}
			result = append(result, trimmed)
		}
	}

	return result
}

// JoinLabels merges compound labels such as "Delegate + Banquet" into one,
// dropping parts that are already present.
//
// Example:
//
//	JoinLabels("Delegate + Banquet Pass (Add-on)", "Banquet Pass (Add-on)")
//	// Returns: "Delegate + Banquet Pass (Add-on)"
func JoinLabels(labels ...string) string {
	var parts []string
	for _, label := range labels {
		parts = append(parts, strings.Split(label, "+")...)
	}
	return strings.Join(DedupeFold(parts), LabelSeparator)
}
