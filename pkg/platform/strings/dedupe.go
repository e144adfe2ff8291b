// Package strings parses list-valued settings such as comma separated
// environment variables.
package strings

import (
	"strings"
)

// SplitList splits s on any of the given separator runes, then trims, drops
// empties and removes duplicates while preserving first-seen order.
//
//	SplitList(" 10001, 10002;10001 ", ",;")
//	// Returns: []string{"10001", "10002"}
func SplitList(s, separators string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return strings.ContainsRune(separators, r)
	})
	return DedupeAndTrim(fields)
}

// DedupeAndTrim removes duplicates and empty strings from a slice,
// trimming whitespace from each element. Order is preserved.
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
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}

	return result
}
