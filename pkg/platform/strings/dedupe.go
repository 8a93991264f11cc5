// Package strings holds helpers for list-shaped configuration values.
package strings

import "strings"

// DedupeAndTrim trims every element, drops empties, and keeps the first
// occurrence of each value. First-occurrence order is preserved, which
// matters for comma-separated env lists where position is meaningful.
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
