package models

import "strings"

// JoinList renders a string list as the comma-delimited form used by both the
// local schema and the remote document for list-valued fields.
func JoinList(items []string) string {
	return strings.Join(items, ",")
}

// SplitList parses the comma-delimited form back into a list. Empty input
// yields nil, not a one-element slice.
func SplitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
