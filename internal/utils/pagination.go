// Package utils holds small parsing helpers shared across the HTTP layer.
package utils

import "strconv"

// AtoiDefault parses s as a base-10 int, returning def when s is empty,
// malformed, or non-positive. Pagination parameters are always positive.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// ParseInt64Default parses s as a base-10 int64, returning def when s is
// empty, malformed, or negative. Used for message-id cursors, where zero
// means "from the newest".
func ParseInt64Default(s string, def int64) int64 {
	if s == "" {
		return def
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return def
	}
	return n
}
