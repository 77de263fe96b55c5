// Package utils holds tiny helpers shared across layers. Nothing in
// here knows about chats, users or HTTP.
package utils

import "strconv"

// AtoiDefault parses s as an int, falling back to def when s is empty
// or not a number. Handlers use it for ?page= and ?limit= query params,
// where a garbage value should mean "use the default", not an error.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}
