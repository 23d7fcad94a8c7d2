package observability

import (
	"strings"
	"unicode"
)

// clean strips control characters and truncates to limit runes so request values
// cannot break a log line.
func clean(value string, limit int) string {
	value = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, value)
	if runes := []rune(value); len(runes) > limit {
		value = string(runes[:limit])
	}
	return value
}

// SanitizeRoute cleans a chi route pattern; an unmatched route logs as "/".
func SanitizeRoute(route string) string {
	if route == "" {
		return "/"
	}
	return clean(route, 180)
}

func SanitizeMethod(method string) string {
	return clean(method, 10)
}
