package vars

import (
	"strconv"
	"strings"
)

// FirstNonZero returns the first value that is not the zero value,
// as when a command line value overrides a configured one.
func FirstNonZero[T comparable](values ...T) T {
	var zero T
	for _, value := range values {
		if value != zero {
			return value
		}
	}
	return zero
}

// StrToBool parses a command line switch value. Unknown words are false.
func StrToBool(str string) bool {
	switch strings.ToLower(strings.TrimSpace(str)) {
	case "yes", "y", "on":
		return true
	}
	b, _ := strconv.ParseBool(str)
	return b
}
