package stringutils

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var leadingIntPattern = regexp.MustCompile(`^[+-]?[0-9]+`)

// ParseLeadingInt parses the integer prefix of s after leading whitespace.
// Trailing characters are ignored, so "12abc" yields 12. It reports false when
// s does not start with an optionally signed run of digits or the value
// overflows int64.
func ParseLeadingInt(s string) (int64, bool) {
	trimmed := strings.TrimLeftFunc(s, unicode.IsSpace)
	match := leadingIntPattern.FindString(trimmed)
	if match == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(match, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParseCanonicalUint parses s only when it is the canonical decimal form of a
// non-negative int64: digits only, no sign, no leading zeros (except "0").
func ParseCanonicalUint(s string) (int64, bool) {
	if s == "" || (len(s) > 1 && s[0] == '0') {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
