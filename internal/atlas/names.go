package atlas

import (
	"strings"
	"unicode"
)

// IsValidName reports whether name may be used for an atlas, region or map:
// not blank, no path separators, no control characters.
func IsValidName(name string) bool {
	if strings.TrimSpace(name) == "" {
		return false
	}
	for _, r := range name {
		if r == '/' || r == '\\' || unicode.IsControl(r) {
			return false
		}
	}
	return true
}
