package pipeline

import (
	"regexp"
	"strings"
)

var nonFingerprintChars = regexp.MustCompile(`[^\w\s|]+`)

// Fingerprint computes the stable identity key for a property address.
// It is insensitive to case, punctuation, and incidental whitespace, so
// "123 Main St." and "123 main st" identify the same property. The four
// fields are joined with a pipe to keep city/state/zip boundaries distinct.
func Fingerprint(address, city, state, zip string) string {
	parts := make([]string, 0, 4)
	for _, f := range []string{address, city, state, zip} {
		f = strings.ToLower(f)
		f = nonFingerprintChars.ReplaceAllString(f, "")
		f = strings.Join(strings.Fields(f), " ")
		parts = append(parts, f)
	}
	return strings.Join(parts, "|")
}
