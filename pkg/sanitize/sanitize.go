// Package sanitize provides filesystem-safe name sanitation.
package sanitize

import (
	"regexp"
	"strings"
)

const defaultMaxLength = 200

var (
	reUnsafe     = regexp.MustCompile(`[\\/:*?"<>|]+`)
	reWhitespace = regexp.MustCompile(`\s+`)
)

// Filename strips filesystem-unsafe characters from name, collapses runs of
// whitespace into single spaces, trims, and caps the result at maxLength
// runes. When the result is empty, fallback is returned.
func Filename(name, fallback string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = defaultMaxLength
	}

	name = reUnsafe.ReplaceAllString(name, "")
	name = strings.TrimSpace(reWhitespace.ReplaceAllString(name, " "))

	if runes := []rune(name); len(runes) > maxLength {
		name = strings.TrimRight(string(runes[:maxLength]), " ")
	}

	if name == "" {
		return fallback
	}

	return name
}
