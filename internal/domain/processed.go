package domain

import (
	"regexp"
	"strings"
)

var fallbackStemRegex = regexp.MustCompile(`^(image|screenshot)_\d{13}$`)

// IsFallbackStem reports whether stem is exactly a generic term plus a 13-digit timestamp
func IsFallbackStem(stem string) bool {
	return fallbackStemRegex.MatchString(strings.ToLower(stem))
}

// IsProcessed decides from a stem alone whether a file already looks AI-named.
//
// Stems with fewer than three separator-delimited parts are never treated as
// processed, and fallback stems are always reprocessable. Otherwise at least two
// meaningful parts (3+ chars, not numeric, not generic) are required.
func IsProcessed(stem string) bool {
	stem = strings.ToLower(stem)
	if IsFallbackStem(stem) {
		return false
	}

	parts := strings.Split(stem, Separator)
	if len(parts) < 3 {
		return false
	}

	meaningful := 0
	for _, p := range parts {
		if isMeaningfulPart(p) {
			meaningful++
		}
	}
	return meaningful >= 2
}

func isMeaningfulPart(p string) bool {
	if len(p) < 3 || IsGenericTerm(p) {
		return false
	}
	return !isNumeric(p)
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
