package validators

import "strings"

// SanitizeString trims input and caps it at maxLen runes. Multi-byte
// characters are never split. A maxLen of zero or less only trims.
func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen <= 0 {
		return trimmed
	}
	runes := []rune(trimmed)
	if len(runes) <= maxLen {
		return trimmed
	}
	return strings.TrimSpace(string(runes[:maxLen]))
}
