package validators

import "strings"

// SanitizeString trims surrounding whitespace and caps user-supplied text
// such as document titles before it reaches the services.
func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen > 0 && len(trimmed) > maxLen {
		return trimmed[:maxLen]
	}
	return trimmed
}
