package utils

import "fmt"

// TruncateString shortens s to at most maxLen characters for diagnostic
// output, appending the original length when content was cut.
func TruncateString(s string, maxLen int) string {
	runes := []rune(s)
	if maxLen <= 0 || len(runes) <= maxLen {
		return s
	}
	return fmt.Sprintf("%s... (truncated, total: %d chars)", string(runes[:maxLen]), len(runes))
}
