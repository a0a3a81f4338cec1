// Package util provides shared utility functions used across the codebase.
package util

// TruncateRunes truncates a string to at most maxLen runes without adding
// any ellipsis. Truncation is rune-based so multi-byte text (e.g. Korean
// debate topics) is never cut mid-character.
func TruncateRunes(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen])
}

// TruncateString truncates a string to maxLen runes, adding "..." if truncated.
// Intended for display output; use TruncateRunes for content that is fed back
// into prompts, where a literal prefix is required.
func TruncateString(s string, maxLen int) string {
	if maxLen <= 3 {
		return "..."
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
