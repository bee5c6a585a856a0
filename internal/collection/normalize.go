package collection

import "strings"

// NormalizeTerm lowercases and trims a search term.
func NormalizeTerm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// CleanName trims a user-entered name or title.
func CleanName(s string) string {
	return strings.TrimSpace(s)
}
