package utils

import "strings"

// Slugify lower-cases name, turns spaces into dashes and drops quotes.
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, "'", "")
	return strings.ReplaceAll(s, "\"", "")
}
