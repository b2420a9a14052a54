package model

import (
	"strings"
	"unicode"
)

// DefaultLabeler derives a human label from a field name when the backend
// does not supply a verbose name: "created_at" becomes "Created At" and
// "assigneeID" becomes "Assignee ID".
func DefaultLabeler(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-' || r == '.' || unicode.IsSpace(r)
	})
	segments := make([]string, 0, len(words))
	for _, word := range words {
		for _, part := range splitCamel(word) {
			segments = append(segments, capitalize(part))
		}
	}
	return strings.Join(segments, " ")
}

// Capitalize upper-cases the first rune of s. Django verbose names arrive in
// lower case ("due date").
func Capitalize(s string) string {
	return capitalize(strings.TrimSpace(s))
}

func splitCamel(word string) []string {
	runes := []rune(word)
	var (
		parts []string
		start int
	)
	for i := 1; i < len(runes); i++ {
		prev, cur := runes[i-1], runes[i]
		boundary := unicode.IsLower(prev) && unicode.IsUpper(cur) ||
			unicode.IsLetter(prev) && unicode.IsDigit(cur) ||
			unicode.IsDigit(prev) && unicode.IsLetter(cur)
		if boundary {
			parts = append(parts, string(runes[start:i]))
			start = i
		}
	}
	return append(parts, string(runes[start:]))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
