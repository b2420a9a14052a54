package model

import (
	"fmt"
	"strings"
)

// Issue describes a single problem found while checking metadata or item
// payloads.
type Issue struct {
	Field   string
	Message string
}

func (i Issue) String() string {
	if i.Field == "" {
		return i.Message
	}
	return fmt.Sprintf("%s: %s", i.Field, i.Message)
}

// SchemaError is returned when backend metadata violates the descriptor
// rules. Every issue found is reported, not just the first.
type SchemaError struct {
	Model  string
	Issues []Issue
}

func (e *SchemaError) Error() string {
	if e == nil || len(e.Issues) == 0 {
		return "model: invalid metadata"
	}
	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		parts[i] = issue.String()
	}
	prefix := "model: invalid metadata"
	if e.Model != "" {
		prefix = fmt.Sprintf("model: invalid metadata for %s", e.Model)
	}
	return prefix + ": " + strings.Join(parts, "; ")
}
