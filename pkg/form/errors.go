package form

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// RequiredMessage is attached to required fields left empty.
const RequiredMessage = "This field is required."

var (
	// ErrMissingID is returned when an edit form is built from an item
	// without an id.
	ErrMissingID = errors.New("form: item has no id")
	// ErrUnknownField is returned by SetValue for names outside the form.
	ErrUnknownField = errors.New("form: unknown field")
	// ErrClosed is returned by operations on a closed form.
	ErrClosed = errors.New("form: closed")
	// ErrSubmitting is returned when a submit is already in flight.
	ErrSubmitting = errors.New("form: submit in progress")
)

// ValidationError lists field-local messages that block a submit.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("form: invalid fields: %s", strings.Join(names, ", "))
}
