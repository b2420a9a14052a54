package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	// ErrSessionExpired is returned when the session cannot be renewed. The
	// stored session has been cleared by the time callers see it.
	ErrSessionExpired = errors.New("client: session expired")
	// ErrRefreshThrottled is returned while too many refresh attempts have
	// failed inside the configured window. No request is sent and the
	// session is cleared as for ErrSessionExpired.
	ErrRefreshThrottled = errors.New("client: token refresh throttled")
)

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	Status     string
	// Detail is the backend's "detail" message, when it sent one.
	Detail string
	// Fields holds Django REST field errors keyed by field name.
	// "non_field_errors" and "__all__" are kept as sent.
	Fields map[string][]string
	Body   []byte
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	text := http.StatusText(e.StatusCode)
	if e.Status != "" {
		// net/http reports "404 Not Found"; keep only the reason phrase.
		if _, reason, ok := strings.Cut(e.Status, " "); ok {
			text = reason
		}
	}
	return fmt.Sprintf("API Error: %d %s", e.StatusCode, text)
}

// FieldNames returns the names carrying field errors, sorted.
func (e *APIError) FieldNames() []string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsStatus reports whether err is an *APIError with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

func newAPIError(status int, statusText string, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status, Status: statusText, Body: body}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return apiErr
	}
	for key, value := range payload {
		if key == "detail" {
			if detail, ok := value.(string); ok {
				apiErr.Detail = detail
			}
			continue
		}
		messages := errorMessages(value)
		if len(messages) == 0 {
			continue
		}
		if apiErr.Fields == nil {
			apiErr.Fields = make(map[string][]string)
		}
		apiErr.Fields[key] = messages
	}
	return apiErr
}

func errorMessages(value any) []string {
	switch v := value.(type) {
	case string:
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// TransportError reports a request that produced no response.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("client: %s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
