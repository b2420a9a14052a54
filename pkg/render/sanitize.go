package render

import (
	"html"
	"strings"
	"sync"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

var (
	plainPolicyOnce sync.Once
	plainPolicy     *bluemonday.Policy
)

// PlainText strips markup from backend-supplied text (labels, help text,
// cell values) before it reaches a terminal. Entities are decoded after
// sanitising so "Tom &amp; Jerry" prints as "Tom & Jerry"; control
// characters other than tab and newline are dropped afterwards so escape
// sequences cannot reach the terminal.
func PlainText(raw string) string {
	if raw == "" {
		return raw
	}
	text := raw
	if strings.ContainsAny(raw, "<&") {
		text = strings.TrimSpace(html.UnescapeString(plainSanitizer().Sanitize(raw)))
	}
	return stripControl(text)
}

func stripControl(s string) string {
	if strings.IndexFunc(s, isUnsafeControl) < 0 {
		return s
	}
	return strings.Map(func(r rune) rune {
		if isUnsafeControl(r) {
			return -1
		}
		return r
	}, s)
}

func isUnsafeControl(r rune) bool {
	return unicode.IsControl(r) && r != '\t' && r != '\n'
}

func plainSanitizer() *bluemonday.Policy {
	plainPolicyOnce.Do(func() {
		plainPolicy = bluemonday.StrictPolicy()
	})
	return plainPolicy
}
