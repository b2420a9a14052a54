// Package notify carries short user-facing messages (success and error
// toasts) from the form and list engines to whatever front end is attached.
package notify

import (
	"context"
	"sync"
)

// Level classifies a notice.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Notice is a single message.
type Notice struct {
	Level   Level
	Message string
}

// Notifier receives notices. Implementations must not block for long; the
// engines call them inline.
type Notifier interface {
	Notify(ctx context.Context, notice Notice)
}

// NotifierFunc adapts a function into a Notifier.
type NotifierFunc func(ctx context.Context, notice Notice)

// Notify calls the underlying function.
func (fn NotifierFunc) Notify(ctx context.Context, notice Notice) {
	fn(ctx, notice)
}

// Discard drops every notice.
var Discard Notifier = NotifierFunc(func(context.Context, Notice) {})

// Success builds a success notice.
func Success(message string) Notice {
	return Notice{Level: LevelSuccess, Message: message}
}

// Error builds an error notice.
func Error(message string) Notice {
	return Notice{Level: LevelError, Message: message}
}

// Recorder keeps every notice it receives.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *Recorder) Notify(_ context.Context, notice Notice) {
	r.mu.Lock()
	r.notices = append(r.notices, notice)
	r.mu.Unlock()
}

// Notices returns a copy of the recorded notices.
func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notice(nil), r.notices...)
}
