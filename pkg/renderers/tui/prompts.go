package tui

import (
	"context"

	"github.com/goliatone/go-modeladmin/pkg/notify"
)

// Confirmer asks yes/no questions through a PromptDriver. It satisfies
// listing.Confirmer.
type Confirmer struct {
	Driver PromptDriver
}

// Confirm defaults to no.
func (c Confirmer) Confirm(ctx context.Context, message string) (bool, error) {
	return c.Driver.Confirm(ctx, ConfirmConfig{Message: message})
}

// Theme holds the prefix printed before each notice level.
type Theme struct {
	SuccessPrefix string
	ErrorPrefix   string
	InfoPrefix    string
}

// DefaultTheme is used by Notifier when no theme is set.
var DefaultTheme = Theme{SuccessPrefix: "OK: ", ErrorPrefix: "Error: "}

// Notifier prints notices through a PromptDriver.
type Notifier struct {
	Driver PromptDriver
	Theme  *Theme
}

// Notify implements notify.Notifier. Print failures are dropped.
func (n Notifier) Notify(ctx context.Context, notice notify.Notice) {
	theme := DefaultTheme
	if n.Theme != nil {
		theme = *n.Theme
	}
	prefix := theme.InfoPrefix
	switch notice.Level {
	case notify.LevelSuccess:
		prefix = theme.SuccessPrefix
	case notify.LevelError:
		prefix = theme.ErrorPrefix
	}
	_ = n.Driver.Info(context.WithoutCancel(ctx), prefix+notice.Message)
}
