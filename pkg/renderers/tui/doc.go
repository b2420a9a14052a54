// Package tui fills model forms interactively in a terminal. A Filler walks
// the form layout and prompts once per editable field using the widget the
// backend configured; a Confirmer and a Notifier cover list deletes and
// user-facing notices. All terminal access goes through PromptDriver.
package tui
