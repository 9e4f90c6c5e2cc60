// Package logging provides slog-based structured logging with console and
// JSON handlers plus typed attribute helpers.
package logging
