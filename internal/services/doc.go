// Package services defines the shared error taxonomy used across the export
// pipeline and helpers for wrapping errors with stage context.
package services
