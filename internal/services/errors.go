package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks user-correctable input problems, e.g. a clip that is
	// shorter than the configured export minimum.
	ErrValidation = errors.New("validation error")
	// ErrGeometryInvariant marks a computed transform that failed the
	// pre-render correctness gate. Never recovered silently.
	ErrGeometryInvariant = errors.New("geometry invariant violation")
	// ErrFontUnavailable marks a caption font that could not be loaded.
	// Recovered locally by falling back to an uncaptioned render.
	ErrFontUnavailable = errors.New("caption font unavailable")
	// ErrCaptionRender marks a captioned render attempt that failed.
	// Recovered locally by retrying without captions.
	ErrCaptionRender = errors.New("caption render failure")
	// ErrSeekIncompatible marks a hybrid-seek failure on the input container.
	// Recovered locally by retrying with exact seek.
	ErrSeekIncompatible = errors.New("seek incompatibility")
	// ErrEngineFailure marks a non-zero transcoder exit or an unreadable or
	// implausibly small output artifact. Fatal for the attempt.
	ErrEngineFailure = errors.New("engine failure")
	// ErrPersistence marks record store read/write failures.
	ErrPersistence = errors.New("persistence failure")

	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrEngineFailure
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Recoverable reports whether an error class is handled inside the render
// fallback chain rather than surfaced to the caller directly.
func Recoverable(err error) bool {
	switch {
	case errors.Is(err, ErrFontUnavailable),
		errors.Is(err, ErrCaptionRender),
		errors.Is(err, ErrSeekIncompatible):
		return true
	default:
		return false
	}
}

// UserVisible reports whether an error class is surfaced to the user by
// default. Everything else is logged and retried until fallbacks exhaust.
func UserVisible(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrEngineFailure)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
