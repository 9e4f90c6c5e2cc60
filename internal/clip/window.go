package clip

import (
	"fmt"
	"math"

	"clipforge/internal/services"
)

// Window is a time range within a source asset, in seconds. Values are kept
// to 2-decimal precision and Duration always equals End - Start. Windows are
// immutable; every operation returns a new value.
type Window struct {
	Start    float64
	End      float64
	Duration float64
}

// TrimNudges are signed adjustments applied to a window's edges.
type TrimNudges struct {
	Start float64
	End   float64
}

// NewWindow builds a window from start/end seconds, rounding to 2 decimals.
func NewWindow(start, end float64) Window {
	start = round2(start)
	end = round2(end)
	return Window{Start: start, End: end, Duration: round2(end - start)}
}

// ClampToSource fits a window inside [0, sourceDuration], preserving the
// requested duration where possible and enforcing a minimum duration by
// anchoring start = end - minDuration when the floor binds. Total function;
// a window that already fits is returned unchanged.
func ClampToSource(w Window, sourceDuration, minDuration float64) Window {
	if sourceDuration > 0 &&
		w.Start >= 0 && w.End <= sourceDuration &&
		w.Duration >= minDuration {
		return w
	}

	duration := w.End - w.Start
	if sourceDuration > 0 && duration > sourceDuration {
		duration = sourceDuration
	}

	start, end := w.Start, w.End
	if sourceDuration > 0 && end > sourceDuration {
		end = sourceDuration
		start = end - duration
	}
	if start < 0 {
		start = 0
		end = start + duration
	}
	if sourceDuration > 0 && end > sourceDuration {
		end = sourceDuration
	}

	if end-start < minDuration {
		start = end - minDuration
		if start < 0 {
			start = 0
			end = minDuration
			if sourceDuration > 0 && end > sourceDuration {
				end = sourceDuration
			}
		}
	}

	return NewWindow(start, end)
}

// ApplyTrimNudges adds the nudges to the window edges, clamps start into
// [0, maxStart] and end into [start+1, maxEnd], and rounds to 2 decimals.
// The result always has a duration of at least one second. A sourceDuration
// of zero means the source length is unknown and only the lower bounds apply.
func ApplyTrimNudges(w Window, n TrimNudges, sourceDuration float64) Window {
	start := w.Start + n.Start
	end := w.End + n.End

	maxEnd := math.Inf(1)
	if sourceDuration > 0 {
		maxEnd = sourceDuration
	}

	if start < 0 {
		start = 0
	}
	if maxStart := maxEnd - 1; start > maxStart {
		start = maxStart
	}
	if end < start+1 {
		end = start + 1
	}
	if end > maxEnd {
		end = maxEnd
	}

	return NewWindow(start, end)
}

// DeriveTrimNudges recovers the nudges that transform base into applied.
// Round-trips ApplyTrimNudges to within 0.01s when no clamp was hit.
func DeriveTrimNudges(applied, base Window) TrimNudges {
	return TrimNudges{
		Start: round2(applied.Start - base.Start),
		End:   round2(applied.End - base.End),
	}
}

// ValidateForExport rejects windows shorter than the export minimum before
// any transcoder work happens.
func ValidateForExport(w Window, minDuration float64) error {
	if w.Duration <= 0 || w.End <= w.Start {
		return services.Wrap(services.ErrValidation, "clip", "validate window",
			fmt.Sprintf("clip window [%.2f, %.2f] is empty", w.Start, w.End), nil)
	}
	if w.Duration < minDuration {
		return services.Wrap(services.ErrValidation, "clip", "validate window",
			fmt.Sprintf("clip duration %.2fs is below the minimum of %.2fs", w.Duration, minDuration), nil)
	}
	if w.Start < 0 {
		return services.Wrap(services.ErrValidation, "clip", "validate window",
			fmt.Sprintf("clip start %.2fs is negative", w.Start), nil)
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
