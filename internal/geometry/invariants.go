package geometry

import (
	"fmt"
	"math"
	"strings"

	"clipforge/internal/services"
)

// invariantTolerance is the maximum relative drift allowed between the
// horizontal and vertical scale factors, and between the source and scaled
// frame aspect ratios.
const invariantTolerance = 0.015

// Violation is one failed geometry invariant with its measured values.
type Violation struct {
	Name    string
	Detail  string
	Got     float64
	Allowed float64
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s (got %.4f, allowed %.4f)", v.Name, v.Detail, v.Got, v.Allowed)
}

// InvariantError reports every violated invariant at once so a failed
// export surfaces the full picture instead of the first broken check.
type InvariantError struct {
	Violations []Violation
}

func (e *InvariantError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.String())
	}
	return "geometry invariants violated: " + strings.Join(parts, "; ")
}

// Check validates a computed geometry before any render is attempted. It
// returns nil when the transform preserves uniform scaling and aspect ratio
// within tolerance and the crop window produces exactly the output canvas.
func Check(g Geometry, in Input) error {
	in = withDefaults(in)
	var violations []Violation

	if g.OutputWidth != in.OutputWidth || g.OutputHeight != in.OutputHeight {
		violations = append(violations, Violation{
			Name:    "output-resolution",
			Detail:  fmt.Sprintf("geometry yields %dx%d, want %dx%d", g.OutputWidth, g.OutputHeight, in.OutputWidth, in.OutputHeight),
			Got:     float64(g.OutputWidth),
			Allowed: float64(in.OutputWidth),
		})
	}
	if g.CropX < 0 || g.CropY < 0 ||
		g.CropX+g.OutputWidth > g.CanvasWidth ||
		g.CropY+g.OutputHeight > g.CanvasHeight {
		violations = append(violations, Violation{
			Name:   "crop-bounds",
			Detail: fmt.Sprintf("crop %dx%d at (%d,%d) exceeds canvas %dx%d", g.OutputWidth, g.OutputHeight, g.CropX, g.CropY, g.CanvasWidth, g.CanvasHeight),
		})
	}

	scaleX := float64(g.ScaledWidth) / float64(in.SourceWidth)
	scaleY := float64(g.ScaledHeight) / float64(in.SourceHeight)
	if drift := relativeDrift(scaleX, scaleY); drift > invariantTolerance {
		violations = append(violations, Violation{
			Name:    "uniform-scale",
			Detail:  fmt.Sprintf("scaleX %.4f vs scaleY %.4f", scaleX, scaleY),
			Got:     drift,
			Allowed: invariantTolerance,
		})
	}

	sourceAspect := float64(in.SourceWidth) / float64(in.SourceHeight)
	scaledAspect := float64(g.ScaledWidth) / float64(g.ScaledHeight)
	if drift := relativeDrift(sourceAspect, scaledAspect); drift > invariantTolerance {
		violations = append(violations, Violation{
			Name:    "aspect-ratio",
			Detail:  fmt.Sprintf("source aspect %.4f vs scaled aspect %.4f", sourceAspect, scaledAspect),
			Got:     drift,
			Allowed: invariantTolerance,
		})
	}

	if len(violations) == 0 {
		return nil
	}
	return services.Wrap(services.ErrGeometryInvariant, "geometry", "check", "", &InvariantError{Violations: violations})
}

func relativeDrift(a, b float64) float64 {
	max := math.Max(math.Abs(a), math.Abs(b))
	if max == 0 {
		return 0
	}
	return math.Abs(a-b) / max
}
