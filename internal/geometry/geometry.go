package geometry

import (
	"fmt"
	"math"
	"strings"
)

// Default output canvas and preview viewport dimensions.
const (
	DefaultOutputWidth    = 1080
	DefaultOutputHeight   = 1920
	DefaultViewportWidth  = 400
	DefaultViewportHeight = 800

	// MinZoom is the lowest zoom the engine honors; smaller values clamp up.
	MinZoom = 0.2
)

// Rect is a rectangle in preview-viewport pixel space.
type Rect struct {
	X float64
	Y float64
	W float64
	H float64
}

// Input carries everything needed to compute an export transform.
type Input struct {
	SourceWidth  int
	SourceHeight int

	// Zoom and pan come from the editor state. Pan is expressed in
	// preview-viewport pixels.
	Zoom float64
	PanX float64
	PanY float64

	ViewportWidth  float64
	ViewportHeight float64

	// MeasuredRect, when set, is the actual rendered video rectangle inside
	// the preview viewport and takes priority over the computed scale.
	MeasuredRect *Rect

	OutputWidth  int
	OutputHeight int

	PixelFormat string
}

// Step is one ordered filter operation of the transform.
type Step struct {
	Name string
	Args string
}

func (s Step) String() string {
	if s.Args == "" {
		return s.Name
	}
	return s.Name + "=" + s.Args
}

// Geometry is the computed scale/pad/crop transform plus every intermediate
// value needed for diagnostics and invariant checking. Derived, never stored.
type Geometry struct {
	Steps []Step

	ScaledWidth  int
	ScaledHeight int
	CanvasWidth  int
	CanvasHeight int
	PadX         int
	PadY         int
	CropX        int
	CropY        int
	OutputWidth  int
	OutputHeight int

	UsedMeasuredRect bool
}

// FilterGraph renders the ordered steps as an ffmpeg video filter chain.
func (g Geometry) FilterGraph() string {
	parts := make([]string, 0, len(g.Steps))
	for _, step := range g.Steps {
		parts = append(parts, step.String())
	}
	return strings.Join(parts, ",")
}

// Describe summarizes the transform for diagnostics.
func (g Geometry) Describe() string {
	source := "computed"
	if g.UsedMeasuredRect {
		source = "measured-rect"
	}
	return fmt.Sprintf("scaled=%dx%d canvas=%dx%d pad=(%d,%d) crop=(%d,%d) output=%dx%d framing=%s",
		g.ScaledWidth, g.ScaledHeight, g.CanvasWidth, g.CanvasHeight,
		g.PadX, g.PadY, g.CropX, g.CropY, g.OutputWidth, g.OutputHeight, source)
}

// Compute maps the source frame plus the user's zoom/pan into the fixed
// output canvas. When the scaled frame is smaller than the output on an
// axis the frame is padded with the full slack on both sides and the output
// window is cropped from the padded canvas; when it is larger or equal the
// crop comes directly from the scaled frame, shifted opposite to pan.
func Compute(in Input) Geometry {
	in = withDefaults(in)

	zoom := math.Max(MinZoom, in.Zoom)
	baseScale := math.Min(
		float64(in.OutputWidth)/float64(in.SourceWidth),
		float64(in.OutputHeight)/float64(in.SourceHeight),
	)
	scaleFactor := baseScale * zoom

	var (
		scaledW, scaledH int
		usedMeasured     bool
	)
	if r := in.MeasuredRect; r != nil && r.W > 0 && r.H > 0 {
		// Reproduce the viewport's effective framing exactly.
		scaledW = roundInt(float64(in.OutputWidth) * r.W / in.ViewportWidth)
		scaledH = roundInt(float64(in.OutputHeight) * r.H / in.ViewportHeight)
		usedMeasured = true
	} else {
		scaledW = roundInt(float64(in.SourceWidth) * scaleFactor)
		scaledH = roundInt(float64(in.SourceHeight) * scaleFactor)
	}
	if scaledW < 2 {
		scaledW = 2
	}
	if scaledH < 2 {
		scaledH = 2
	}

	// Pan converts from viewport pixels to output-canvas pixels.
	panX := in.PanX * float64(in.OutputWidth) / in.ViewportWidth
	panY := in.PanY * float64(in.OutputHeight) / in.ViewportHeight

	canvasW, padX, cropX := axisPlacement(scaledW, in.OutputWidth, panX)
	canvasH, padY, cropY := axisPlacement(scaledH, in.OutputHeight, panY)

	steps := []Step{{Name: "scale", Args: fmt.Sprintf("%d:%d", scaledW, scaledH)}}
	if canvasW > scaledW || canvasH > scaledH {
		steps = append(steps, Step{
			Name: "pad",
			Args: fmt.Sprintf("%d:%d:%d:%d:black", canvasW, canvasH, padX, padY),
		})
	}
	steps = append(steps, Step{
		Name: "crop",
		Args: fmt.Sprintf("%d:%d:%d:%d", in.OutputWidth, in.OutputHeight, cropX, cropY),
	})
	steps = append(steps, Step{Name: "format", Args: in.PixelFormat})

	return Geometry{
		Steps:            steps,
		ScaledWidth:      scaledW,
		ScaledHeight:     scaledH,
		CanvasWidth:      canvasW,
		CanvasHeight:     canvasH,
		PadX:             padX,
		PadY:             padY,
		CropX:            cropX,
		CropY:            cropY,
		OutputWidth:      in.OutputWidth,
		OutputHeight:     in.OutputHeight,
		UsedMeasuredRect: usedMeasured,
	}
}

// axisPlacement resolves one axis. A frame smaller than the output is padded
// with the full slack on both sides, the frame position shifted by pan and
// the crop window centered; a frame at least output-sized is cropped
// directly, the origin shifted opposite to pan and clamped into the canvas.
func axisPlacement(scaled, output int, pan float64) (canvas, pad, crop int) {
	if scaled < output {
		slack := output - scaled
		canvas = output + slack
		pad = clampInt(slack+roundInt(pan), 0, canvas-scaled)
		crop = (canvas - output) / 2
		return canvas, pad, crop
	}
	canvas = scaled
	crop = clampInt((canvas-output)/2-roundInt(pan), 0, canvas-output)
	return canvas, 0, crop
}

func withDefaults(in Input) Input {
	if in.OutputWidth <= 0 {
		in.OutputWidth = DefaultOutputWidth
	}
	if in.OutputHeight <= 0 {
		in.OutputHeight = DefaultOutputHeight
	}
	if in.ViewportWidth <= 0 {
		in.ViewportWidth = DefaultViewportWidth
	}
	if in.ViewportHeight <= 0 {
		in.ViewportHeight = DefaultViewportHeight
	}
	if in.SourceWidth <= 0 {
		in.SourceWidth = in.OutputWidth
	}
	if in.SourceHeight <= 0 {
		in.SourceHeight = in.OutputHeight
	}
	if strings.TrimSpace(in.PixelFormat) == "" {
		in.PixelFormat = "yuv420p"
	}
	return in
}

func roundInt(v float64) int {
	return int(math.Round(v))
}

func clampInt(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
