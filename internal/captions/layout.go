package captions

import "math"

// Line height multiplier relative to font size.
const lineStepRatio = 1.18

// PositionedLine is one caption line placed on the output canvas. X is left
// implicit (lines are centered on the anchor by the draw step); Y is the top
// of the glyph box in canvas pixels.
type PositionedLine struct {
	Text    string
	AnchorX int
	Y       int
}

// LineStep returns the vertical distance between stacked caption lines.
func LineStep(fontSize float64) int {
	return int(math.Round(fontSize * lineStepRatio))
}

// Layout stacks wrapped lines symmetrically around an anchor expressed as a
// percentage of canvas width/height.
func Layout(lines []string, fontSize float64, canvasWidth, canvasHeight int, xPct, yPct float64) []PositionedLine {
	if len(lines) == 0 {
		return nil
	}

	step := LineStep(fontSize)
	anchorX := int(math.Round(float64(canvasWidth) * xPct / 100))
	anchorY := float64(canvasHeight) * yPct / 100

	// Line centers span (n-1)*step; the block midpoint sits on the anchor.
	topCenter := anchorY - float64(len(lines)-1)*float64(step)/2

	out := make([]PositionedLine, 0, len(lines))
	for i, text := range lines {
		center := topCenter + float64(i)*float64(step)
		out = append(out, PositionedLine{
			Text:    text,
			AnchorX: anchorX,
			Y:       int(math.Round(center - fontSize/2)),
		})
	}
	return out
}
