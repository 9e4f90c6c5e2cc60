package captions

import (
	"math"
	"strings"
)

// Average glyph advance as a fraction of font size for the caption font.
const glyphAdvanceRatio = 0.69

// MaxCharsPerLine derives the character budget for one caption line on a
// canvas of the given width. Larger glyphs mean fewer characters: the budget
// shrinks monotonically as font size or letter-width scale grows. Letter
// width is damped because wide tracking grows the advance less than linearly.
func MaxCharsPerLine(fontSize, letterWidth float64, canvasWidth int) int {
	if fontSize <= 0 || canvasWidth <= 0 {
		return 0
	}
	if letterWidth < 1 {
		letterWidth = 1
	}
	advance := fontSize * glyphAdvanceRatio * (1 + 0.8*(letterWidth-1))
	chars := int(math.Round(float64(canvasWidth) / advance))
	if chars < 1 {
		chars = 1
	}
	return chars
}

// WrapLines greedily word-wraps text: a line accumulates words while
// len(line)+1+len(word) stays within maxChars. A single word longer than
// the budget still occupies its own line. Empty input yields nil.
func WrapLines(text string, maxChars int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if maxChars < 1 {
		maxChars = 1
	}

	var (
		lines   []string
		current strings.Builder
	)
	for _, word := range words {
		if current.Len() == 0 {
			current.WriteString(word)
			continue
		}
		if current.Len()+1+len(word) <= maxChars {
			current.WriteByte(' ')
			current.WriteString(word)
			continue
		}
		lines = append(lines, current.String())
		current.Reset()
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}
