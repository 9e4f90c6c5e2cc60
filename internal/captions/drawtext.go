package captions

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"clipforge/internal/clip"
)

// RenderOptions positions caption blocks on the output canvas.
type RenderOptions struct {
	CanvasWidth  int
	CanvasHeight int
	FontFile     string
	XPct         float64
	YPct         float64
	// Scale multiplies the style font size; the editor's subtitle scale.
	Scale float64
	// ClipDuration resolves open-ended entries that are not superseded.
	ClipDuration float64
	// TimeOffset shifts the enable windows. Renders that trim on the output
	// side evaluate filter time against source timestamps, so the windows
	// must carry the clip start offset to land on the kept frames.
	TimeOffset float64
}

// DrawInstructions converts clip-relative timed entries into an ordered list
// of drawtext filter steps, one per caption line per pass. Entries must be
// sorted by start time; an entry without an end time runs until the next
// entry starts, or to the clip end for the last one.
func DrawInstructions(style Style, entries []clip.Entry, opts RenderOptions) []string {
	if len(entries) == 0 || opts.CanvasWidth <= 0 || opts.CanvasHeight <= 0 {
		return nil
	}
	scale := opts.Scale
	if scale <= 0 {
		scale = 1
	}
	fontSize := style.FontSize * scale
	maxChars := MaxCharsPerLine(fontSize, style.LetterWidth, opts.CanvasWidth)

	var steps []string
	for i, entry := range entries {
		start := entry.Start
		end := entryEnd(entries, i, opts.ClipDuration)
		if end <= start {
			continue
		}
		start += opts.TimeOffset
		end += opts.TimeOffset

		text := applyTextCase(entry.Text, style.TextCase)
		lines := WrapLines(text, maxChars)
		placed := Layout(lines, fontSize, opts.CanvasWidth, opts.CanvasHeight, opts.XPct, opts.YPct)
		for _, line := range placed {
			steps = append(steps, drawtextStep(style, line, fontSize, opts.FontFile, start, end, 0))
			// Offset passes simulate heavier glyph weight.
			for pass := 1; pass <= style.WeightBoost; pass++ {
				steps = append(steps, drawtextStep(style, line, fontSize, opts.FontFile, start, end, pass))
			}
		}
	}
	return steps
}

func entryEnd(entries []clip.Entry, i int, clipDuration float64) float64 {
	if entries[i].End != nil {
		return *entries[i].End
	}
	if i+1 < len(entries) {
		return entries[i+1].Start
	}
	return clipDuration
}

func drawtextStep(style Style, line PositionedLine, fontSize float64, fontFile string, start, end float64, offset int) string {
	var b strings.Builder
	b.WriteString("drawtext=")
	if fontFile != "" {
		fmt.Fprintf(&b, "fontfile=%s:", escapeDrawtext(fontFile))
	}
	fmt.Fprintf(&b, "text='%s'", escapeDrawtext(line.Text))
	fmt.Fprintf(&b, ":fontsize=%.0f", fontSize)
	fmt.Fprintf(&b, ":fontcolor=%s", ffColor(style.TextColor, 1))
	if style.BorderWidth > 0 {
		fmt.Fprintf(&b, ":borderw=%d:bordercolor=%s", style.BorderWidth, ffColor(style.BorderColor, 1))
	}
	if offset == 0 {
		if style.ShadowDistance > 0 && style.ShadowOpacity > 0 {
			fmt.Fprintf(&b, ":shadowx=%d:shadowy=%d:shadowcolor=%s",
				style.ShadowDistance, style.ShadowDistance, ffColor(style.ShadowColor, style.ShadowOpacity))
		}
		if style.Background.Enabled {
			fmt.Fprintf(&b, ":box=1:boxcolor=%s:boxborderw=%d",
				ffColor(style.Background.Color, style.Background.Opacity), style.Background.Padding)
		}
	}
	fmt.Fprintf(&b, ":x=%d-text_w/2", line.AnchorX+offset)
	fmt.Fprintf(&b, ":y=%d", line.Y)
	fmt.Fprintf(&b, ":enable='between(t\\,%.2f\\,%.2f)'", start, end)
	return b.String()
}

func applyTextCase(text string, tc TextCase) string {
	switch tc {
	case CaseUpper:
		return cases.Upper(language.Und).String(text)
	case CaseLower:
		return cases.Lower(language.Und).String(text)
	case CaseTitle:
		return cases.Title(language.Und).String(text)
	default:
		return text
	}
}

// ffColor converts a normalized "#rrggbb" value to ffmpeg color syntax,
// appending an alpha component when opacity is below 1.
func ffColor(hex string, opacity float64) string {
	value := "0x" + strings.TrimPrefix(hex, "#")
	if opacity < 1 {
		return fmt.Sprintf("%s@%.2f", value, opacity)
	}
	return value
}

var drawtextEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\\\'`,
	`:`, `\:`,
	`%`, `\\%`,
	`,`, `\,`,
)

func escapeDrawtext(s string) string {
	return drawtextEscaper.Replace(s)
}
