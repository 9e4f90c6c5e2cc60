package captions

import (
	"regexp"
	"strings"
)

// TextCase selects a case transform applied to caption text before layout.
type TextCase string

const (
	CaseNone  TextCase = "none"
	CaseUpper TextCase = "upper"
	CaseLower TextCase = "lower"
	CaseTitle TextCase = "title"
)

// Background describes the optional box drawn behind caption text.
type Background struct {
	Enabled bool
	Color   string
	Opacity float64
	Radius  int
	Padding int
}

// Style is a fully resolved caption style. Every field is populated and
// clamped into its safe range; no partial style escapes Resolve.
type Style struct {
	Preset         PresetID
	TextColor      string
	BorderColor    string
	BorderWidth    int
	ShadowColor    string
	ShadowOpacity  float64
	ShadowDistance int
	LetterWidth    float64
	Background     Background
	TextCase       TextCase
	FontSize       float64
	WeightBoost    int
}

// Overrides carries the user's partial style adjustments. Nil fields keep
// the preset default.
type Overrides struct {
	TextColor         *string
	BorderColor       *string
	BorderWidth       *int
	ShadowColor       *string
	ShadowOpacity     *float64
	ShadowDistance    *int
	LetterWidth       *float64
	BackgroundEnabled *bool
	BackgroundColor   *string
	BackgroundOpacity *float64
	BackgroundRadius  *int
	BackgroundPadding *int
	TextCase          *string
	FontSize          *float64
	WeightBoost       *int
}

const (
	maxBorderWidth    = 12
	maxShadowDistance = 20
	maxLetterWidth    = 2
	maxRadius         = 48
	maxPadding        = 64
	minFontSize       = 16
	maxFontSize       = 120
	maxWeightBoost    = 3
)

var hexColorPattern = regexp.MustCompile(`^#?([0-9a-fA-F]{6}|[0-9a-fA-F]{3})$`)

// Resolve overlays overrides on preset defaults, clamping every numeric
// field into its safe range and normalizing colors to 6-digit lowercase hex.
func Resolve(preset PresetID, o Overrides) Style {
	style := presetDefaults(ParsePreset(string(preset)))
	style.Preset = ParsePreset(string(preset))

	if o.TextColor != nil {
		style.TextColor = normalizeHex(*o.TextColor, style.TextColor)
	}
	if o.BorderColor != nil {
		style.BorderColor = normalizeHex(*o.BorderColor, style.BorderColor)
	}
	if o.BorderWidth != nil {
		style.BorderWidth = clampInt(*o.BorderWidth, 0, maxBorderWidth)
	}
	if o.ShadowColor != nil {
		style.ShadowColor = normalizeHex(*o.ShadowColor, style.ShadowColor)
	}
	if o.ShadowOpacity != nil {
		style.ShadowOpacity = clampFloat(*o.ShadowOpacity, 0, 1)
	}
	if o.ShadowDistance != nil {
		style.ShadowDistance = clampInt(*o.ShadowDistance, 0, maxShadowDistance)
	}
	if o.LetterWidth != nil {
		style.LetterWidth = clampFloat(*o.LetterWidth, 1, maxLetterWidth)
	}
	if o.BackgroundEnabled != nil {
		style.Background.Enabled = *o.BackgroundEnabled
	}
	if o.BackgroundColor != nil {
		fallback := style.Background.Color
		if fallback == "" {
			fallback = "#000000"
		}
		style.Background.Color = normalizeHex(*o.BackgroundColor, fallback)
	}
	if o.BackgroundOpacity != nil {
		style.Background.Opacity = clampFloat(*o.BackgroundOpacity, 0, 1)
	}
	if o.BackgroundRadius != nil {
		style.Background.Radius = clampInt(*o.BackgroundRadius, 0, maxRadius)
	}
	if o.BackgroundPadding != nil {
		style.Background.Padding = clampInt(*o.BackgroundPadding, 0, maxPadding)
	}
	if o.TextCase != nil {
		style.TextCase = parseTextCase(*o.TextCase)
	}
	if o.FontSize != nil {
		style.FontSize = clampFloat(*o.FontSize, minFontSize, maxFontSize)
	}
	if o.WeightBoost != nil {
		style.WeightBoost = clampInt(*o.WeightBoost, 0, maxWeightBoost)
	}

	if style.Background.Enabled && style.Background.Color == "" {
		style.Background.Color = "#000000"
	}

	return style
}

func parseTextCase(value string) TextCase {
	switch TextCase(strings.ToLower(strings.TrimSpace(value))) {
	case CaseUpper:
		return CaseUpper
	case CaseLower:
		return CaseLower
	case CaseTitle:
		return CaseTitle
	default:
		return CaseNone
	}
}

func normalizeHex(value, fallback string) string {
	value = strings.TrimSpace(value)
	match := hexColorPattern.FindStringSubmatch(value)
	if match == nil {
		return fallback
	}
	hex := strings.ToLower(match[1])
	if len(hex) == 3 {
		expanded := make([]byte, 6)
		for i := 0; i < 3; i++ {
			expanded[2*i] = hex[i]
			expanded[2*i+1] = hex[i]
		}
		hex = string(expanded)
	}
	return "#" + hex
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
