package captions

import "strings"

// PresetID identifies a built-in caption style preset.
type PresetID string

const (
	PresetClean   PresetID = "clean"
	PresetOutline PresetID = "outline"
	PresetBoxed   PresetID = "boxed"
	PresetShadow  PresetID = "shadow"
	PresetBold    PresetID = "bold"
)

var allPresets = []PresetID{PresetClean, PresetOutline, PresetBoxed, PresetShadow, PresetBold}

// AllPresets returns the ordered list of known preset ids.
func AllPresets() []PresetID {
	cp := make([]PresetID, len(allPresets))
	copy(cp, allPresets)
	return cp
}

// ParsePreset converts a string into a known PresetID, falling back to
// PresetClean for unknown values.
func ParsePreset(value string) PresetID {
	normalized := PresetID(strings.ToLower(strings.TrimSpace(value)))
	for _, preset := range allPresets {
		if preset == normalized {
			return preset
		}
	}
	return PresetClean
}

func presetDefaults(id PresetID) Style {
	base := Style{
		TextColor:      "#ffffff",
		BorderColor:    "#000000",
		BorderWidth:    2,
		ShadowColor:    "#000000",
		ShadowOpacity:  0,
		ShadowDistance: 0,
		LetterWidth:    1,
		TextCase:       CaseNone,
		FontSize:       56,
		WeightBoost:    0,
	}
	switch id {
	case PresetOutline:
		base.BorderWidth = 6
	case PresetBoxed:
		base.BorderWidth = 0
		base.Background = Background{
			Enabled: true,
			Color:   "#000000",
			Opacity: 0.6,
			Radius:  12,
			Padding: 16,
		}
	case PresetShadow:
		base.ShadowOpacity = 0.6
		base.ShadowDistance = 4
	case PresetBold:
		base.BorderWidth = 4
		base.LetterWidth = 1.1
		base.WeightBoost = 2
	}
	return base
}
