package captions

import (
	"strings"
	"testing"

	"clipforge/internal/clip"
)

func renderOpts() RenderOptions {
	return RenderOptions{
		CanvasWidth:  1080,
		CanvasHeight: 1920,
		FontFile:     "/tmp/font.ttf",
		XPct:         50,
		YPct:         80,
		Scale:        1,
		ClipDuration: 10,
	}
}

func f(v float64) *float64 { return &v }

func TestDrawInstructionsBasic(t *testing.T) {
	style := Resolve(PresetClean, Overrides{})
	entries := []clip.Entry{{Text: "hello world", Start: 0.5, End: f(2.75)}}
	steps := DrawInstructions(style, entries, renderOpts())
	if len(steps) != 1 {
		t.Fatalf("expected one step, got %d: %v", len(steps), steps)
	}
	step := steps[0]
	for _, want := range []string{
		"drawtext=",
		"text='hello world'",
		"fontsize=56",
		"fontcolor=0xffffff",
		"borderw=2:bordercolor=0x000000",
		"enable='between(t\\,0.50\\,2.75)'",
		"x=540-text_w/2",
	} {
		if !strings.Contains(step, want) {
			t.Fatalf("step missing %q: %s", want, step)
		}
	}
}

func TestDrawInstructionsTimeOffset(t *testing.T) {
	style := Resolve(PresetClean, Overrides{})
	entries := []clip.Entry{{Text: "hello world", Start: 0.5, End: f(2.75)}}
	opts := renderOpts()
	opts.TimeOffset = 10
	steps := DrawInstructions(style, entries, opts)
	if len(steps) != 1 {
		t.Fatalf("expected one step, got %d: %v", len(steps), steps)
	}
	if !strings.Contains(steps[0], "enable='between(t\\,10.50\\,12.75)'") {
		t.Fatalf("enable window not shifted onto the source timeline: %s", steps[0])
	}
}

func TestDrawInstructionsWeightBoostPasses(t *testing.T) {
	style := Resolve(PresetBold, Overrides{})
	entries := []clip.Entry{{Text: "loud", Start: 0, End: f(1)}}
	steps := DrawInstructions(style, entries, renderOpts())
	if len(steps) != 3 {
		t.Fatalf("bold preset should emit 1 base + 2 offset passes, got %d", len(steps))
	}
	if !strings.Contains(steps[1], "x=541-text_w/2") || !strings.Contains(steps[2], "x=542-text_w/2") {
		t.Fatalf("offset passes missing: %v", steps[1:])
	}
}

func TestDrawInstructionsBoxedBackground(t *testing.T) {
	style := Resolve(PresetBoxed, Overrides{})
	entries := []clip.Entry{{Text: "boxed", Start: 0, End: f(1)}}
	steps := DrawInstructions(style, entries, renderOpts())
	if len(steps) != 1 {
		t.Fatalf("expected one step, got %v", steps)
	}
	if !strings.Contains(steps[0], "box=1:boxcolor=0x000000@0.60:boxborderw=16") {
		t.Fatalf("box parameters missing: %s", steps[0])
	}
}

func TestDrawInstructionsOpenEndResolution(t *testing.T) {
	style := Resolve(PresetClean, Overrides{})
	entries := []clip.Entry{
		{Text: "first", Start: 0},
		{Text: "second", Start: 4},
	}
	steps := DrawInstructions(style, entries, renderOpts())
	if len(steps) != 2 {
		t.Fatalf("expected two steps, got %v", steps)
	}
	if !strings.Contains(steps[0], "between(t\\,0.00\\,4.00)") {
		t.Fatalf("first entry should end at the next start: %s", steps[0])
	}
	if !strings.Contains(steps[1], "between(t\\,4.00\\,10.00)") {
		t.Fatalf("last open entry should run to clip end: %s", steps[1])
	}
}

func TestDrawInstructionsMultiLineStacks(t *testing.T) {
	style := Resolve(PresetClean, Overrides{FontSize: f(56)})
	long := "the quick brown fox jumps over the lazy dog and keeps on running far away"
	entries := []clip.Entry{{Text: long, Start: 0, End: f(2)}}
	steps := DrawInstructions(style, entries, renderOpts())
	if len(steps) < 2 {
		t.Fatalf("long text should wrap to multiple lines: %v", steps)
	}
}

func TestDrawInstructionsEscaping(t *testing.T) {
	style := Resolve(PresetClean, Overrides{})
	entries := []clip.Entry{{Text: "100% sure: it's fine", Start: 0, End: f(1)}}
	steps := DrawInstructions(style, entries, renderOpts())
	step := steps[0]
	if strings.Contains(step, "100% ") {
		t.Fatalf("percent not escaped: %s", step)
	}
	if !strings.Contains(step, `\\%`) || !strings.Contains(step, `\:`) {
		t.Fatalf("expected escaped metacharacters: %s", step)
	}
}

func TestDrawInstructionsTextCase(t *testing.T) {
	upper := "upper"
	style := Resolve(PresetClean, Overrides{TextCase: &upper})
	entries := []clip.Entry{{Text: "hello", Start: 0, End: f(1)}}
	steps := DrawInstructions(style, entries, renderOpts())
	if !strings.Contains(steps[0], "text='HELLO'") {
		t.Fatalf("text case not applied: %s", steps[0])
	}
}

func TestDrawInstructionsEmpty(t *testing.T) {
	style := Resolve(PresetClean, Overrides{})
	if steps := DrawInstructions(style, nil, renderOpts()); steps != nil {
		t.Fatalf("expected nil for no entries, got %v", steps)
	}
}

func TestDrawInstructionsSkipsInvertedEntries(t *testing.T) {
	style := Resolve(PresetClean, Overrides{})
	entries := []clip.Entry{{Text: "bad", Start: 5, End: f(3)}}
	if steps := DrawInstructions(style, entries, renderOpts()); steps != nil {
		t.Fatalf("inverted entry should be skipped, got %v", steps)
	}
}
