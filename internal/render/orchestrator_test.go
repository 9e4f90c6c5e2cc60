package render

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"clipforge/internal/captions"
	"clipforge/internal/clip"
	"clipforge/internal/config"
	"clipforge/internal/geometry"
	"clipforge/internal/logging"
	"clipforge/internal/services"
	"clipforge/internal/services/ffmpeg"
)

type fakeEngine struct {
	probe      ffmpeg.ProbeInfo
	probeErr   error
	probeCalls int

	renderErrs  []error
	renderCalls []ffmpeg.Request
	updates     []ffmpeg.Update
	artifactLen int
}

func (f *fakeEngine) Probe(ctx context.Context, path string) (ffmpeg.ProbeInfo, error) {
	f.probeCalls++
	return f.probe, f.probeErr
}

func (f *fakeEngine) Render(ctx context.Context, req ffmpeg.Request, progress func(ffmpeg.Update)) error {
	call := len(f.renderCalls)
	f.renderCalls = append(f.renderCalls, req)
	if call < len(f.renderErrs) && f.renderErrs[call] != nil {
		return f.renderErrs[call]
	}
	if progress != nil {
		for _, update := range f.updates {
			progress(update)
		}
	}
	size := f.artifactLen
	if size == 0 {
		size = 64 * 1024
	}
	return os.WriteFile(req.OutputPath, bytes.Repeat([]byte("x"), size), 0o644)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StagingDir = filepath.Join(dir, "staging")
	cfg.Paths.OutputDir = filepath.Join(dir, "out")
	cfg.Paths.LogDir = filepath.Join(dir, "logs")
	cfg.Paths.CacheDir = filepath.Join(dir, "cache")
	cfg.Captions.FontURL = ""
	return &cfg
}

func landscapeSource() ffmpeg.ProbeInfo {
	return ffmpeg.ProbeInfo{Width: 1920, Height: 1080, Duration: 120}
}

func baseRequest() Request {
	return Request{
		ShortID:   "short-one",
		InputPath: "/media/source.mp4",
		Window:    clip.NewWindow(10, 25),
		Zoom:      1.0,
	}
}

func TestExportSuccess(t *testing.T) {
	cfg := testConfig(t)
	engine := &fakeEngine{probe: landscapeSource()}
	orch := New(cfg, engine, logging.NewNop())

	result, err := orch.Export(context.Background(), baseRequest(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.SeekMode != SeekModeFast {
		t.Fatalf("seek mode = %q, want fast", result.SeekMode)
	}
	if result.Attempts != 1 {
		t.Fatalf("attempts = %d, want 1", result.Attempts)
	}
	if result.CaptionsBurnedIn {
		t.Fatal("no entries given, captions should not burn in")
	}
	for _, want := range []string{"scale=", "crop=1080:1920", "format=yuv420p"} {
		if !strings.Contains(result.FilterGraph, want) {
			t.Fatalf("filter graph %q missing %q", result.FilterGraph, want)
		}
	}
	if _, err := os.Stat(result.OutputPath); err != nil {
		t.Fatalf("published artifact missing: %v", err)
	}
	if filepath.Dir(result.OutputPath) != cfg.Paths.OutputDir {
		t.Fatalf("artifact %q not in output dir %q", result.OutputPath, cfg.Paths.OutputDir)
	}

	call := engine.renderCalls[0]
	if !call.SeekBeforeInput {
		t.Fatal("first attempt should use fast input seeking")
	}
	if call.TrimStart != 10 || call.TrimDuration != 15 {
		t.Fatalf("trim = (%v, %v), want (10, 15)", call.TrimStart, call.TrimDuration)
	}
}

func TestExportValidationFailureSkipsEngine(t *testing.T) {
	cfg := testConfig(t)
	engine := &fakeEngine{probe: landscapeSource()}
	orch := New(cfg, engine, logging.NewNop())

	req := baseRequest()
	req.Window = clip.NewWindow(5, 5.1)
	_, err := orch.Export(context.Background(), req, nil)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("error %v, want validation error", err)
	}
	if engine.probeCalls != 0 || len(engine.renderCalls) != 0 {
		t.Fatal("engine touched despite validation failure")
	}
}

func TestExportGeometryInvariantGatesEngine(t *testing.T) {
	cfg := testConfig(t)
	engine := &fakeEngine{probe: landscapeSource()}
	orch := New(cfg, engine, logging.NewNop())

	req := baseRequest()
	req.MeasuredRect = &geometry.Rect{W: 200, H: 400}
	_, err := orch.Export(context.Background(), req, nil)
	if !errors.Is(err, services.ErrGeometryInvariant) {
		t.Fatalf("error %v, want geometry invariant error", err)
	}
	if len(engine.renderCalls) != 0 {
		t.Fatal("engine invoked despite invariant failure")
	}
}

func TestExportFallsBackToExactSeek(t *testing.T) {
	cfg := testConfig(t)
	seekErr := services.Wrap(services.ErrSeekIncompatible, "render", "ffmpeg", "fast seek rejected",
		&ffmpeg.EngineError{Err: errors.New("exit status 1"), Tail: []string{"could not seek to position"}})
	engine := &fakeEngine{probe: landscapeSource(), renderErrs: []error{seekErr}}
	orch := New(cfg, engine, logging.NewNop())

	result, err := orch.Export(context.Background(), baseRequest(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.SeekMode != SeekModeExact {
		t.Fatalf("seek mode = %q, want exact after fallback", result.SeekMode)
	}
	if result.Attempts != 2 {
		t.Fatalf("attempts = %d, want 2", result.Attempts)
	}
	if len(engine.renderCalls) != 2 || engine.renderCalls[1].SeekBeforeInput {
		t.Fatalf("second attempt should seek after input: %+v", engine.renderCalls)
	}
	if len(result.Notes) == 0 || !strings.Contains(result.Notes[0], "exact seek") {
		t.Fatalf("notes = %v, want exact seek fallback note", result.Notes)
	}
}

func TestExportDropsCaptionsOnFilterFailure(t *testing.T) {
	cfg := testConfig(t)
	fontPath := filepath.Join(t.TempDir(), "font.ttf")
	if err := os.WriteFile(fontPath, []byte("fake font bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg.Captions.FontPath = fontPath

	captionErr := services.Wrap(services.ErrEngineFailure, "render", "ffmpeg", "render pass failed",
		&ffmpeg.EngineError{Err: errors.New("exit status 1"), Tail: []string{"[Parsed_drawtext_4] Error initializing filter"}})
	engine := &fakeEngine{probe: landscapeSource(), renderErrs: []error{captionErr}}
	orch := New(cfg, engine, logging.NewNop())

	req := baseRequest()
	end := 18.0
	req.Entries = []clip.Entry{{Text: "hello there", Start: 12, End: &end}}
	req.Preset = captions.PresetClean

	result, err := orch.Export(context.Background(), req, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.CaptionsBurnedIn {
		t.Fatal("captions should be dropped after filter failure")
	}
	if result.Attempts != 2 {
		t.Fatalf("attempts = %d, want 2", result.Attempts)
	}
	if !strings.Contains(engine.renderCalls[0].FilterGraph, "drawtext") {
		t.Fatalf("first attempt missing drawtext: %q", engine.renderCalls[0].FilterGraph)
	}
	if strings.Contains(engine.renderCalls[1].FilterGraph, "drawtext") {
		t.Fatalf("retry still carries drawtext: %q", engine.renderCalls[1].FilterGraph)
	}
	if result.SeekMode != SeekModeFast {
		t.Fatalf("seek mode = %q, caption fallback should keep fast seek", result.SeekMode)
	}
}

func TestExportBurnsCaptionsFromCachedFont(t *testing.T) {
	cfg := testConfig(t)
	if err := os.MkdirAll(cfg.Paths.CacheDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(cfg.FontCachePath(), []byte("fake font bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	engine := &fakeEngine{probe: landscapeSource()}
	orch := New(cfg, engine, logging.NewNop())

	req := baseRequest()
	end := 18.0
	req.Entries = []clip.Entry{{Text: "hello there", Start: 12, End: &end}}

	result, err := orch.Export(context.Background(), req, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.CaptionsBurnedIn {
		t.Fatal("cached font present, captions should burn in")
	}
	if !strings.Contains(engine.renderCalls[0].FilterGraph, "drawtext") {
		t.Fatalf("filter graph %q missing drawtext", engine.renderCalls[0].FilterGraph)
	}
}

func TestExportExactSeekShiftsCaptionWindows(t *testing.T) {
	cfg := testConfig(t)
	fontPath := filepath.Join(t.TempDir(), "font.ttf")
	if err := os.WriteFile(fontPath, []byte("fake font bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg.Captions.FontPath = fontPath

	seekErr := services.Wrap(services.ErrSeekIncompatible, "render", "ffmpeg", "fast seek rejected",
		&ffmpeg.EngineError{Err: errors.New("exit status 1"), Tail: []string{"could not seek to position"}})
	engine := &fakeEngine{probe: landscapeSource(), renderErrs: []error{seekErr}}
	orch := New(cfg, engine, logging.NewNop())

	req := baseRequest()
	end := 14.0
	req.Entries = []clip.Entry{{Text: "hello there", Start: 12, End: &end}}

	result, err := orch.Export(context.Background(), req, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.CaptionsBurnedIn {
		t.Fatal("captions should survive the seek fallback")
	}

	// Fast input seeking resets filter time, so the window is clip relative.
	if !strings.Contains(engine.renderCalls[0].FilterGraph, `between(t\,2.00\,4.00)`) {
		t.Fatalf("fast graph %q missing clip-relative window", engine.renderCalls[0].FilterGraph)
	}
	// Output-side seeking keeps source timestamps; the window must follow.
	if !strings.Contains(engine.renderCalls[1].FilterGraph, `between(t\,12.00\,14.00)`) {
		t.Fatalf("exact graph %q missing source-timeline window", engine.renderCalls[1].FilterGraph)
	}
	if strings.Contains(engine.renderCalls[1].FilterGraph, `between(t\,2.00\,4.00)`) {
		t.Fatalf("exact graph %q still carries clip-relative window", engine.renderCalls[1].FilterGraph)
	}
	if !strings.Contains(result.FilterGraph, `between(t\,12.00\,14.00)`) {
		t.Fatalf("result graph %q does not match the exact-seek render", result.FilterGraph)
	}
}

func TestExportSkipsCaptionsWhenFontMissing(t *testing.T) {
	cfg := testConfig(t)
	engine := &fakeEngine{probe: landscapeSource()}
	orch := New(cfg, engine, logging.NewNop())

	req := baseRequest()
	end := 18.0
	req.Entries = []clip.Entry{{Text: "hello there", Start: 12, End: &end}}

	result, err := orch.Export(context.Background(), req, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.CaptionsBurnedIn {
		t.Fatal("captions burned in without a font")
	}
	if strings.Contains(engine.renderCalls[0].FilterGraph, "drawtext") {
		t.Fatalf("filter graph %q carries drawtext without a font", engine.renderCalls[0].FilterGraph)
	}
	found := false
	for _, note := range result.Notes {
		if strings.Contains(note, "font unavailable") {
			found = true
		}
	}
	if !found {
		t.Fatalf("notes = %v, want font unavailable note", result.Notes)
	}
}

func TestExportRejectsUndersizedArtifact(t *testing.T) {
	cfg := testConfig(t)
	cfg.Output.MinArtifactBytes = 1 << 20
	engine := &fakeEngine{probe: landscapeSource(), artifactLen: 128}
	orch := New(cfg, engine, logging.NewNop())

	_, err := orch.Export(context.Background(), baseRequest(), nil)
	if !errors.Is(err, services.ErrEngineFailure) {
		t.Fatalf("error %v, want engine failure", err)
	}
	if !strings.Contains(err.Error(), "below minimum") {
		t.Fatalf("error %v missing artifact size detail", err)
	}
}

func TestExportTerminalFailureStopsLadder(t *testing.T) {
	cfg := testConfig(t)
	hardErr := services.Wrap(services.ErrEngineFailure, "render", "ffmpeg", "render pass failed",
		&ffmpeg.EngineError{Err: errors.New("exit status 1"), Tail: []string{"conversion failed"}})
	engine := &fakeEngine{probe: landscapeSource(), renderErrs: []error{hardErr, hardErr, hardErr}}
	orch := New(cfg, engine, logging.NewNop())

	_, err := orch.Export(context.Background(), baseRequest(), nil)
	if !errors.Is(err, services.ErrEngineFailure) {
		t.Fatalf("error %v, want engine failure", err)
	}
	if len(engine.renderCalls) != 1 {
		t.Fatalf("render calls = %d, terminal failure should not retry", len(engine.renderCalls))
	}
	// The terminal error names the source, window, seek mode, and caption
	// state so the failure is diagnosable without the log file.
	for _, want := range []string{"source.mp4", "window 10.00-25.00s", "seek fast", "captions false"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q missing %q", err.Error(), want)
		}
	}
}

func TestExportPublishesMonotonicProgress(t *testing.T) {
	cfg := testConfig(t)
	engine := &fakeEngine{
		probe: landscapeSource(),
		updates: []ffmpeg.Update{
			{Fraction: 0.25},
			{Fraction: 0.5},
			{Fraction: -1, OutTime: 3, Line: "frame=90"},
			{Fraction: 1},
		},
	}
	orch := New(cfg, engine, logging.NewNop())

	var seen []Progress
	_, err := orch.Export(context.Background(), baseRequest(), func(p Progress) {
		seen = append(seen, p)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(seen) == 0 {
		t.Fatal("no progress published")
	}
	last := -1.0
	for _, p := range seen {
		if p.Percent < last {
			t.Fatalf("progress regressed from %v to %v", last, p.Percent)
		}
		last = p.Percent
	}
	if last != 100 {
		t.Fatalf("final progress = %v, want 100", last)
	}
}
