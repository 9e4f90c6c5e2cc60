package render

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"log/slog"

	"clipforge/internal/captions"
	"clipforge/internal/clip"
	"clipforge/internal/config"
	"clipforge/internal/fileutil"
	"clipforge/internal/geometry"
	"clipforge/internal/logging"
	"clipforge/internal/services"
	"clipforge/internal/services/ffmpeg"
)

// Seek modes reported in export results.
const (
	SeekModeFast  = "fast"
	SeekModeExact = "exact"
)

const maxAttempts = 3

// Request describes one export job.
type Request struct {
	ShortID    string
	InputPath  string
	OutputPath string

	Window clip.Window
	Nudges clip.TrimNudges

	Zoom         float64
	PanX         float64
	PanY         float64
	MeasuredRect *geometry.Rect

	// Entries are timed caption entries on the source timeline.
	Entries        []clip.Entry
	Preset         captions.PresetID
	StyleOverrides captions.Overrides
	CaptionXPct    float64
	CaptionYPct    float64
	CaptionScale   float64
}

// Progress is one observation published to the caller during an export.
type Progress struct {
	Percent float64
	Stage   string
}

// Result summarizes a completed export.
type Result struct {
	OutputPath       string
	SeekMode         string
	CaptionsBurnedIn bool
	FilterGraph      string
	Attempts         int
	ArtifactBytes    int64
	Source           ffmpeg.ProbeInfo
	Window           clip.Window
	Geometry         geometry.Geometry
	Notes            []string
	Elapsed          time.Duration
}

// Orchestrator sequences validation, geometry, caption styling, engine
// attempts, and artifact publication for short exports.
type Orchestrator struct {
	cfg    *config.Config
	engine ffmpeg.Client
	fonts  *FontCache
	logger *slog.Logger
}

// New builds an orchestrator over the given engine client.
func New(cfg *config.Config, engine ffmpeg.Client, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Orchestrator{
		cfg:    cfg,
		engine: engine,
		fonts:  NewFontCache(cfg.Captions.FontPath, cfg.Captions.FontURL, cfg.FontCachePath()),
		logger: logging.NewComponentLogger(logger, "render"),
	}
}

// Export runs the full pipeline for one short. Geometry invariants gate the
// engine: nothing is rendered when the computed transform would distort the
// frame. The attempt ladder starts with fast input seeking plus captions
// and degrades one axis at a time on recoverable failures.
func (o *Orchestrator) Export(ctx context.Context, req Request, onProgress func(Progress)) (*Result, error) {
	started := time.Now()
	publisher := newPublisher(onProgress)
	tracker := NewTracker(o.cfg.Render.ProgressFloor, o.cfg.Render.ProgressCeiling, o.cfg.Render.RampSeconds, publisher.notify)
	logger := o.logger.With(logging.String(logging.FieldShortID, req.ShortID))

	publisher.stage("validate")
	if strings.TrimSpace(req.InputPath) == "" {
		return nil, services.Wrap(services.ErrValidation, "render", "export", "input path required", nil)
	}
	window := req.Window
	if req.Nudges != (clip.TrimNudges{}) {
		window = clip.ApplyTrimNudges(window, req.Nudges, 0)
	}
	if err := clip.ValidateForExport(window, o.cfg.Output.MinClipSeconds); err != nil {
		return nil, err
	}
	tracker.Set(2)

	publisher.stage("probe")
	source, err := o.engine.Probe(ctx, req.InputPath)
	if err != nil {
		return nil, err
	}
	window = clip.ClampToSource(window, source.Duration, o.cfg.Output.MinClipSeconds)
	if err := clip.ValidateForExport(window, o.cfg.Output.MinClipSeconds); err != nil {
		return nil, err
	}
	tracker.Set(5)

	geoInput := geometry.Input{
		SourceWidth:    source.Width,
		SourceHeight:   source.Height,
		Zoom:           req.Zoom,
		PanX:           req.PanX,
		PanY:           req.PanY,
		ViewportWidth:  o.cfg.Preview.ViewportWidth,
		ViewportHeight: o.cfg.Preview.ViewportHeight,
		MeasuredRect:   req.MeasuredRect,
		OutputWidth:    o.cfg.Output.Width,
		OutputHeight:   o.cfg.Output.Height,
		PixelFormat:    o.cfg.Output.PixelFormat,
	}
	geo := geometry.Compute(geoInput)
	if err := geometry.Check(geo, geoInput); err != nil {
		logger.Error("geometry invariants rejected export", logging.Error(err))
		return nil, err
	}
	logger.Info("geometry resolved", logging.String("transform", geo.Describe()))

	var notes []string
	captionsForSeek := o.buildCaptions(ctx, req, window, logger, &notes)

	workspace, err := OpenWorkspace(ctx, o.cfg.Paths.StagingDir, req.ShortID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := workspace.Close(); closeErr != nil {
			logger.Warn("workspace cleanup failed", logging.Error(closeErr))
		}
	}()
	scratchOut := workspace.ScratchPath("short.mp4")

	publisher.stage("render")
	plan := attemptPlan{seekMode: SeekModeFast, captions: captionsForSeek.enabled()}
	var attempts int
	for attempts = 1; attempts <= maxAttempts; attempts++ {
		attemptLogger := logger.With(
			logging.Int(logging.FieldAttempt, attempts),
			logging.String(logging.FieldSeekMode, plan.seekMode),
			logging.Bool("captions", plan.captions),
		)
		attemptLogger.Info("starting render pass")
		tracker.BeginAttempt(time.Now())

		err = o.runAttempt(ctx, req, window, geo, captionsForSeek, plan, scratchOut, tracker)
		if err == nil {
			break
		}

		next, note, ok := plan.degrade(err)
		if !ok || attempts == maxAttempts {
			attemptLogger.Error("render pass failed", logging.Error(err))
			return nil, fmt.Errorf("render %s (window %.2f-%.2fs, seek %s, captions %t): %w",
				filepath.Base(req.InputPath), window.Start, window.End, plan.seekMode, plan.captions, err)
		}
		attemptLogger.Warn("render pass failed, retrying", logging.String("fallback", note), logging.Error(err))
		notes = append(notes, note)
		plan = next
	}

	publisher.stage("finalize")
	info, statErr := os.Stat(scratchOut)
	if statErr != nil {
		return nil, services.Wrap(services.ErrEngineFailure, "render", "finalize", "artifact missing", statErr)
	}
	if info.Size() < o.cfg.Output.MinArtifactBytes {
		return nil, services.Wrap(services.ErrEngineFailure, "render", "finalize",
			fmt.Sprintf("artifact %d bytes below minimum %d", info.Size(), o.cfg.Output.MinArtifactBytes), nil)
	}
	tracker.Set(95)

	outputPath := strings.TrimSpace(req.OutputPath)
	if outputPath == "" {
		outputPath = filepath.Join(o.cfg.Paths.OutputDir, sanitizeID(req.ShortID)+".mp4")
	}
	if err := fileutil.MoveFile(scratchOut, outputPath); err != nil {
		return nil, services.Wrap(services.ErrPersistence, "render", "finalize", "publish artifact", err)
	}
	tracker.Set(100)

	result := &Result{
		OutputPath:       outputPath,
		SeekMode:         plan.seekMode,
		CaptionsBurnedIn: plan.captions,
		FilterGraph:      buildFilterGraph(geo, captionsForSeek.forMode(plan.seekMode), plan.captions),
		Attempts:         attempts,
		ArtifactBytes:    info.Size(),
		Source:           source,
		Window:           window,
		Geometry:         geo,
		Notes:            notes,
		Elapsed:          time.Since(started),
	}
	logger.Info("export complete",
		logging.String("output", result.OutputPath),
		logging.String(logging.FieldSeekMode, result.SeekMode),
		logging.Int(logging.FieldAttempt, result.Attempts),
		logging.Int64("bytes", result.ArtifactBytes),
	)
	return result, nil
}

// captionSet carries the drawtext steps for each seek strategy. Fast input
// seeking resets filter time to zero, so the enable windows are clip
// relative; output-side seeking evaluates t against source timestamps, so
// the windows keep the clip start offset.
type captionSet struct {
	fast  []string
	exact []string
}

func (s captionSet) enabled() bool {
	return len(s.fast) > 0
}

func (s captionSet) forMode(seekMode string) []string {
	if seekMode == SeekModeExact {
		return s.exact
	}
	return s.fast
}

// buildCaptions resolves the style and converts overlapping entries into
// drawtext steps for both seek strategies. Any failure here downgrades the
// export to a bare render instead of failing it.
func (o *Orchestrator) buildCaptions(ctx context.Context, req Request, window clip.Window, logger *slog.Logger, notes *[]string) captionSet {
	overlapping := clip.Overlapping(window, req.Entries)
	if len(overlapping) == 0 {
		return captionSet{}
	}

	fontPath, err := o.fonts.Ensure(ctx)
	if err != nil {
		logger.Warn("caption font unavailable, skipping burn-in", logging.Error(err))
		*notes = append(*notes, "captions skipped: font unavailable")
		return captionSet{}
	}

	relative := make([]clip.Entry, 0, len(overlapping))
	for _, entry := range overlapping {
		relative = append(relative, clip.Relative(window, entry))
	}

	style := captions.Resolve(req.Preset, req.StyleOverrides)
	xPct, yPct, scale := req.CaptionXPct, req.CaptionYPct, req.CaptionScale
	if xPct <= 0 {
		xPct = 50
	}
	if yPct <= 0 {
		yPct = 80
	}
	if scale <= 0 {
		scale = 1
	}
	opts := captions.RenderOptions{
		CanvasWidth:  o.cfg.Output.Width,
		CanvasHeight: o.cfg.Output.Height,
		FontFile:     fontPath,
		XPct:         xPct,
		YPct:         yPct,
		Scale:        scale,
		ClipDuration: window.Duration,
	}
	set := captionSet{fast: captions.DrawInstructions(style, relative, opts)}
	opts.TimeOffset = window.Start
	set.exact = captions.DrawInstructions(style, relative, opts)
	return set
}

func (o *Orchestrator) runAttempt(ctx context.Context, req Request, window clip.Window, geo geometry.Geometry, set captionSet, plan attemptPlan, scratchOut string, tracker *Tracker) error {
	attemptCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case now := <-ticker.C:
				tracker.Tick(now)
			}
		}
	}()

	err := o.engine.Render(attemptCtx, ffmpeg.Request{
		InputPath:        req.InputPath,
		OutputPath:       scratchOut,
		SeekBeforeInput:  plan.seekMode == SeekModeFast,
		TrimStart:        window.Start,
		TrimDuration:     window.Duration,
		FilterGraph:      buildFilterGraph(geo, set.forMode(plan.seekMode), plan.captions),
		OutputArgs:       o.outputArgs(),
		ExpectedDuration: window.Duration,
	}, func(update ffmpeg.Update) {
		tracker.Observe(update, window.Duration)
	})
	close(done)
	wg.Wait()
	return err
}

func (o *Orchestrator) outputArgs() map[string]interface{} {
	return map[string]interface{}{
		"c:v":      o.cfg.Output.VideoCodec,
		"preset":   o.cfg.Output.VideoPreset,
		"crf":      o.cfg.Output.VideoCRF,
		"c:a":      o.cfg.Output.AudioCodec,
		"b:a":      o.cfg.Output.AudioBitrate,
		"movflags": "+faststart",
	}
}

func buildFilterGraph(geo geometry.Geometry, captionSteps []string, withCaptions bool) string {
	graph := geo.FilterGraph()
	if withCaptions && len(captionSteps) > 0 {
		graph = graph + "," + strings.Join(captionSteps, ",")
	}
	return graph
}

// attemptPlan is the current rung of the fallback ladder.
type attemptPlan struct {
	seekMode string
	captions bool
}

// degrade maps a failed pass to the next plan: seek incompatibility retries
// with exact output seeking, caption filter failures retry without burn-in.
// Anything else is terminal.
func (p attemptPlan) degrade(err error) (attemptPlan, string, bool) {
	switch {
	case errors.Is(err, services.ErrSeekIncompatible) && p.seekMode == SeekModeFast:
		return attemptPlan{seekMode: SeekModeExact, captions: p.captions},
			"fast seek rejected by source, retrying with exact seek", true
	case p.captions && captionFailure(err):
		return attemptPlan{seekMode: p.seekMode, captions: false},
			"caption burn-in failed, retrying without captions", true
	default:
		return p, "", false
	}
}

var captionFailureMarkers = []string{
	"drawtext",
	"fontconfig",
	"font",
	"error initializing filter",
}

// captionFailure classifies an engine failure as caption related from the
// trailing log, so the retry can drop burn-in instead of giving up.
func captionFailure(err error) bool {
	if errors.Is(err, services.ErrCaptionRender) || errors.Is(err, services.ErrFontUnavailable) {
		return true
	}
	var engineErr *ffmpeg.EngineError
	if !errors.As(err, &engineErr) {
		return false
	}
	for _, line := range engineErr.Tail {
		lower := strings.ToLower(line)
		for _, marker := range captionFailureMarkers {
			if strings.Contains(lower, marker) {
				return true
			}
		}
	}
	return false
}

// publisher fans tracker advances out to the caller with the current stage
// label attached.
type publisher struct {
	mu       sync.Mutex
	current  string
	callback func(Progress)
}

func newPublisher(callback func(Progress)) *publisher {
	return &publisher{current: "validate", callback: callback}
}

func (p *publisher) stage(name string) {
	p.mu.Lock()
	p.current = name
	p.mu.Unlock()
}

func (p *publisher) notify(percent float64) {
	if p.callback == nil {
		return
	}
	p.mu.Lock()
	stage := p.current
	p.mu.Unlock()
	p.callback(Progress{Percent: percent, Stage: stage})
}
