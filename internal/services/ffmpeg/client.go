package ffmpeg

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	ffmpeggo "github.com/u2takey/ffmpeg-go"

	"clipforge/internal/services"
)

var commandContext = exec.CommandContext

// Request describes one render invocation.
type Request struct {
	InputPath  string
	OutputPath string

	// SeekBeforeInput selects fast input seeking (-ss before -i). When
	// false the trim is applied as an output option, which decodes from the
	// start of the file but is frame exact.
	SeekBeforeInput bool
	TrimStart       float64
	TrimDuration    float64

	FilterGraph string
	OutputArgs  map[string]interface{}

	// ExpectedDuration lets progress updates carry a completion fraction.
	ExpectedDuration float64
}

// Update is one progress observation from the running engine. Fraction is
// -1 when the update carries no usable completion estimate.
type Update struct {
	Fraction float64
	OutTime  float64
	Line     string
}

// Client defines render engine behaviour.
type Client interface {
	Render(ctx context.Context, req Request, progress func(Update)) error
	Probe(ctx context.Context, path string) (ProbeInfo, error)
}

// Option configures the CLI client.
type Option func(*CLI)

// WithBinary overrides the default ffmpeg binary name.
func WithBinary(binary string) Option {
	return func(c *CLI) {
		if strings.TrimSpace(binary) != "" {
			c.binary = binary
		}
	}
}

// WithLogTail overrides how many trailing engine log lines are retained for
// failure diagnostics.
func WithLogTail(lines int) Option {
	return func(c *CLI) {
		if lines > 0 {
			c.tailLines = lines
		}
	}
}

// CLI wraps the ffmpeg command-line engine.
type CLI struct {
	binary    string
	tailLines int
}

// NewCLI constructs a CLI client using defaults.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{binary: "ffmpeg", tailLines: 30}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// Render launches a single ffmpeg pass and streams progress to the callback.
// Machine-readable progress arrives on stdout via -progress pipe:1; stderr
// lines feed both the log tail and the out-time fallback parser.
func (c *CLI) Render(ctx context.Context, req Request, progress func(Update)) error {
	if strings.TrimSpace(req.InputPath) == "" {
		return services.Wrap(services.ErrValidation, "render", "ffmpeg", "input path required", nil)
	}
	if strings.TrimSpace(req.OutputPath) == "" {
		return services.Wrap(services.ErrValidation, "render", "ffmpeg", "output path required", nil)
	}

	args := buildArgs(req)
	cmd := commandContext(ctx, c.binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return services.Wrap(services.ErrEngineFailure, "render", "ffmpeg", "stdout pipe", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return services.Wrap(services.ErrEngineFailure, "render", "ffmpeg", "stderr pipe", err)
	}
	if err := cmd.Start(); err != nil {
		return services.Wrap(services.ErrEngineFailure, "render", "ffmpeg", "start ffmpeg", err)
	}

	tail := newTailBuffer(c.tailLines)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		c.consumeProgress(stdout, req.ExpectedDuration, progress)
	}()
	go func() {
		defer wg.Done()
		c.consumeStderr(stderr, req.ExpectedDuration, tail, progress)
	}()
	wg.Wait()

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return services.Wrap(services.ErrEngineFailure, "render", "ffmpeg", "canceled", ctx.Err())
		}
		engineErr := &EngineError{Err: err, Tail: tail.Lines()}
		if seekIncompatible(engineErr.Tail) {
			return services.Wrap(services.ErrSeekIncompatible, "render", "ffmpeg", "fast seek rejected", engineErr)
		}
		return services.Wrap(services.ErrEngineFailure, "render", "ffmpeg", "render pass failed", engineErr)
	}
	return nil
}

// Probe inspects a media file and returns its basic stream facts.
func (c *CLI) Probe(ctx context.Context, path string) (ProbeInfo, error) {
	if strings.TrimSpace(path) == "" {
		return ProbeInfo{}, services.Wrap(services.ErrValidation, "probe", "ffprobe", "input path required", nil)
	}
	raw, err := probeFunc(path)
	if err != nil {
		return ProbeInfo{}, services.Wrap(services.ErrEngineFailure, "probe", "ffprobe", path, err)
	}
	info, err := parseProbe(raw)
	if err != nil {
		return ProbeInfo{}, services.Wrap(services.ErrEngineFailure, "probe", "ffprobe", "parse output", err)
	}
	return info, nil
}

var probeFunc = ffmpeggo.Probe

// buildArgs assembles the full ffmpeg argument list through the stream
// builder so filter and codec options stay in canonical order.
func buildArgs(req Request) []string {
	inputArgs := ffmpeggo.KwArgs{}
	if req.SeekBeforeInput && req.TrimStart > 0 {
		inputArgs["ss"] = formatSeconds(req.TrimStart)
	}

	outputArgs := ffmpeggo.KwArgs{}
	for key, value := range req.OutputArgs {
		outputArgs[key] = value
	}
	if !req.SeekBeforeInput && req.TrimStart > 0 {
		outputArgs["ss"] = formatSeconds(req.TrimStart)
	}
	if req.TrimDuration > 0 {
		outputArgs["t"] = formatSeconds(req.TrimDuration)
	}
	if strings.TrimSpace(req.FilterGraph) != "" {
		outputArgs["vf"] = req.FilterGraph
	}

	stream := ffmpeggo.Input(req.InputPath, inputArgs).
		Output(req.OutputPath, outputArgs).
		GlobalArgs("-hide_banner", "-nostats", "-progress", "pipe:1").
		OverWriteOutput()
	cmd := stream.Compile()
	if len(cmd.Args) <= 1 {
		return nil
	}
	return cmd.Args[1:]
}

func (c *CLI) consumeProgress(r io.Reader, expected float64, progress func(Update)) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		outTime, ok := parseProgressLine(line)
		if !ok || progress == nil {
			continue
		}
		progress(Update{Fraction: fraction(outTime, expected), OutTime: outTime})
	}
}

func (c *CLI) consumeStderr(r io.Reader, expected float64, tail *tailBuffer, progress func(Update)) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		tail.Add(line)
		if progress == nil {
			continue
		}
		update := Update{Fraction: -1, OutTime: -1, Line: line}
		if outTime, ok := parseStderrTime(line); ok {
			update.OutTime = outTime
			update.Fraction = fraction(outTime, expected)
		}
		progress(update)
	}
}

func fraction(outTime, expected float64) float64 {
	if expected <= 0 || outTime < 0 {
		return -1
	}
	f := outTime / expected
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

// EngineError carries the trailing engine log alongside the process error.
type EngineError struct {
	Err  error
	Tail []string
}

func (e *EngineError) Error() string {
	if len(e.Tail) == 0 {
		return e.Err.Error()
	}
	return e.Err.Error() + ": " + strings.Join(e.Tail, " | ")
}

func (e *EngineError) Unwrap() error { return e.Err }

var seekFailurePatterns = []string{
	"could not seek",
	"invalid seek",
	"error while seeking",
	"seek to timestamp",
}

func seekIncompatible(tail []string) bool {
	for _, line := range tail {
		lower := strings.ToLower(line)
		for _, pattern := range seekFailurePatterns {
			if strings.Contains(lower, pattern) {
				return true
			}
		}
	}
	return false
}

var _ Client = (*CLI)(nil)

// IsSeekIncompatible reports whether err indicates the source rejects fast
// input seeking and the render should retry with exact output seeking.
func IsSeekIncompatible(err error) bool {
	return errors.Is(err, services.ErrSeekIncompatible)
}
