package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"clipforge/internal/captions"
	"clipforge/internal/clip"
	"clipforge/internal/logging"
	"clipforge/internal/render"
	"clipforge/internal/services/ffmpeg"
	"clipforge/internal/shorts"
)

func newExportCommand(cmdCtx *commandContext) *cobra.Command {
	var (
		input      string
		output     string
		start      float64
		end        float64
		startNudge float64
		endNudge   float64

		zoom float64
		panX float64
		panY float64

		presetName   string
		captionsPath string
		captionX     float64
		captionY     float64
		captionScale float64

		name           string
		shortID        string
		projectID      string
		transcriptID   string
		captionTrackID string
		clipID         string
		planID         string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render one vertical short from a source video",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			logger := cmdCtx.ensureLogger()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			entries, err := loadCaptionEntries(captionsPath)
			if err != nil {
				return err
			}

			req := render.Request{
				InputPath:    input,
				OutputPath:   output,
				Window:       clip.NewWindow(start, end),
				Nudges:       clip.TrimNudges{Start: startNudge, End: endNudge},
				Zoom:         zoom,
				PanX:         panX,
				PanY:         panY,
				Entries:      entries,
				Preset:       captions.ParsePreset(presetName),
				CaptionXPct:  captionX,
				CaptionYPct:  captionY,
				CaptionScale: captionScale,
			}

			identity := shorts.Identity{
				SourceProjectID: projectID,
				TranscriptID:    transcriptID,
				CaptionTrackID:  captionTrackID,
				ClipID:          clipID,
				PlanID:          planID,
			}
			tracked := identity.Complete() || shortID != ""
			if !identity.Complete() && anyIdentityPart(identity) {
				return fmt.Errorf("identity flags are all-or-nothing: provide --project, --transcript, --caption-track, --clip, and --plan together")
			}

			var store *shorts.Store
			var short *shorts.Short
			if tracked {
				store, err = shorts.Open(cfg)
				if err != nil {
					return err
				}
				defer store.Close()

				short, err = store.BuildOrReuse(ctx, identity, shorts.Draft{
					ID:        shortID,
					Name:      name,
					ClipStart: start,
					ClipEnd:   end,
					Preset:    presetName,
					Zoom:      zoom,
					PanX:      panX,
					PanY:      panY,
				})
				if err != nil {
					return err
				}
				req.ShortID = short.ID
				if short, err = store.MarkExporting(ctx, short.ID); err != nil {
					return err
				}
			}

			engine := ffmpeg.NewCLI(
				ffmpeg.WithBinary(cfg.FFmpegBinary()),
				ffmpeg.WithLogTail(cfg.Render.EngineLogTailLines),
			)
			orch := render.New(cfg, engine, logger)

			reporter := newProgressReporter(cmd.ErrOrStderr())
			result, exportErr := orch.Export(ctx, req, reporter.observe)
			reporter.finish()

			if exportErr != nil {
				if tracked {
					if _, markErr := store.MarkError(ctx, short.ID, exportErr.Error()); markErr != nil {
						logger.Warn("failed to record export error", logging.Error(markErr))
					}
				}
				return exportErr
			}

			if tracked {
				rec, saveErr := store.SaveExport(ctx, shorts.ExportRecord{
					ShortID:          short.ID,
					OutputPath:       result.OutputPath,
					SeekMode:         result.SeekMode,
					CaptionsBurnedIn: result.CaptionsBurnedIn,
					FilterGraph:      result.FilterGraph,
					Attempts:         result.Attempts,
					ArtifactBytes:    result.ArtifactBytes,
					Elapsed:          result.Elapsed,
					Notes:            result.Notes,
				})
				if saveErr != nil {
					return saveErr
				}
				if _, err := store.MarkExported(ctx, short.ID, rec.ID); err != nil {
					return err
				}
				logger.Info("export recorded",
					logging.String(logging.FieldShortID, short.ID),
					logging.String(logging.FieldExportID, rec.ID),
				)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Exported %s\n", result.OutputPath)
			fmt.Fprintf(out, "  window   %.2fs – %.2fs (%.2fs)\n", result.Window.Start, result.Window.End, result.Window.Duration)
			fmt.Fprintf(out, "  seek     %s\n", result.SeekMode)
			fmt.Fprintf(out, "  captions %v\n", result.CaptionsBurnedIn)
			fmt.Fprintf(out, "  attempts %d\n", result.Attempts)
			fmt.Fprintf(out, "  size     %d bytes\n", result.ArtifactBytes)
			for _, note := range result.Notes {
				fmt.Fprintf(out, "  note     %s\n", note)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Source video path (required)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output path (defaults into the configured output dir)")
	cmd.Flags().Float64Var(&start, "start", 0, "Clip start in seconds on the source timeline")
	cmd.Flags().Float64Var(&end, "end", 0, "Clip end in seconds on the source timeline")
	cmd.Flags().Float64Var(&startNudge, "start-nudge", 0, "Seconds to nudge the clip start by")
	cmd.Flags().Float64Var(&endNudge, "end-nudge", 0, "Seconds to nudge the clip end by")
	cmd.Flags().Float64Var(&zoom, "zoom", 1, "Framing zoom factor")
	cmd.Flags().Float64Var(&panX, "pan-x", 0, "Horizontal pan in preview viewport pixels")
	cmd.Flags().Float64Var(&panY, "pan-y", 0, "Vertical pan in preview viewport pixels")
	cmd.Flags().StringVar(&presetName, "preset", "", "Caption style preset (clean, outline, boxed, shadow, bold)")
	cmd.Flags().StringVar(&captionsPath, "captions", "", "Path to a caption entries JSON file")
	cmd.Flags().Float64Var(&captionX, "caption-x", 50, "Caption anchor x as percent of canvas width")
	cmd.Flags().Float64Var(&captionY, "caption-y", 80, "Caption anchor y as percent of canvas height")
	cmd.Flags().Float64Var(&captionScale, "caption-scale", 1, "Caption font scale multiplier")
	cmd.Flags().StringVar(&name, "name", "", "Short display name")
	cmd.Flags().StringVar(&shortID, "short", "", "Existing short id to re-export")
	cmd.Flags().StringVar(&projectID, "project", "", "Source project id")
	cmd.Flags().StringVar(&transcriptID, "transcript", "", "Transcript id")
	cmd.Flags().StringVar(&captionTrackID, "caption-track", "", "Caption track id")
	cmd.Flags().StringVar(&clipID, "clip", "", "Clip id")
	cmd.Flags().StringVar(&planID, "plan", "", "Export plan id")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("end")

	return cmd
}

func anyIdentityPart(id shorts.Identity) bool {
	return id.SourceProjectID != "" || id.TranscriptID != "" ||
		id.CaptionTrackID != "" || id.ClipID != "" || id.PlanID != ""
}

// captionEntryJSON is the sidecar wire format for timed caption entries.
type captionEntryJSON struct {
	Text  string   `json:"text"`
	Start float64  `json:"start"`
	End   *float64 `json:"end,omitempty"`
}

func loadCaptionEntries(path string) ([]clip.Entry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read captions file: %w", err)
	}
	var raw []captionEntryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse captions file %s: %w", path, err)
	}
	entries := make([]clip.Entry, 0, len(raw))
	for _, e := range raw {
		if strings.TrimSpace(e.Text) == "" {
			continue
		}
		entries = append(entries, clip.Entry{Text: e.Text, Start: e.Start, End: e.End})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Start < entries[j].Start })
	return entries, nil
}

// progressReporter renders in-place progress on a TTY and stays quiet
// otherwise; structured progress already lands in the log.
type progressReporter struct {
	out   *os.File
	tty   bool
	wrote bool
}

func newProgressReporter(w interface{ Write([]byte) (int, error) }) *progressReporter {
	file, ok := w.(*os.File)
	if !ok {
		return &progressReporter{}
	}
	return &progressReporter{out: file, tty: isatty.IsTerminal(file.Fd())}
}

func (r *progressReporter) observe(p render.Progress) {
	if !r.tty {
		return
	}
	fmt.Fprintf(r.out, "\r%-8s %5.1f%%", p.Stage, p.Percent)
	r.wrote = true
}

func (r *progressReporter) finish() {
	if r.tty && r.wrote {
		fmt.Fprintln(r.out)
	}
}
