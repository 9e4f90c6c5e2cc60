package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"clipforge/internal/shorts"
)

func newShortsCommand(cmdCtx *commandContext) *cobra.Command {
	shortsCmd := &cobra.Command{
		Use:   "shorts",
		Short: "Inspect tracked shorts and their export history",
	}

	shortsCmd.AddCommand(newShortsListCommand(cmdCtx))
	shortsCmd.AddCommand(newShortsShowCommand(cmdCtx))

	return shortsCmd
}

func newShortsListCommand(cmdCtx *commandContext) *cobra.Command {
	var sourceID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tracked shorts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := shorts.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			var items []*shorts.Short
			if strings.TrimSpace(sourceID) != "" {
				items, err = store.ListBySource(cmd.Context(), sourceID)
			} else {
				items, err = store.List(cmd.Context())
			}
			if err != nil {
				return err
			}

			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No shorts tracked yet.")
				return nil
			}

			rows := make([][]string, 0, len(items))
			for _, item := range items {
				rows = append(rows, []string{
					item.ID,
					displayName(item),
					string(item.Status),
					fmt.Sprintf("%.2f–%.2f", item.ClipStart, item.ClipEnd),
					item.Preset,
					item.UpdatedAt.Local().Format("2006-01-02 15:04"),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "NAME", "STATUS", "WINDOW", "PRESET", "UPDATED"},
				rows,
				3,
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&sourceID, "source", "", "Only shorts from this source project")
	return cmd
}

func newShortsShowCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <short-id>",
		Short: "Show one short and its exports",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := shorts.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			short, err := store.GetByID(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Short %s\n", short.ID)
			fmt.Fprintf(out, "  name      %s\n", displayName(short))
			fmt.Fprintf(out, "  status    %s\n", short.Status)
			if short.ErrorMessage != "" {
				fmt.Fprintf(out, "  error     %s\n", short.ErrorMessage)
			}
			fmt.Fprintf(out, "  identity  project=%s transcript=%s track=%s clip=%s plan=%s\n",
				short.SourceProjectID, short.TranscriptID, short.CaptionTrackID, short.ClipID, short.PlanID)
			fmt.Fprintf(out, "  window    %.2fs – %.2fs\n", short.ClipStart, short.ClipEnd)
			fmt.Fprintf(out, "  framing   zoom=%.2f pan=(%.1f, %.1f) preset=%s\n",
				short.Zoom, short.PanX, short.PanY, short.Preset)
			fmt.Fprintf(out, "  updated   %s\n", short.UpdatedAt.Local().Format(time.RFC1123))

			exports, err := store.ListExports(cmd.Context(), short.ID)
			if err != nil {
				return err
			}
			if len(exports) == 0 {
				fmt.Fprintln(out, "  exports   none")
				return nil
			}
			rows := make([][]string, 0, len(exports))
			for _, rec := range exports {
				marker := ""
				if rec.ID == short.LastExportID {
					marker = "*"
				}
				rows = append(rows, []string{
					marker,
					rec.ID,
					rec.SeekMode,
					fmt.Sprintf("%v", rec.CaptionsBurnedIn),
					fmt.Sprintf("%d", rec.Attempts),
					fmt.Sprintf("%d", rec.ArtifactBytes),
					rec.OutputPath,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"", "EXPORT", "SEEK", "CAPTIONS", "ATTEMPTS", "BYTES", "OUTPUT"},
				rows,
				4, 5,
			))
			return nil
		},
	}
}

func displayName(short *shorts.Short) string {
	if strings.TrimSpace(short.Name) != "" {
		return short.Name
	}
	return short.ClipID
}
