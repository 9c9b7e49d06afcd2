package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"contentengine/internal/subtitles"
	"contentengine/internal/timecode"
	"contentengine/internal/transcript"
)

func newSubtitlesCommand(ctx *commandContext) *cobra.Command {
	subCmd := &cobra.Command{
		Use:   "subtitles",
		Short: "Compile and inspect subtitle files",
	}
	subCmd.AddCommand(newSubtitlesCompileCommand(ctx))
	subCmd.AddCommand(newSubtitlesInspectCommand())
	return subCmd
}

func newSubtitlesCompileCommand(ctx *commandContext) *cobra.Command {
	var modeFlag, formatFlag, outputPath string

	cmd := &cobra.Command{
		Use:   "compile <transcript.json>",
		Short: "Compile a transcription response into an ASS or SRT file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if strings.TrimSpace(modeFlag) == "" {
				modeFlag = cfg.Subtitles.Mode
			}
			if strings.TrimSpace(formatFlag) == "" {
				formatFlag = cfg.Subtitles.Format
			}
			mode, err := subtitles.ParseMode(modeFlag)
			if err != nil {
				return err
			}
			format, err := subtitles.ParseFormat(formatFlag)
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open transcript: %w", err)
			}
			defer f.Close()
			t, err := transcript.Decode(f)
			if err != nil {
				return err
			}

			doc := newCompiler(cfg).Render(t, mode, format)
			if doc.Empty() {
				fmt.Fprintln(cmd.OutOrStdout(), "Transcript has no timing; nothing to write")
				return nil
			}
			target := outputPath
			if target == "" {
				base := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
				target = filepath.Join(filepath.Dir(args[0]), base+format.Extension())
			}
			if err := subtitles.WriteFile(target, doc); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d %s event(s) to %s\n", len(doc.Events), doc.Mode, target)
			return nil
		},
	}
	cmd.Flags().StringVarP(&modeFlag, "mode", "m", "", "Subtitle mode: plain, modern or karaoke (default from config)")
	cmd.Flags().StringVarP(&formatFlag, "format", "f", "", "Output format: ass or srt (default from config)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Destination file (default next to the transcript)")
	return cmd
}

func newSubtitlesInspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "inspect <file.ass>",
		Short:       "List the dialogue events of an ASS file",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open subtitles: %w", err)
			}
			defer f.Close()
			events, err := subtitles.ReadASSEvents(f)
			if err != nil {
				return err
			}
			if len(events) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No dialogue events")
				return nil
			}
			rows := make([][]string, 0, len(events))
			for _, ev := range events {
				rows = append(rows, []string{
					timecode.EncodeASS(ev.Start),
					timecode.EncodeASS(ev.End),
					string(ev.Style),
					truncate(ev.Payload, 70),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Start", "End", "Style", "Text"},
				rows,
				[]columnAlignment{alignRight, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}
}
