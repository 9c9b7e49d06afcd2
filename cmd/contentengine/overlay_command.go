package main

import (
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/spf13/cobra"

	"contentengine/internal/layout"
	"contentengine/internal/overlay"
)

func newOverlayCommand(ctx *commandContext) *cobra.Command {
	var (
		title      string
		width      int
		height     int
		framePath  string
		outputPath string
		format     string
	)

	overlayCmd := &cobra.Command{
		Use:   "overlay",
		Short: "Title card rendering",
	}

	render := &cobra.Command{
		Use:   "render",
		Short: "Render a title card to PNG",
		Long: "Lays out the title for the canvas and writes it as a PNG. With --frame " +
			"the card is composited onto that image and the canvas takes its size.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if strings.TrimSpace(title) == "" {
				title = cfg.Intro.DefaultTitle
			}
			if strings.TrimSpace(outputPath) == "" {
				return errors.New("--output is required")
			}

			var frame image.Image
			canvas := layout.Canvas{Width: width, Height: height}
			if framePath != "" {
				frame, err = overlay.ReadPNG(framePath)
				if err != nil {
					return err
				}
				b := frame.Bounds()
				canvas = layout.Canvas{Width: b.Dx(), Height: b.Dy()}
			}

			card, spec, err := newTitleRenderer(cfg).Render(title, canvas)
			if err != nil {
				return err
			}
			var img image.Image = card
			if frame != nil {
				img = overlay.Composite(frame, card)
			}
			if err := overlay.WritePNG(outputPath, img); err != nil {
				return err
			}

			switch format {
			case "json":
				return writeJSON(cmd, spec)
			case "yaml":
				return writeYAML(cmd, spec)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%dx%d, font %dpx)\n", outputPath, canvas.Width, canvas.Height, spec.FontSize)
			for i, line := range spec.Lines {
				fmt.Fprintf(cmd.OutOrStdout(), "  %d. %s\n", i+1, line.Text)
			}
			return nil
		},
	}
	render.Flags().StringVarP(&title, "title", "t", "", "Title text (default intro.default_title)")
	render.Flags().IntVar(&width, "width", 1080, "Canvas width when no frame is given")
	render.Flags().IntVar(&height, "height", 1920, "Canvas height when no frame is given")
	render.Flags().StringVar(&framePath, "frame", "", "PNG frame to composite the card onto")
	render.Flags().StringVarP(&outputPath, "output", "o", "", "Destination PNG")
	render.Flags().StringVar(&format, "layout", "text", "Layout report format: text, json or yaml")

	overlayCmd.AddCommand(render)
	return overlayCmd
}
