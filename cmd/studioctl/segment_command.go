package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/BillMorio/Video-Agent-sub002/internal/model"
	"github.com/BillMorio/Video-Agent-sub002/internal/storyboard"
)

// newSegmentCommand previews segmentation locally, without the API
func newSegmentCommand() *cobra.Command {
	var (
		scriptFile     string
		wordsFile      string
		visualTypes    []string
		wordsPerSecond float64
	)

	cmd := &cobra.Command{
		Use:   "segment",
		Short: "Split a script into scenes offline",
		RunE: func(cmd *cobra.Command, args []string) error {
			script, err := readInput(cmd.InOrStdin(), scriptFile)
			if err != nil {
				return err
			}
			words, err := readWords(wordsFile)
			if err != nil {
				return err
			}

			in := &storyboard.Input{Script: script, Words: words}
			for _, vt := range visualTypes {
				in.VisualTypes = append(in.VisualTypes, model.VisualType(vt))
			}

			bounds := storyboard.DefaultBounds()
			if wordsPerSecond > 0 {
				bounds.WordsPerSecond = wordsPerSecond
			}
			scenes, err := storyboard.NewSegmenter(bounds, nil).Segment(cmd.Context(), in, false)
			if err != nil {
				return err
			}
			scenes, moved := storyboard.SnapToSilence(scenes, words)

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderScenes(scenes))
			fmt.Fprintf(out, "%d scenes, %ss total, %d boundaries snapped\n", len(scenes), formatSeconds(storyboard.TotalDuration(scenes)), moved)
			return nil
		},
	}

	cmd.Flags().StringVar(&scriptFile, "script-file", "-", "Script file, - for stdin")
	cmd.Flags().StringVar(&wordsFile, "words-file", "", "Transcript JSON file ([{word,start,end}])")
	cmd.Flags().StringSliceVar(&visualTypes, "visual-types", nil, "Allowed visual types")
	cmd.Flags().Float64Var(&wordsPerSecond, "wps", 0, "Speaking rate in words per second")
	return cmd
}
