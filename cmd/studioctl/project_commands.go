package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/BillMorio/Video-Agent-sub002/internal/model"
)

func newInitCommand(ctx *commandContext) *cobra.Command {
	var (
		req         model.InitProjectRequest
		scriptFile  string
		wordsFile   string
		visualTypes []string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Segment a script into a new project",
		RunE: func(cmd *cobra.Command, args []string) error {
			script, err := readInput(cmd.InOrStdin(), scriptFile)
			if err != nil {
				return err
			}
			req.Script = script
			if req.Words, err = readWords(wordsFile); err != nil {
				return err
			}
			for _, vt := range visualTypes {
				req.VisualTypes = append(req.VisualTypes, model.VisualType(vt))
			}

			var view model.ProjectView
			if err := ctx.api().do(cmd.Context(), http.MethodPost, "/api/projects/init", &req, &view); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Project %s (%s)\n", view.Project.ID, view.Project.Title)
			fmt.Fprintln(out, renderScenes(view.Scenes))
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Title, "title", "", "Project title")
	cmd.Flags().StringVar(&scriptFile, "script-file", "-", "Script file, - for stdin")
	cmd.Flags().StringVar(&wordsFile, "words-file", "", "Transcript JSON file ([{word,start,end}])")
	cmd.Flags().StringSliceVar(&visualTypes, "visual-types", nil, "Allowed visual types")
	cmd.Flags().StringVar(&req.AspectRatio, "aspect", "", "Aspect ratio (16:9, 9:16, 1:1)")
	cmd.Flags().StringVar(&req.MasterAudioURL, "master-audio", "", "Master narration URL")
	cmd.Flags().StringVar(&req.LightLeakOverlayURL, "light-leak-url", "", "Project light leak overlay")
	cmd.Flags().BoolVar(&req.UsePlanner, "planner", false, "Ask the LLM planner for the storyboard")
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

func newScenesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "scenes <project-id>",
		Short: "List the scenes of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var view model.ProjectView
			if err := ctx.api().do(cmd.Context(), http.MethodGet, "/api/projects/"+args[0], nil, &view); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderScenes(view.Scenes))
			fmt.Fprintln(out, memorySummary(view.Memory))
			return nil
		},
	}
}

func readInput(stdin io.Reader, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "" || path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read script: %w", err)
	}
	return string(data), nil
}

func readWords(path string) ([]model.Word, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	var words []model.Word
	if err := json.Unmarshal(data, &words); err != nil {
		return nil, fmt.Errorf("parse transcript: %w", err)
	}
	return words, nil
}
