package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/BillMorio/Video-Agent-sub002/internal/model"
)

func newStitchCommand(ctx *commandContext) *cobra.Command {
	var opts model.StitchOptions

	cmd := &cobra.Command{
		Use:   "stitch <project-id>",
		Short: "Assemble the rendered scenes into the master video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var res model.StitchResult
			if err := ctx.api().do(cmd.Context(), http.MethodPost, "/api/projects/"+args[0]+"/stitch", &opts, &res); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if res.Mode == model.StitchModeCloud {
				fmt.Fprintf(out, "cloud render %s queued in %s (%d of %d scenes)\n", res.RenderID, res.BucketName, res.SceneCount, res.TotalScenes)
				return nil
			}
			fmt.Fprintf(out, "stitched %d of %d scenes: %s\n", res.SceneCount, res.TotalScenes, res.PublicURL)
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.UseCloudRender, "cloud", false, "Render on the cloud backend")
	cmd.Flags().BoolVar(&opts.UseFadeTransition, "fade", false, "Fade between scenes")
	cmd.Flags().BoolVar(&opts.UseLightLeak, "light-leak", false, "Overlay a light leak on transitions")
	cmd.Flags().StringVar(&opts.LightLeakURL, "light-leak-url", "", "Light leak overlay for this stitch")
	return cmd
}
