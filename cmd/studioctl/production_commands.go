package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/BillMorio/Video-Agent-sub002/internal/model"
)

func newNextCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "next <project-id>",
		Short: "Run one production step",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var res model.StepResult
			if err := ctx.api().do(cmd.Context(), http.MethodPost, "/api/projects/"+args[0]+"/production/next", nil, &res); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), stepLine(&res))
			return nil
		},
	}
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "run <project-id>",
		Short: "Step production until no scene is left to schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api := ctx.api()
			out := cmd.OutOrStdout()
			path := "/api/projects/" + args[0] + "/production/next"

			for {
				var res model.StepResult
				if err := api.do(cmd.Context(), http.MethodPost, path, nil, &res); err != nil {
					return err
				}
				fmt.Fprintln(out, stepLine(&res))

				if !res.HasMoreWork() {
					fmt.Fprintf(out, "done: %d completed, %d failed of %d (workflow %s)\n",
						res.Tally.Completed, res.Tally.Failed, res.Tally.Total, res.WorkflowStatus)
					return nil
				}

				wait := interval
				if res.Outcome == model.StepContended && wait < time.Second {
					wait = time.Second
				}
				select {
				case <-cmd.Context().Done():
					return cmd.Context().Err()
				case <-time.After(wait):
				}
			}
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 0, "Pause between steps")
	return cmd
}

func newResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset <project-id>",
		Short: "Return every scene to todo and the ledger to idle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var mem model.ProjectMemory
			if err := ctx.api().do(cmd.Context(), http.MethodPost, "/api/projects/"+args[0]+"/production/reset", nil, &mem); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), memorySummary(&mem))
			return nil
		},
	}
}
