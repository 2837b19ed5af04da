package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"milepost-cli/internal/graph"
)

func newGraphCmd(app *App) *cobra.Command {
	var width int

	cmd := &cobra.Command{
		Use:   "graph <task-id>",
		Short: "Render the milestone graph of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, cleanup, err := loadDeps(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer cleanup()

			ms, err := d.API.LoadMilestones(cmd.Context(), args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			if len(ms) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "(no milestones)")
				return nil
			}

			levels := graph.Assign(ms)
			opts := graph.DefaultOptions(width)
			layout := graph.Compute(levels, graph.MeasureBubble(width), opts)
			canvas := graph.Render(ms, levels, layout, opts, "")
			fmt.Fprintln(cmd.OutOrStdout(), canvas.String())
			return nil
		},
	}

	cmd.Flags().IntVar(&width, "width", 80, "Canvas width to center rows within")
	return cmd
}
