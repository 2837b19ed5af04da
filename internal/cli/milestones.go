package cli

import (
	"github.com/spf13/cobra"

	"milepost-cli/internal/model"
	"milepost-cli/internal/mutate"
)

func newMilestonesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "milestones",
		Short: "Milestone commands",
	}
	cmd.AddCommand(newMilestonesListCmd(app))
	cmd.AddCommand(newMilestonesShowCmd(app))
	cmd.AddCommand(newMilestonesSaveCmd(app))
	cmd.AddCommand(newMilestonesDeleteCmd(app))
	return cmd
}

func newMilestonesListCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <task-id>",
		Short: "List the milestones of a task",
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
			for _, m := range ms {
				_ = d.Cache.PutMilestone(cmd.Context(), m)
			}
			return writeOut(cmd, app, map[string]any{"data": ms})
		},
	}
	return cmd
}

func newMilestonesShowCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <task-id> <milestone-id>",
		Short: "Show one milestone",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, cleanup, err := loadDeps(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer cleanup()

			m, err := d.API.LoadMilestone(cmd.Context(), args[0], args[1])
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": m})
		},
	}
	return cmd
}

func newMilestonesSaveCmd(app *App) *cobra.Command {
	var (
		id, taskID, title, notes string
		status, parentID         string
		deadline, finishDate     string
	)

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Create or update a milestone",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, cleanup, err := loadDeps(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer cleanup()

			owner, err := resolveTask(cmd, d, taskID)
			if err != nil {
				return writeErr(cmd, err)
			}

			var m model.Milestone
			if id != "" {
				if existing, err := d.API.LoadMilestone(cmd.Context(), taskID, id); err == nil {
					m = *existing
				}
				m.ID = id
			}
			if cmd.Flags().Changed("title") {
				m.Title = title
			}
			if cmd.Flags().Changed("notes") {
				m.Notes = notes
			}
			if cmd.Flags().Changed("status") {
				m.Status = status
			}
			if cmd.Flags().Changed("parent") {
				if parentID == "" {
					m.ParentID = nil
				} else {
					m.ParentID = &parentID
				}
			}
			if cmd.Flags().Changed("deadline") {
				ts, err := parseDateFlag(deadline)
				if err != nil {
					return writeErr(cmd, err)
				}
				m.Deadline = ts
			}
			if cmd.Flags().Changed("finish-date") {
				ts, err := parseDateFlag(finishDate)
				if err != nil {
					return writeErr(cmd, err)
				}
				m.FinishDate = ts
			}

			if err := mutate.SaveMilestone(cmd.Context(), d, owner, &m); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": m})
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Milestone id (omit to create)")
	cmd.Flags().StringVar(&taskID, "task", "", "Owning task id")
	cmd.Flags().StringVar(&title, "title", "", "Title")
	cmd.Flags().StringVar(&notes, "notes", "", "Notes (markup allowed, sanitized)")
	cmd.Flags().StringVar(&status, "status", "", "Status")
	cmd.Flags().StringVar(&parentID, "parent", "", "Parent milestone id (empty clears)")
	cmd.Flags().StringVar(&deadline, "deadline", "", "Deadline (YYYY-MM-DD; empty clears)")
	cmd.Flags().StringVar(&finishDate, "finish-date", "", "Finish date (YYYY-MM-DD; empty clears)")
	_ = cmd.MarkFlagRequired("task")
	return cmd
}

func newMilestonesDeleteCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <task-id> <milestone-id>",
		Short: "Delete a milestone (refused while it has children)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, cleanup, err := loadDeps(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer cleanup()

			owner, err := resolveTask(cmd, d, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := mutate.DeleteMilestone(cmd.Context(), d, owner, args[1]); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"deleted": args[1]})
		},
	}
	return cmd
}
