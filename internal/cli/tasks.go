package cli

import (
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"milepost-cli/internal/api"
	"milepost-cli/internal/model"
	"milepost-cli/internal/mutate"
	"milepost-cli/internal/tasklist"
)

func newTasksCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Task commands",
	}
	cmd.AddCommand(newTasksListCmd(app))
	cmd.AddCommand(newTasksShowCmd(app))
	cmd.AddCommand(newTasksSaveCmd(app))
	cmd.AddCommand(newTasksDeleteCmd(app))
	cmd.AddCommand(newTasksCountsCmd(app))
	return cmd
}

func newTasksListCmd(app *App) *cobra.Command {
	var (
		query      string
		categories []string
		statuses   []string
		sortBy     string
		group      string

		createdFrom, createdTo   string
		updatedFrom, updatedTo   string
		deadlineFrom, deadlineTo string
		finishedFrom, finishedTo string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List task summaries (filtered and sorted server-side)",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, cleanup, err := loadDeps(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer cleanup()

			ctrl := tasklist.New(d.API, d.Cache)
			ctrl.SetFilter(cmd.Context(), api.Filter{
				Query:        query,
				Categories:   categories,
				Statuses:     statuses,
				SortBy:       sortBy,
				CreatedFrom:  createdFrom,
				CreatedTo:    createdTo,
				UpdatedFrom:  updatedFrom,
				UpdatedTo:    updatedTo,
				DeadlineFrom: deadlineFrom,
				DeadlineTo:   deadlineTo,
				FinishedFrom: finishedFrom,
				FinishedTo:   finishedTo,
			})
			ctrl.SetGroup(tasklist.GroupKey(group))
			if err := ctrl.Fetch(cmd.Context()); err != nil {
				return writeErr(cmd, err)
			}

			if group == "" {
				var flat []model.TaskSummary
				for _, b := range ctrl.Buckets() {
					flat = append(flat, b.Tasks...)
				}
				return writeOut(cmd, app, map[string]any{"data": flat})
			}
			type outBucket struct {
				Key   string              `json:"key"`
				Tasks []model.TaskSummary `json:"tasks"`
			}
			out := []outBucket{}
			for _, b := range ctrl.Buckets() {
				out = append(out, outBucket{Key: b.Key, Tasks: b.Tasks})
			}
			return writeOut(cmd, app, map[string]any{"data": out})
		},
	}

	cmd.Flags().StringVar(&query, "query", "", "Free-text search over title/description/notes")
	cmd.Flags().StringSliceVar(&categories, "categories", nil, "Filter to these categories")
	cmd.Flags().StringSliceVar(&statuses, "statuses", nil, "Filter to these statuses")
	cmd.Flags().StringVar(&sortBy, "sort", api.SortUpdatedAt, "Sort key (updatedAt|deadline|priority|from)")
	cmd.Flags().StringVar(&group, "group", "", "Group key (status|from|priority|category|year-*|month-*)")
	cmd.Flags().StringVar(&createdFrom, "created-from", "", "Created on/after (YYYY-MM-DD)")
	cmd.Flags().StringVar(&createdTo, "created-to", "", "Created on/before (YYYY-MM-DD)")
	cmd.Flags().StringVar(&updatedFrom, "updated-from", "", "Updated on/after (YYYY-MM-DD)")
	cmd.Flags().StringVar(&updatedTo, "updated-to", "", "Updated on/before (YYYY-MM-DD)")
	cmd.Flags().StringVar(&deadlineFrom, "deadline-from", "", "Deadline on/after (YYYY-MM-DD)")
	cmd.Flags().StringVar(&deadlineTo, "deadline-to", "", "Deadline on/before (YYYY-MM-DD)")
	cmd.Flags().StringVar(&finishedFrom, "finished-from", "", "Finished on/after (YYYY-MM-DD)")
	cmd.Flags().StringVar(&finishedTo, "finished-to", "", "Finished on/before (YYYY-MM-DD)")
	return cmd
}

func newTasksShowCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show the full task record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, cleanup, err := loadDeps(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer cleanup()

			ctrl := tasklist.New(d.API, d.Cache)
			t, err := ctrl.Open(cmd.Context(), args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": t})
		},
	}
	return cmd
}

func newTasksSaveCmd(app *App) *cobra.Command {
	var (
		id, title, description, notes string
		status, from                  string
		categories                    []string
		priority                      int
		deadline, finishDate          string
		file                          string
	)

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Create or update a task",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, cleanup, err := loadDeps(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer cleanup()

			var t model.Task
			if file != "" {
				b, err := os.ReadFile(file)
				if err != nil {
					return writeErr(cmd, err)
				}
				if err := json.Unmarshal(b, &t); err != nil {
					return writeErr(cmd, err)
				}
			} else if id != "" {
				// Flag-based edit starts from the stored record.
				if existing, ok, err := d.Cache.Task(cmd.Context(), id); err == nil && ok {
					t = *existing
				} else if loaded, err := d.API.LoadTask(cmd.Context(), id); err == nil {
					t = *loaded
				}
				t.ID = id
			}

			applyStr := func(dst *string, v string, changed bool) {
				if changed {
					*dst = v
				}
			}
			applyStr(&t.Title, title, cmd.Flags().Changed("title"))
			applyStr(&t.Description, description, cmd.Flags().Changed("description"))
			applyStr(&t.Notes, notes, cmd.Flags().Changed("notes"))
			applyStr(&t.Status, status, cmd.Flags().Changed("status"))
			applyStr(&t.From, from, cmd.Flags().Changed("from"))
			if cmd.Flags().Changed("categories") {
				t.Categories = categories
			}
			if cmd.Flags().Changed("priority") {
				t.Priority = priority
			}
			if cmd.Flags().Changed("deadline") {
				ts, err := parseDateFlag(deadline)
				if err != nil {
					return writeErr(cmd, err)
				}
				t.Deadline = ts
			}
			if cmd.Flags().Changed("finish-date") {
				ts, err := parseDateFlag(finishDate)
				if err != nil {
					return writeErr(cmd, err)
				}
				t.FinishDate = ts
			}

			if err := mutate.SaveTask(cmd.Context(), d, &t); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": t})
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Task id (omit to create)")
	cmd.Flags().StringVar(&title, "title", "", "Title")
	cmd.Flags().StringVar(&description, "description", "", "Description (markup allowed, sanitized)")
	cmd.Flags().StringVar(&notes, "notes", "", "Notes (markup allowed, sanitized)")
	cmd.Flags().StringVar(&status, "status", "", "Status")
	cmd.Flags().StringVar(&from, "from", "", "Source tag")
	cmd.Flags().StringSliceVar(&categories, "categories", nil, "Categories")
	cmd.Flags().IntVar(&priority, "priority", 0, "Priority (1-5)")
	cmd.Flags().StringVar(&deadline, "deadline", "", "Deadline (YYYY-MM-DD; empty clears)")
	cmd.Flags().StringVar(&finishDate, "finish-date", "", "Finish date (YYYY-MM-DD; empty clears)")
	cmd.Flags().StringVar(&file, "file", "", "Read the full task record from a JSON file instead of flags")
	return cmd
}

func newTasksDeleteCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <task-id>",
		Short: "Delete a task and its milestones",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, cleanup, err := loadDeps(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer cleanup()

			t, err := resolveTask(cmd, d, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := mutate.DeleteTask(cmd.Context(), d, t); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"deleted": args[0]})
		},
	}
	return cmd
}

func newTasksCountsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "counts",
		Short: "Per-status task counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, cleanup, err := loadDeps(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer cleanup()

			counts, err := d.API.TaskCounts(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": counts})
		},
	}
	return cmd
}

// resolveTask loads a task from the cache mirror, falling back to the
// server.
func resolveTask(cmd *cobra.Command, d mutate.Deps, taskID string) (*model.Task, error) {
	if t, ok, err := d.Cache.Task(cmd.Context(), taskID); err == nil && ok {
		return t, nil
	}
	return d.API.LoadTask(cmd.Context(), taskID)
}

// parseDateFlag parses a YYYY-MM-DD flag value; empty clears the date.
func parseDateFlag(v string) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	ts, err := time.Parse("2006-01-02", v)
	if err != nil {
		return nil, err
	}
	return &ts, nil
}
