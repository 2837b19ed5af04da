package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"milepost-cli/internal/api"
	"milepost-cli/internal/cache"
	"milepost-cli/internal/config"
	"milepost-cli/internal/format"
	"milepost-cli/internal/mutate"
	"milepost-cli/internal/session"
	"milepost-cli/internal/tui"
)

type App struct {
	ConfigFile string
	Server     string
	PrettyJSON bool
	Format     string

	cfg *config.Config
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "milepost",
		Short:        "Task and milestone manager CLI + TUI",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI
  milepost

  # Scriptable commands
  milepost login --username ada
  milepost tasks list --statuses todo,doing --sort deadline

  # Milestone graph for a task, in the terminal
  milepost graph task-42
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runTUI(app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := config.Init(app.ConfigFile); err != nil {
			return err
		}
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if app.Server != "" {
			cfg.Server.BaseURL = app.Server
		}
		app.cfg = cfg
		return nil
	}

	cmd.PersistentFlags().StringVar(&app.ConfigFile, "config", envOr("MILEPOST_CONFIG", ""), "Path to config file (default: ~/.config/milepost/config.yaml)")
	cmd.PersistentFlags().StringVar(&app.Server, "server", "", "Task server base URL (overrides config)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("MILEPOST_FORMAT", "json"), "Output format (json)")

	cmd.AddCommand(newLoginCmd(app))
	cmd.AddCommand(newLogoutCmd(app))
	cmd.AddCommand(newWhoamiCmd(app))
	cmd.AddCommand(newTasksCmd(app))
	cmd.AddCommand(newMilestonesCmd(app))
	cmd.AddCommand(newGraphCmd(app))
	cmd.AddCommand(newTaxonomyCmd(app, "categories", "Category commands"))
	cmd.AddCommand(newTaxonomyCmd(app, "statuses", "Status commands"))
	cmd.AddCommand(newTaxonomyCmd(app, "froms", "Source commands"))
	cmd.AddCommand(newExportCmd(app))
	cmd.AddCommand(newImportCmd(app))

	return cmd
}

func runTUI(app *App) error {
	d, cleanup, err := loadDeps(app)
	if err != nil {
		return err
	}
	defer cleanup()
	return tui.Run(d, app.cfg)
}

// loadDeps assembles the shared collaborators: the restored session, the
// API client, and the sqlite mirror. The returned cleanup closes the
// cache.
func loadDeps(app *App) (mutate.Deps, func(), error) {
	sess := session.New(envOr("MILEPOST_SESSION_FILE", ""))
	sess.Restore()

	client := api.New(app.cfg.Server.BaseURL, app.cfg.Server.Timeout(), sess)

	c, err := cache.Open(context.Background(), app.cfg.Cache.ResolveDir())
	if err != nil {
		return mutate.Deps{}, nil, err
	}
	return mutate.Deps{Cache: c, API: client, Session: sess}, func() { _ = c.Close() }, nil
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
