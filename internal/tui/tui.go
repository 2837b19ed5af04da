// Package tui is the interactive terminal client: login form, grouped
// task list, task detail with rendered markdown, and the milestone graph
// view.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"milepost-cli/internal/config"
	"milepost-cli/internal/mutate"
)

func Run(d mutate.Deps, cfg *config.Config) error {
	applyColorProfilePreference()
	applyThemePreference(cfg.TUI.Theme)

	m := newAppModel(d, cfg)
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
