package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"milepost-cli/internal/session"
)

func newLoginCmd(app *App) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the task server",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, cleanup, err := loadDeps(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer cleanup()

			if password == "" {
				// Read the password from stdin when not passed as a flag, so
				// it stays out of shell history.
				fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil {
					return writeErr(cmd, err)
				}
				password = strings.TrimRight(line, "\r\n")
			}

			if err := d.API.Login(cmd.Context(), username, password); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"username": d.Session.Username()})
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Username")
	cmd.Flags().StringVar(&password, "password", "", "Password (omit to be prompted)")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Discard the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess := session.New(envOr("MILEPOST_SESSION_FILE", ""))
			sess.Restore()
			sess.Logout()
			return writeOut(cmd, app, map[string]any{"loggedOut": true})
		},
	}
}

func newWhoamiCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in username",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess := session.New(envOr("MILEPOST_SESSION_FILE", ""))
			sess.Restore()
			if !sess.Authenticated() {
				return writeErr(cmd, session.ErrAuthRequired)
			}
			return writeOut(cmd, app, map[string]any{"username": sess.Username()})
		},
	}
}
