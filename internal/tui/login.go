package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"milepost-cli/internal/mutate"
)

type loginModel struct {
	username textinput.Model
	password textinput.Model
	focus    int
	busy     bool
	errText  string
}

func newLoginModel() loginModel {
	user := textinput.New()
	user.Placeholder = "username"
	user.CharLimit = 64

	pass := textinput.New()
	pass.Placeholder = "password"
	pass.CharLimit = 128
	pass.EchoMode = textinput.EchoPassword
	pass.EchoCharacter = '•'

	return loginModel{username: user, password: pass}
}

func (l loginModel) focusCmd() tea.Cmd {
	return l.username.Focus()
}

func (l *loginModel) fail(err error) {
	l.busy = false
	l.errText = err.Error()
	l.password.SetValue("")
}

func (l loginModel) update(msg tea.KeyMsg, d mutate.Deps) (loginModel, tea.Cmd) {
	if l.busy {
		return l, nil
	}

	switch msg.String() {
	case "tab", "shift+tab", "up", "down":
		l.focus = 1 - l.focus
		if l.focus == 0 {
			l.password.Blur()
			return l, l.username.Focus()
		}
		l.username.Blur()
		return l, l.password.Focus()

	case "enter":
		username := strings.TrimSpace(l.username.Value())
		password := l.password.Value()
		if username == "" {
			l.errText = "username is required"
			return l, nil
		}
		if l.focus == 0 && password == "" {
			// Move on to the password field instead of submitting blind.
			l.focus = 1
			l.username.Blur()
			return l, l.password.Focus()
		}
		l.busy = true
		l.errText = ""
		client := d.API
		return l, func() tea.Msg {
			return loginResultMsg{err: client.Login(context.Background(), username, password)}
		}
	}

	var cmd tea.Cmd
	if l.focus == 0 {
		l.username, cmd = l.username.Update(msg)
	} else {
		l.password, cmd = l.password.Update(msg)
	}
	return l, cmd
}

func (l loginModel) view(width, height int) string {
	form := lipgloss.JoinVertical(lipgloss.Left,
		styleHeader().Render("Log in"),
		"",
		l.username.View(),
		l.password.View(),
	)
	if l.busy {
		form = lipgloss.JoinVertical(lipgloss.Left, form, "", styleMuted().Render("logging in…"))
	}
	if l.errText != "" {
		form = lipgloss.JoinVertical(lipgloss.Left, form, "", styleError().Render(l.errText))
	}
	if width <= 0 || height <= 0 {
		return form
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, form)
}
