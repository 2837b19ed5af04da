package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"milepost-cli/internal/config"
	"milepost-cli/internal/model"
	"milepost-cli/internal/mutate"
)

type view int

const (
	viewLogin view = iota
	viewList
	viewDetail
	viewGraph
)

// Messages exchanged between commands and the model.
type (
	loginResultMsg struct {
		err error
	}
	tasksLoadedMsg struct {
		token uint64
		list  []model.TaskSummary
		err   error
	}
	taskOpenedMsg struct {
		task *model.Task
		ms   []model.Milestone
		err  error
	}
	relayoutMsg struct {
		seq int
	}
)

type appModel struct {
	deps mutate.Deps
	cfg  *config.Config

	view   view
	width  int
	height int

	login  loginModel
	list   listModel
	detail detailModel
	graph  graphModel

	// resizeSeq fences the debounced graph relayout: only the tick matching
	// the latest resize actually relayouts.
	resizeSeq int

	statusLine string
}

func newAppModel(d mutate.Deps, cfg *config.Config) *appModel {
	m := &appModel{
		deps:   d,
		cfg:    cfg,
		login:  newLoginModel(),
		list:   newListModel(d),
		detail: newDetailModel(),
		graph:  newGraphModel(),
	}
	if d.Session.Authenticated() {
		m.view = viewList
	} else {
		m.view = viewLogin
	}
	return m
}

func (m *appModel) Init() tea.Cmd {
	if m.view == viewList {
		m.list.restore(context.Background())
		return m.fetchTasksCmd()
	}
	return m.login.focusCmd()
}

// fetchTasksCmd starts one summary fetch generation. The token travels
// with the response so a stale result is dropped in Update.
func (m *appModel) fetchTasksCmd() tea.Cmd {
	token, f := m.list.ctrl.Begin()
	client := m.deps.API
	return func() tea.Msg {
		list, err := client.TaskSummaries(context.Background(), f)
		return tasksLoadedMsg{token: token, list: list, err: err}
	}
}

func (m *appModel) openTaskCmd(taskID string) tea.Cmd {
	deps := m.deps
	ctrl := m.list.ctrl
	return func() tea.Msg {
		t, err := ctrl.Open(context.Background(), taskID)
		if err != nil {
			return taskOpenedMsg{err: err}
		}
		ms, err := deps.API.LoadMilestones(context.Background(), taskID)
		if err != nil {
			return taskOpenedMsg{task: t, err: err}
		}
		for i := range ms {
			_ = deps.Cache.PutMilestone(context.Background(), ms[i])
		}
		return taskOpenedMsg{task: t, ms: ms}
	}
}

func (m *appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.resize(msg.Width, msg.Height-2)
		m.detail.resize(msg.Width, msg.Height-2)
		if m.view == viewGraph {
			// Debounce: a drag-resize fires many events; relayout once the
			// stream settles.
			m.resizeSeq++
			seq := m.resizeSeq
			return m, tea.Tick(m.cfg.TUI.ResizeDebounce(), func(time.Time) tea.Msg {
				return relayoutMsg{seq: seq}
			})
		}
		m.graph.resize(msg.Width, msg.Height-2)
		return m, nil

	case relayoutMsg:
		if msg.seq == m.resizeSeq {
			m.graph.resize(m.width, m.height-2)
		}
		return m, nil

	case loginResultMsg:
		if msg.err != nil {
			m.login.fail(msg.err)
			return m, nil
		}
		m.view = viewList
		m.list.restore(context.Background())
		return m, m.fetchTasksCmd()

	case tasksLoadedMsg:
		if m.list.ctrl.Apply(msg.token, msg.list, msg.err) {
			m.list.rebuild()
		}
		if msg.err != nil && !m.deps.Session.Authenticated() {
			// Token was rejected mid-session; back to the login form.
			m.view = viewLogin
			m.login = newLoginModel()
			return m, m.login.focusCmd()
		}
		return m, nil

	case taskOpenedMsg:
		if msg.err != nil {
			m.statusLine = msg.err.Error()
			if !m.deps.Session.Authenticated() {
				m.view = viewLogin
				m.login = newLoginModel()
				return m, m.login.focusCmd()
			}
			return m, nil
		}
		m.statusLine = ""
		m.detail.set(msg.task, msg.ms)
		m.graph.set(msg.task, msg.ms)
		m.graph.resize(m.width, m.height-2)
		m.view = viewDetail
		return m, nil

	case tea.KeyMsg:
		return m.updateKey(msg)
	}

	return m, nil
}

func (m *appModel) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	switch m.view {
	case viewLogin:
		login, cmd := m.login.update(msg, m.deps)
		m.login = login
		return m, cmd

	case viewList:
		if !m.list.searching && msg.String() == "q" {
			return m, tea.Quit
		}
		list, action, cmd := m.list.update(msg)
		m.list = list
		switch action.kind {
		case listActionRefetch:
			return m, tea.Batch(cmd, m.fetchTasksCmd())
		case listActionOpen:
			return m, tea.Batch(cmd, m.openTaskCmd(action.taskID))
		}
		return m, cmd

	case viewDetail:
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "esc":
			m.view = viewList
			return m, nil
		case "g", "m":
			m.view = viewGraph
			return m, nil
		default:
			m.detail.update(msg)
			return m, nil
		}

	case viewGraph:
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "esc":
			m.view = viewDetail
			return m, nil
		default:
			m.graph.update(msg)
			return m, nil
		}
	}
	return m, nil
}

func (m *appModel) View() string {
	header := m.headerView()
	var body string
	switch m.view {
	case viewLogin:
		body = m.login.view(m.width, m.height-2)
	case viewList:
		body = m.list.view()
	case viewDetail:
		body = m.detail.view()
	case viewGraph:
		body = m.graph.view()
	}
	footer := m.footerView()
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func (m *appModel) headerView() string {
	title := "milepost"
	if u := m.deps.Session.Username(); u != "" {
		title += "  ·  " + u
	}
	return styleHeader().Render(title)
}

func (m *appModel) footerView() string {
	if m.statusLine != "" {
		return styleError().Render(m.statusLine)
	}
	var help string
	switch m.view {
	case viewLogin:
		help = "tab: switch field · enter: log in · ctrl+c: quit"
	case viewList:
		help = "enter: open · /: search · g: group · f: filters · r: refresh · q: quit"
	case viewDetail:
		help = "g: graph · esc: back · q: quit"
	case viewGraph:
		help = "arrows: select · esc: back · q: quit"
	}
	return styleMuted().Render(help)
}
