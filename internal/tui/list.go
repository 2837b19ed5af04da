package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"milepost-cli/internal/format"
	"milepost-cli/internal/model"
	"milepost-cli/internal/mutate"
	"milepost-cli/internal/tasklist"
)

type listRowKind int

const (
	rowHeader listRowKind = iota
	rowTask
)

type listRow struct {
	kind      listRowKind
	bucketKey string
	count     int
	task      model.TaskSummary
}

type listActionKind int

const (
	listActionNone listActionKind = iota
	listActionRefetch
	listActionOpen
)

type listAction struct {
	kind   listActionKind
	taskID string
}

// groupCycle is the order the g key walks through.
var groupCycle = []tasklist.GroupKey{
	tasklist.GroupNone,
	tasklist.GroupStatus,
	tasklist.GroupCategory,
	tasklist.GroupPriority,
	tasklist.GroupFrom,
	tasklist.GroupMonthDeadline,
}

type listModel struct {
	ctrl *tasklist.Controller

	rows      []listRow
	cursor    int
	scroll    int
	collapsed map[string]bool

	search    textinput.Model
	searching bool

	showFilters bool
	groupIdx    int

	width  int
	height int
}

func newListModel(d mutate.Deps) listModel {
	search := textinput.New()
	search.Placeholder = "search"
	search.CharLimit = 200
	return listModel{
		ctrl:      tasklist.New(d.API, d.Cache),
		collapsed: map[string]bool{},
		search:    search,
	}
}

func (l *listModel) restore(ctx context.Context) {
	l.ctrl.RestoreSelections(ctx)
	l.showFilters = l.ctrl.FilterSectionVisible(ctx)
}

func (l *listModel) resize(w, h int) {
	l.width = w
	l.height = h
}

// rebuild flattens the controller's buckets into display rows, keeping
// collapsed sections as bare headers.
func (l *listModel) rebuild() {
	l.rows = l.rows[:0]
	grouped := l.ctrl.Group() != tasklist.GroupNone
	for _, b := range l.ctrl.Buckets() {
		if grouped {
			l.rows = append(l.rows, listRow{kind: rowHeader, bucketKey: b.Key, count: len(b.Tasks)})
			if l.collapsed[b.Key] {
				continue
			}
		}
		for _, t := range b.Tasks {
			l.rows = append(l.rows, listRow{kind: rowTask, bucketKey: b.Key, task: t})
		}
	}
	if l.cursor >= len(l.rows) {
		l.cursor = len(l.rows) - 1
	}
	if l.cursor < 0 {
		l.cursor = 0
	}
}

func (l listModel) update(msg tea.KeyMsg) (listModel, listAction, tea.Cmd) {
	if l.searching {
		switch msg.String() {
		case "enter":
			l.searching = false
			l.search.Blur()
			f := l.ctrl.Filter()
			f.Query = l.search.Value()
			l.ctrl.SetFilter(context.Background(), f)
			return l, listAction{kind: listActionRefetch}, nil
		case "esc":
			l.searching = false
			l.search.Blur()
			return l, listAction{}, nil
		}
		var cmd tea.Cmd
		l.search, cmd = l.search.Update(msg)
		return l, listAction{}, cmd
	}

	switch msg.String() {
	case "up", "k":
		if l.cursor > 0 {
			l.cursor--
		}
	case "down", "j":
		if l.cursor < len(l.rows)-1 {
			l.cursor++
		}
	case "enter":
		if l.cursor < len(l.rows) {
			row := l.rows[l.cursor]
			if row.kind == rowHeader {
				l.collapsed[row.bucketKey] = !l.collapsed[row.bucketKey]
				l.rebuild()
				return l, listAction{}, nil
			}
			return l, listAction{kind: listActionOpen, taskID: row.task.ID}, nil
		}
	case " ":
		if l.cursor < len(l.rows) && l.rows[l.cursor].kind == rowHeader {
			key := l.rows[l.cursor].bucketKey
			l.collapsed[key] = !l.collapsed[key]
			l.rebuild()
		}
	case "/":
		l.searching = true
		l.search.SetValue(l.ctrl.Filter().Query)
		return l, listAction{}, l.search.Focus()
	case "g":
		l.groupIdx = (l.groupIdx + 1) % len(groupCycle)
		l.ctrl.SetGroup(groupCycle[l.groupIdx])
		l.rebuild()
	case "f":
		l.showFilters = !l.showFilters
		l.ctrl.SetFilterSectionVisible(context.Background(), l.showFilters)
	case "r":
		return l, listAction{kind: listActionRefetch}, nil
	}
	return l, listAction{}, nil
}

func (l listModel) view() string {
	var b strings.Builder

	if l.searching {
		b.WriteString(l.search.View())
		b.WriteByte('\n')
	} else if l.showFilters {
		b.WriteString(styleMuted().Render(l.filterSummary()))
		b.WriteByte('\n')
	}

	if err := l.ctrl.Err(); err != nil {
		// Inline error state replaces the rows.
		b.WriteString(styleError().Render("could not load tasks: " + err.Error()))
		return b.String()
	}
	if len(l.rows) == 0 {
		b.WriteString(styleMuted().Render("(no tasks)"))
		return b.String()
	}

	visible := l.height - 1
	if visible < 1 {
		visible = 1
	}
	scroll := l.scroll
	if l.cursor < scroll {
		scroll = l.cursor
	}
	if l.cursor >= scroll+visible {
		scroll = l.cursor - visible + 1
	}

	end := scroll + visible
	if end > len(l.rows) {
		end = len(l.rows)
	}
	for i := scroll; i < end; i++ {
		line := l.renderRow(l.rows[i])
		if l.width > 0 {
			line = ansi.Truncate(line, l.width, "…")
		}
		if i == l.cursor {
			line = styleSelected().Render(line)
		}
		b.WriteString(line)
		if i != end-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func (l listModel) renderRow(row listRow) string {
	if row.kind == rowHeader {
		marker := "▾"
		if l.collapsed[row.bucketKey] {
			marker = "▸"
		}
		label := tasklist.Label(l.ctrl.Group(), row.bucketKey)
		return fmt.Sprintf("%s %s (%d)", marker, label, row.count)
	}

	t := row.task
	glyph := "·"
	if t.FinishDate != nil && !t.FinishDate.IsZero() {
		glyph = "✓"
	}
	line := fmt.Sprintf("  %s %s", glyph, t.Title)
	if t.Status != "" {
		line += "  [" + t.Status + "]"
	}
	if t.Priority > 0 {
		line += fmt.Sprintf("  p%d", t.Priority)
	}
	if d := format.Date(t.Deadline); d != "" {
		line += "  due " + d
	}
	return line
}

func (l listModel) filterSummary() string {
	f := l.ctrl.Filter()
	parts := []string{"sort: " + f.SortBy}
	if f.Query != "" {
		parts = append(parts, "q: "+f.Query)
	}
	if len(f.Categories) > 0 {
		parts = append(parts, "categories: "+strings.Join(f.Categories, ","))
	}
	if len(f.Statuses) > 0 {
		parts = append(parts, "statuses: "+strings.Join(f.Statuses, ","))
	}
	if g := l.ctrl.Group(); g != tasklist.GroupNone {
		parts = append(parts, "group: "+string(g))
	}
	return strings.Join(parts, " · ")
}
