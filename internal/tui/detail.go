package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"milepost-cli/internal/format"
	"milepost-cli/internal/model"
)

type detailModel struct {
	task *model.Task
	ms   []model.Milestone

	lines  []string
	scroll int
	width  int
	height int
}

func newDetailModel() detailModel {
	return detailModel{}
}

func (d *detailModel) set(t *model.Task, ms []model.Milestone) {
	d.task = t
	d.ms = ms
	d.scroll = 0
	d.render()
}

func (d *detailModel) resize(w, h int) {
	d.width = w
	d.height = h
	d.render()
}

func (d *detailModel) update(msg tea.KeyMsg) {
	switch msg.String() {
	case "up", "k":
		if d.scroll > 0 {
			d.scroll--
		}
	case "down", "j":
		if d.scroll < len(d.lines)-1 {
			d.scroll++
		}
	case "home":
		d.scroll = 0
	}
}

// render pre-renders the scrollable body so scrolling is just slicing.
func (d *detailModel) render() {
	d.lines = nil
	if d.task == nil {
		return
	}
	width := d.width
	if width < 20 {
		width = 80
	}

	t := d.task
	add := func(s string) {
		d.lines = append(d.lines, strings.Split(s, "\n")...)
	}

	add(styleHeader().Render(t.Title))
	add(styleMuted().Render(d.metaLine()))
	add("")

	if t.Description != "" {
		add(renderMarkdown(t.Description, width-2))
		add("")
	}
	if t.Notes != "" {
		add(styleMuted().Render("Notes"))
		add(renderMarkdown(t.Notes, width-2))
		add("")
	}
	if len(t.Attachments) > 0 {
		add(styleMuted().Render(fmt.Sprintf("Attachments (%d)", len(t.Attachments))))
		for _, a := range t.Attachments {
			add("  " + a.Name + "  " + styleMuted().Render(a.MimeType))
		}
		add("")
	}

	if len(d.ms) > 0 {
		add(styleMuted().Render(fmt.Sprintf("Milestones (%d)", len(d.ms))))
		for _, m := range d.ms {
			glyph := "○"
			if m.FinishDate != nil && !m.FinishDate.IsZero() {
				glyph = "✓"
			}
			line := "  " + glyph + " " + m.Title
			if m.Status != "" {
				line += "  [" + m.Status + "]"
			}
			if due := format.Date(m.Deadline); due != "" {
				line += "  due " + due
			}
			add(line)
		}
	}
}

func (d *detailModel) metaLine() string {
	t := d.task
	parts := []string{}
	if t.Status != "" {
		parts = append(parts, t.Status)
	}
	if t.Priority > 0 {
		parts = append(parts, fmt.Sprintf("priority %d", t.Priority))
	}
	if due := format.Date(t.Deadline); due != "" {
		parts = append(parts, "due "+due)
	}
	if done := format.Date(t.FinishDate); done != "" {
		parts = append(parts, "finished "+done)
	}
	if len(t.Categories) > 0 {
		parts = append(parts, strings.Join(t.Categories, ", "))
	}
	if t.From != "" {
		parts = append(parts, "from "+t.From)
	}
	if t.Creator != "" {
		parts = append(parts, "by "+t.Creator)
	}
	return strings.Join(parts, " · ")
}

func (d detailModel) view() string {
	if d.task == nil {
		return styleMuted().Render("(no task selected)")
	}
	visible := d.height
	if visible < 1 {
		visible = len(d.lines)
	}
	start := d.scroll
	if start > len(d.lines) {
		start = len(d.lines)
	}
	end := start + visible
	if end > len(d.lines) {
		end = len(d.lines)
	}
	return strings.Join(d.lines[start:end], "\n")
}
