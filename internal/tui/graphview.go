package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"milepost-cli/internal/format"
	"milepost-cli/internal/graph"
	"milepost-cli/internal/model"
)

// graphModel renders a task's milestone forest as bubbles and connector
// lines on a scrollable canvas. Geometry is recomputed on resize
// (debounced by the app model) and after any milestone change.
type graphModel struct {
	task *model.Task
	ms   []model.Milestone

	levels []graph.Level
	opts   graph.Options
	layout graph.Layout

	// order is the flattened selection order: level by level, left to
	// right. selected indexes into it.
	order    []string
	byID     map[string]model.Milestone
	selected int

	scrollY int
	width   int
	height  int
}

func newGraphModel() graphModel {
	return graphModel{byID: map[string]model.Milestone{}}
}

func (g *graphModel) set(t *model.Task, ms []model.Milestone) {
	g.task = t
	g.ms = ms
	g.selected = 0
	g.scrollY = 0
	g.levels = graph.Assign(ms)
	g.byID = make(map[string]model.Milestone, len(ms))
	for _, m := range ms {
		g.byID[m.ID] = m
	}
	g.order = g.order[:0]
	for _, lvl := range g.levels {
		for _, m := range lvl.Milestones {
			g.order = append(g.order, m.ID)
		}
	}
	g.relayout()
}

func (g *graphModel) resize(w, h int) {
	g.width = w
	g.height = h
	g.relayout()
}

func (g *graphModel) relayout() {
	width := g.width
	if width < 20 {
		width = 80
	}
	g.opts = graph.DefaultOptions(width)
	maxBubble := width / 2
	if maxBubble < 12 {
		maxBubble = 12
	}
	g.layout = graph.Compute(g.levels, graph.MeasureBubble(maxBubble), g.opts)
	g.scrollIntoView()
}

func (g *graphModel) selectedID() string {
	if g.selected < 0 || g.selected >= len(g.order) {
		return ""
	}
	return g.order[g.selected]
}

func (g *graphModel) update(msg tea.KeyMsg) {
	switch msg.String() {
	case "left", "h":
		if g.selected > 0 {
			g.selected--
		}
	case "right", "l":
		if g.selected < len(g.order)-1 {
			g.selected++
		}
	case "up", "k":
		g.moveLevel(-1)
	case "down", "j":
		g.moveLevel(+1)
	}
	g.scrollIntoView()
}

// moveLevel jumps to the adjacent level, landing on the bubble whose
// center is horizontally nearest the current one.
func (g *graphModel) moveLevel(delta int) {
	id := g.selectedID()
	if id == "" {
		return
	}
	li, _ := g.position(id)
	target := li + delta
	if target < 0 || target >= len(g.levels) {
		return
	}
	cur, ok := g.layout.Boxes[id]
	if !ok {
		return
	}
	curCenter := cur.X + cur.W/2

	bestID := ""
	bestDist := 0
	for _, m := range g.levels[target].Milestones {
		b, ok := g.layout.Boxes[m.ID]
		if !ok {
			continue
		}
		dist := b.X + b.W/2 - curCenter
		if dist < 0 {
			dist = -dist
		}
		if bestID == "" || dist < bestDist {
			bestID, bestDist = m.ID, dist
		}
	}
	if bestID == "" {
		return
	}
	for i, oid := range g.order {
		if oid == bestID {
			g.selected = i
			return
		}
	}
}

func (g *graphModel) position(id string) (level, index int) {
	for li, lvl := range g.levels {
		for i, m := range lvl.Milestones {
			if m.ID == id {
				return li, i
			}
		}
	}
	return 0, 0
}

// scrollIntoView keeps the selected bubble fully visible vertically.
func (g *graphModel) scrollIntoView() {
	b, ok := g.layout.Boxes[g.selectedID()]
	if !ok {
		return
	}
	visible := g.viewportHeight()
	if visible < 1 {
		return
	}
	if b.Y < g.scrollY {
		g.scrollY = b.Y
	}
	if bottom := b.Y + b.H; bottom > g.scrollY+visible {
		g.scrollY = bottom - visible
	}
	if g.scrollY < 0 {
		g.scrollY = 0
	}
}

// viewportHeight is the canvas area minus the selection info line.
func (g *graphModel) viewportHeight() int {
	return g.height - 2
}

func (g graphModel) view() string {
	if len(g.ms) == 0 {
		return styleMuted().Render("(no milestones)")
	}

	canvas := graph.Render(g.ms, g.levels, g.layout, g.opts, g.selectedID())
	rows := canvas.Rows()

	visible := g.viewportHeight()
	if visible < 1 {
		visible = len(rows)
	}
	start := g.scrollY
	if start > len(rows) {
		start = len(rows)
	}
	end := start + visible
	if end > len(rows) {
		end = len(rows)
	}

	body := strings.Join(rows[start:end], "\n")
	return body + "\n\n" + g.infoLine()
}

func (g graphModel) infoLine() string {
	m, ok := g.byID[g.selectedID()]
	if !ok {
		return ""
	}
	parts := []string{m.Title}
	if m.Status != "" {
		parts = append(parts, m.Status)
	}
	if due := format.Date(m.Deadline); due != "" {
		parts = append(parts, "due "+due)
	}
	if done := format.Date(m.FinishDate); done != "" {
		parts = append(parts, "finished "+done)
	}
	return styleMuted().Render(strings.Join(parts, " · "))
}
