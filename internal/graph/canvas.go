package graph

import (
	"strings"

	"milepost-cli/internal/model"
)

// BorderSet picks the box-drawing runes for a bubble border.
type BorderSet struct {
	TL, TR, BL, BR, H, V rune
}

var (
	BorderLight = BorderSet{'┌', '┐', '└', '┘', '─', '│'}
	// BorderHeavy marks the selected bubble.
	BorderHeavy = BorderSet{'┏', '┓', '┗', '┛', '━', '┃'}
)

// Canvas is a fixed-size rune grid the graph is painted onto. Boxes are
// drawn after connectors so borders win over line runes.
type Canvas struct {
	width  int
	height int
	cells  [][]rune
}

func NewCanvas(width, height int) *Canvas {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	cells := make([][]rune, height)
	for i := range cells {
		row := make([]rune, width)
		for j := range row {
			row[j] = ' '
		}
		cells[i] = row
	}
	return &Canvas{width: width, height: height, cells: cells}
}

// Set paints one cell; out-of-bounds writes are dropped.
func (c *Canvas) Set(x, y int, r rune) {
	if x < 0 || y < 0 || x >= c.width || y >= c.height {
		return
	}
	c.cells[y][x] = r
}

// DrawBox paints a bordered bubble with its content lines. Content is
// clipped to the box interior.
func (c *Canvas) DrawBox(b Box, content []string, border BorderSet) {
	if b.W < 2 || b.H < 2 {
		return
	}
	right := b.X + b.W - 1
	bottom := b.Y + b.H - 1

	c.Set(b.X, b.Y, border.TL)
	c.Set(right, b.Y, border.TR)
	c.Set(b.X, bottom, border.BL)
	c.Set(right, bottom, border.BR)
	for x := b.X + 1; x < right; x++ {
		c.Set(x, b.Y, border.H)
		c.Set(x, bottom, border.H)
	}
	for y := b.Y + 1; y < bottom; y++ {
		c.Set(b.X, y, border.V)
		c.Set(right, y, border.V)
	}

	inner := b.W - 2
	for i, line := range content {
		y := b.Y + 1 + i
		if y >= bottom {
			break
		}
		runes := []rune(line)
		if len(runes) > inner {
			runes = runes[:inner]
		}
		// Center short lines.
		off := (inner - len(runes)) / 2
		for j, r := range runes {
			c.Set(b.X+1+off+j, y, r)
		}
	}
}

// DrawConnector paints a parent-to-child line: straight down when the
// endpoints align, otherwise an elbow routed through the vertical
// midpoint.
func (c *Canvas) DrawConnector(l Line) {
	if l.Y2 < l.Y1 {
		return
	}
	if l.X1 == l.X2 {
		for y := l.Y1; y <= l.Y2; y++ {
			c.Set(l.X1, y, '│')
		}
		return
	}

	midY := (l.Y1 + l.Y2) / 2
	for y := l.Y1; y < midY; y++ {
		c.Set(l.X1, y, '│')
	}
	for y := midY + 1; y <= l.Y2; y++ {
		c.Set(l.X2, y, '│')
	}
	lo, hi := l.X1, l.X2
	if lo > hi {
		lo, hi = hi, lo
	}
	for x := lo + 1; x < hi; x++ {
		c.Set(x, midY, '─')
	}
	if l.X1 < l.X2 {
		c.Set(l.X1, midY, '└')
		c.Set(l.X2, midY, '┐')
	} else {
		c.Set(l.X1, midY, '┘')
		c.Set(l.X2, midY, '┌')
	}
}

// Rows returns the canvas as right-trimmed lines.
func (c *Canvas) Rows() []string {
	rows := make([]string, c.height)
	for i, row := range c.cells {
		rows[i] = strings.TrimRight(string(row), " ")
	}
	return rows
}

func (c *Canvas) String() string {
	return strings.Join(c.Rows(), "\n")
}

// bubbleLabel is the single content line of a milestone bubble: a status
// glyph plus the title.
func bubbleLabel(m model.Milestone) string {
	glyph := "○"
	if m.FinishDate != nil && !m.FinishDate.IsZero() {
		glyph = "✓"
	}
	return glyph + " " + m.Title
}

// MeasureBubble sizes a milestone bubble for the geometry pass: one
// content line plus the border, width capped at maxWidth.
func MeasureBubble(maxWidth int) func(model.Milestone) (int, int) {
	if maxWidth < 6 {
		maxWidth = 6
	}
	return func(m model.Milestone) (int, int) {
		w := len([]rune(bubbleLabel(m))) + 4
		if w > maxWidth {
			w = maxWidth
		}
		return w, 3
	}
}

// Render paints levels plus connectors into a fresh canvas. selectedID
// may be "" for no selection; the selected bubble gets a heavy border.
func Render(ms []model.Milestone, levels []Level, layout Layout, opts Options, selectedID string) *Canvas {
	canvas := NewCanvas(layout.Width, layout.Height)
	for _, l := range Connectors(ms, layout, opts) {
		canvas.DrawConnector(l)
	}
	for _, level := range levels {
		for _, m := range level.Milestones {
			b, ok := layout.Boxes[m.ID]
			if !ok {
				continue
			}
			border := BorderLight
			if m.ID == selectedID {
				border = BorderHeavy
			}
			label := []rune(bubbleLabel(m))
			if inner := b.W - 2; len(label) > inner {
				if inner > 1 {
					label = append(label[:inner-1], '…')
				} else {
					label = label[:inner]
				}
			}
			canvas.DrawBox(b, []string{string(label)}, border)
		}
	}
	return canvas
}
