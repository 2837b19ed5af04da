package graph

import "milepost-cli/internal/model"

// Box is one rendered bubble's bounding box in canvas coordinates (cells,
// relative to the scrollable graph canvas, not the viewport; the view
// subtracts its scroll offset at draw time).
type Box struct {
	ID string
	X  int
	Y  int
	W  int
	H  int
}

// Line is one parent → child connector. It runs from the parent's
// bottom-center to the child's top-center, nudged off the bubble borders
// by the configured inset.
type Line struct {
	FromID string
	ToID   string
	X1, Y1 int
	X2, Y2 int
}

// Options control the geometry pass.
type Options struct {
	// ContainerWidth is the visible width rows are centered within. Rows
	// wider than the container start at x=0 and the canvas grows.
	ContainerWidth int
	// HGap and VGap are the gaps between bubbles in a row and between rows.
	HGap int
	VGap int
	// ConnectorInset keeps line endpoints off the bubble borders.
	ConnectorInset int
}

// DefaultOptions match the TUI's spacing.
func DefaultOptions(containerWidth int) Options {
	return Options{ContainerWidth: containerWidth, HGap: 4, VGap: 2, ConnectorInset: 1}
}

// Layout is the result of a geometry pass: every bubble's box plus the
// overall canvas size.
type Layout struct {
	Width  int
	Height int
	Boxes  map[string]Box
}

// Compute runs the geometry pass. Element sizes are unknown until
// rendered, so the caller supplies measure, which reports the rendered
// width/height of one bubble. The pass is cheap and side-effect free;
// views re-run it whenever a resize invalidates positions (debounced).
func Compute(levels []Level, measure func(model.Milestone) (w, h int), opts Options) Layout {
	l := Layout{Boxes: make(map[string]Box)}
	if len(levels) == 0 {
		return l
	}

	y := 0
	for i, lvl := range levels {
		if i > 0 {
			y += opts.VGap
		}
		rowW := 0
		rowH := 0
		sizes := make([][2]int, len(lvl.Milestones))
		for j, m := range lvl.Milestones {
			w, h := measure(m)
			if w < 1 {
				w = 1
			}
			if h < 1 {
				h = 1
			}
			sizes[j] = [2]int{w, h}
			if j > 0 {
				rowW += opts.HGap
			}
			rowW += w
			if h > rowH {
				rowH = h
			}
		}

		x := 0
		if rowW < opts.ContainerWidth {
			x = (opts.ContainerWidth - rowW) / 2
		}
		for j, m := range lvl.Milestones {
			w, h := sizes[j][0], sizes[j][1]
			l.Boxes[m.ID] = Box{ID: m.ID, X: x, Y: y, W: w, H: h}
			x += w + opts.HGap
		}

		if right := x - opts.HGap; right > l.Width {
			l.Width = right
		}
		y += rowH
	}
	l.Height = y
	if opts.ContainerWidth > l.Width {
		l.Width = opts.ContainerWidth
	}
	return l
}

// Connectors emits one line per resolvable parent/child pair. Milestones
// whose parent did not resolve (roots, dangling references, cycle
// fallbacks) get no incoming line.
func Connectors(ms []model.Milestone, l Layout, opts Options) []Line {
	parent := ResolveParents(ms)
	var out []Line
	for _, m := range ms {
		pid, ok := parent[m.ID]
		if !ok {
			continue
		}
		pb, okP := l.Boxes[pid]
		cb, okC := l.Boxes[m.ID]
		if !okP || !okC {
			continue
		}
		out = append(out, Line{
			FromID: pid,
			ToID:   m.ID,
			X1:     pb.X + pb.W/2,
			Y1:     pb.Y + pb.H - 1 + opts.ConnectorInset,
			X2:     cb.X + cb.W/2,
			Y2:     cb.Y - opts.ConnectorInset,
		})
	}
	return out
}
