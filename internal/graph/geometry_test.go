package graph

import (
	"testing"

	"milepost-cli/internal/model"
)

// fixedMeasure renders every bubble 10 wide, 3 tall.
func fixedMeasure(model.Milestone) (int, int) { return 10, 3 }

func TestComputeEmpty(t *testing.T) {
	l := Compute(nil, fixedMeasure, DefaultOptions(80))
	if len(l.Boxes) != 0 || l.Height != 0 {
		t.Fatalf("empty levels should yield an empty layout: %+v", l)
	}
}

func TestComputeSingleBubbleCentered(t *testing.T) {
	set := []model.Milestone{ms("m1", nil, 0)}
	l := Compute(Assign(set), fixedMeasure, DefaultOptions(80))
	b, ok := l.Boxes["m1"]
	if !ok {
		t.Fatalf("missing box for m1")
	}
	if b.X != (80-10)/2 || b.Y != 0 {
		t.Fatalf("box = %+v, want centered at y=0", b)
	}
	if l.Height != 3 {
		t.Fatalf("height = %d", l.Height)
	}
	// Single root, no children: no connector lines.
	if lines := Connectors(set, l, DefaultOptions(80)); len(lines) != 0 {
		t.Fatalf("expected no connectors, got %+v", lines)
	}
}

func TestComputeRowsAndGaps(t *testing.T) {
	set := []model.Milestone{
		ms("m1", nil, 0),
		ms("m2", strPtr("m1"), 1),
		ms("m3", strPtr("m1"), 2),
	}
	opts := DefaultOptions(40)
	l := Compute(Assign(set), fixedMeasure, opts)

	root := l.Boxes["m1"]
	if root.Y != 0 {
		t.Fatalf("root row must start at y=0, got %+v", root)
	}
	// Second row sits below the first plus the vertical gap.
	child := l.Boxes["m2"]
	if child.Y != 3+opts.VGap {
		t.Fatalf("child row y = %d, want %d", child.Y, 3+opts.VGap)
	}
	// m2 was created before m3, so it sits to the left.
	if l.Boxes["m2"].X >= l.Boxes["m3"].X {
		t.Fatalf("within-row order wrong: m2=%+v m3=%+v", l.Boxes["m2"], l.Boxes["m3"])
	}
	if gap := l.Boxes["m3"].X - (l.Boxes["m2"].X + 10); gap != opts.HGap {
		t.Fatalf("horizontal gap = %d, want %d", gap, opts.HGap)
	}
}

func TestConnectorsRunBottomCenterToTopCenter(t *testing.T) {
	set := []model.Milestone{
		ms("m1", nil, 0),
		ms("m2", strPtr("m1"), 1),
	}
	opts := DefaultOptions(40)
	l := Compute(Assign(set), fixedMeasure, opts)
	lines := Connectors(set, l, opts)
	if len(lines) != 1 {
		t.Fatalf("expected 1 connector, got %d", len(lines))
	}
	ln := lines[0]
	pb, cb := l.Boxes["m1"], l.Boxes["m2"]
	if ln.X1 != pb.X+pb.W/2 || ln.X2 != cb.X+cb.W/2 {
		t.Fatalf("connector not centered: %+v (parent %+v child %+v)", ln, pb, cb)
	}
	if ln.Y1 != pb.Y+pb.H-1+opts.ConnectorInset {
		t.Fatalf("connector start y = %d", ln.Y1)
	}
	if ln.Y2 != cb.Y-opts.ConnectorInset {
		t.Fatalf("connector end y = %d", ln.Y2)
	}
	if ln.FromID != "m1" || ln.ToID != "m2" {
		t.Fatalf("connector ids: %+v", ln)
	}
}

func TestConnectorsSkipDanglingParents(t *testing.T) {
	set := []model.Milestone{
		ms("m1", nil, 0),
		ms("m2", strPtr("m1"), 1),
		ms("m3", strPtr("gone"), 2),
	}
	opts := DefaultOptions(60)
	l := Compute(Assign(set), fixedMeasure, opts)
	lines := Connectors(set, l, opts)
	if len(lines) != 1 {
		t.Fatalf("dangling parent must not produce a connector: %+v", lines)
	}
}

func TestComputeWideRowGrowsCanvas(t *testing.T) {
	// Five 10-wide bubbles with 4-gap need 66 cells; container is 30.
	var set []model.Milestone
	for i := 0; i < 5; i++ {
		set = append(set, ms(string(rune('a'+i)), nil, i))
	}
	opts := DefaultOptions(30)
	l := Compute(Assign(set), fixedMeasure, opts)
	if l.Width != 66 {
		t.Fatalf("canvas width = %d, want 66", l.Width)
	}
	if l.Boxes["a"].X != 0 {
		t.Fatalf("overflowing row should start at x=0, got %+v", l.Boxes["a"])
	}
}

func TestComputeVariableHeights(t *testing.T) {
	set := []model.Milestone{
		ms("short", nil, 0),
		ms("tall", nil, 1),
		ms("kid", strPtr("tall"), 2),
	}
	measure := func(m model.Milestone) (int, int) {
		if m.ID == "tall" {
			return 10, 5
		}
		return 10, 3
	}
	opts := DefaultOptions(60)
	l := Compute(Assign(set), measure, opts)
	// The second row clears the tallest bubble of the first.
	if got := l.Boxes["kid"].Y; got != 5+opts.VGap {
		t.Fatalf("kid y = %d, want %d", got, 5+opts.VGap)
	}
}
