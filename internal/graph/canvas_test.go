package graph

import (
	"strings"
	"testing"
	"time"

	"milepost-cli/internal/model"
)

func renderSet(t *testing.T, ms []model.Milestone, width int, selected string) *Canvas {
	t.Helper()
	levels := Assign(ms)
	opts := DefaultOptions(width)
	layout := Compute(levels, MeasureBubble(width), opts)
	return Render(ms, levels, layout, opts, selected)
}

func TestRenderSingleBubble(t *testing.T) {
	ms := []model.Milestone{{ID: "m1", Title: "kickoff", CreatedAt: time.Unix(1, 0)}}
	out := renderSet(t, ms, 40, "").String()

	if !strings.Contains(out, "○ kickoff") {
		t.Fatalf("missing bubble label:\n%s", out)
	}
	if !strings.Contains(out, "┌") || !strings.Contains(out, "┘") {
		t.Fatalf("missing border runes:\n%s", out)
	}
}

func TestRenderFinishedGlyph(t *testing.T) {
	done := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	ms := []model.Milestone{{ID: "m1", Title: "ship", FinishDate: &done, CreatedAt: time.Unix(1, 0)}}
	out := renderSet(t, ms, 40, "").String()
	if !strings.Contains(out, "✓ ship") {
		t.Fatalf("finished milestone should carry the check glyph:\n%s", out)
	}
}

func TestRenderConnectsParentAndChild(t *testing.T) {
	ms := []model.Milestone{
		{ID: "m1", Title: "parent", CreatedAt: time.Unix(1, 0)},
		{ID: "m2", Title: "child", TaskID: "t", ParentID: strPtr("m1"), CreatedAt: time.Unix(2, 0)},
	}
	levels := Assign(ms)
	opts := DefaultOptions(40)
	layout := Compute(levels, MeasureBubble(40), opts)
	if got := len(Connectors(ms, layout, opts)); got != 1 {
		t.Fatalf("connector count = %d, want 1", got)
	}
	out := Render(ms, levels, layout, opts, "").String()
	// Parent row renders above the child row.
	pi := strings.Index(out, "parent")
	ci := strings.Index(out, "child")
	if pi < 0 || ci < 0 || pi > ci {
		t.Fatalf("row order wrong:\n%s", out)
	}
}

func TestRenderSelectedBubbleUsesHeavyBorder(t *testing.T) {
	ms := []model.Milestone{
		{ID: "m1", Title: "a", CreatedAt: time.Unix(1, 0)},
		{ID: "m2", Title: "b", CreatedAt: time.Unix(2, 0)},
	}
	out := renderSet(t, ms, 40, "m2").String()
	if !strings.ContainsRune(out, '┏') {
		t.Fatalf("selected bubble should use the heavy border:\n%s", out)
	}
	if !strings.ContainsRune(out, '┌') {
		t.Fatalf("unselected bubble should keep the light border:\n%s", out)
	}
}

func TestRenderTruncatesLongTitles(t *testing.T) {
	ms := []model.Milestone{{ID: "m1", Title: strings.Repeat("x", 100), CreatedAt: time.Unix(1, 0)}}
	canvas := renderSet(t, ms, 30, "")
	for _, row := range canvas.Rows() {
		if len([]rune(row)) > 30 {
			t.Fatalf("row wider than canvas: %q", row)
		}
	}
	if !strings.ContainsRune(canvas.String(), '…') {
		t.Fatalf("long title should be truncated with an ellipsis")
	}
}

func TestDrawConnectorElbow(t *testing.T) {
	c := NewCanvas(20, 7)
	c.DrawConnector(Line{X1: 2, Y1: 1, X2: 10, Y2: 5})
	out := c.String()
	if !strings.ContainsRune(out, '└') || !strings.ContainsRune(out, '┐') {
		t.Fatalf("rightward elbow should use └ and ┐:\n%s", out)
	}
	if !strings.ContainsRune(out, '─') {
		t.Fatalf("elbow should have a horizontal run:\n%s", out)
	}
}
