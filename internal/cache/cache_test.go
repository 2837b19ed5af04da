package cache

import (
	"context"
	"testing"
	"time"

	"milepost-cli/internal/model"
)

func openTest(t *testing.T) (*Cache, string) {
	t.Helper()
	dir := t.TempDir()
	c, err := Open(context.Background(), dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c, dir
}

func TestPutGetDeleteTask(t *testing.T) {
	c, _ := openTest(t)
	ctx := context.Background()

	task := model.Task{ID: "t1", Title: "Write report", Priority: 2, Creator: "alice"}
	if err := c.PutTask(ctx, task); err != nil {
		t.Fatalf("PutTask: %v", err)
	}

	got, ok, err := c.Task(ctx, "t1")
	if err != nil || !ok {
		t.Fatalf("Task: ok=%v err=%v", ok, err)
	}
	if got.Title != "Write report" || got.Creator != "alice" {
		t.Fatalf("unexpected task: %+v", got)
	}

	// Upsert replaces.
	task.Title = "Write the report"
	if err := c.PutTask(ctx, task); err != nil {
		t.Fatalf("PutTask update: %v", err)
	}
	all, err := c.Tasks(ctx)
	if err != nil {
		t.Fatalf("Tasks: %v", err)
	}
	if len(all) != 1 || all[0].Title != "Write the report" {
		t.Fatalf("unexpected tasks: %+v", all)
	}

	if err := c.DeleteTask(ctx, "t1"); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	if _, ok, _ := c.Task(ctx, "t1"); ok {
		t.Fatalf("task should be gone")
	}
	// Deleting again is a no-op, not an error.
	if err := c.DeleteTask(ctx, "t1"); err != nil {
		t.Fatalf("repeat DeleteTask: %v", err)
	}
}

func TestMilestonesForTaskOrderedByCreation(t *testing.T) {
	c, _ := openTest(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for _, m := range []model.Milestone{
		{ID: "m2", TaskID: "t1", Title: "second", CreatedAt: base.Add(time.Hour)},
		{ID: "m1", TaskID: "t1", Title: "first", CreatedAt: base},
		{ID: "mx", TaskID: "t2", Title: "other task", CreatedAt: base},
	} {
		if err := c.PutMilestone(ctx, m); err != nil {
			t.Fatalf("PutMilestone: %v", err)
		}
	}

	ms, err := c.MilestonesForTask(ctx, "t1")
	if err != nil {
		t.Fatalf("MilestonesForTask: %v", err)
	}
	if len(ms) != 2 || ms[0].ID != "m1" || ms[1].ID != "m2" {
		t.Fatalf("unexpected milestones: %+v", ms)
	}

	if err := c.DeleteMilestonesForTask(ctx, "t1"); err != nil {
		t.Fatalf("DeleteMilestonesForTask: %v", err)
	}
	ms, _ = c.MilestonesForTask(ctx, "t1")
	if len(ms) != 0 {
		t.Fatalf("milestones should be cleared, got %+v", ms)
	}
	other, _ := c.MilestonesForTask(ctx, "t2")
	if len(other) != 1 {
		t.Fatalf("other task's milestones must be untouched")
	}
}

func TestMetaRoundTrip(t *testing.T) {
	c, _ := openTest(t)
	ctx := context.Background()

	if _, ok, err := c.GetMeta(ctx, MetaUsername); err != nil || ok {
		t.Fatalf("unset meta: ok=%v err=%v", ok, err)
	}
	if err := c.PutMeta(ctx, MetaUsername, "alice"); err != nil {
		t.Fatalf("PutMeta: %v", err)
	}
	v, ok, err := c.GetMeta(ctx, MetaUsername)
	if err != nil || !ok || v != "alice" {
		t.Fatalf("GetMeta: %q ok=%v err=%v", v, ok, err)
	}

	cats := []string{"work", "home"}
	if err := c.PutMetaJSON(ctx, MetaCategories, cats); err != nil {
		t.Fatalf("PutMetaJSON: %v", err)
	}
	var got []string
	ok, err = c.GetMetaJSON(ctx, MetaCategories, &got)
	if err != nil || !ok {
		t.Fatalf("GetMetaJSON: ok=%v err=%v", ok, err)
	}
	if len(got) != 2 || got[0] != "work" {
		t.Fatalf("unexpected categories: %v", got)
	}
}

func TestCloseThenDestroy(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(context.Background(), dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := c.PutMeta(context.Background(), "k", "v"); err != nil {
		t.Fatalf("PutMeta: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := Destroy(dir); err != nil {
		t.Fatalf("Destroy after Close: %v", err)
	}

	// Reopening yields an empty store.
	c2, err := Open(context.Background(), dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer c2.Close()
	if _, ok, _ := c2.GetMeta(context.Background(), "k"); ok {
		t.Fatalf("destroyed store should be empty")
	}
}
